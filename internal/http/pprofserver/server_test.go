package pprofserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tracknow/internal/config"
	"tracknow/internal/logx"
)

func teapot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestGuard(t *testing.T) {
	t.Parallel()

	basic := func(u, p string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(u+":"+p))
	}

	tests := []struct {
		name   string
		cfg    config.Pprof
		remote string
		auth   string
		want   int
	}{
		{name: "loopback without credentials", remote: "127.0.0.1:12345", want: http.StatusTeapot},
		{name: "remote with nothing configured", remote: "8.8.8.8:54444", auth: basic("", ""), want: http.StatusUnauthorized},
		{name: "remote wrong password", cfg: config.Pprof{User: "u", Pass: "p"}, remote: "8.8.8.8:54444", auth: basic("u", "WRONG"), want: http.StatusUnauthorized},
		{name: "remote missing header", cfg: config.Pprof{User: "u", Pass: "p"}, remote: "8.8.8.8:54444", want: http.StatusUnauthorized},
		{name: "remote correct credentials", cfg: config.Pprof{User: "u", Pass: "p"}, remote: "8.8.8.8:54444", auth: basic("u", "p"), want: http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "http://example/debug/pprof/", nil)
			req.RemoteAddr = tt.remote
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			guard(teapot(), tt.cfg).ServeHTTP(rr, req)

			require.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				require.Equal(t, realm, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestHandler_ServesIndexToLoopback(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example/debug/pprof/", nil)
	req.RemoteAddr = "[::1]:4000"
	rr := httptest.NewRecorder()
	Handler(config.Pprof{}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "goroutine")
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	t.Parallel()

	require.NoError(t, Run(context.Background(), config.Pprof{Enabled: false, Addr: ":0"}, logx.Nop()))
}

func TestIsLoopback(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"127.0.0.1:123": true,
		"127.0.0.1":     true,
		" 127.0.0.1 ":   true,
		"[::1]:123":     true,
		"8.8.8.8:1":     false,
		"not-an-ip:1":   false,
	}
	for in, want := range cases {
		require.Equal(t, want, isLoopback(in), in)
	}
}

func TestSecureEq(t *testing.T) {
	t.Parallel()

	require.False(t, secureEq("a", "ab"))
	require.True(t, secureEq("abc", "abc"))
	require.False(t, secureEq("abc", "abd"))
}
