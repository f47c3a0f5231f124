package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	t.Parallel()

	var s Store = Noop{}
	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, err := s.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, s.Delete(context.Background(), "k"))
}

func TestRedis_EmptyKey(t *testing.T) {
	t.Parallel()

	s := NewRedis(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	_, err := s.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.Error(t, s.Set(context.Background(), "", nil, 0))
	require.NoError(t, s.Delete(context.Background(), ""))
}

func TestRedis_Unreachable(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedis(client, time.Minute)
	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCacheMiss)
}
