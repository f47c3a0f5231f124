package proof

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const tokenBytes = 32

// Issuer mints delivery-proof tokens and builds their verification URLs.
type Issuer struct {
	baseURL string
	rand    io.Reader
}

// NewIssuer returns an Issuer whose URLs are rooted at baseURL.
func NewIssuer(baseURL string) *Issuer {
	return &Issuer{baseURL: strings.TrimRight(baseURL, "/"), rand: rand.Reader}
}

// Mint returns a fresh unguessable token.
func (i *Issuer) Mint() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(i.rand, b); err != nil {
		return "", fmt.Errorf("mint delivery token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerificationURL is the content encoded in the QR image.
func (i *Issuer) VerificationURL(orderID int64, token string) string {
	return fmt.Sprintf("%s/orders/%d/verify?token=%s", i.baseURL, orderID, url.QueryEscape(token))
}

// Equal compares a presented token with the stored one in constant time.
// A nil stored token never matches.
func Equal(stored *string, presented string) bool {
	if stored == nil || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
