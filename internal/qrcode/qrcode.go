// Package qrcode renders verification URLs as PNG data URLs.
package qrcode

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Renderer encodes content as a QR PNG.
type Renderer struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewRenderer returns a Renderer producing size x size images.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = 256
	}
	return &Renderer{size: size, level: goqrcode.Medium}
}

// Render returns content as a "data:image/png;base64," URL.
func (r *Renderer) Render(ctx context.Context, content string) (string, error) {
	if content == "" {
		return "", errors.New("qrcode: empty content")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	png, err := goqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
