//go:generate mockgen -source=contracts.go -destination=proof_mocks_test.go -package=proof

package proof

import (
	"context"

	"tracknow/internal/domain"
)

type orderReader interface {
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

// Renderer turns a verification URL into an image data URL.
type Renderer interface {
	Render(ctx context.Context, content string) (string, error)
}
