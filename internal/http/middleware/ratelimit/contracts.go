package ratelimit

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Unlimited lets every request through.
type Unlimited struct{}

// Allow always returns true.
func (Unlimited) Allow(string) bool { return true }
