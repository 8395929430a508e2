package observability

import (
	"context"
	"fmt"
	"time"
)

// DefaultShutdownTimeout bounds the final export when the caller gives none.
const DefaultShutdownTimeout = 10 * time.Second

// Shutdown stops provider, giving pending spans and metrics up to timeout to
// export. Programs call it deferred on exit. A nil provider is a no-op.
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("observability: shutdown: %w", err)
	}
	return nil
}
