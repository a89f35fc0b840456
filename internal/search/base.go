package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// KeyRotationCallback is told when a provider switches to another API key.
// Indices are 1-based.
type KeyRotationCallback func(fromIndex, toIndex, totalKeys int)

// BaseClient holds what keyed providers share: an HTTP client and a key pool.
type BaseClient struct {
	HTTPClient    *http.Client
	KeyRotator    *config.KeyRotator
	ProviderName  string
	OnKeyRotation KeyRotationCallback
}

// NewBaseClient creates a base client with the default search timeout.
func NewBaseClient(keyRotator *config.KeyRotator, providerName string) *BaseClient {
	return &BaseClient{
		HTTPClient:   logging.NewHTTPClient(constants.DefaultSearchTimeout),
		KeyRotator:   keyRotator,
		ProviderName: providerName,
	}
}

// SetKeyRotationCallback sets a callback for key rotation events.
func (b *BaseClient) SetKeyRotationCallback(callback KeyRotationCallback) {
	b.OnKeyRotation = callback
}

// GetCurrentKey returns the current API key.
func (b *BaseClient) GetCurrentKey() string {
	return b.KeyRotator.GetCurrentKey()
}

// RotateKey switches to the next key and notifies the callback.
func (b *BaseClient) RotateKey() error {
	oldIndex := b.KeyRotator.GetCurrentIndex()
	if _, err := b.KeyRotator.Rotate(); err != nil {
		return err
	}

	logging.Info("rotated search api key",
		"provider", b.ProviderName,
		"key", b.KeyRotator.GetCurrentIndex()+1,
		"total", b.KeyRotator.GetKeyCount())
	if b.OnKeyRotation != nil {
		b.OnKeyRotation(oldIndex+1, b.KeyRotator.GetCurrentIndex()+1, b.KeyRotator.GetKeyCount())
	}
	return nil
}

// SearchFunc performs a single search attempt.
type SearchFunc[T any] func(ctx context.Context, query string) (T, error)

// SearchWithRetry runs doSearch, moving to the next key whenever the API
// answers with a rotatable status. With one key or none it makes a single
// attempt.
func SearchWithRetry[T any](
	ctx context.Context,
	query string,
	base *BaseClient,
	doSearch SearchFunc[T],
) (T, error) {
	var zero T

	if base.KeyRotator.GetKeyCount() <= 1 {
		return doSearch(ctx, query)
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("search cancelled: %w", err)
		}

		resp, err := doSearch(ctx, query)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !ShouldRotateKey(apiErr.StatusCode) {
			return zero, err
		}

		if rotateErr := base.RotateKey(); rotateErr != nil {
			return zero, fmt.Errorf("%w (no more %s API keys available)", err, base.ProviderName)
		}

		if attempt < MaxRetryAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("search cancelled: %w", ctx.Err())
			case <-time.After(CalculateBackoff(attempt)):
			}
		}
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", MaxRetryAttempts, lastErr)
}
