package unsubscribe

import (
	"context"

	"mail-unsubscriber/internal/models"
)

// Dispatcher performs the unsubscribe action for a single URL.
// Attempt never fails: every outcome is reported in the result. A request cut short
// by cancelling ctx comes back as a NetworkError; callers check ctx to tell them apart.
type Dispatcher interface {
	Attempt(ctx context.Context, url string) models.DispatchResult
}
