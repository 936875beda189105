package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const storageRetryAttempts = 3

// withStorageRetry runs op with bounded exponential backoff. Storage errors
// during chunk and transcript persistence are usually transient (connection
// blips, failovers); after three attempts the last error surfaces.
func withStorageRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newStorageBackOff(), storageRetryAttempts-1),
		ctx,
	)
	return backoff.Retry(op, policy)
}

func newStorageBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}
