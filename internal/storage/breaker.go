package storage

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerUploader stops calling the object store after repeated failures so
// that requests fail fast while it is unavailable.
type BreakerUploader struct {
	next Uploader
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreakerUploader(next Uploader, logger *zap.Logger) *BreakerUploader {
	settings := gobreaker.Settings{
		Name:        "object-storage",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerUploader{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerUploader) Upload(ctx context.Context, file File) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Upload(ctx, file)
	})
}
