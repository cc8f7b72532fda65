package outbox

import "context"

// Repository persists outbox rows. SaveAll must join the caller's
// transaction; the relay methods run outside any transaction.
type Repository interface {
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns retryable, unpublished events oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry bumps the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// CountPending counts every unpublished event, parked ones included
	CountPending(ctx context.Context) (int64, error)
}
