package audit

import "context"

type Repository interface {
	Create(ctx context.Context, customerID string, event EventType, description string, attempt AttemptContext) (*Entry, error)
	UpdateOutcome(ctx context.Context, id string, event EventType, description string) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	History(ctx context.Context, customerID string) ([]HistoryEntry, error)
}
