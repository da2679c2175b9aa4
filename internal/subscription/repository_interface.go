package subscription

import (
	"context"

	"github.com/dilshand3/SubsFlow/internal/audit"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Subscription, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Subscription, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Subscription, error)

	Purchase(ctx context.Context, customerID, planID, idempotencyKey, auditLogID string) (*Subscription, error)
	Cancel(ctx context.Context, customerID, subscriptionID string) (*Subscription, error)
	Switch(ctx context.Context, customerID, currentSubID, newPlanID, idempotencyKey, auditLogID string) (*Subscription, audit.EventType, error)
	Reconcile(ctx context.Context, adminID, customerID, targetPlanID, currentSubID, idempotencyKey, auditLogID string) (*Subscription, error)
}
