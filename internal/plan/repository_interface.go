package plan

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, name, description string, price decimal.Decimal, durationDays, totalCapacity int) (*Plan, error)
	GetByID(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, id string, req EditPlanRequest) (*Plan, error)
	HasSubscriptions(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]Plan, error)
	ListAll(ctx context.Context) ([]Plan, error)
}
