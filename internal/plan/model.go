package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Plan struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Description       string          `db:"description" json:"description"`
	Price             decimal.Decimal `db:"price" json:"price"`
	Duration          string          `db:"duration" json:"duration"`
	TotalCapacity     int             `db:"total_capacity" json:"total_capacity"`
	SubscriptionsLeft int             `db:"subscriptions_left" json:"subscriptions_left"`
	Status            Status          `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

type CreatePlanRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	DurationDays  int             `json:"duration_days"`
	TotalCapacity int             `json:"total_capacity"`
}

// EditPlanRequest is a partial update; only supplied fields change.
type EditPlanRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	DurationDays  *int             `json:"duration_days,omitempty"`
	TotalCapacity *int             `json:"total_capacity,omitempty"`
	Status        *Status          `json:"status,omitempty"`
}
