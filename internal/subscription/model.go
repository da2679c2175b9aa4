package subscription

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	// StatusExpired is reserved; nothing transitions to it yet.
	StatusExpired Status = "expired"
)

type Subscription struct {
	ID             string    `db:"id" json:"id"`
	CustomerID     string    `db:"customer_id" json:"customer_id"`
	PlanID         string    `db:"plan_id" json:"plan_id"`
	Status         Status    `db:"status" json:"status"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// IdempotencyKey identifies one logical purchase intent; the same customer
// buying the same plan always derives the same key.
func IdempotencyKey(customerID, planID string) string {
	return customerID + "_" + planID
}

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanSoldOut          = errors.New("plan is fully booked")
	ErrAlreadySubscribed    = errors.New("customer already has an active subscription")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAlreadyCancelled     = errors.New("subscription is not active")
	ErrSamePlan             = errors.New("new plan equals the current plan")
	ErrDuplicateKey         = errors.New("duplicate idempotency key")
)

// DuplicatePurchaseError is the conflict returned when an idempotency key is
// already taken; it carries the existing row so the caller sees what the
// first attempt produced instead of a bare error.
type DuplicatePurchaseError struct {
	Existing *Subscription
}

func (e *DuplicatePurchaseError) Error() string {
	return fmt.Sprintf("subscription already exists for idempotency key %s", e.Existing.IdempotencyKey)
}
