package audit

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	PurchaseAttempt         EventType = "PURCHASE_ATTEMPT"
	PurchaseSuccess         EventType = "PURCHASE_SUCCESS"
	PurchaseFailed          EventType = "PURCHASE_FAILED"
	PurchaseResolvedByAdmin EventType = "PURCHASE_RESOLVED_BY_ADMIN"
	PlanChangeAttempt       EventType = "PLAN_CHANGE_ATTEMPT"
	UpgradeSuccess          EventType = "UPGRADE_SUCCESS"
	DowngradeSuccess        EventType = "DOWNGRADE_SUCCESS"
	PlanChangeSkipped       EventType = "PLAN_CHANGE_SKIPPED"
	PlanChangeInterrupted   EventType = "PLAN_CHANGE_INTERRUPTED"
	SubscriptionCancelled   EventType = "SUBSCRIPTION_CANCELLED"
)

type Entry struct {
	ID          string          `db:"id" json:"id"`
	CustomerID  string          `db:"customer_id" json:"customer_id"`
	EventType   EventType       `db:"event_type" json:"event_type"`
	Description string          `db:"description" json:"description"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// AttemptContext is the one canonical metadata shape written for every
// purchase/change attempt.
type AttemptContext struct {
	PlanID         string `json:"planId"`
	CurrentSubID   string `json:"currentSubId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

var ErrNoPlanInMetadata = errors.New("metadata carries no plan id")

// DecodeAttemptContext reads an entry's metadata back into the canonical
// shape. Rows written before the canonical shape existed used several
// spellings for the plan id; the probe below is import-compatibility only,
// new rows always carry "planId".
func DecodeAttemptContext(raw json.RawMessage) (AttemptContext, error) {
	var m map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return AttemptContext{}, err
		}
	}

	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := m[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	attempt := AttemptContext{
		PlanID:         str("planId", "newPlanId", "plan_id"),
		CurrentSubID:   str("currentSubId", "current_sub_id"),
		IdempotencyKey: str("idempotencyKey", "idempotency_key"),
	}
	if attempt.PlanID == "" {
		return attempt, ErrNoPlanInMetadata
	}

	return attempt, nil
}

// HistoryEntry is an audit row joined against the customer and, via the
// metadata plan id, the plan it concerned.
type HistoryEntry struct {
	ID            string           `db:"id" json:"id"`
	CustomerID    string           `db:"customer_id" json:"customer_id"`
	EventType     EventType        `db:"event_type" json:"event_type"`
	Description   string           `db:"description" json:"description"`
	Metadata      json.RawMessage  `db:"metadata" json:"metadata"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	CustomerName  *string          `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail *string          `db:"customer_email" json:"customer_email,omitempty"`
	PlanName      *string          `db:"plan_name" json:"plan_name,omitempty"`
	PlanPrice     *decimal.Decimal `db:"plan_price" json:"plan_price,omitempty"`
}
