package subscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const subColumns = `id, customer_id, plan_id, status, start_date, end_date, idempotency_key, created_at, updated_at`

// lockedPlan is the slice of a plan row read under FOR UPDATE.
type lockedPlan struct {
	ID                string          `db:"id"`
	Status            string          `db:"status"`
	SubscriptionsLeft int             `db:"subscriptions_left"`
	Price             decimal.Decimal `db:"price"`
	Duration          string          `db:"duration"`
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscription, error) {
	query := `SELECT ` + subColumns + ` FROM subscriptions WHERE id = $1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// GetByIdempotencyKey returns (nil, nil) when no row bears the key.
func (r *repository) GetByIdempotencyKey(ctx context.Context, key string) (*Subscription, error) {
	query := `SELECT ` + subColumns + ` FROM subscriptions WHERE idempotency_key = $1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// GetActiveByCustomer returns (nil, nil) when the customer holds no active
// subscription.
func (r *repository) GetActiveByCustomer(ctx context.Context, customerID string) (*Subscription, error) {
	query := `SELECT ` + subColumns + `
		FROM subscriptions
		WHERE customer_id = $1 AND status = 'active'
		LIMIT 1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]Subscription, error) {
	query := `SELECT ` + subColumns + `
		FROM subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC`

	subs := []Subscription{}
	err := r.db.SelectContext(ctx, &subs, query, customerID)
	if err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *repository) lockPlan(ctx context.Context, tx *sqlx.Tx, planID string) (*lockedPlan, error) {
	query := `
		SELECT id, status, subscriptions_left, price, duration::text AS duration
		FROM plans
		WHERE id = $1
		FOR UPDATE
	`

	var plan lockedPlan
	err := tx.GetContext(ctx, &plan, query, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) insertSubscription(ctx context.Context, tx *sqlx.Tx, customerID, planID, duration, idempotencyKey string) (*Subscription, error) {
	query := `
		INSERT INTO subscriptions (customer_id, plan_id, status, start_date, end_date, idempotency_key)
		VALUES ($1, $2, 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP + ($3::interval), $4)
		RETURNING ` + subColumns

	var sub Subscription
	err := tx.GetContext(ctx, &sub, query, customerID, planID, duration, idempotencyKey)
	if db.IsUniqueViolation(err, "idempotency_key") {
		return nil, ErrDuplicateKey
	}
	// uniq_subscriptions_customer_active: the customer raced themselves
	// into a second active row on another plan.
	if db.IsUniqueViolation(err, "customer_active") {
		return nil, ErrAlreadySubscribed
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *repository) markAuditOutcome(ctx context.Context, tx *sqlx.Tx, auditLogID string, event audit.EventType, description string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE audit_logs SET event_type = $1, description = $2 WHERE id = $3`,
		event, description, auditLogID,
	)
	return err
}

// Purchase consumes one seat of the plan and records the subscription, all
// under a FOR UPDATE lock on the plan row so concurrent purchases of the
// last seat serialize into one success and one ErrPlanSoldOut.
func (r *repository) Purchase(ctx context.Context, customerID, planID, idempotencyKey, auditLogID string) (*Subscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	plan, err := r.lockPlan(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != "active" {
		return nil, ErrPlanNotFound
	}
	if plan.SubscriptionsLeft <= 0 {
		return nil, ErrPlanSoldOut
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE plans SET subscriptions_left = subscriptions_left - 1, updated_at = NOW() WHERE id = $1`,
		planID,
	)
	if err != nil {
		return nil, err
	}

	sub, err := r.insertSubscription(ctx, tx, customerID, planID, plan.Duration, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if err := r.markAuditOutcome(ctx, tx, auditLogID, audit.PurchaseSuccess, "Subscription activated successfully"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return sub, nil
}

// Cancel marks the customer's subscription cancelled and returns the seat to
// its plan. The cancellation audit entry is written inside the same
// transaction: a returned seat always has its trail.
func (r *repository) Cancel(ctx context.Context, customerID, subscriptionID string) (*Subscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current Subscription
	err = tx.GetContext(ctx, &current,
		`SELECT `+subColumns+` FROM subscriptions WHERE id = $1 AND customer_id = $2 FOR UPDATE`,
		subscriptionID, customerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive {
		return nil, ErrAlreadyCancelled
	}

	var cancelled Subscription
	err = tx.GetContext(ctx, &cancelled,
		`UPDATE subscriptions SET status = 'cancelled', updated_at = NOW() WHERE id = $1 RETURNING `+subColumns,
		subscriptionID,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE plans SET subscriptions_left = subscriptions_left + 1, updated_at = NOW() WHERE id = $1`,
		current.PlanID,
	)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(audit.AttemptContext{
		PlanID:       current.PlanID,
		CurrentSubID: current.ID,
	})
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_logs (customer_id, event_type, description, metadata) VALUES ($1, $2, $3, $4)`,
		customerID, audit.SubscriptionCancelled, "Subscription cancelled by customer", metadata,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &cancelled, nil
}

// Switch atomically replaces the customer's active subscription with one on
// the new plan: the old plan's seat is returned, the new plan's seat is
// taken, seats are conserved across the pair. Returns the terminal audit
// event so callers can distinguish upgrade from downgrade.
func (r *repository) Switch(ctx context.Context, customerID, currentSubID, newPlanID, idempotencyKey, auditLogID string) (*Subscription, audit.EventType, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	var current Subscription
	err = tx.GetContext(ctx, &current,
		`SELECT `+subColumns+` FROM subscriptions WHERE id = $1 AND customer_id = $2 FOR UPDATE`,
		currentSubID, customerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if current.Status != StatusActive {
		return nil, "", ErrAlreadyCancelled
	}
	if current.PlanID == newPlanID {
		return nil, "", ErrSamePlan
	}

	newPlan, err := r.lockPlan(ctx, tx, newPlanID)
	if err != nil {
		return nil, "", err
	}
	if newPlan.Status != "active" {
		return nil, "", ErrPlanNotFound
	}
	if newPlan.SubscriptionsLeft <= 0 {
		return nil, "", ErrPlanSoldOut
	}

	var oldPrice decimal.Decimal
	err = tx.GetContext(ctx, &oldPrice, `SELECT price FROM plans WHERE id = $1`, current.PlanID)
	if err != nil {
		return nil, "", err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE plans SET subscriptions_left = subscriptions_left + 1, updated_at = NOW() WHERE id = $1`,
		current.PlanID,
	)
	if err != nil {
		return nil, "", err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE plans SET subscriptions_left = subscriptions_left - 1, updated_at = NOW() WHERE id = $1`,
		newPlanID,
	)
	if err != nil {
		return nil, "", err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'cancelled', updated_at = NOW() WHERE id = $1`,
		currentSubID,
	)
	if err != nil {
		return nil, "", err
	}

	sub, err := r.insertSubscription(ctx, tx, customerID, newPlanID, newPlan.Duration, idempotencyKey)
	if err != nil {
		return nil, "", err
	}

	event := audit.DowngradeSuccess
	if newPlan.Price.GreaterThan(oldPrice) {
		event = audit.UpgradeSuccess
	}

	if err := r.markAuditOutcome(ctx, tx, auditLogID, event, "Plan switched successfully"); err != nil {
		return nil, "", err
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	return sub, event, nil
}

// Reconcile completes a failed purchase attempt from its audit entry. The
// caller has already established that no subscription bears the idempotency
// key; the unique constraint still backstops a race.
func (r *repository) Reconcile(ctx context.Context, adminID, customerID, targetPlanID, currentSubID, idempotencyKey, auditLogID string) (*Subscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if currentSubID != "" {
		// Only a still-active row returns its seat; the customer may have
		// cancelled on their own since the failed attempt.
		var oldPlanID string
		err = tx.GetContext(ctx, &oldPlanID,
			`SELECT plan_id FROM subscriptions WHERE id = $1 AND status = 'active' FOR UPDATE`,
			currentSubID,
		)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE plans SET subscriptions_left = subscriptions_left + 1, updated_at = NOW() WHERE id = $1`,
				oldPlanID,
			)
			if err != nil {
				return nil, err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE subscriptions SET status = 'cancelled', updated_at = NOW() WHERE id = $1`,
				currentSubID,
			)
			if err != nil {
				return nil, err
			}
		}
	}

	plan, err := r.lockPlan(ctx, tx, targetPlanID)
	if err != nil {
		return nil, err
	}
	if plan.SubscriptionsLeft <= 0 {
		return nil, ErrPlanSoldOut
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE plans SET subscriptions_left = subscriptions_left - 1, updated_at = NOW() WHERE id = $1`,
		targetPlanID,
	)
	if err != nil {
		return nil, err
	}

	sub, err := r.insertSubscription(ctx, tx, customerID, targetPlanID, plan.Duration, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if err := r.markAuditOutcome(ctx, tx, auditLogID, audit.PurchaseResolvedByAdmin, "Resolved manually by admin "+adminID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return sub, nil
}
