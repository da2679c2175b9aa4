package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dilshand3/SubsFlow/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, name, description, price, duration::text AS duration,
		total_capacity, subscriptions_left, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, description string, price decimal.Decimal, durationDays, totalCapacity int) (*Plan, error) {
	query := `
		INSERT INTO plans (name, description, price, duration, total_capacity, subscriptions_left)
		VALUES ($1, $2, $3, make_interval(days => $4), $5, $5)
		RETURNING ` + planColumns

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, name, description, price, durationDays, totalCapacity)
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) Update(ctx context.Context, id string, req EditPlanRequest) (*Plan, error) {
	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Name != nil {
		setParts = append(setParts, "name = "+arg(*req.Name))
	}
	if req.Description != nil {
		setParts = append(setParts, "description = "+arg(*req.Description))
	}
	if req.Price != nil {
		setParts = append(setParts, "price = "+arg(*req.Price))
	}
	if req.DurationDays != nil {
		setParts = append(setParts, "duration = make_interval(days => "+arg(*req.DurationDays)+"::int)")
	}
	if req.TotalCapacity != nil {
		setParts = append(setParts, "total_capacity = "+arg(*req.TotalCapacity))
	}
	if req.Status != nil {
		setParts = append(setParts, "status = "+arg(*req.Status))
	}

	query := `UPDATE plans SET ` + strings.Join(setParts, ", ") +
		` WHERE id = ` + arg(id) + ` RETURNING ` + planColumns

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) HasSubscriptions(ctx context.Context, id string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE plan_id = $1)`, id)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *repository) ListActive(ctx context.Context) ([]Plan, error) {
	query := `SELECT ` + planColumns + `
		FROM plans
		WHERE status = 'active' AND subscriptions_left > 0
		ORDER BY created_at DESC`

	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, query)
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Plan, error) {
	query := `SELECT ` + planColumns + `
		FROM plans
		ORDER BY created_at DESC`

	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, query)
	if err != nil {
		return nil, err
	}

	return plans, nil
}
