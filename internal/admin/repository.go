package admin

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers WHERE role = 'customer') AS total_users,
			s.active_subs,
			s.total_revenue,
			p.total_plans,
			p.available_plans,
			p.fully_booked_plans
		FROM (
			SELECT
				COUNT(*) FILTER (WHERE sub.status = 'active') AS active_subs,
				COALESCE(SUM(pl.price), 0) AS total_revenue
			FROM subscriptions sub
			JOIN plans pl ON sub.plan_id = pl.id
		) s,
		(
			SELECT
				COUNT(*) AS total_plans,
				COUNT(*) FILTER (WHERE status = 'active' AND subscriptions_left > 0) AS available_plans,
				COUNT(*) FILTER (WHERE status = 'active' AND subscriptions_left = 0) AS fully_booked_plans
			FROM plans
		) p
	`

	var stats DashboardStats
	err := r.db.GetContext(ctx, &stats, query)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
