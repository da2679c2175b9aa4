package admin

import "github.com/shopspring/decimal"

// DashboardStats is the aggregate view behind the admin dashboard.
type DashboardStats struct {
	TotalUsers       int             `db:"total_users" json:"total_users"`
	ActiveSubs       int             `db:"active_subs" json:"active_subs"`
	TotalRevenue     decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	TotalPlans       int             `db:"total_plans" json:"total_plans"`
	AvailablePlans   int             `db:"available_plans" json:"available_plans"`
	FullyBookedPlans int             `db:"fully_booked_plans" json:"fully_booked_plans"`
}

type ReconcileRequest struct {
	LogID string `json:"log_id" binding:"required"`
}
