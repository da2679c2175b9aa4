package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dilshand3/SubsFlow/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrCustomerNotFound = errors.New("customer not found")

const customerColumns = `id, name, email, password_hash, role, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*Customer, error) {
	query := `
		INSERT INTO customers (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + customerColumns

	var customer Customer
	err := r.db.GetContext(ctx, &customer, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	var customer Customer
	err := r.db.GetContext(ctx, &customer, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`, email)
}
