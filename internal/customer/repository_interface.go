package customer

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	FindByID(ctx context.Context, id string) (*Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
