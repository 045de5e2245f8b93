package store

import (
	"context"

	"inventory-service/internal/domain"
)

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	ListCategories(ctx context.Context) ([]domain.Category, error) // ordered by name
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
}

// ProductStorer defines the database operations for products.
// Reads always carry the joined category projection.
type ProductStorer interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error) // ordered by id
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	SetProductFlag(ctx context.Context, id int64, kind domain.ToggleKind, value bool) error
	ClearCart(ctx context.Context, ids []int64) (int64, error) // returns rows affected
	DeleteProduct(ctx context.Context, id int64) error
}

// UserStorer defines the database operations for accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}
