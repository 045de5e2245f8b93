package client

import (
	"context"

	"github.com/stretchr/testify/mock"

	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
)

// MockRemote is a mock type for the Remote interface.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	var products []*domain.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]*domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockRemote) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if args.Get(0) != nil {
		categories = args.Get(0).([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockRemote) AddProduct(ctx context.Context, in inventory.AddProductInput) (*domain.Product, error) {
	args := m.Called(ctx, in)
	var p *domain.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Product)
	}
	return p, args.Error(1)
}

func (m *MockRemote) ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) error {
	args := m.Called(ctx, id, kind, current)
	return args.Error(0)
}

func (m *MockRemote) ClearCart(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockRemote) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
