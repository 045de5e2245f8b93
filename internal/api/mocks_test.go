package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
	"inventory-service/internal/view"
)

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context) []*domain.Product {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Product)
}

func (m *MockProductService) ListCategories(ctx context.Context) []domain.Category {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category)
}

func (m *MockProductService) ListStoredImages(ctx context.Context) []string {
	args := m.Called(ctx)
	return args.Get(0).([]string)
}

func (m *MockProductService) View(ctx context.Context, query string, page domain.PageType) view.View {
	args := m.Called(ctx, query, page)
	return args.Get(0).(view.View)
}

func (m *MockProductService) AddProduct(ctx context.Context, in inventory.AddProductInput) domain.Result {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Result)
}

func (m *MockProductService) ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) domain.Result {
	args := m.Called(ctx, id, kind, current)
	return args.Get(0).(domain.Result)
}

func (m *MockProductService) ClearCart(ctx context.Context, ids []int64) domain.Result {
	args := m.Called(ctx, ids)
	return args.Get(0).(domain.Result)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) domain.Result {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Result)
}

func (m *MockProductService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error) {
	args := m.Called(ctx, id, displayName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	return m.Called(ctx, token, password, confirm).Error(0)
}
