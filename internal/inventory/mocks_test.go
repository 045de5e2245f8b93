package inventory

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"inventory-service/internal/domain"
	"inventory-service/internal/storage"
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryStorer) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	var products []*domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]*domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) SetProductFlag(ctx context.Context, id int64, kind domain.ToggleKind, value bool) error {
	return m.Called(ctx, id, kind, value).Error(0)
}

func (m *MockProductStorer) ClearCart(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockBucket is a mock implementation of storage.Bucket
type MockBucket struct {
	mock.Mock
}

func (m *MockBucket) Name() string { return "product-images" }

func (m *MockBucket) Upload(ctx context.Context, name string, r io.Reader, opts storage.UploadOptions) (storage.Object, error) {
	args := m.Called(ctx, name, r, opts)
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockBucket) List(ctx context.Context, opts storage.ListOptions) ([]storage.Object, error) {
	args := m.Called(ctx, opts)
	var objects []storage.Object
	if arg0 := args.Get(0); arg0 != nil {
		objects = arg0.([]storage.Object)
	}
	return objects, args.Error(1)
}

func (m *MockBucket) PublicURL(name string) string {
	return "http://localhost:8080/storage/v1/object/public/product-images/" + name
}
