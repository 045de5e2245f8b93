package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"inventory-service/internal/domain"
)

type categoryRecord struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

func (categoryRecord) TableName() string { return "categories" }

type productRecord struct {
	ID         int64   `gorm:"primaryKey"`
	Title      string  `gorm:"size:255;not null"`
	CategoryID int64   `gorm:"not null;index"`
	ImageURL   *string `gorm:"column:image_url"`
	ImageLabel *string `gorm:"column:image_label"`
	ToBuy      bool    `gorm:"column:tobuy;not null"`
	InCart     bool    `gorm:"column:incart;not null"`

	Category *categoryRecord `gorm:"foreignKey:CategoryID"`
}

func (productRecord) TableName() string { return "products" }

func (r *productRecord) toDomain() *domain.Product {
	p := &domain.Product{
		ID:         r.ID,
		Title:      r.Title,
		CategoryID: r.CategoryID,
		ImageURL:   r.ImageURL,
		ImageLabel: r.ImageLabel,
		ToBuy:      r.ToBuy,
		InCart:     r.InCart,
	}
	if r.Category != nil {
		p.Category = &domain.CategoryRef{Name: r.Category.Name}
	}
	return p
}

type userRecord struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		CreatedAt:    r.CreatedAt,
	}
}

// GormStore implements the storer interfaces on top of GORM. It backs the
// single-file SQLite mode used for home installs and local development.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && !isMemoryDSN(path) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: failed to create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open sqlite database: %w", err)
	}
	return db, nil
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || len(path) > 5 && path[:5] == "file:"
}

// NewGormStore creates a new GormStore instance.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&categoryRecord{}, &productRecord{}, &userRecord{}); err != nil {
		return fmt.Errorf("store: Migrate failed: %w", err)
	}
	return nil
}

func (s *GormStore) PingContext(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- CategoryStorer Implementation ---

func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var records []categoryRecord
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: ListCategories failed: %w", err)
	}
	categories := make([]domain.Category, 0, len(records))
	for _, r := range records {
		categories = append(categories, domain.Category{ID: r.ID, Name: r.Name})
	}
	return categories, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	rec := categoryRecord{Name: name}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("store: CreateCategory failed: %w", err)
	}
	return &domain.Category{ID: rec.ID, Name: rec.Name}, nil
}

// --- ProductStorer Implementation ---

func (s *GormStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	var records []productRecord
	if err := s.db.WithContext(ctx).Preload("Category").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: ListProducts failed: %w", err)
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

func (s *GormStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	var rec productRecord
	if err := s.db.WithContext(ctx).Preload("Category").First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed: %w", err)
	}
	return rec.toDomain(), nil
}

// CreateProduct checks the category exists, since SQLite does not enforce
// foreign keys unless asked to.
func (s *GormStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var created productRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category categoryRecord
		if err := tx.First(&category, product.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		created = productRecord{
			Title:      product.Title,
			CategoryID: product.CategoryID,
			ImageURL:   product.ImageURL,
			ImageLabel: product.ImageLabel,
			ToBuy:      product.ToBuy,
			InCart:     product.InCart,
		}
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return err
		}
		created.Category = &category
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("store: CreateProduct failed: %w", err)
	}
	return created.toDomain(), nil
}

func (s *GormStore) SetProductFlag(ctx context.Context, id int64, kind domain.ToggleKind, value bool) error {
	column, err := flagColumn(kind)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("store: SetProductFlag failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *GormStore) ClearCart(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(&productRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"tobuy": false, "incart": false})
	if result.Error != nil {
		return 0, fmt.Errorf("store: ClearCart failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&productRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("store: DeleteProduct failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// --- UserStorer Implementation ---

func (s *GormStore) emailTaken(tx *gorm.DB, email string, exceptID int64) (bool, error) {
	var count int64
	err := tx.Model(&userRecord{}).
		Where("lower(email) = lower(?) AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	rec := userRecord{Email: user.Email, PasswordHash: user.PasswordHash, DisplayName: user.DisplayName}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.emailTaken(tx, user.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserEmailExists
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserEmailExists) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("store: CreateUser failed: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByID failed: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *GormStore) UpdateUserProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		taken, err := s.emailTaken(tx, email, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserEmailExists
		}
		rec.DisplayName = displayName
		rec.Email = email
		return tx.Model(&rec).Select("display_name", "email").Updates(&rec).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("store: UpdateUserProfile failed: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *GormStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("store: UpdateUserPassword failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
