package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"inventory-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrCategoryNameExists = errors.New("store: category name already exists")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrUserNotFound       = errors.New("store: user not found")
	ErrUserEmailExists    = errors.New("store: user email already exists")
	ErrInvalidToggleKind  = errors.New("store: invalid toggle kind")
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements the CategoryStorer, ProductStorer and UserStorer
// interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: Migrate failed: %w", err)
	}
	return nil
}

// PingContext checks that the database is reachable.
func (s *PostgresStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return strings.Contains(pqErr.Constraint, column) || strings.Contains(pqErr.Detail, "Key ("+column+")")
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// flagColumn maps a toggle kind onto its column. Never build the column from input.
func flagColumn(kind domain.ToggleKind) (string, error) {
	switch kind {
	case domain.ToggleToBuy:
		return "tobuy", nil
	case domain.ToggleInCart:
		return "incart", nil
	default:
		return "", ErrInvalidToggleKind
	}
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		ORDER BY name ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, name;
	`
	var created domain.Category
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&created.ID, &created.Name); err != nil {
		if isUniqueViolation(err, "name") {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &created, nil
}

// --- ProductStorer Implementation ---

const productColumns = `p.id, p.title, p.category_id, p.image_url, p.image_label, p.tobuy, p.incart, c.name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var categoryName sql.NullString
	if err := row.Scan(
		&p.ID, &p.Title, &p.CategoryID, &p.ImageURL, &p.ImageLabel,
		&p.ToBuy, &p.InCart, &categoryName,
	); err != nil {
		return nil, err
	}
	if categoryName.Valid {
		p.Category = &domain.CategoryRef{Name: categoryName.String}
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1;
	`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return p, nil
}

// CreateProduct inserts the product and returns it with its server-assigned id
// and joined category.
func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		WITH inserted AS (
			INSERT INTO products (title, category_id, image_url, image_label, tobuy, incart)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, title, category_id, image_url, image_label, tobuy, incart
		)
		SELECT p.id, p.title, p.category_id, p.image_url, p.image_label, p.tobuy, p.incart, c.name
		FROM inserted p
		LEFT JOIN categories c ON c.id = p.category_id;
	`
	created, err := scanProduct(s.db.QueryRowContext(ctx, query,
		product.Title, product.CategoryID, product.ImageURL, product.ImageLabel,
		product.ToBuy, product.InCart,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return created, nil
}

// SetProductFlag writes value into the flag selected by kind. The write is
// blind: it does not check the previous value.
func (s *PostgresStore) SetProductFlag(ctx context.Context, id int64, kind domain.ToggleKind, value bool) error {
	column, err := flagColumn(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE products SET %s = $1 WHERE id = $2;`, column)
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("store: SetProductFlag failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetProductFlag failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ClearCart resets both flags of every given product in one statement.
func (s *PostgresStore) ClearCart(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE products SET tobuy = FALSE, incart = FALSE WHERE id = ANY($1);`
	result, err := s.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("store: ClearCart failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: ClearCart failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// --- UserStorer Implementation ---

const userColumns = `id, email, password_hash, display_name, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns + `;
	`
	created, err := scanUser(s.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.DisplayName))
	if err != nil {
		if isUniqueViolation(err, "email") {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByID failed to scan row: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error) {
	query := `
		UPDATE users
		SET display_name = $1, email = $2
		WHERE id = $3
		RETURNING ` + userColumns + `;
	`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, displayName, email, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err, "email") {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("store: UpdateUserProfile failed to scan row: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2;`
	result, err := s.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("store: UpdateUserPassword failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: UpdateUserPassword failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
