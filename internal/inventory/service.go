// Package inventory is the product store client: every read and mutation the
// front-ends perform goes through Service, which turns failures into
// domain.Result values instead of returning errors.
package inventory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"inventory-service/internal/domain"
	"inventory-service/internal/storage"
	"inventory-service/internal/store"
	"inventory-service/internal/view"
)

// ImageListLimit caps how many stored images are offered for reuse.
const ImageListLimit = 100

var (
	ErrMissingFields     = errors.New("inventory: title and category are required")
	ErrMissingProductID  = errors.New("inventory: product id is required")
	ErrInvalidToggleKind = errors.New("inventory: invalid toggle kind")
)

// AddProductInput is what a user submits to create a product.
type AddProductInput struct {
	Title      string
	CategoryID int64
	Image      domain.ImageSource // nil is treated as domain.NoImage
}

// Service talks to persistence and the image bucket on behalf of the UIs.
type Service struct {
	categories store.CategoryStorer
	products   store.ProductStorer
	bucket     storage.Bucket
	listSort   storage.SortBy
	logger     *zap.Logger
}

// NewService wires the product store client.
func NewService(categories store.CategoryStorer, products store.ProductStorer, bucket storage.Bucket, listSort storage.SortBy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if listSort == "" {
		listSort = storage.SortByName
	}
	return &Service{
		categories: categories,
		products:   products,
		bucket:     bucket,
		listSort:   listSort,
		logger:     logger.Named("inventory"),
	}
}

// ListProducts returns every product ordered by id. It never fails: errors
// are logged and an empty list is returned.
func (s *Service) ListProducts(ctx context.Context) []*domain.Product {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return []*domain.Product{}
	}
	if products == nil {
		return []*domain.Product{}
	}
	return products
}

// ListCategories returns every category ordered by name, or an empty list.
func (s *Service) ListCategories(ctx context.Context) []domain.Category {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", zap.Error(err))
		return []domain.Category{}
	}
	if categories == nil {
		return []domain.Category{}
	}
	return categories
}

// ListStoredImages returns the public URLs of the images in the bucket.
func (s *Service) ListStoredImages(ctx context.Context) []string {
	objects, err := s.bucket.List(ctx, storage.ListOptions{Limit: ImageListLimit, SortBy: s.listSort})
	if err != nil {
		s.logger.Error("failed to list stored images", zap.String("bucket", s.bucket.Name()), zap.Error(err))
		return []string{}
	}
	urls := make([]string, 0, len(objects))
	for _, obj := range objects {
		urls = append(urls, s.bucket.PublicURL(obj.Name))
	}
	return urls
}

// View derives the page view of the current products.
func (s *Service) View(ctx context.Context, query string, page domain.PageType) view.View {
	return view.Derive(s.ListProducts(ctx), query, page)
}

// AddProduct creates a product, uploading its image first when one is given.
// New products start on the shopping list and outside the cart.
func (s *Service) AddProduct(ctx context.Context, in AddProductInput) domain.Result {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.CategoryID == 0 {
		return domain.Fail(ErrMissingFields, "Titre et catégorie requis.")
	}

	product := &domain.Product{
		Title:      title,
		CategoryID: in.CategoryID,
		ToBuy:      true,
		InCart:     false,
	}

	switch img := in.Image.(type) {
	case domain.UploadedImage:
		if img.Content != nil && img.Size > 0 {
			obj, err := s.bucket.Upload(ctx, img.Filename, img.Content, storage.UploadOptions{Overwrite: false})
			if err != nil {
				s.logger.Error("image upload failed",
					zap.String("filename", img.Filename),
					zap.String("bucket", s.bucket.Name()),
					zap.Error(err))
				return domain.Fail(err, "Échec de l'upload de l'image")
			}
			url := s.bucket.PublicURL(obj.Name)
			label := img.Filename
			product.ImageURL = &url
			product.ImageLabel = &label
		}
	case domain.ExistingImage:
		if img.URL != "" {
			url := img.URL
			product.ImageURL = &url
		}
	case domain.NoImage, nil:
	}

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		s.logger.Error("failed to add product", zap.String("title", title), zap.Int64("category_id", in.CategoryID), zap.Error(err))
		if errors.Is(err, store.ErrCategoryNotFound) {
			return domain.Fail(err, "Catégorie introuvable.")
		}
		return domain.Fail(err, "Erreur lors de l'ajout du produit.")
	}

	s.logger.Info("product added", zap.Int64("product_id", created.ID), zap.String("title", created.Title))
	result := domain.OK("Produit ajouté avec succès.")
	result.Product = created
	return result
}

// ToggleFlag sets the flag selected by kind to !current. The write does not
// check that the stored value still equals current.
func (s *Service) ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) domain.Result {
	if id == 0 {
		return domain.Fail(ErrMissingProductID, "ID du produit manquant.")
	}
	if !kind.Valid() {
		return domain.Fail(ErrInvalidToggleKind, "Type de modification invalide.")
	}
	if err := s.products.SetProductFlag(ctx, id, kind, !current); err != nil {
		s.logger.Error("toggle failed", zap.Int64("product_id", id), zap.Stringer("kind", kind), zap.Error(err))
		if errors.Is(err, store.ErrProductNotFound) {
			return domain.Fail(err, "Produit introuvable.")
		}
		return domain.Fail(err, "Erreur lors de la mise à jour du produit.")
	}
	return domain.OK("")
}

// ClearCart takes every given product off the shopping list and out of the
// cart in one update.
func (s *Service) ClearCart(ctx context.Context, ids []int64) domain.Result {
	if len(ids) == 0 {
		return domain.OK("")
	}
	n, err := s.products.ClearCart(ctx, ids)
	if err != nil {
		s.logger.Error("clear cart failed", zap.Int64s("product_ids", ids), zap.Error(err))
		return domain.Fail(err, "Erreur lors de la validation du panier.")
	}
	s.logger.Info("cart cleared", zap.Int("requested", len(ids)), zap.Int64("updated", n))
	return domain.OK("")
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) domain.Result {
	if id == 0 {
		return domain.Fail(ErrMissingProductID, "ID du produit manquant.")
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		s.logger.Error("delete failed", zap.Int64("product_id", id), zap.Error(err))
		if errors.Is(err, store.ErrProductNotFound) {
			return domain.Fail(err, "Produit introuvable.")
		}
		return domain.Fail(err, "Erreur lors de la suppression du produit.")
	}
	return domain.OK("Produit supprimé avec succès.")
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFields
	}
	category, err := s.categories.CreateCategory(ctx, name)
	if err != nil {
		s.logger.Error("failed to create category", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return category, nil
}
