package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
	"inventory-service/internal/reconcile"
	"inventory-service/internal/view"
)

// ErrUnknownProduct is returned when a mutation names a product the board
// does not hold.
var ErrUnknownProduct = errors.New("client: product not on board")

// Remote is the subset of the API the board drives.
type Remote interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	AddProduct(ctx context.Context, in inventory.AddProductInput) (*domain.Product, error)
	ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) error
	ClearCart(ctx context.Context, ids []int64) error
	DeleteProduct(ctx context.Context, id int64) error
}

// Board holds the product collection of one UI session. Mutations are sent
// to the remote first; the local collection is patched only once the remote
// confirmed them, so a failed call leaves the board untouched.
type Board struct {
	remote Remote

	mu         sync.RWMutex
	products   []*domain.Product
	categories []domain.Category
}

func NewBoard(remote Remote) *Board {
	return &Board{remote: remote}
}

// Refresh reloads products and categories concurrently.
func (b *Board) Refresh(ctx context.Context) error {
	var (
		products   []*domain.Product
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = b.remote.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = b.remote.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("client: refresh failed: %w", err)
	}

	b.mu.Lock()
	b.products = products
	b.categories = categories
	b.mu.Unlock()
	return nil
}

// Products returns the current collection. Callers must not modify it.
func (b *Board) Products() []*domain.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.products
}

func (b *Board) Categories() []domain.Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.categories
}

// View derives the page for query from the current collection.
func (b *Board) View(query string, page domain.PageType) view.View {
	return view.Derive(b.Products(), query, page)
}

func (b *Board) find(id int64) (*domain.Product, bool) {
	for _, p := range b.Products() {
		if p != nil && p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Toggle flips the flag selected by kind on product id. The value sent is the
// one the board currently shows.
func (b *Board) Toggle(ctx context.Context, id int64, kind domain.ToggleKind) error {
	p, ok := b.find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	current := p.Flag(kind)
	if err := b.remote.ToggleFlag(ctx, id, kind, current); err != nil {
		return err
	}

	b.mu.Lock()
	b.products = reconcile.SetFlag(b.products, id, kind, !current)
	b.mu.Unlock()
	return nil
}

func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.remote.DeleteProduct(ctx, id); err != nil {
		return err
	}

	b.mu.Lock()
	b.products = reconcile.Delete(b.products, id)
	b.mu.Unlock()
	return nil
}

// Add creates a product. When the server does not echo the created row the
// board falls back to a full refresh.
func (b *Board) Add(ctx context.Context, in inventory.AddProductInput) (*domain.Product, error) {
	added, err := b.remote.AddProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	if added == nil {
		return nil, b.Refresh(ctx)
	}

	b.mu.Lock()
	b.products = reconcile.Add(b.products, added)
	b.mu.Unlock()
	return added, nil
}

// ClearCart resets both flags on ids. An empty set is a no-op.
func (b *Board) ClearCart(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := b.remote.ClearCart(ctx, ids); err != nil {
		return err
	}

	b.mu.Lock()
	b.products = reconcile.ClearCart(b.products, ids)
	b.mu.Unlock()
	return nil
}

// CartIDs returns the ids in the cart section of the shopping page for query.
func (b *Board) CartIDs(query string) []int64 {
	inCart := b.View(query, domain.PageShopping).InCart
	ids := make([]int64, 0, len(inCart))
	for _, p := range inCart {
		ids = append(ids, p.ID)
	}
	return ids
}
