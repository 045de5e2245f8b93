// Package reconcile patches a local product collection after a remote
// mutation has been confirmed, instead of fetching the whole list again.
//
// Every function returns a new slice. Entries that the mutation does not
// touch are carried over as the same pointers in the same relative order;
// touched entries are replaced by shallow copies. Inputs are never modified.
package reconcile

import "inventory-service/internal/domain"

// SetFlag sets the flag selected by kind on product id to value.
func SetFlag(products []*domain.Product, id int64, kind domain.ToggleKind, value bool) []*domain.Product {
	return patch(products, func(p *domain.Product) *domain.Product {
		if p.ID != id {
			return p
		}
		cp := p.Clone()
		switch kind {
		case domain.ToggleToBuy:
			cp.ToBuy = value
		case domain.ToggleInCart:
			cp.InCart = value
		default:
			return p
		}
		return cp
	})
}

// Toggle flips the flag selected by kind on product id.
func Toggle(products []*domain.Product, id int64, kind domain.ToggleKind) []*domain.Product {
	for _, p := range products {
		if p != nil && p.ID == id {
			return SetFlag(products, id, kind, !p.Flag(kind))
		}
	}
	return patch(products, func(p *domain.Product) *domain.Product { return p })
}

// Delete removes product id.
func Delete(products []*domain.Product, id int64) []*domain.Product {
	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if p != nil && p.ID == id {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Add appends a server-confirmed product. A product already present with the
// same id is replaced in place.
func Add(products []*domain.Product, added *domain.Product) []*domain.Product {
	if added == nil {
		return patch(products, func(p *domain.Product) *domain.Product { return p })
	}
	out := make([]*domain.Product, 0, len(products)+1)
	replaced := false
	for _, p := range products {
		if p != nil && p.ID == added.ID {
			out = append(out, added.Clone())
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, added.Clone())
	}
	return out
}

// ClearCart resets both flags of every product in ids.
func ClearCart(products []*domain.Product, ids []int64) []*domain.Product {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return patch(products, func(p *domain.Product) *domain.Product {
		if _, ok := set[p.ID]; !ok {
			return p
		}
		cp := p.Clone()
		cp.ToBuy = false
		cp.InCart = false
		return cp
	})
}

func patch(products []*domain.Product, fn func(*domain.Product) *domain.Product) []*domain.Product {
	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			out = append(out, p)
			continue
		}
		out = append(out, fn(p))
	}
	return out
}
