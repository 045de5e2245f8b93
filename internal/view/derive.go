// Package view derives what the inventory and shopping pages show from a
// flat product collection. Everything here is pure: inputs are never
// modified and the same inputs always give the same view.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"inventory-service/internal/domain"
)

// Uncategorized is the group key of products without a joined category.
const Uncategorized = "Sans catégorie"

// Group is one category section of a view, members sorted by title.
type Group struct {
	Category string            `json:"category"`
	Products []*domain.Product `json:"products"`
}

// View is the presentation state of one page.
type View struct {
	Page     domain.PageType   `json:"page"`
	Query    string            `json:"query"`
	Filtered []*domain.Product `json:"-"`
	// ToBuy and InCart are only filled on the shopping page.
	ToBuy  []*domain.Product `json:"to_buy"`
	InCart []*domain.Product `json:"in_cart"`
	Groups []Group           `json:"groups"`
}

// newCollator returns a French collator. Collators are not safe for
// concurrent use, so each derivation builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.French)
}

// Filter keeps the products whose lower-cased title contains the lower-cased
// query. An empty query keeps everything. Order is preserved.
func Filter(products []*domain.Product, query string) []*domain.Product {
	out := make([]*domain.Product, 0, len(products))
	q := strings.ToLower(query)
	for _, p := range products {
		if p == nil {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// Partition splits the to-buy products by whether they are already in the
// cart. Products not to buy land in neither.
func Partition(products []*domain.Product) (toBuy, inCart []*domain.Product) {
	toBuy = make([]*domain.Product, 0)
	inCart = make([]*domain.Product, 0)
	for _, p := range products {
		if p == nil || !p.ToBuy {
			continue
		}
		if p.InCart {
			inCart = append(inCart, p)
		} else {
			toBuy = append(toBuy, p)
		}
	}
	return toBuy, inCart
}

// CategoryName is the group key of p.
func CategoryName(p *domain.Product) string {
	if p.Category == nil || p.Category.Name == "" {
		return Uncategorized
	}
	return p.Category.Name
}

// GroupByCategory groups products by category name. Groups come out sorted
// by name and members by title, both in French collation order.
func GroupByCategory(products []*domain.Product) []Group {
	col := newCollator()
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, p := range products {
		if p == nil {
			continue
		}
		name := CategoryName(p)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Category: name})
		}
		groups[i].Products = append(groups[i].Products, p)
	}

	for i := range groups {
		sortByTitle(col, groups[i].Products)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if c := col.CompareString(groups[i].Category, groups[j].Category); c != 0 {
			return c < 0
		}
		return groups[i].Category < groups[j].Category
	})
	return groups
}

// SortByTitle returns a title-sorted copy of products.
func SortByTitle(products []*domain.Product) []*domain.Product {
	out := make([]*domain.Product, len(products))
	copy(out, products)
	sortByTitle(newCollator(), out)
	return out
}

func sortByTitle(col *collate.Collator, products []*domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if c := col.CompareString(products[i].Title, products[j].Title); c != 0 {
			return c < 0
		}
		return products[i].ID < products[j].ID
	})
}

// Derive computes the view of page for products matching query.
func Derive(products []*domain.Product, query string, page domain.PageType) View {
	v := View{
		Page:     page,
		Query:    query,
		Filtered: Filter(products, query),
		ToBuy:    make([]*domain.Product, 0),
		InCart:   make([]*domain.Product, 0),
	}
	switch page {
	case domain.PageShopping:
		toBuy, inCart := Partition(v.Filtered)
		v.ToBuy = SortByTitle(toBuy)
		v.InCart = SortByTitle(inCart)
		v.Groups = GroupByCategory(toBuy)
	default:
		v.Page = domain.PageInventory
		v.Groups = GroupByCategory(v.Filtered)
	}
	return v
}

// CategoryNames lists the group keys of v in display order.
func (v View) CategoryNames() []string {
	names := make([]string, 0, len(v.Groups))
	for _, g := range v.Groups {
		names = append(names, g.Category)
	}
	return names
}
