package view

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-service/internal/domain"
)

func product(id int64, title, category string, tobuy, incart bool) *domain.Product {
	p := &domain.Product{ID: id, Title: title, CategoryID: id, ToBuy: tobuy, InCart: incart}
	if category != "" {
		p.Category = &domain.CategoryRef{Name: category}
	}
	return p
}

func titles(products []*domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func fixture() []*domain.Product {
	return []*domain.Product{
		product(1, "Yaourt", "Frais", true, false),
		product(2, "éponge", "Maison", true, true),
		product(3, "Beurre", "Frais", true, true),
		product(4, "Lessive", "Maison", false, false),
		product(5, "Allumettes", "", true, false),
		product(6, "Emmental", "Frais", true, false),
		product(7, "Œufs", "Épicerie", true, false),
	}
}

func TestDerive_Inventory(t *testing.T) {
	v := Derive(fixture(), "", domain.PageInventory)

	want := map[string][]string{
		"Épicerie":    {"Œufs"},
		"Frais":       {"Beurre", "Emmental", "Yaourt"},
		"Maison":      {"éponge", "Lessive"},
		Uncategorized: {"Allumettes"},
	}
	got := make(map[string][]string)
	for _, g := range v.Groups {
		got[g.Category] = titles(g.Products)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Épicerie", "Frais", "Maison", Uncategorized}, v.CategoryNames())
	assert.Empty(t, v.ToBuy)
	assert.Empty(t, v.InCart)
}

func TestDerive_Shopping(t *testing.T) {
	v := Derive(fixture(), "", domain.PageShopping)

	assert.Equal(t, []string{"Allumettes", "Emmental", "Œufs", "Yaourt"}, titles(v.ToBuy))
	assert.Equal(t, []string{"Beurre", "éponge"}, titles(v.InCart))

	assert.Equal(t, []string{"Épicerie", "Frais", Uncategorized}, v.CategoryNames(),
		"only the to-buy set is grouped")
}

func TestDerive_QueryIsCaseInsensitiveSubstring(t *testing.T) {
	v := Derive(fixture(), "EMM", domain.PageInventory)
	assert.Equal(t, []string{"Emmental"}, titles(v.Filtered))

	v = Derive(fixture(), "zzz", domain.PageShopping)
	assert.Empty(t, v.Filtered)
	assert.Empty(t, v.Groups)
	assert.Empty(t, v.ToBuy)
}

func TestDerive_DoesNotModifyInput(t *testing.T) {
	in := fixture()
	before := titles(in)
	_ = Derive(in, "", domain.PageInventory)
	_ = Derive(in, "e", domain.PageShopping)
	assert.Equal(t, before, titles(in))
}

func TestDerive_Idempotent(t *testing.T) {
	in := fixture()
	first := Derive(in, "e", domain.PageShopping)
	second := Derive(in, "e", domain.PageShopping)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("derive is not deterministic (-first +second):\n%s", diff)
	}
}

func TestCategoryFallback(t *testing.T) {
	p := product(1, "Sel", "", true, false)
	assert.Equal(t, Uncategorized, CategoryName(p))

	p.Category = &domain.CategoryRef{Name: ""}
	assert.Equal(t, Uncategorized, CategoryName(p))
}

func randomProducts(r *rand.Rand, n int) []*domain.Product {
	words := []string{"pomme", "Poire", "éclair", "Abricot", "zeste", "Olive", "œuf", "Banane"}
	cats := []string{"", "Fruits", "Épicerie", "frais", "Boissons"}
	out := make([]*domain.Product, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s %d", words[r.Intn(len(words))], r.Intn(5))
		tobuy := r.Intn(2) == 0
		out = append(out, product(int64(i+1), title, cats[r.Intn(len(cats))], tobuy, tobuy && r.Intn(2) == 0))
	}
	return out
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	queries := []string{"", "o", "POM", "é", "1"}

	for round := 0; round < 50; round++ {
		products := randomProducts(r, r.Intn(30))
		for _, q := range queries {
			filtered := Filter(products, q)
			require.Equal(t, filtered, Filter(filtered, q), "filter must be idempotent")

			inv := Derive(products, q, domain.PageInventory)
			seen := make(map[int64]int)
			col := newCollator()
			for gi, g := range inv.Groups {
				if gi > 0 {
					assert.LessOrEqual(t, col.CompareString(inv.Groups[gi-1].Category, g.Category), 0)
				}
				for i, p := range g.Products {
					seen[p.ID]++
					assert.Equal(t, g.Category, CategoryName(p))
					if i > 0 {
						assert.LessOrEqual(t, col.CompareString(g.Products[i-1].Title, p.Title), 0)
					}
				}
			}
			require.Len(t, seen, len(filtered), "grouping must cover the filtered set")
			for _, p := range filtered {
				assert.Equal(t, 1, seen[p.ID], "product %d must appear exactly once", p.ID)
			}

			shop := Derive(products, q, domain.PageShopping)
			inToBuy := make(map[int64]bool)
			for _, p := range shop.ToBuy {
				inToBuy[p.ID] = true
			}
			inCart := make(map[int64]bool)
			for _, p := range shop.InCart {
				inCart[p.ID] = true
			}
			for _, p := range filtered {
				switch {
				case !p.ToBuy:
					assert.False(t, inToBuy[p.ID] || inCart[p.ID])
				case p.InCart:
					assert.True(t, inCart[p.ID] && !inToBuy[p.ID])
				default:
					assert.True(t, inToBuy[p.ID] && !inCart[p.ID])
				}
			}
		}
	}
}
