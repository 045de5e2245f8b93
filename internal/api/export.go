package api

import (
	"net/http"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"inventory-service/internal/domain"
	"inventory-service/internal/view"
)

// ShoppingListRow is one line of the exported shopping list.
type ShoppingListRow struct {
	Category string `csv:"categorie"`
	Title    string `csv:"produit"`
	InCart   bool   `csv:"dans_le_panier"`
}

// shoppingListRows flattens the shopping view: grouped to-buy items first,
// then the cart section.
func shoppingListRows(v view.View) []*ShoppingListRow {
	rows := make([]*ShoppingListRow, 0, len(v.ToBuy)+len(v.InCart))
	for _, g := range v.Groups {
		for _, p := range g.Products {
			rows = append(rows, &ShoppingListRow{Category: g.Category, Title: p.Title})
		}
	}
	for _, p := range v.InCart {
		rows = append(rows, &ShoppingListRow{Category: view.CategoryName(p), Title: p.Title, InCart: true})
	}
	return rows
}

// ExportShoppingList writes the current shopping list as CSV.
func (h *HTTPHandler) ExportShoppingList(w http.ResponseWriter, r *http.Request) {
	v := h.products.View(r.Context(), r.URL.Query().Get("q"), domain.PageShopping)

	csvContent, err := gocsv.MarshalString(shoppingListRows(v))
	if err != nil {
		h.logger.Error("failed to marshal shopping list", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to export shopping list")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="liste-de-courses.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csvContent))
}
