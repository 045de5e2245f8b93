package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-service/internal/domain"
)

// fakeAPI serves canned responses for the routes the commands use.
type fakeAPI struct {
	products []*domain.Product
	cleared  []int64
	toggles  []map[string]any
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	r.Post("/api/v1/auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "secret-password" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth: invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, domain.User{ID: 1, Email: in["email"], DisplayName: "Marie"})
	})
	r.Get("/api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.User{ID: 1, Email: "marie@example.com", DisplayName: "Marie"})
	})
	r.Get("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.products)
	})
	r.Get("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Category{{ID: 1, Name: "Frais"}})
	})
	r.Get("/api/v1/images", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"http://cdn.test/storage/v1/object/public/products/lait_entier.png"})
	})
	r.Post("/api/v1/products/{productId}/toggle", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.toggles = append(f.toggles, in)
		writeJSON(w, http.StatusOK, domain.OK("Produit mis à jour."))
	})
	r.Post("/api/v1/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			IDs []int64 `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.cleared = append(f.cleared, in.IDs...)
		writeJSON(w, http.StatusOK, domain.OK("Panier vidé."))
	})
	r.Delete("/api/v1/products/{productId}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, domain.Result{Success: false, Message: "Produit introuvable."})
	})
	return r
}

func run(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()
	server := httptest.NewServer(api.router())
	t.Cleanup(server.Close)

	shopping, query, toggleCart = false, "", false
	addCategory, addImage, addImageURL = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--server", server.URL, "--email", "marie@example.com", "--password", "secret-password"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fixture() *fakeAPI {
	return &fakeAPI{products: []*domain.Product{
		{ID: 1, Title: "Lait", ToBuy: true, Category: &domain.CategoryRef{Name: "Frais"}},
		{ID: 2, Title: "Pain", ToBuy: true, InCart: true, Category: &domain.CategoryRef{Name: "Boulangerie"}},
		{ID: 3, Title: "Sel"},
	}}
}

func TestList_Inventory(t *testing.T) {
	out, err := run(t, fixture(), "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Inventaire")
	assert.Contains(t, out, "[x] Lait")
	assert.Contains(t, out, "[ ] Sel")
	assert.Contains(t, out, "Sans catégorie")
	assert.Less(t, strings.Index(out, "Boulangerie"), strings.Index(out, "Frais"))
}

func TestList_Shopping(t *testing.T) {
	out, err := run(t, fixture(), "list", "--shopping")
	require.NoError(t, err)

	assert.Contains(t, out, "Liste de courses")
	assert.Contains(t, out, "[ ] Lait")
	assert.Contains(t, out, "Dans le panier")
	assert.Contains(t, out, "[x] Pain")
	assert.NotContains(t, out, "Sel")
}

func TestToggle_SendsCurrentValue(t *testing.T) {
	api := fixture()
	out, err := run(t, api, "toggle", "1", "--cart")
	require.NoError(t, err)

	require.Len(t, api.toggles, 1)
	assert.Equal(t, "incart", api.toggles[0]["kind"])
	assert.Equal(t, false, api.toggles[0]["current"])
	assert.Contains(t, out, "Lait: incart = true")
}

func TestClearCart(t *testing.T) {
	api := fixture()
	out, err := run(t, api, "clear-cart")
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, api.cleared)
	assert.Contains(t, out, "Panier vidé (1 produits).")
}

func TestDelete_ReportsServerMessage(t *testing.T) {
	_, err := run(t, fixture(), "delete", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Produit introuvable.")
}

func TestImages_ShowsLabels(t *testing.T) {
	out, err := run(t, fixture(), "images")
	require.NoError(t, err)
	assert.Contains(t, out, "Lait entier")
}

func TestLogin(t *testing.T) {
	out, err := run(t, fixture(), "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Connecté en tant que Marie")
}

func TestResolveCategory(t *testing.T) {
	categories := []domain.Category{{ID: 4, Name: "Frais"}}

	id, err := resolveCategory(categories, "frais")
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	id, err = resolveCategory(categories, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = resolveCategory(categories, "Surgelés")
	assert.Error(t, err)
	_, err = resolveCategory(categories, "")
	assert.Error(t, err)
}
