package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"inventory-service/internal/auth"
	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
	"inventory-service/internal/storage"
	"inventory-service/internal/store"
	"inventory-service/internal/view"
)

// ProductService is the product store client used by the handlers.
type ProductService interface {
	ListProducts(ctx context.Context) []*domain.Product
	ListCategories(ctx context.Context) []domain.Category
	ListStoredImages(ctx context.Context) []string
	View(ctx context.Context, query string, page domain.PageType) view.View
	AddProduct(ctx context.Context, in inventory.AddProductInput) domain.Result
	ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) domain.Result
	ClearCart(ctx context.Context, ids []int64) domain.Result
	DeleteProduct(ctx context.Context, id int64) domain.Result
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
}

// AuthService is the account service used by the handlers.
type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	CurrentUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	products       ProductService
	auth           AuthService
	sessions       *auth.Sessions
	validate       *validator.Validate
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(products ProductService, authService AuthService, sessions *auth.Sessions, logger *zap.Logger, maxUploadBytes int64) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &HTTPHandler{
		products:       products,
		auth:           authService,
		sessions:       sessions,
		validate:       validator.New(),
		logger:         logger.Named("http"),
		maxUploadBytes: maxUploadBytes,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithResult writes a mutation result. success is the status used when
// the result succeeded.
func (h *HTTPHandler) respondWithResult(w http.ResponseWriter, success int, result domain.Result) {
	h.respondWithJSON(w, statusForResult(result, success), result)
}

func statusForResult(result domain.Result, success int) int {
	if result.Success {
		return success
	}
	switch {
	case errors.Is(result.Err, inventory.ErrMissingFields),
		errors.Is(result.Err, inventory.ErrMissingProductID),
		errors.Is(result.Err, inventory.ErrInvalidToggleKind),
		errors.Is(result.Err, store.ErrCategoryNotFound),
		errors.Is(result.Err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(result.Err, store.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(result.Err, storage.ErrObjectExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

func parseProductID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
}

// --- Auth Handlers ---

type SignUpInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"max=255"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ProfileUpdateInput struct {
	DisplayName string `json:"display_name" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// ProfileResponse is returned after a profile update.
type ProfileResponse struct {
	domain.Result
	User *domain.User `json:"user,omitempty"`
}

func (h *HTTPHandler) authErrorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrMissingEmail),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrMissingPassword),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrInvalidResetToken):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		h.logger.Error("auth operation failed", zap.Error(err))
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) authError(w http.ResponseWriter, err error) {
	code := h.authErrorStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "Internal server error"
	}
	h.respondWithError(w, code, message)
}

func (h *HTTPHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input SignUpInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	user, err := h.auth.SignUp(r.Context(), input.Email, input.Password, input.DisplayName)
	if err != nil {
		h.authError(w, err)
		return
	}
	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, user)
}

func (h *HTTPHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input SignInInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	user, err := h.auth.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		h.authError(w, err)
		return
	}
	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Warn("failed to clear session", zap.Error(err))
	}
	h.respondWithJSON(w, http.StatusOK, domain.OK("Déconnecté."))
}

func (h *HTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input ForgotPasswordInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), input.Email); err != nil {
		h.authError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, domain.OK("Consultez votre email pour le lien de réinitialisation."))
}

func (h *HTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input ResetPasswordInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), input.Token, input.Password, input.ConfirmPassword); err != nil {
		h.authError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, domain.OK("Mot de passe mis à jour."))
}

func (h *HTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		h.authError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input ProfileUpdateInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.auth.UpdateProfile(r.Context(), userID, input.DisplayName, input.Email)
	if err != nil {
		h.authError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, ProfileResponse{
		Result: domain.OK("Profil mis à jour avec succès !"),
		User:   user,
	})
}

// --- Category Handlers ---

// CategoryCreateInput defines the expected input for creating a category.
type CategoryCreateInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.products.ListCategories(r.Context()))
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryCreateInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	category, err := h.products.CreateCategory(r.Context(), input.Name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryNameExists):
			h.respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, inventory.ErrMissingFields):
			h.respondWithError(w, http.StatusBadRequest, "Nom de catégorie requis.")
		default:
			h.respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		}
		return
	}
	h.respondWithJSON(w, http.StatusCreated, category)
}

// --- Product Handlers ---

// ProductCreateInput holds the non-file fields of the add-product form.
type ProductCreateInput struct {
	Title      string `validate:"max=255"`
	CategoryID int64  `validate:"gte=0"`
	ImageURL   string `validate:"omitempty,url"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.products.ListProducts(r.Context()))
}

// CreateProduct accepts a multipart (or url-encoded) form with title,
// category_id and either an image file or image_url.
func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}

	input := ProductCreateInput{
		Title:    r.FormValue("title"),
		ImageURL: strings.TrimSpace(r.FormValue("image_url")),
	}
	if raw := strings.TrimSpace(r.FormValue("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
			return
		}
		input.CategoryID = id
	}
	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	var image domain.ImageSource = domain.NoImage{}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		image = domain.UploadedImage{Filename: header.Filename, Content: file, Size: header.Size}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		if input.ImageURL != "" {
			image = domain.ExistingImage{URL: input.ImageURL}
		}
	default:
		h.respondWithError(w, http.StatusBadRequest, "Invalid image upload: "+err.Error())
		return
	}

	result := h.products.AddProduct(r.Context(), inventory.AddProductInput{
		Title:      input.Title,
		CategoryID: input.CategoryID,
		Image:      image,
	})
	h.respondWithResult(w, http.StatusCreated, result)
}

// ToggleInput selects the flag to flip and the value the caller last saw.
type ToggleInput struct {
	Kind    domain.ToggleKind `json:"kind" validate:"required"`
	Current bool              `json:"current"`
}

func (h *HTTPHandler) ToggleFlag(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	var input ToggleInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	h.respondWithResult(w, http.StatusOK, h.products.ToggleFlag(r.Context(), productID, input.Kind, input.Current))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	h.respondWithResult(w, http.StatusOK, h.products.DeleteProduct(r.Context(), productID))
}

// ClearCartInput lists the products to take off the shopping list.
type ClearCartInput struct {
	IDs []int64 `json:"ids" validate:"dive,gt=0"`
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	var input ClearCartInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	h.respondWithResult(w, http.StatusOK, h.products.ClearCart(r.Context(), input.IDs))
}

func (h *HTTPHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.products.ListStoredImages(r.Context()))
}

func (h *HTTPHandler) GetView(w http.ResponseWriter, r *http.Request) {
	page, err := domain.ParsePageType(chi.URLParam(r, "page"))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.products.View(r.Context(), r.URL.Query().Get("q"), page))
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
		r.Post("/sign-out", h.SignOut)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
		r.With(h.sessions.RequireUser).Get("/profile", h.GetProfile)
		r.With(h.sessions.RequireUser).Put("/profile", h.UpdateProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireUser)

		r.Route("/api/v1/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)  // GET /api/v1/categories
			r.Post("/", h.CreateCategory) // POST /api/v1/categories
		})

		r.Route("/api/v1/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)   // GET /api/v1/products
			r.Post("/", h.CreateProduct) // POST /api/v1/products
			r.Route("/{productId}", func(r chi.Router) {
				r.Post("/toggle", h.ToggleFlag) // POST /api/v1/products/{productId}/toggle
				r.Delete("/", h.DeleteProduct)  // DELETE /api/v1/products/{productId}
			})
		})

		r.Post("/api/v1/cart/clear", h.ClearCart)
		r.Get("/api/v1/images", h.ListImages)
		r.Get("/api/v1/views/{page}", h.GetView)
		r.Get("/api/v1/shopping-list/export", h.ExportShoppingList)
	})
}

// MountBucket serves the objects of a local bucket under their public URL path.
// Only objects the bucket would list are served; directories and in-flight
// uploads answer 404.
func MountBucket(r chi.Router, bucket, dir string) {
	prefix := storage.PublicPathPrefix(bucket)
	r.Handle(prefix+"*", http.StripPrefix(prefix, bucketObjectHandler(http.Dir(dir))))
}

func bucketObjectHandler(root http.FileSystem) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Path
		if !storage.Servable(name) {
			http.NotFound(w, r)
			return
		}
		f, err := root.Open("/" + name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
