package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in service.ProductUpdate) error
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductHandler struct {
	catalog  Catalog
	assetURL func(key string) string
	timeout  time.Duration
}

// NewProductHandler builds the catalog endpoints. assetURL resolves an asset
// key to its public URL and may be nil.
func NewProductHandler(catalog Catalog, assetURL func(key string) string, timeout time.Duration) *ProductHandler {
	if assetURL == nil {
		assetURL = func(string) string { return "" }
	}
	return &ProductHandler{
		catalog:  catalog,
		assetURL: assetURL,
		timeout:  timeout,
	}
}

type ProductResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	AssetKey    string    `json:"asset_key"`
	AssetURL    string    `json:"asset_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Price accepts a JSON number (19.99) or a numeric string ("19.99").
type CreateProductRequestDTO struct {
	Title       string           `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
	Author      string           `json:"author"`
	AssetKey    string           `json:"asset_key"`
}

// Absent fields are left unchanged.
type UpdateProductRequestDTO struct {
	Title       *string          `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Author      *string          `json:"author"`
	AssetKey    *string          `json:"asset_key"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	res := make([]ProductResponse, len(products))
	for i, p := range products {
		res[i] = h.toResponse(p)
	}
	respondJSON(w, http.StatusOK, res)
}

// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.CreateProduct(ctx, service.ProductInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Author:      req.Author,
		AssetKey:    req.AssetKey,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.toResponse(p))
}

// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.catalog.UpdateProduct(ctx, id, service.ProductUpdate{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Author:      req.Author,
		AssetKey:    req.AssetKey,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OKResponse{OK: true})
}

// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *ProductHandler) toResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Price:       domain.FormatCents(p.PriceCents),
		PriceCents:  p.PriceCents,
		Description: p.Description,
		Author:      p.Author,
		AssetKey:    p.AssetKey,
		AssetURL:    h.assetURL(p.AssetKey),
		CreatedAt:   p.CreatedAt,
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid product id")
		return 0, false
	}
	return id, true
}
