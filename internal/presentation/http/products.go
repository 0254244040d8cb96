package httppresentation

import (
	"net/http"
	"time"

	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type createProductRequest struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

func (req createProductRequest) input() (domcatalog.NewProductInput, error) {
	switch {
	case req.SKU == nil:
		return domcatalog.NewProductInput{}, required("sku")
	case req.Name == nil:
		return domcatalog.NewProductInput{}, required("name")
	case req.Price == nil:
		return domcatalog.NewProductInput{}, required("price")
	case req.Stock == nil:
		return domcatalog.NewProductInput{}, required("stock")
	}
	return domcatalog.NewProductInput{
		SKU:         *req.SKU,
		Name:        *req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
	}, nil
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	p, err := h.deps.Catalog.Create(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.deps.Catalog.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domcatalog.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.deps.Catalog.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type updateProductRequest struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domcatalog.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	p, err := h.deps.Catalog.Update(r.Context(), id, domcatalog.Patch{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domcatalog.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.deps.Coordinator.DeleteProduct(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta *int `json:"delta"`
}

func (h *Handler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domcatalog.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req adjustStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.Delta == nil {
		h.writeDomainError(w, r, required("delta"))
		return
	}

	p, err := h.deps.Catalog.AdjustStock(r.Context(), id, *req.Delta)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}
