package httppresentation

import (
	"net/http"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
)

type orderResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Status    domorder.Status `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type createOrderRequest struct {
	ProductID *int64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	switch {
	case req.ProductID == nil:
		h.writeDomainError(w, r, required("product_id"))
		return
	case req.Quantity == nil:
		h.writeDomainError(w, r, required("quantity"))
		return
	}

	o, err := h.deps.Coordinator.PlaceOrder(r.Context(), *req.ProductID, *req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.deps.Orders.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domorder.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	o, err := h.deps.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateOrderRequest struct {
	Status *string `json:"status"`
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domorder.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.Status == nil {
		h.writeDomainError(w, r, required("status"))
		return
	}
	status, err := domorder.ParseStatus(*req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	o, err := h.deps.Orders.SetStatus(r.Context(), id, status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domorder.ErrNotFound)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if _, err := h.deps.Coordinator.CancelOrder(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
