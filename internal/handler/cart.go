package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

type cartResponse struct {
	Success     bool             `json:"success"`
	Items       []model.CartItem `json:"items"`
	CartCount   int              `json:"cartCount"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
}

func newCartResponse(c *model.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return cartResponse{
		Success:     true,
		Items:       items,
		CartCount:   c.Count(),
		TotalAmount: c.TotalAmount,
	}
}

type addToCartRequest struct {
	Phone       string `json:"phone"`
	InventoryID int64  `json:"inventoryId"`
	Quantity    *int   `json:"quantity"`
}

// AddToCart добавляет вариант товара в корзину покупателя.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.service.AddToCart(r.Context(), req.Phone, req.InventoryID, quantity)
	if err != nil {
		h.handleError(w, "add to cart", err, zap.String("phone", req.Phone), zap.Int64("inventoryID", req.InventoryID))
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

// GetCart возвращает корзину покупателя.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	cart, err := h.service.GetCart(r.Context(), phone)
	if err != nil {
		h.handleError(w, "get cart", err, zap.String("phone", phone))
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

// RemoveFromCart удаляет позицию из корзины покупателя.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	inventoryID, ok := idParam(r, "inventoryID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid inventory id")
		return
	}

	cart, err := h.service.RemoveFromCart(r.Context(), phone, inventoryID)
	if err != nil {
		h.handleError(w, "remove from cart", err, zap.String("phone", phone), zap.Int64("inventoryID", inventoryID))
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

type updateCartRequest struct {
	Phone       string             `json:"phone"`
	InventoryID int64              `json:"inventoryId"`
	Action      service.CartAction `json:"action"`
}

// UpdateCart увеличивает или уменьшает количество позиции на единицу.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.service.AdjustCartQuantity(r.Context(), req.Phone, req.InventoryID, req.Action)
	if err != nil {
		h.handleError(w, "update cart", err, zap.String("phone", req.Phone), zap.Int64("inventoryID", req.InventoryID))
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}
