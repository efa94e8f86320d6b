package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type checkoutRequest struct {
	Phone           string                 `json:"phone"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   model.PaymentMethod    `json:"paymentMethod"`
}

type checkoutResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

// Checkout оформляет заказ из корзины покупателя.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Checkout(r.Context(), service.CheckoutRequest{
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  strings.TrimSpace(r.Header.Get(idempotencyHeader)),
	})
	if err != nil {
		h.handleError(w, "checkout", err, zap.String("phone", req.Phone))
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success: true,
		Message: "Order placed successfully",
		Order:   order,
	})
}

// GetUserOrders возвращает заказы покупателя, начиная с новых.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	orders, err := h.service.ListUserOrders(r.Context(), phone)
	if err != nil {
		h.handleError(w, "get user orders", err, zap.String("phone", phone))
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetAllOrders возвращает все заказы магазина.
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.handleError(w, "get orders", err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus меняет статус выполнения заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		h.handleError(w, "update order status", err, zap.Int64("orderID", id))
		return
	}

	writeData(w, http.StatusOK, order)
}

// UpdatePaymentStatus меняет статус оплаты заказа.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), id, model.PaymentStatus(req.Status))
	if err != nil {
		h.handleError(w, "update payment status", err, zap.Int64("orderID", id))
		return
	}

	writeData(w, http.StatusOK, order)
}
