// Package handler содержит HTTP-обработчики API магазина парфюмерии.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/metrics"
	"github.com/mmeshcher/perfume-shop/internal/middleware"
	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	RegisterAccount(ctx context.Context, req service.RegisterRequest) (*model.Account, error)
	Authenticate(ctx context.Context, phone, password string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	CreateAccount(ctx context.Context, in service.AccountInput) (*model.Account, error)
	UpdateAccount(ctx context.Context, id int64, in service.AccountInput) (*model.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error)
	GetPerfume(ctx context.Context, id int64) (*model.Perfume, error)
	ListPerfumes(ctx context.Context) ([]model.Perfume, error)
	UpdatePerfume(ctx context.Context, id int64, p *model.Perfume) (*model.Perfume, error)
	DeletePerfume(ctx context.Context, id int64) error

	CreateInventory(ctx context.Context, in service.InventoryInput) (*model.InventoryItem, error)
	GetInventory(ctx context.Context, id int64) (*model.InventoryItem, error)
	ListInventory(ctx context.Context, f model.InventoryFilter) ([]model.InventoryItem, model.Pagination, error)
	UpdateInventory(ctx context.Context, id int64, in service.InventoryInput) (*model.InventoryItem, error)
	DeleteInventory(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, quantity int, op model.StockOperation) (*model.InventoryItem, error)

	AddToCart(ctx context.Context, phone string, inventoryID int64, quantity int) (*model.Cart, error)
	GetCart(ctx context.Context, phone string) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, phone string, inventoryID int64) (*model.Cart, error)
	AdjustCartQuantity(ctx context.Context, phone string, inventoryID int64, action service.CartAction) (*model.Cart, error)

	Checkout(ctx context.Context, req service.CheckoutRequest) (*model.Order, error)
	ListUserOrders(ctx context.Context, phone string) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Order, error)
}

// Handler реализует HTTP-обработчики API магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Если m равен nil, метрики не собираются и маршрут /metrics не регистрируется.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        m,
	}
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: false, Message: message})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Success: true, Data: data})
}

// statusFor возвращает HTTP-статус для ожидаемой ошибки бизнес-логики
// и false для непредвиденных ошибок.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrPerfumeNotFound),
		errors.Is(err, repository.ErrInventoryNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, model.ErrCartItemNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, repository.ErrAccountExists),
		errors.Is(err, repository.ErrOrderNumberTaken),
		errors.Is(err, repository.ErrAccountHasOrders),
		errors.Is(err, service.ErrCheckoutInProgress):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, repository.ErrDuplicateSKU),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrQuantityTooLarge),
		errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, model.ErrInvalidStockOperation),
		errors.Is(err, model.ErrIllegalTransition):
		return http.StatusBadRequest, true
	}
	return http.StatusInternalServerError, false
}

// handleError отвечает клиенту по ошибке бизнес-логики. Непредвиденные ошибки логируются.
func (h *Handler) handleError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	status, expected := statusFor(err)
	if !expected {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Healthz проверяет доступность хранилища.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
