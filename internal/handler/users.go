package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

type accountRequest struct {
	Name     *string     `json:"name"`
	Phone    *string     `json:"phone"`
	Password *string     `json:"password"`
	Address  *string     `json:"address"`
	Role     *model.Role `json:"role"`
}

func (req accountRequest) input() service.AccountInput {
	return service.AccountInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	}
}

// ListUsers возвращает покупателей магазина.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.handleError(w, "list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}

	writeData(w, http.StatusOK, accounts)
}

// CreateUser создаёт учётную запись от имени администратора.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.input())
	if err != nil {
		h.handleError(w, "create account", err)
		return
	}

	writeData(w, http.StatusCreated, account)
}

// UpdateUser изменяет переданные поля учётной записи.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, req.input())
	if err != nil {
		h.handleError(w, "update account", err, zap.Int64("accountID", id))
		return
	}

	writeData(w, http.StatusOK, account)
}

// DeleteUser удаляет учётную запись без заказов.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.handleError(w, "delete account", err, zap.Int64("accountID", id))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "User deleted successfully"})
}
