package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type accountResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	User    *model.Account `json:"user"`
	Token   string         `json:"token,omitempty"`
}

// Register обрабатывает регистрацию нового покупателя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.RegisterAccount(r.Context(), service.RegisterRequest{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		h.handleError(w, "register account", err, zap.String("phone", req.Phone))
		return
	}

	token, err := h.authMiddleware.SetAuthCookie(w, account.Phone, account.Role)
	if err != nil {
		h.handleError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse{
		Success: true,
		Message: "Registered successfully",
		User:    account,
		Token:   token,
	})
}

// Login выполняет аутентификацию по телефону и паролю и устанавливает cookie.
// Неверные учётные данные возвращаются обычным ответом с success=false.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Phone == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Phone and password are required")
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusOK, messageResponse{Success: false, Message: "Invalid credentials"})
			return
		}
		h.handleError(w, "login", err)
		return
	}

	token, err := h.authMiddleware.SetAuthCookie(w, account.Phone, account.Role)
	if err != nil {
		h.handleError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Success: true, User: account, Token: token})
}

// Logout удаляет cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}
