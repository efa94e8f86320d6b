package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

// ListPerfumes возвращает активные карточки ароматов.
func (h *Handler) ListPerfumes(w http.ResponseWriter, r *http.Request) {
	perfumes, err := h.service.ListPerfumes(r.Context())
	if err != nil {
		h.handleError(w, "list perfumes", err)
		return
	}
	if perfumes == nil {
		perfumes = []model.Perfume{}
	}

	writeData(w, http.StatusOK, perfumes)
}

// GetPerfume возвращает карточку аромата.
func (h *Handler) GetPerfume(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid perfume id")
		return
	}

	p, err := h.service.GetPerfume(r.Context(), id)
	if err != nil {
		h.handleError(w, "get perfume", err, zap.Int64("perfumeID", id))
		return
	}

	writeData(w, http.StatusOK, p)
}

// CreatePerfume создаёт карточку аромата.
func (h *Handler) CreatePerfume(w http.ResponseWriter, r *http.Request) {
	p := model.Perfume{Active: true}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.CreatePerfume(r.Context(), &p)
	if err != nil {
		h.handleError(w, "create perfume", err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// UpdatePerfume перезаписывает карточку аромата.
func (h *Handler) UpdatePerfume(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid perfume id")
		return
	}

	p := model.Perfume{Active: true}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdatePerfume(r.Context(), id, &p)
	if err != nil {
		h.handleError(w, "update perfume", err, zap.Int64("perfumeID", id))
		return
	}

	writeData(w, http.StatusOK, updated)
}

// DeletePerfume снимает карточку аромата с витрины.
func (h *Handler) DeletePerfume(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid perfume id")
		return
	}

	if err := h.service.DeletePerfume(r.Context(), id); err != nil {
		h.handleError(w, "delete perfume", err, zap.Int64("perfumeID", id))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Perfume deactivated"})
}
