package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
	"github.com/mmeshcher/perfume-shop/internal/service"
)

// date принимает дату в виде 2006-01-02 или RFC3339.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type inventoryRequest struct {
	PerfumeID         *int64           `json:"perfumeId"`
	Size              *int             `json:"size"`
	SKU               *string          `json:"sku"`
	BatchNumber       *string          `json:"batchNumber"`
	CostPrice         *decimal.Decimal `json:"costPrice"`
	SellingPrice      *decimal.Decimal `json:"sellingPrice"`
	DiscountPercent   *decimal.Decimal `json:"discountPercent"`
	Quantity          *int             `json:"quantity"`
	ReorderLevel      *int             `json:"reorderLevel"`
	ManufactureDate   *date            `json:"manufactureDate"`
	ExpiryDate        *date            `json:"expiryDate"`
	WarehouseLocation *string          `json:"warehouseLocation"`
}

func (req inventoryRequest) input() service.InventoryInput {
	in := service.InventoryInput{
		PerfumeID:         req.PerfumeID,
		Size:              req.Size,
		SKU:               req.SKU,
		BatchNumber:       req.BatchNumber,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		DiscountPercent:   req.DiscountPercent,
		Quantity:          req.Quantity,
		ReorderLevel:      req.ReorderLevel,
		WarehouseLocation: req.WarehouseLocation,
	}
	if req.ManufactureDate != nil {
		in.ManufactureDate = &req.ManufactureDate.Time
	}
	if req.ExpiryDate != nil {
		in.ExpiryDate = &req.ExpiryDate.Time
	}
	return in
}

type inventoryListResponse struct {
	Success    bool                  `json:"success"`
	Data       []model.InventoryItem `json:"data"`
	Pagination model.Pagination      `json:"pagination"`
}

// ListInventory возвращает страницу складских позиций по фильтрам из строки запроса.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := model.InventoryFilter{
		Status: model.StockStatus(q.Get("status")),
		Search: q.Get("search"),
	}

	for name, dst := range map[string]*int{"page": &f.Page, "limit": &f.Limit, "size": &f.Size} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid "+name)
				return
			}
			*dst = n
		}
	}
	if v := q.Get("perfume"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid perfume")
			return
		}
		f.PerfumeID = id
	}

	items, page, err := h.service.ListInventory(r.Context(), f)
	if err != nil {
		h.handleError(w, "list inventory", err)
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}

	writeJSON(w, http.StatusOK, inventoryListResponse{Success: true, Data: items, Pagination: page})
}

// GetInventory возвращает складскую позицию вместе с карточкой аромата.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid inventory id")
		return
	}

	item, err := h.service.GetInventory(r.Context(), id)
	if err != nil {
		h.handleError(w, "get inventory", err, zap.Int64("inventoryID", id))
		return
	}

	writeData(w, http.StatusOK, item)
}

// CreateInventory создаёт складскую позицию.
func (h *Handler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.CreateInventory(r.Context(), req.input())
	if err != nil {
		// Ссылка на несуществующую карточку при создании считается конфликтом данных.
		if errors.Is(err, repository.ErrPerfumeNotFound) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.handleError(w, "create inventory", err)
		return
	}

	writeData(w, http.StatusCreated, item)
}

// UpdateInventory частично обновляет складскую позицию.
func (h *Handler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid inventory id")
		return
	}

	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.UpdateInventory(r.Context(), id, req.input())
	if err != nil {
		h.handleError(w, "update inventory", err, zap.Int64("inventoryID", id))
		return
	}

	writeData(w, http.StatusOK, item)
}

// DeleteInventory удаляет складскую позицию.
func (h *Handler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid inventory id")
		return
	}

	if err := h.service.DeleteInventory(r.Context(), id); err != nil {
		h.handleError(w, "delete inventory", err, zap.Int64("inventoryID", id))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Inventory deleted"})
}

type stockRequest struct {
	Quantity  int                  `json:"quantity"`
	Operation model.StockOperation `json:"operation"`
}

// AdjustStock увеличивает или уменьшает остаток позиции.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid inventory id")
		return
	}

	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.AdjustStock(r.Context(), id, req.Quantity, req.Operation)
	if err != nil {
		h.handleError(w, "adjust stock", err, zap.Int64("inventoryID", id), zap.String("operation", string(req.Operation)))
		return
	}

	writeData(w, http.StatusOK, item)
}
