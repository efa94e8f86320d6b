package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/validation"
)

// Ограничения постраничной выдачи склада.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	MaxPage          = 100_000
)

var hundred = decimal.NewFromInt(100)

// InventoryInput содержит поля складской позиции. Nil означает «не задано»:
// при создании подставляется значение по умолчанию, при обновлении поле не меняется.
type InventoryInput struct {
	PerfumeID         *int64
	Size              *int
	SKU               *string
	BatchNumber       *string
	CostPrice         *decimal.Decimal
	SellingPrice      *decimal.Decimal
	DiscountPercent   *decimal.Decimal
	Quantity          *int
	ReorderLevel      *int
	ManufactureDate   *time.Time
	ExpiryDate        *time.Time
	WarehouseLocation *string
}

func (in InventoryInput) apply(item *model.InventoryItem) {
	if in.PerfumeID != nil {
		item.PerfumeID = *in.PerfumeID
	}
	if in.Size != nil {
		item.Size = *in.Size
	}
	if in.SKU != nil {
		item.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.BatchNumber != nil {
		item.BatchNumber = strings.TrimSpace(*in.BatchNumber)
	}
	if in.CostPrice != nil {
		item.CostPrice = *in.CostPrice
	}
	if in.SellingPrice != nil {
		item.SellingPrice = *in.SellingPrice
	}
	if in.DiscountPercent != nil {
		item.DiscountPercent = *in.DiscountPercent
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.ReorderLevel != nil {
		item.ReorderLevel = *in.ReorderLevel
	}
	if in.ManufactureDate != nil {
		item.ManufactureDate = in.ManufactureDate
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = in.ExpiryDate
	}
	if in.WarehouseLocation != nil {
		item.WarehouseLocation = strings.TrimSpace(*in.WarehouseLocation)
	}
}

func validateInventory(item *model.InventoryItem) error {
	switch {
	case item.PerfumeID <= 0:
		return fmt.Errorf("%w: perfume is required", ErrValidation)
	case !model.ValidSize(item.Size):
		return fmt.Errorf("%w: unsupported size %d", ErrValidation, item.Size)
	case !validation.IsValidSKU(item.SKU):
		return fmt.Errorf("%w: invalid sku %q", ErrValidation, item.SKU)
	case item.BatchNumber == "":
		return fmt.Errorf("%w: batch number is required", ErrValidation)
	case item.CostPrice.IsNegative() || item.SellingPrice.IsNegative():
		return fmt.Errorf("%w: prices must not be negative", ErrValidation)
	case item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(hundred):
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	case item.Quantity < 0 || item.Quantity > model.MaxQuantity:
		return fmt.Errorf("%w: quantity must be between 0 and %d", ErrValidation, model.MaxQuantity)
	case item.ReorderLevel < 0 || item.ReorderLevel > model.MaxQuantity:
		return fmt.Errorf("%w: reorder level must be between 0 and %d", ErrValidation, model.MaxQuantity)
	case item.ManufactureDate != nil && item.ExpiryDate != nil && item.ExpiryDate.Before(*item.ManufactureDate):
		return fmt.Errorf("%w: expiry date precedes manufacture date", ErrValidation)
	}
	return nil
}

// CreateInventory создаёт складскую позицию.
func (s *Service) CreateInventory(ctx context.Context, in InventoryInput) (*model.InventoryItem, error) {
	if in.SKU == nil || in.SellingPrice == nil || in.CostPrice == nil {
		return nil, fmt.Errorf("%w: sku and prices are required", ErrValidation)
	}

	item := &model.InventoryItem{
		ReorderLevel:      model.DefaultReorderLevel,
		WarehouseLocation: model.DefaultWarehouseLocation,
	}
	in.apply(item)
	if item.WarehouseLocation == "" {
		item.WarehouseLocation = model.DefaultWarehouseLocation
	}

	if err := validateInventory(item); err != nil {
		return nil, err
	}

	// Карточка проверяется заранее, чтобы отличать её отсутствие от прочих ошибок записи.
	if _, err := s.repo.GetPerfume(ctx, item.PerfumeID); err != nil {
		return nil, err
	}

	return s.repo.CreateInventory(ctx, item)
}

// GetInventory возвращает складскую позицию.
func (s *Service) GetInventory(ctx context.Context, id int64) (*model.InventoryItem, error) {
	return s.repo.GetInventory(ctx, id)
}

// ListInventory возвращает страницу складских позиций по фильтру.
func (s *Service) ListInventory(ctx context.Context, f model.InventoryFilter) ([]model.InventoryItem, model.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		return nil, model.Pagination{}, fmt.Errorf("%w: page must not exceed %d", ErrValidation, MaxPage)
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	f.Search = strings.TrimSpace(f.Search)

	items, total, err := s.repo.ListInventory(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	return items, model.NewPagination(f.Page, f.Limit, total), nil
}

// UpdateInventory частично обновляет складскую позицию. Количество и порог,
// не указанные во входных данных, берутся из сохранённой записи.
func (s *Service) UpdateInventory(ctx context.Context, id int64, in InventoryInput) (*model.InventoryItem, error) {
	return s.repo.UpdateInventory(ctx, id, func(item *model.InventoryItem) error {
		in.apply(item)
		return validateInventory(item)
	})
}

// DeleteInventory удаляет складскую позицию.
func (s *Service) DeleteInventory(ctx context.Context, id int64) error {
	return s.repo.DeleteInventory(ctx, id)
}

// AdjustStock увеличивает или уменьшает остаток позиции.
func (s *Service) AdjustStock(ctx context.Context, id int64, quantity int, op model.StockOperation) (*model.InventoryItem, error) {
	item, err := s.repo.UpdateInventory(ctx, id, func(item *model.InventoryItem) error {
		return item.ApplyStock(op, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStockAdjustment(string(op))
	return item, nil
}
