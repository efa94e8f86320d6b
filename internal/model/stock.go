package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus описывает состояние складского остатка.
type StockStatus string

const (
	StockInStock    StockStatus = "In Stock"
	StockLow        StockStatus = "Low Stock"
	StockOutOfStock StockStatus = "Out Of Stock"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s StockStatus) Valid() bool {
	switch s {
	case StockInStock, StockLow, StockOutOfStock:
		return true
	}
	return false
}

// StockStatusFor вычисляет статус остатка по количеству и порогу дозаказа.
func StockStatusFor(quantity, reorderLevel int) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= reorderLevel:
		return StockLow
	default:
		return StockInStock
	}
}

// MaxQuantity ограничивает остаток позиции и количество в строке корзины.
const MaxQuantity = 1_000_000

// Значения по умолчанию для новой складской позиции.
const (
	DefaultReorderLevel      = 5
	DefaultWarehouseLocation = "Main Store"
)

var sizes = map[int]struct{}{
	10: {}, 20: {}, 30: {}, 50: {}, 75: {}, 100: {}, 125: {}, 150: {}, 200: {},
}

// ValidSize проверяет, что объём флакона (мл) входит в ассортимент.
func ValidSize(size int) bool {
	_, ok := sizes[size]
	return ok
}

// StockOperation описывает направление корректировки остатка.
type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
)

// InventoryItem описывает вариант товара на складе: объём, партию, цену и остаток.
type InventoryItem struct {
	ID                int64           `json:"id"`
	PerfumeID         int64           `json:"perfumeId"`
	Perfume           *Perfume        `json:"perfume,omitempty"`
	Size              int             `json:"size"`
	SKU               string          `json:"sku"`
	BatchNumber       string          `json:"batchNumber"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	DiscountPercent   decimal.Decimal `json:"discountPercent"`
	Quantity          int             `json:"quantity"`
	ReorderLevel      int             `json:"reorderLevel"`
	ManufactureDate   *time.Time      `json:"manufactureDate,omitempty"`
	ExpiryDate        *time.Time      `json:"expiryDate,omitempty"`
	WarehouseLocation string          `json:"warehouseLocation"`
	Status            StockStatus     `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// RefreshStatus пересчитывает статус по текущему количеству и порогу.
func (i *InventoryItem) RefreshStatus() {
	i.Status = StockStatusFor(i.Quantity, i.ReorderLevel)
}

// ApplyStock изменяет остаток на quantity единиц в указанном направлении.
// При ошибке позиция не изменяется.
func (i *InventoryItem) ApplyStock(op StockOperation, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}

	switch op {
	case StockAdd:
		if i.Quantity+quantity > MaxQuantity {
			return ErrQuantityTooLarge
		}
		i.Quantity += quantity
	case StockSubtract:
		if quantity > i.Quantity {
			return ErrInsufficientStock
		}
		i.Quantity -= quantity
	default:
		return ErrInvalidStockOperation
	}

	i.RefreshStatus()
	return nil
}

// InventoryFilter описывает параметры выборки складских позиций.
type InventoryFilter struct {
	Status    StockStatus
	PerfumeID int64
	Size      int
	Search    string
	Page      int
	Limit     int
}

// Offset возвращает смещение первой записи страницы.
func (f InventoryFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
