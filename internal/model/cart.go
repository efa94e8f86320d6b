package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem описывает позицию корзины. Поля, кроме Inventory, фиксируются в момент добавления.
type CartItem struct {
	InventoryID int64           `json:"inventoryId"`
	PerfumeName string          `json:"perfumeName"`
	Brand       string          `json:"brand"`
	Image       string          `json:"image,omitempty"`
	Size        int             `json:"size"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	SKU         string          `json:"sku"`

	// Inventory заполняется только при просмотре корзины актуальным состоянием варианта.
	Inventory *InventoryItem `json:"inventory,omitempty"`
}

// Subtotal возвращает стоимость позиции.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.PriceAtTime.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart описывает корзину покупателя.
type Cart struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"userId"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewCartItem снимает снимок варианта товара для добавления в корзину.
func NewCartItem(inv *InventoryItem, quantity int) CartItem {
	item := CartItem{
		InventoryID: inv.ID,
		Size:        inv.Size,
		Quantity:    quantity,
		PriceAtTime: inv.SellingPrice,
		SKU:         inv.SKU,
	}
	if inv.Perfume != nil {
		item.PerfumeName = inv.Perfume.Name
		item.Brand = inv.Perfume.Brand
		item.Image = inv.Perfume.PrimaryImage()
	}
	return item
}

// Count возвращает число позиций в корзине.
func (c *Cart) Count() int {
	return len(c.Items)
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Add увеличивает количество существующей позиции или добавляет новую в конец.
func (c *Cart) Add(item CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if item.Quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}

	if idx := c.indexOf(item.InventoryID); idx >= 0 {
		if c.Items[idx].Quantity+item.Quantity > MaxQuantity {
			return ErrQuantityTooLarge
		}
		c.Items[idx].Quantity += item.Quantity
	} else {
		c.Items = append(c.Items, item)
	}

	c.recalculate()
	return nil
}

// Remove удаляет позицию с указанным вариантом. Отсутствие позиции не считается ошибкой.
func (c *Cart) Remove(inventoryID int64) {
	if idx := c.indexOf(inventoryID); idx >= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
	c.recalculate()
}

// Adjust изменяет количество позиции на delta. Позиция с количеством ≤ 0 удаляется.
func (c *Cart) Adjust(inventoryID int64, delta int) error {
	idx := c.indexOf(inventoryID)
	if idx < 0 {
		return ErrCartItemNotFound
	}

	if c.Items[idx].Quantity+delta > MaxQuantity {
		return ErrQuantityTooLarge
	}

	c.Items[idx].Quantity += delta
	if c.Items[idx].Quantity <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}

	c.recalculate()
	return nil
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.Items = nil
	c.TotalAmount = decimal.Zero
}

// Total возвращает сумму стоимостей всех позиций.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) recalculate() {
	c.TotalAmount = c.Total()
}

func (c *Cart) indexOf(inventoryID int64) int {
	for i, item := range c.Items {
		if item.InventoryID == inventoryID {
			return i
		}
	}
	return -1
}
