// Package model содержит доменные сущности магазина парфюмерии.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Денежные суммы отдаются в JSON числами, а не строками.
	decimal.MarshalJSONWithoutQuotes = true
}

// Доменные ошибки, не зависящие от хранилища.
var (
	// ErrInsufficientStock возвращается при попытке списать больше, чем есть на складе.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidStockOperation возвращается для неизвестной операции со складом.
	ErrInvalidStockOperation = errors.New("invalid stock operation")
	// ErrInvalidQuantity возвращается для неположительного количества.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrQuantityTooLarge возвращается, если количество превысило бы MaxQuantity.
	ErrQuantityTooLarge = errors.New("quantity exceeds limit")
	// ErrCartItemNotFound возвращается, если в корзине нет позиции с указанным товаром.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrIllegalTransition возвращается при недопустимой смене статуса.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Role описывает роль учётной записи.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли роль известной.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account представляет покупателя или администратора магазина.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin сообщает, является ли учётная запись администратором.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Category описывает целевую аудиторию аромата.
type Category string

const (
	CategoryMen    Category = "Men"
	CategoryWomen  Category = "Women"
	CategoryUnisex Category = "Unisex"
)

// Valid проверяет, что категория входит в допустимый набор.
func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryUnisex:
		return true
	}
	return false
}

// Concentration описывает концентрацию аромата.
type Concentration string

const (
	ConcentrationEDT        Concentration = "EDT"
	ConcentrationEDP        Concentration = "EDP"
	ConcentrationParfum     Concentration = "Parfum"
	ConcentrationEauFraiche Concentration = "Eau Fraiche"
	ConcentrationBodyMist   Concentration = "Body Mist"
)

// Valid проверяет, что концентрация входит в допустимый набор.
func (c Concentration) Valid() bool {
	switch c {
	case ConcentrationEDT, ConcentrationEDP, ConcentrationParfum, ConcentrationEauFraiche, ConcentrationBodyMist:
		return true
	}
	return false
}

// FragranceFamily описывает семейство аромата.
type FragranceFamily string

var fragranceFamilies = map[FragranceFamily]struct{}{
	"Floral": {}, "Woody": {}, "Fresh": {}, "Oriental": {},
	"Citrus": {}, "Fruity": {}, "Aquatic": {}, "Spicy": {},
}

// Valid проверяет семейство. Пустое значение допустимо.
func (f FragranceFamily) Valid() bool {
	if f == "" {
		return true
	}
	_, ok := fragranceFamilies[f]
	return ok
}

// Image описывает изображение товара.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Perfume описывает карточку аромата независимо от складских остатков.
type Perfume struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Category        Category        `json:"category"`
	Concentration   Concentration   `json:"concentration"`
	FragranceFamily FragranceFamily `json:"fragranceFamily,omitempty"`
	TopNotes        []string        `json:"topNotes"`
	MiddleNotes     []string        `json:"middleNotes"`
	BaseNotes       []string        `json:"baseNotes"`
	Description     string          `json:"description,omitempty"`
	Images          []Image         `json:"images"`
	Active          bool            `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PrimaryImage возвращает адрес первого изображения или пустую строку.
func (p *Perfume) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Pagination описывает страницу списка.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPagination рассчитывает параметры страницы по общему числу элементов.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

// Event описывает запись исходящего события, ожидающую публикации.
type Event struct {
	ID        string
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Топики исходящих событий.
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicInventoryChanged   = "inventory.changed"
)
