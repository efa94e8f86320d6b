package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
)

// CartAction описывает изменение количества позиции корзины на единицу.
type CartAction string

const (
	CartIncrease CartAction = "increase"
	CartDecrease CartAction = "decrease"
)

// AddToCart добавляет вариант товара в корзину покупателя, создавая корзину при необходимости.
func (s *Service) AddToCart(ctx context.Context, phone string, inventoryID int64, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, model.ErrInvalidQuantity)
	}
	if quantity > model.MaxQuantity {
		return nil, fmt.Errorf("%w: %w", ErrValidation, model.ErrQuantityTooLarge)
	}

	account, err := s.accountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	inv, err := s.repo.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	item := model.NewCartItem(inv, quantity)
	return s.repo.UpdateCart(ctx, account.ID, true, func(c *model.Cart) error {
		return c.Add(item)
	})
}

// GetCart возвращает корзину покупателя с актуальным состоянием вариантов.
// Если корзины нет, возвращается пустая корзина.
func (s *Service) GetCart(ctx context.Context, phone string) (*model.Cart, error) {
	account, err := s.accountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCart(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return &model.Cart{AccountID: account.ID, Items: []model.CartItem{}, TotalAmount: decimal.Zero}, nil
		}
		return nil, err
	}

	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}

	ids := make([]int64, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.InventoryID)
	}

	live, err := s.repo.GetInventoryByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		cart.Items[i].Inventory = live[cart.Items[i].InventoryID]
	}

	return cart, nil
}

// RemoveFromCart удаляет позицию из корзины покупателя.
func (s *Service) RemoveFromCart(ctx context.Context, phone string, inventoryID int64) (*model.Cart, error) {
	account, err := s.accountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	return s.repo.UpdateCart(ctx, account.ID, false, func(c *model.Cart) error {
		c.Remove(inventoryID)
		return nil
	})
}

// AdjustCartQuantity увеличивает или уменьшает количество позиции на единицу.
// Позиция, количество которой стало нулевым, удаляется.
func (s *Service) AdjustCartQuantity(ctx context.Context, phone string, inventoryID int64, action CartAction) (*model.Cart, error) {
	var delta int
	switch action {
	case CartIncrease:
		delta = 1
	case CartDecrease:
		delta = -1
	default:
		return nil, fmt.Errorf("%w: unknown cart action %q", ErrValidation, action)
	}

	account, err := s.accountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	return s.repo.UpdateCart(ctx, account.ID, false, func(c *model.Cart) error {
		return c.Adjust(inventoryID, delta)
	})
}
