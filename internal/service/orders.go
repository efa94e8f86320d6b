package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

// UpdateOrderStatus переводит заказ в новый статус по правилам жизненного цикла заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	return s.repo.UpdateOrder(ctx, id, func(o *model.Order) error {
		return o.TransitionTo(status)
	})
}

// UpdatePaymentStatus меняет статус оплаты заказа и его платёжной записи.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}

	return s.repo.UpdateOrder(ctx, id, func(o *model.Order) error {
		return o.SetPaymentStatus(status, s.now())
	})
}

// ListUserOrders возвращает заказы покупателя, начиная с новых.
func (s *Service) ListUserOrders(ctx context.Context, phone string) ([]model.Order, error) {
	account, err := s.accountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// ListOrders возвращает все заказы магазина, начиная с новых.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
