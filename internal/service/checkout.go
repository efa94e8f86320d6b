package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
	"github.com/mmeshcher/perfume-shop/internal/validation"
)

const maxOrderNumberAttempts = 3

// Ключ занимается на checkoutPendingTTL и получает полный срок только вместе с номером заказа.
const (
	checkoutPendingTTL = time.Minute
	idempotencyTimeout = 3 * time.Second
)

// CheckoutRequest содержит параметры оформления заказа.
type CheckoutRequest struct {
	Phone           string
	ShippingAddress *model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	IdempotencyKey  string
}

// Checkout оформляет заказ из корзины покупателя: создаёт заказ и платёж,
// связывает их и очищает корзину. Все записи выполняются атомарно.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*model.Order, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.MethodCOD
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, req.PaymentMethod)
	}
	if req.ShippingAddress != nil && !validation.IsValidPincode(req.ShippingAddress.Pincode) {
		return nil, fmt.Errorf("%w: invalid pincode", ErrValidation)
	}

	account, err := s.accountByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey == "" || s.idempotency == nil {
		return s.placeOrder(ctx, account, req)
	}

	key := account.Phone + ":" + req.IdempotencyKey
	reserved, err := s.idempotency.Reserve(ctx, key, min(checkoutPendingTTL, s.idempotencyTTL))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("idempotency store unavailable, placing order without key", zap.Error(err), zap.String("key", key))
		return s.placeOrder(ctx, account, req)
	}
	if !reserved {
		return s.replayCheckout(ctx, key)
	}

	order, err := s.placeOrder(ctx, account, req)

	// Ключ освобождается или фиксируется и после отмены запроса клиентом.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotencyTimeout)
	defer cancel()

	if err != nil {
		if relErr := s.idempotency.Release(settleCtx, key); relErr != nil {
			s.logger.Warn("release idempotency key error", zap.Error(relErr), zap.String("key", key))
		}
		return nil, err
	}

	if err := s.idempotency.Complete(settleCtx, key, order.OrderNumber, s.idempotencyTTL); err != nil {
		s.logger.Warn("complete idempotency key error", zap.Error(err), zap.String("key", key))
	}

	return order, nil
}

func (s *Service) replayCheckout(ctx context.Context, key string) (*model.Order, error) {
	number, err := s.idempotency.Result(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if number == "" {
		return nil, ErrCheckoutInProgress
	}
	return s.repo.GetOrderByNumber(ctx, number)
}

func (s *Service) placeOrder(ctx context.Context, account *model.Account, req CheckoutRequest) (*model.Order, error) {
	addr := shippingAddressFor(account, req.ShippingAddress)

	var err error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		var order *model.Order
		order, err = s.repo.PlaceOrder(ctx, account.ID, func(c *model.Cart) (*model.Order, error) {
			if c.IsEmpty() {
				return nil, ErrEmptyCart
			}

			now := s.now()
			o := model.NewOrder(account.ID, newOrderNumber(now), c, addr, req.PaymentMethod)
			o.Payment = model.NewPayment(o, newTransactionID(), now)
			return o, nil
		})

		switch {
		case err == nil:
			s.metrics.ObserveCheckout(string(order.PaymentMethod))
			return order, nil
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, ErrEmptyCart
		case errors.Is(err, repository.ErrOrderNumberTaken):
			continue
		default:
			return nil, err
		}
	}

	return nil, err
}

// shippingAddressFor возвращает адрес доставки из запроса или, если он не задан, из профиля покупателя.
func shippingAddressFor(account *model.Account, addr *model.ShippingAddress) model.ShippingAddress {
	if addr != nil && *addr != (model.ShippingAddress{}) {
		res := *addr
		if res.Name == "" {
			res.Name = account.Name
		}
		if res.Phone == "" {
			res.Phone = account.Phone
		}
		return res
	}

	return model.ShippingAddress{
		Name:    account.Name,
		Phone:   account.Phone,
		Address: account.Address,
	}
}

// newOrderNumber формирует номер заказа из времени и случайного суффикса.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD" + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}

func newTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString())
}
