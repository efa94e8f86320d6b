package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

const orderColumns = `o.id, o.order_number, o.account_id, o.total_amount, o.payment_method, o.payment_id,
	o.order_status, o.payment_status, o.shipping_name, o.shipping_phone, o.shipping_address,
	o.shipping_city, o.shipping_pincode, o.created_at, o.updated_at,
	pay.id, pay.transaction_id, pay.method, pay.amount, pay.status, pay.paid_at, pay.created_at`

const orderFrom = ` FROM orders o LEFT JOIN payments pay ON pay.id = o.payment_id`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		method        string
		orderStatus   string
		paymentStatus string

		payID        *int64
		payTxn       *string
		payMethod    *string
		payAmount    decimal.NullDecimal
		payStatus    *string
		payPaidAt    *time.Time
		payCreatedAt *time.Time
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.AccountID, &o.TotalAmount, &method, &o.PaymentID,
		&orderStatus, &paymentStatus, &o.ShippingAddress.Name, &o.ShippingAddress.Phone,
		&o.ShippingAddress.Address, &o.ShippingAddress.City, &o.ShippingAddress.Pincode,
		&o.CreatedAt, &o.UpdatedAt,
		&payID, &payTxn, &payMethod, &payAmount, &payStatus, &payPaidAt, &payCreatedAt)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = model.PaymentMethod(method)
	o.OrderStatus = model.OrderStatus(orderStatus)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)

	if payID != nil {
		p := &model.Payment{
			ID:            *payID,
			OrderID:       o.ID,
			TransactionID: payTxn,
			Amount:        payAmount.Decimal,
			PaidAt:        payPaidAt,
		}
		if payMethod != nil {
			p.Method = model.PaymentMethod(*payMethod)
		}
		if payStatus != nil {
			p.Status = model.PaymentRecordStatus(*payStatus)
		}
		if payCreatedAt != nil {
			p.CreatedAt = *payCreatedAt
		}
		o.Payment = p
	}

	return &o, nil
}

func loadOrderItems(ctx context.Context, q querier, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		o.Items = []model.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.Query(ctx,
		`SELECT order_id, inventory_id, perfume_name, size, quantity, price, subtotal
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			it      model.OrderItem
		)
		if err := rows.Scan(&orderID, &it.InventoryID, &it.PerfumeName, &it.Size, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}

	return rows.Err()
}

func (r *PostgresRepository) queryOrders(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+orderFrom+where+` ORDER BY o.created_at DESC, o.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	var list []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := loadOrderItems(ctx, r.pool, list); err != nil {
		return nil, err
	}

	res := make([]model.Order, 0, len(list))
	for _, o := range list {
		res = append(res, *o)
	}
	return res, nil
}

// ListOrdersByAccount возвращает заказы покупателя, начиная с новых.
func (r *PostgresRepository) ListOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return r.queryOrders(ctx, ` WHERE o.account_id = $1`, accountID)
}

// ListOrders возвращает все заказы, начиная с новых.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	return r.queryOrders(ctx, ``)
}

// GetOrderByNumber возвращает заказ по его номеру.
func (r *PostgresRepository) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	orders, err := r.queryOrders(ctx, ` WHERE o.order_number = $1`, number)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &orders[0], nil
}

// PlaceOrder оформляет заказ из корзины покупателя в одной транзакции:
// блокирует корзину, строит заказ через build, сохраняет заказ, позиции и платёж,
// связывает их, очищает корзину и пишет событие в outbox.
func (r *PostgresRepository) PlaceOrder(ctx context.Context, accountID int64, build func(c *model.Cart) (*model.Order, error)) (*model.Order, error) {
	var placed *model.Order

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cart, err := loadCart(ctx, tx, accountID, true)
		if err != nil {
			return err
		}

		o, err := build(cart)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO orders (order_number, account_id, total_amount, payment_method, order_status,
				payment_status, shipping_name, shipping_phone, shipping_address, shipping_city, shipping_pincode)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id, created_at, updated_at`,
			o.OrderNumber, o.AccountID, o.TotalAmount, string(o.PaymentMethod), string(o.OrderStatus),
			string(o.PaymentStatus), o.ShippingAddress.Name, o.ShippingAddress.Phone,
			o.ShippingAddress.Address, o.ShippingAddress.City, o.ShippingAddress.Pincode,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			if name, ok := constraintViolation(err, pgerrcode.UniqueViolation); ok && name == "orders_order_number_key" {
				return ErrOrderNumberTaken
			}
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(
				`INSERT INTO order_items (order_id, position, inventory_id, perfume_name, size, quantity, price, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				o.ID, i, it.InventoryID, it.PerfumeName, it.Size, it.Quantity, it.Price, it.Subtotal,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		if p := o.Payment; p != nil {
			p.OrderID = o.ID
			err = tx.QueryRow(ctx,
				`INSERT INTO payments (order_id, transaction_id, method, amount, status, paid_at)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id, created_at`,
				p.OrderID, p.TransactionID, string(p.Method), p.Amount, string(p.Status), p.PaidAt,
			).Scan(&p.ID, &p.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}

			if _, err := tx.Exec(ctx, `UPDATE orders SET payment_id = $2 WHERE id = $1`, o.ID, p.ID); err != nil {
				return fmt.Errorf("link payment: %w", err)
			}
			o.PaymentID = &p.ID
		}

		cart.Clear()
		if err := saveCart(ctx, tx, cart); err != nil {
			return err
		}

		if err := insertEvent(ctx, tx, model.TopicOrderPlaced, o.OrderNumber, o); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return placed, nil
}

// UpdateOrder блокирует заказ, применяет fn и сохраняет статусы заказа и платежа.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error) {
	var updated *model.Order

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+orderFrom+` WHERE o.id = $1 FOR UPDATE OF o`, id,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if err := loadOrderItems(ctx, tx, []*model.Order{o}); err != nil {
			return err
		}

		if err := fn(o); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE orders SET order_status = $2, payment_status = $3, updated_at = now()
			 WHERE id = $1
			 RETURNING updated_at`,
			o.ID, string(o.OrderStatus), string(o.PaymentStatus),
		).Scan(&o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if p := o.Payment; p != nil {
			_, err := tx.Exec(ctx,
				`UPDATE payments SET status = $2, paid_at = $3 WHERE id = $1`,
				p.ID, string(p.Status), p.PaidAt,
			)
			if err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
		}

		if err := insertEvent(ctx, tx, model.TopicOrderStatusChanged, o.OrderNumber, o); err != nil {
			return err
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
