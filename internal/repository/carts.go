package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

// querier объединяет пул и транзакцию для функций чтения.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadCart(ctx context.Context, q querier, accountID int64, lock bool) (*model.Cart, error) {
	query := `SELECT id, account_id, total_amount, updated_at FROM carts WHERE account_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var c model.Cart
	err := q.QueryRow(ctx, query, accountID).Scan(&c.ID, &c.AccountID, &c.TotalAmount, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT inventory_id, perfume_name, brand, image, size, quantity, price_at_time, sku
		 FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY position`,
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.InventoryID, &it.PerfumeName, &it.Brand, &it.Image, &it.Size,
			&it.Quantity, &it.PriceAtTime, &it.SKU); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &c, nil
}

func saveCart(ctx context.Context, tx pgx.Tx, c *model.Cart) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	if len(c.Items) > 0 {
		batch := &pgx.Batch{}
		for i, it := range c.Items {
			batch.Queue(
				`INSERT INTO cart_items (cart_id, position, inventory_id, perfume_name, brand, image,
					size, quantity, price_at_time, sku)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				c.ID, i, it.InventoryID, it.PerfumeName, it.Brand, it.Image,
				it.Size, it.Quantity, it.PriceAtTime, it.SKU,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert cart items: %w", err)
		}
	}

	err := tx.QueryRow(ctx,
		`UPDATE carts SET total_amount = $2, updated_at = now() WHERE id = $1 RETURNING updated_at`,
		c.ID, c.TotalAmount,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

// GetCart возвращает корзину покупателя или ErrCartNotFound.
func (r *PostgresRepository) GetCart(ctx context.Context, accountID int64) (*model.Cart, error) {
	return loadCart(ctx, r.pool, accountID, false)
}

// UpdateCart блокирует корзину покупателя, применяет fn и сохраняет результат в одной транзакции.
// При create = true отсутствующая корзина создаётся, иначе возвращается ErrCartNotFound.
func (r *PostgresRepository) UpdateCart(ctx context.Context, accountID int64, create bool, fn func(c *model.Cart) error) (*model.Cart, error) {
	var cart *model.Cart

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if create {
			_, err := tx.Exec(ctx,
				`INSERT INTO carts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`,
				accountID,
			)
			if err != nil {
				return fmt.Errorf("create cart: %w", err)
			}
		}

		c, err := loadCart(ctx, tx, accountID, true)
		if err != nil {
			return err
		}

		if err := fn(c); err != nil {
			return err
		}

		if err := saveCart(ctx, tx, c); err != nil {
			return err
		}

		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}
