package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

const accountColumns = `id, name, phone, password_hash, role, address, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a    model.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.PasswordHash, &role, &a.Address, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}

// CreateAccount создаёт учётную запись и возвращает её с заполненным идентификатором.
func (r *PostgresRepository) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, phone, password_hash, role, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		a.Name, a.Phone, a.PasswordHash, string(a.Role), a.Address,
	)

	created, err := scanAccount(row)
	if err != nil {
		if _, ok := constraintViolation(err, pgerrcode.UniqueViolation); ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, a.Phone)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

// GetAccountByPhone возвращает учётную запись по номеру телефона.
func (r *PostgresRepository) GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone = $1`,
		phone,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// UpsertAdmin создаёт администратора или обновляет пароль и роль существующей записи с тем же телефоном.
func (r *PostgresRepository) UpsertAdmin(ctx context.Context, a *model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (name, phone, password_hash, role, address)
		 VALUES ($1, $2, $3, $4, '')
		 ON CONFLICT (phone) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, updated_at = now()`,
		a.Name, a.Phone, a.PasswordHash, string(model.RoleAdmin),
	)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	return nil
}

// ListAccounts возвращает учётные записи покупателей, новые первыми.
func (r *PostgresRepository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE role <> $1 ORDER BY created_at DESC, id DESC`,
		string(model.RoleAdmin),
	)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	res := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateAccount блокирует учётную запись, применяет к ней fn и сохраняет результат.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, id int64, fn func(a *model.Account) error) (*model.Account, error) {
	var updated *model.Account
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}

		if err := fn(a); err != nil {
			return err
		}

		updated, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts
			 SET name = $2, phone = $3, password_hash = $4, role = $5, address = $6, updated_at = now()
			 WHERE id = $1
			 RETURNING `+accountColumns,
			id, a.Name, a.Phone, a.PasswordHash, string(a.Role), a.Address,
		))
		if err != nil {
			if _, ok := constraintViolation(err, pgerrcode.UniqueViolation); ok {
				return fmt.Errorf("%w: %s", ErrAccountExists, a.Phone)
			}
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAccount удаляет учётную запись вместе с корзиной.
// Учётные записи с заказами не удаляются, чтобы сохранить историю продаж.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var hasOrders bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE account_id = $1)`, id,
		).Scan(&hasOrders)
		if err != nil {
			return fmt.Errorf("check account orders: %w", err)
		}
		if hasOrders {
			return ErrAccountHasOrders
		}

		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE account_id = $1`, id); err != nil {
			return fmt.Errorf("delete account cart: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
}
