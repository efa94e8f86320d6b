package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

const inventoryColumns = `i.id, i.perfume_id, i.size, i.sku, i.batch_number, i.cost_price, i.selling_price,
	i.discount_percent, i.quantity, i.reorder_level, i.manufacture_date, i.expiry_date,
	i.warehouse_location, i.status, i.created_at, i.updated_at,
	p.id, p.name, p.brand, p.category, p.concentration, p.fragrance_family,
	p.top_notes, p.middle_notes, p.base_notes, p.description, p.images, p.active, p.created_at, p.updated_at`

const inventoryFrom = ` FROM inventory i JOIN perfumes p ON p.id = i.perfume_id`

func scanInventory(row pgx.Row) (*model.InventoryItem, error) {
	var (
		item          model.InventoryItem
		status        string
		p             model.Perfume
		category      string
		concentration string
		family        string
	)
	err := row.Scan(&item.ID, &item.PerfumeID, &item.Size, &item.SKU, &item.BatchNumber,
		&item.CostPrice, &item.SellingPrice, &item.DiscountPercent, &item.Quantity, &item.ReorderLevel,
		&item.ManufactureDate, &item.ExpiryDate, &item.WarehouseLocation, &status,
		&item.CreatedAt, &item.UpdatedAt,
		&p.ID, &p.Name, &p.Brand, &category, &concentration, &family,
		&p.TopNotes, &p.MiddleNotes, &p.BaseNotes, &p.Description, &p.Images, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Status = model.StockStatus(status)
	p.Category = model.Category(category)
	p.Concentration = model.Concentration(concentration)
	p.FragranceFamily = model.FragranceFamily(family)
	item.Perfume = &p
	return &item, nil
}

// inventoryWriteError переводит ошибки ограничений таблицы inventory в доменные.
func inventoryWriteError(op string, err error) error {
	if _, ok := constraintViolation(err, pgerrcode.UniqueViolation); ok {
		return ErrDuplicateSKU
	}
	if _, ok := constraintViolation(err, pgerrcode.ForeignKeyViolation); ok {
		return ErrPerfumeNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateInventory сохраняет новую складскую позицию. Статус вычисляется по количеству и порогу.
func (r *PostgresRepository) CreateInventory(ctx context.Context, item *model.InventoryItem) (*model.InventoryItem, error) {
	item.RefreshStatus()

	var id int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO inventory (perfume_id, size, sku, batch_number, cost_price, selling_price,
				discount_percent, quantity, reorder_level, manufacture_date, expiry_date,
				warehouse_location, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING id`,
			item.PerfumeID, item.Size, item.SKU, item.BatchNumber, item.CostPrice, item.SellingPrice,
			item.DiscountPercent, item.Quantity, item.ReorderLevel, item.ManufactureDate, item.ExpiryDate,
			item.WarehouseLocation, string(item.Status),
		).Scan(&id)
		if err != nil {
			return inventoryWriteError("insert inventory", err)
		}

		item.ID = id
		return insertEvent(ctx, tx, model.TopicInventoryChanged, strconv.FormatInt(id, 10), item)
	})
	if err != nil {
		return nil, err
	}

	return r.GetInventory(ctx, id)
}

// GetInventory возвращает складскую позицию вместе с карточкой аромата.
func (r *PostgresRepository) GetInventory(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := scanInventory(r.pool.QueryRow(ctx,
		`SELECT `+inventoryColumns+inventoryFrom+` WHERE i.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return item, nil
}

// GetInventoryByIDs возвращает найденные позиции с указанными идентификаторами.
func (r *PostgresRepository) GetInventoryByIDs(ctx context.Context, ids []int64) (map[int64]*model.InventoryItem, error) {
	res := make(map[int64]*model.InventoryItem, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+inventoryColumns+inventoryFrom+` WHERE i.id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select inventory by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		res[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListInventory возвращает страницу складских позиций и общее число позиций по фильтру.
func (r *PostgresRepository) ListInventory(ctx context.Context, f model.InventoryFilter) ([]model.InventoryItem, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		conds = append(conds, "i.status = "+arg(string(f.Status)))
	}
	if f.PerfumeID != 0 {
		conds = append(conds, "i.perfume_id = "+arg(f.PerfumeID))
	}
	if f.Size != 0 {
		conds = append(conds, "i.size = "+arg(f.Size))
	}
	if f.Search != "" {
		pattern := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, "(i.sku ILIKE "+pattern+" OR i.batch_number ILIKE "+pattern+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM inventory i`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}

	query := `SELECT ` + inventoryColumns + inventoryFrom + where +
		` ORDER BY i.created_at DESC, i.id DESC LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select inventory: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItem{}
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return items, total, nil
}

// UpdateInventory блокирует позицию, применяет к ней fn и сохраняет результат.
// Статус всегда пересчитывается здесь же, в одной транзакции с записью.
func (r *PostgresRepository) UpdateInventory(ctx context.Context, id int64, fn func(item *model.InventoryItem) error) (*model.InventoryItem, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := scanInventory(tx.QueryRow(ctx,
			`SELECT `+inventoryColumns+inventoryFrom+` WHERE i.id = $1 FOR UPDATE OF i`, id,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInventoryNotFound
			}
			return fmt.Errorf("lock inventory: %w", err)
		}

		if err := fn(item); err != nil {
			return err
		}
		item.RefreshStatus()

		_, err = tx.Exec(ctx,
			`UPDATE inventory
			 SET perfume_id = $2, size = $3, sku = $4, batch_number = $5, cost_price = $6,
			     selling_price = $7, discount_percent = $8, quantity = $9, reorder_level = $10,
			     manufacture_date = $11, expiry_date = $12, warehouse_location = $13, status = $14,
			     updated_at = now()
			 WHERE id = $1`,
			id, item.PerfumeID, item.Size, item.SKU, item.BatchNumber, item.CostPrice,
			item.SellingPrice, item.DiscountPercent, item.Quantity, item.ReorderLevel,
			item.ManufactureDate, item.ExpiryDate, item.WarehouseLocation, string(item.Status),
		)
		if err != nil {
			return inventoryWriteError("update inventory", err)
		}

		return insertEvent(ctx, tx, model.TopicInventoryChanged, strconv.FormatInt(id, 10), item)
	})
	if err != nil {
		return nil, err
	}

	return r.GetInventory(ctx, id)
}

// DeleteInventory удаляет складскую позицию. Снимки в корзинах и заказах сохраняются.
func (r *PostgresRepository) DeleteInventory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInventoryNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
