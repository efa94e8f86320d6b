package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

// insertEvent записывает событие в outbox в рамках транзакции изменения.
func insertEvent(ctx context.Context, tx pgx.Tx, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (id, topic, key, payload) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), topic, key, data,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingEvents возвращает неотправленные события в порядке создания.
func (r *PostgresRepository) FetchPendingEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, topic, key, payload, created_at
		 FROM outbox
		 WHERE sent_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select outbox: %w", err)
	}
	defer rows.Close()

	var res []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Topic, &e.Key, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// PurgeEvents удаляет опубликованные события, созданные раньше before.
// При includePending удаляются и неопубликованные.
func (r *PostgresRepository) PurgeEvents(ctx context.Context, before time.Time, includePending bool) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM outbox WHERE created_at < $1 AND (sent_at IS NOT NULL OR $2)`,
		before, includePending,
	)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkEventsSent отмечает события как опубликованные.
func (r *PostgresRepository) MarkEventsSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE outbox SET sent_at = now() WHERE id = ANY($1::uuid[])`, ids,
	)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}
