package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

const perfumeColumns = `id, name, brand, category, concentration, fragrance_family,
	top_notes, middle_notes, base_notes, description, images, active, created_at, updated_at`

func scanPerfume(row pgx.Row) (*model.Perfume, error) {
	var (
		p             model.Perfume
		category      string
		concentration string
		family        string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &category, &concentration, &family,
		&p.TopNotes, &p.MiddleNotes, &p.BaseNotes, &p.Description, &p.Images, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Category = model.Category(category)
	p.Concentration = model.Concentration(concentration)
	p.FragranceFamily = model.FragranceFamily(family)
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CreatePerfume сохраняет новую карточку аромата.
func (r *PostgresRepository) CreatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error) {
	created, err := scanPerfume(r.pool.QueryRow(ctx,
		`INSERT INTO perfumes (name, brand, category, concentration, fragrance_family,
			top_notes, middle_notes, base_notes, description, images, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+perfumeColumns,
		p.Name, p.Brand, string(p.Category), string(p.Concentration), string(p.FragranceFamily),
		nonNil(p.TopNotes), nonNil(p.MiddleNotes), nonNil(p.BaseNotes), p.Description, nonNil(p.Images), p.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("create perfume: %w", err)
	}
	return created, nil
}

// GetPerfume возвращает карточку аромата по идентификатору.
func (r *PostgresRepository) GetPerfume(ctx context.Context, id int64) (*model.Perfume, error) {
	p, err := scanPerfume(r.pool.QueryRow(ctx,
		`SELECT `+perfumeColumns+` FROM perfumes WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPerfumeNotFound
		}
		return nil, fmt.Errorf("get perfume: %w", err)
	}
	return p, nil
}

// ListPerfumes возвращает активные карточки, начиная с новых.
func (r *PostgresRepository) ListPerfumes(ctx context.Context) ([]model.Perfume, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+perfumeColumns+` FROM perfumes WHERE active ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select perfumes: %w", err)
	}
	defer rows.Close()

	res := []model.Perfume{}
	for rows.Next() {
		p, err := scanPerfume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan perfume: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdatePerfume перезаписывает редактируемые поля карточки.
func (r *PostgresRepository) UpdatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error) {
	updated, err := scanPerfume(r.pool.QueryRow(ctx,
		`UPDATE perfumes
		 SET name = $2, brand = $3, category = $4, concentration = $5, fragrance_family = $6,
		     top_notes = $7, middle_notes = $8, base_notes = $9, description = $10, images = $11,
		     active = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+perfumeColumns,
		p.ID, p.Name, p.Brand, string(p.Category), string(p.Concentration), string(p.FragranceFamily),
		nonNil(p.TopNotes), nonNil(p.MiddleNotes), nonNil(p.BaseNotes), p.Description, nonNil(p.Images), p.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPerfumeNotFound
		}
		return nil, fmt.Errorf("update perfume: %w", err)
	}
	return updated, nil
}

// DeactivatePerfume снимает карточку с витрины. Складские позиции продолжают на неё ссылаться.
func (r *PostgresRepository) DeactivatePerfume(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE perfumes SET active = FALSE, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate perfume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPerfumeNotFound
	}
	return nil
}
