package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

func validatePerfume(p *model.Perfume) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)

	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case p.Brand == "":
		return fmt.Errorf("%w: brand is required", ErrValidation)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	case !p.Concentration.Valid():
		return fmt.Errorf("%w: unknown concentration %q", ErrValidation, p.Concentration)
	case !p.FragranceFamily.Valid():
		return fmt.Errorf("%w: unknown fragrance family %q", ErrValidation, p.FragranceFamily)
	}
	return nil
}

// CreatePerfume создаёт карточку аромата.
func (s *Service) CreatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error) {
	if err := validatePerfume(p); err != nil {
		return nil, err
	}
	return s.repo.CreatePerfume(ctx, p)
}

// GetPerfume возвращает карточку аромата.
func (s *Service) GetPerfume(ctx context.Context, id int64) (*model.Perfume, error) {
	return s.repo.GetPerfume(ctx, id)
}

// ListPerfumes возвращает активные карточки ароматов.
func (s *Service) ListPerfumes(ctx context.Context) ([]model.Perfume, error) {
	return s.repo.ListPerfumes(ctx)
}

// UpdatePerfume перезаписывает карточку аромата.
func (s *Service) UpdatePerfume(ctx context.Context, id int64, p *model.Perfume) (*model.Perfume, error) {
	if err := validatePerfume(p); err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.UpdatePerfume(ctx, p)
}

// DeletePerfume снимает карточку аромата с витрины.
func (s *Service) DeletePerfume(ctx context.Context, id int64) error {
	return s.repo.DeactivatePerfume(ctx, id)
}
