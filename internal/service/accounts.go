package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
	"github.com/mmeshcher/perfume-shop/internal/validation"
)

// RegisterRequest содержит данные для регистрации покупателя.
type RegisterRequest struct {
	Name     string
	Phone    string
	Password string
	Address  string
}

// RegisterAccount регистрирует нового покупателя.
func (s *Service) RegisterAccount(ctx context.Context, req RegisterRequest) (*model.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !validation.IsValidPhone(req.Phone) {
		return nil, fmt.Errorf("%w: invalid phone", ErrValidation)
	}
	if !validation.IsValidPassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be 6 to 72 characters", ErrValidation)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateAccount(ctx, &model.Account{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Address:      strings.TrimSpace(req.Address),
	})
}

// Authenticate проверяет телефон и пароль и возвращает учётную запись.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (*model.Account, error) {
	a, err := s.repo.GetAccountByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

// EnsureAdmin создаёт учётную запись администратора или обновляет её пароль.
func (s *Service) EnsureAdmin(ctx context.Context, phone, password string) error {
	if !validation.IsValidPhone(phone) || !validation.IsValidPassword(password) {
		return fmt.Errorf("%w: invalid admin credentials", ErrValidation)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	return s.repo.UpsertAdmin(ctx, &model.Account{
		Name:         "Administrator",
		Phone:        phone,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
}

func (s *Service) accountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return s.repo.GetAccountByPhone(ctx, phone)
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// AccountInput содержит поля учётной записи, задаваемые администратором.
// Пустые указатели при обновлении оставляют поле без изменений.
type AccountInput struct {
	Name     *string
	Phone    *string
	Password *string
	Address  *string
	Role     *model.Role
}

// ListAccounts возвращает покупателей магазина, новые первыми.
func (s *Service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// CreateAccount создаёт учётную запись от имени администратора. По умолчанию роль покупателя.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*model.Account, error) {
	if in.Name == nil || in.Phone == nil || in.Password == nil {
		return nil, fmt.Errorf("%w: name, phone and password are required", ErrValidation)
	}

	a := &model.Account{Role: model.RoleUser}
	hash, err := applyAccountInput(a, in)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash

	return s.repo.CreateAccount(ctx, a)
}

// UpdateAccount изменяет переданные поля учётной записи. Новый пароль хешируется заново.
func (s *Service) UpdateAccount(ctx context.Context, id int64, in AccountInput) (*model.Account, error) {
	var hash []byte
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, fmt.Errorf("%w: password must be 6 to 72 characters", ErrValidation)
		}
		var err error
		if hash, err = hashPassword(*in.Password); err != nil {
			return nil, err
		}
		in.Password = nil
	}

	return s.repo.UpdateAccount(ctx, id, func(a *model.Account) error {
		if _, err := applyAccountInput(a, in); err != nil {
			return err
		}
		if hash != nil {
			a.PasswordHash = hash
		}
		return nil
	})
}

// DeleteAccount удаляет учётную запись без заказов.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.repo.DeleteAccount(ctx, id)
}

// applyAccountInput проверяет и переносит переданные поля в a.
// Возвращает хеш пароля, если он был передан.
func applyAccountInput(a *model.Account, in AccountInput) ([]byte, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		a.Name = name
	}
	if in.Phone != nil {
		if !validation.IsValidPhone(*in.Phone) {
			return nil, fmt.Errorf("%w: invalid phone", ErrValidation)
		}
		a.Phone = *in.Phone
	}
	if in.Address != nil {
		a.Address = strings.TrimSpace(*in.Address)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *in.Role)
		}
		a.Role = *in.Role
	}

	if in.Password == nil {
		return nil, nil
	}
	if !validation.IsValidPassword(*in.Password) {
		return nil, fmt.Errorf("%w: password must be 6 to 72 characters", ErrValidation)
	}
	return hashPassword(*in.Password)
}
