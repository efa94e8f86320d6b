// Package service реализует бизнес-логику магазина парфюмерии.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

// Ошибки бизнес-логики.
var (
	// ErrEmptyCart возвращается при оформлении заказа из пустой или отсутствующей корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidCredentials возвращается при неверном телефоне или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCheckoutInProgress возвращается, если заказ с тем же ключом идемпотентности ещё оформляется.
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is in progress")
	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = errors.New("validation failed")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error)
	UpsertAdmin(ctx context.Context, a *model.Account) error
	ListAccounts(ctx context.Context) ([]model.Account, error)
	UpdateAccount(ctx context.Context, id int64, fn func(a *model.Account) error) (*model.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error)
	GetPerfume(ctx context.Context, id int64) (*model.Perfume, error)
	ListPerfumes(ctx context.Context) ([]model.Perfume, error)
	UpdatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error)
	DeactivatePerfume(ctx context.Context, id int64) error

	CreateInventory(ctx context.Context, item *model.InventoryItem) (*model.InventoryItem, error)
	GetInventory(ctx context.Context, id int64) (*model.InventoryItem, error)
	GetInventoryByIDs(ctx context.Context, ids []int64) (map[int64]*model.InventoryItem, error)
	ListInventory(ctx context.Context, f model.InventoryFilter) ([]model.InventoryItem, int, error)
	UpdateInventory(ctx context.Context, id int64, fn func(item *model.InventoryItem) error) (*model.InventoryItem, error)
	DeleteInventory(ctx context.Context, id int64) error

	GetCart(ctx context.Context, accountID int64) (*model.Cart, error)
	UpdateCart(ctx context.Context, accountID int64, create bool, fn func(c *model.Cart) error) (*model.Cart, error)

	PlaceOrder(ctx context.Context, accountID int64, build func(c *model.Cart) (*model.Order, error)) (*model.Order, error)
	UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)

	FetchPendingEvents(ctx context.Context, limit int) ([]model.Event, error)
	MarkEventsSent(ctx context.Context, ids []string) error
	PurgeEvents(ctx context.Context, before time.Time, includePending bool) (int64, error)
}

// Publisher публикует события во внешний брокер.
type Publisher interface {
	Publish(ctx context.Context, e model.Event) error
}

// IdempotencyStore хранит ключи идемпотентности оформления заказа.
type IdempotencyStore interface {
	// Reserve занимает ключ и возвращает false, если он уже занят.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Result возвращает сохранённый результат или пустую строку, пока запрос не завершён.
	Result(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Recorder собирает бизнес-метрики.
type Recorder interface {
	ObserveCheckout(method string)
	ObserveStockAdjustment(operation string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string) {}
func (nopRecorder) ObserveStockAdjustment(string) {}

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Publisher      Publisher
	Idempotency    IdempotencyStore
	Metrics        Recorder
	RelayInterval   time.Duration
	IdempotencyTTL  time.Duration
	OutboxRetention time.Duration
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo           Repository
	logger         *zap.Logger
	publisher      Publisher
	idempotency    IdempotencyStore
	metrics        Recorder
	relayInterval   time.Duration
	idempotencyTTL  time.Duration
	outboxRetention time.Duration
	now             func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием и необязательными интеграциями.
func NewService(repo Repository, logger *zap.Logger, opts Options) *Service {
	s := &Service{
		repo:            repo,
		logger:          logger,
		publisher:       opts.Publisher,
		idempotency:     opts.Idempotency,
		metrics:         opts.Metrics,
		relayInterval:   opts.RelayInterval,
		idempotencyTTL:  opts.IdempotencyTTL,
		outboxRetention: opts.OutboxRetention,
		now:             time.Now,
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.relayInterval <= 0 {
		s.relayInterval = 2 * time.Second
	}
	if s.idempotencyTTL <= 0 {
		s.idempotencyTTL = 24 * time.Hour
	}
	if s.outboxRetention <= 0 {
		s.outboxRetention = 7 * 24 * time.Hour
	}

	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
