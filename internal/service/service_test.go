package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
)

// memRepo хранит данные в памяти и повторяет транзакционную семантику PostgresRepository:
// изменения через fn применяются к копии и фиксируются только при успехе.
type memRepo struct {
	mu sync.Mutex

	nextID    int64
	accounts  map[string]*model.Account
	perfumes  map[int64]*model.Perfume
	inventory map[int64]*model.InventoryItem
	carts     map[int64]*model.Cart
	orders    []*model.Order
	events    []model.Event
	sent      map[string]bool

	// takenNumbers заставляет PlaceOrder столько раз вернуть ErrOrderNumberTaken.
	takenNumbers int
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:  map[string]*model.Account{},
		perfumes:  map[int64]*model.Perfume{},
		inventory: map[int64]*model.InventoryItem{},
		carts:     map[int64]*model.Cart{},
		sent:      map[string]bool{},
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) event(topic, key string, payload any) {
	data, _ := json.Marshal(payload)
	m.events = append(m.events, model.Event{ID: uuid.NewString(), Topic: topic, Key: key, Payload: data, CreatedAt: time.Now()})
}

func cloneCart(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = append([]model.CartItem(nil), c.Items...)
	return &cp
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	if o.Payment != nil {
		p := *o.Payment
		cp.Payment = &p
	}
	return &cp
}

func (m *memRepo) Close() error { return nil }
func (m *memRepo) Ping(ctx context.Context) error { return nil }

func (m *memRepo) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[a.Phone]; ok {
		return nil, repository.ErrAccountExists
	}
	cp := *a
	cp.ID = m.id()
	cp.CreatedAt = time.Now()
	m.accounts[a.Phone] = &cp
	return &cp, nil
}

func (m *memRepo) GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[phone]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpsertAdmin(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.accounts[a.Phone]; ok {
		existing.PasswordHash = a.PasswordHash
		existing.Role = model.RoleAdmin
		return nil
	}
	cp := *a
	cp.ID = m.id()
	cp.Role = model.RoleAdmin
	m.accounts[a.Phone] = &cp
	return nil
}

func (m *memRepo) ListAccounts(ctx context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := []model.Account{}
	for _, a := range m.accounts {
		if a.Role != model.RoleAdmin {
			res = append(res, *a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (m *memRepo) accountByID(id int64) *model.Account {
	for _, a := range m.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *memRepo) UpdateAccount(ctx context.Context, id int64, fn func(a *model.Account) error) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.accountByID(id)
	if stored == nil {
		return nil, repository.ErrAccountNotFound
	}

	work := *stored
	if err := fn(&work); err != nil {
		return nil, err
	}
	if other, ok := m.accounts[work.Phone]; ok && other.ID != id {
		return nil, repository.ErrAccountExists
	}

	work.UpdatedAt = time.Now()
	delete(m.accounts, stored.Phone)
	m.accounts[work.Phone] = &work
	cp := work
	return &cp, nil
}

func (m *memRepo) DeleteAccount(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.accountByID(id)
	if stored == nil {
		return repository.ErrAccountNotFound
	}
	for _, o := range m.orders {
		if o.AccountID == id {
			return repository.ErrAccountHasOrders
		}
	}

	delete(m.carts, id)
	delete(m.accounts, stored.Phone)
	return nil
}

func (m *memRepo) CreatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.ID = m.id()
	m.perfumes[cp.ID] = &cp
	return &cp, nil
}

func (m *memRepo) GetPerfume(ctx context.Context, id int64) (*model.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.perfumes[id]
	if !ok {
		return nil, repository.ErrPerfumeNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListPerfumes(ctx context.Context) ([]model.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := []model.Perfume{}
	for _, p := range m.perfumes {
		if p.Active {
			res = append(res, *p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (m *memRepo) UpdatePerfume(ctx context.Context, p *model.Perfume) (*model.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.perfumes[p.ID]; !ok {
		return nil, repository.ErrPerfumeNotFound
	}
	cp := *p
	m.perfumes[p.ID] = &cp
	return &cp, nil
}

func (m *memRepo) DeactivatePerfume(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.perfumes[id]
	if !ok {
		return repository.ErrPerfumeNotFound
	}
	p.Active = false
	return nil
}

func (m *memRepo) skuTaken(sku string, except int64) bool {
	for id, it := range m.inventory {
		if it.SKU == sku && id != except {
			return true
		}
	}
	return false
}

func (m *memRepo) withPerfume(item *model.InventoryItem) *model.InventoryItem {
	cp := *item
	if p, ok := m.perfumes[item.PerfumeID]; ok {
		pc := *p
		cp.Perfume = &pc
	}
	return &cp
}

func (m *memRepo) CreateInventory(ctx context.Context, item *model.InventoryItem) (*model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.perfumes[item.PerfumeID]; !ok {
		return nil, repository.ErrPerfumeNotFound
	}
	if m.skuTaken(item.SKU, 0) {
		return nil, repository.ErrDuplicateSKU
	}

	cp := *item
	cp.ID = m.id()
	cp.RefreshStatus()
	m.inventory[cp.ID] = &cp
	m.event(model.TopicInventoryChanged, strconv.FormatInt(cp.ID, 10), cp)
	return m.withPerfume(&cp), nil
}

func (m *memRepo) GetInventory(ctx context.Context, id int64) (*model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.inventory[id]
	if !ok {
		return nil, repository.ErrInventoryNotFound
	}
	return m.withPerfume(item), nil
}

func (m *memRepo) GetInventoryByIDs(ctx context.Context, ids []int64) (map[int64]*model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := map[int64]*model.InventoryItem{}
	for _, id := range ids {
		if item, ok := m.inventory[id]; ok {
			res[id] = m.withPerfume(item)
		}
	}
	return res, nil
}

func (m *memRepo) ListInventory(ctx context.Context, f model.InventoryFilter) ([]model.InventoryItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.InventoryItem
	for _, item := range m.inventory {
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.PerfumeID != 0 && item.PerfumeID != f.PerfumeID {
			continue
		}
		if f.Size != 0 && item.Size != f.Size {
			continue
		}
		all = append(all, *m.withPerfume(item))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memRepo) UpdateInventory(ctx context.Context, id int64, fn func(item *model.InventoryItem) error) (*model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.inventory[id]
	if !ok {
		return nil, repository.ErrInventoryNotFound
	}

	work := m.withPerfume(stored)
	if err := fn(work); err != nil {
		return nil, err
	}
	if m.skuTaken(work.SKU, id) {
		return nil, repository.ErrDuplicateSKU
	}
	if _, ok := m.perfumes[work.PerfumeID]; !ok {
		return nil, repository.ErrPerfumeNotFound
	}

	work.RefreshStatus()
	work.Perfume = nil
	m.inventory[id] = work
	m.event(model.TopicInventoryChanged, strconv.FormatInt(id, 10), work)
	return m.withPerfume(work), nil
}

func (m *memRepo) DeleteInventory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inventory[id]; !ok {
		return repository.ErrInventoryNotFound
	}
	delete(m.inventory, id)
	return nil
}

func (m *memRepo) GetCart(ctx context.Context, accountID int64) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[accountID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (m *memRepo) UpdateCart(ctx context.Context, accountID int64, create bool, fn func(c *model.Cart) error) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.carts[accountID]
	if !ok {
		if !create {
			return nil, repository.ErrCartNotFound
		}
		stored = &model.Cart{ID: m.id(), AccountID: accountID, TotalAmount: decimal.Zero}
	}

	work := cloneCart(stored)
	if err := fn(work); err != nil {
		return nil, err
	}

	m.carts[accountID] = work
	return cloneCart(work), nil
}

func (m *memRepo) PlaceOrder(ctx context.Context, accountID int64, build func(c *model.Cart) (*model.Order, error)) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.carts[accountID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}

	work := cloneCart(stored)
	o, err := build(work)
	if err != nil {
		return nil, err
	}

	if m.takenNumbers > 0 {
		m.takenNumbers--
		return nil, repository.ErrOrderNumberTaken
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return nil, repository.ErrOrderNumberTaken
		}
	}

	o.ID = m.id()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	if o.Payment != nil {
		o.Payment.ID = m.id()
		o.Payment.OrderID = o.ID
		o.PaymentID = &o.Payment.ID
	}

	work.Clear()
	m.carts[accountID] = work
	m.orders = append(m.orders, cloneOrder(o))
	m.event(model.TopicOrderPlaced, o.OrderNumber, o)
	return o, nil
}

func (m *memRepo) UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, stored := range m.orders {
		if stored.ID != id {
			continue
		}
		work := cloneOrder(stored)
		if err := fn(work); err != nil {
			return nil, err
		}
		m.orders[i] = work
		m.event(model.TopicOrderStatusChanged, work.OrderNumber, work)
		return cloneOrder(work), nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memRepo) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.OrderNumber == number {
			return cloneOrder(o), nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memRepo) ListOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].AccountID == accountID {
			res = append(res, *cloneOrder(m.orders[i]))
		}
	}
	return res, nil
}

func (m *memRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		res = append(res, *cloneOrder(m.orders[i]))
	}
	return res, nil
}

func (m *memRepo) FetchPendingEvents(ctx context.Context, limit int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Event
	for _, e := range m.events {
		if m.sent[e.ID] {
			continue
		}
		res = append(res, e)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (m *memRepo) MarkEventsSent(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		m.sent[id] = true
	}
	return nil
}

func (m *memRepo) PurgeEvents(ctx context.Context, before time.Time, includePending bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	var n int64
	for _, e := range m.events {
		if e.CreatedAt.Before(before) && (m.sent[e.ID] || includePending) {
			delete(m.sent, e.ID)
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return n, nil
}

type countingRecorder struct {
	checkouts   map[string]int
	adjustments map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{checkouts: map[string]int{}, adjustments: map[string]int{}}
}

func (r *countingRecorder) ObserveCheckout(method string) { r.checkouts[method]++ }
func (r *countingRecorder) ObserveStockAdjustment(op string) { r.adjustments[op]++ }

func newTestService(t *testing.T, repo *memRepo, opts Options) *Service {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewService(repo, logger, opts)
}

// seedAccount добавляет покупателя без обращения к bcrypt.
func seedAccount(t *testing.T, repo *memRepo, phone string) *model.Account {
	t.Helper()

	a, err := repo.CreateAccount(context.Background(), &model.Account{
		Name:    "Asha",
		Phone:   phone,
		Role:    model.RoleUser,
		Address: "12 MG Road",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

// seedInventory добавляет карточку аромата и складскую позицию с указанной ценой.
func seedInventory(t *testing.T, repo *memRepo, sku string, price int64, quantity int) *model.InventoryItem {
	t.Helper()

	ctx := context.Background()
	p, err := repo.CreatePerfume(ctx, &model.Perfume{
		Name:          "Perfume " + sku,
		Brand:         "Maison",
		Category:      model.CategoryUnisex,
		Concentration: model.ConcentrationEDP,
		Images:        []model.Image{{URL: "https://cdn.example/" + sku + ".jpg"}},
		Active:        true,
	})
	if err != nil {
		t.Fatalf("seed perfume: %v", err)
	}

	item, err := repo.CreateInventory(ctx, &model.InventoryItem{
		PerfumeID:         p.ID,
		Size:              50,
		SKU:               sku,
		BatchNumber:       "B-1",
		CostPrice:         decimal.NewFromInt(price / 2),
		SellingPrice:      decimal.NewFromInt(price),
		Quantity:          quantity,
		ReorderLevel:      model.DefaultReorderLevel,
		WarehouseLocation: model.DefaultWarehouseLocation,
	})
	if err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return item
}
