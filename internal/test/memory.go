package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// MemoryStore keeps orders, cards, suspensions and products in memory.
// Each method is atomic and applies the same conditions as the SQL store.
type MemoryStore struct {
	mu          sync.Mutex
	orders      map[string]*model.Order
	cards       []*model.Card
	suspensions map[string]*model.Suspension
	products    map[string]*model.Product

	// Errs makes the named method fail, e.g. Errs["Transition"].
	Errs map[string]error
	// Claims counts successful card claims.
	Claims int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[string]*model.Order),
		suspensions: make(map[string]*model.Suspension),
		products:    make(map[string]*model.Product),
		Errs:        make(map[string]error),
	}
}

// SetErr makes method fail with err until cleared with a nil err.
func (s *MemoryStore) SetErr(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Errs, method)
		return
	}
	s.Errs[method] = err
}

func (s *MemoryStore) fail(method string) error {
	return s.Errs[method]
}

// AddProduct stores a catalog entry.
func (s *MemoryStore) AddProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// AddCard stores a card as is.
func (s *MemoryStore) AddCard(c model.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, &c)
}

// PutOrder stores an order as is, replacing any order with the same id.
func (s *MemoryStore) PutOrder(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = &o
}

// PutSuspension stores a suspension record as is.
func (s *MemoryStore) PutSuspension(susp model.Suspension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspensions[susp.AccountID] = &susp
}

// Order returns a copy of the stored order.
func (s *MemoryStore) Order(id string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, false
	}
	return copyOrder(o), true
}

// Card returns a copy of the stored card.
func (s *MemoryStore) Card(id string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.ID == id {
			return copyCard(c), true
		}
	}
	return model.Card{}, false
}

// AllOrders returns copies of all orders, oldest first.
func (s *MemoryStore) AllOrders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOrders(func(*model.Order) bool { return true })
}

// Orders returns the order repository view.
func (s *MemoryStore) Orders() repository.OrderRepository { return memoryOrders{s} }

// Cards returns the card repository view.
func (s *MemoryStore) Cards() repository.CardRepository { return memoryCards{s} }

// Suspensions returns the suspension repository view.
func (s *MemoryStore) Suspensions() repository.SuspensionRepository { return memorySuspensions{s} }

// Products returns the product repository view.
func (s *MemoryStore) Products() repository.ProductRepository { return memoryProducts{s} }

func (s *MemoryStore) sortedOrders(keep func(*model.Order) bool) []model.Order {
	var result []model.Order
	for _, o := range s.orders {
		if keep(o) {
			result = append(result, copyOrder(o))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func copyOrder(o *model.Order) model.Order {
	c := *o
	if o.CardID != nil {
		id := *o.CardID
		c.CardID = &id
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.ExpiredAt != nil {
		t := *o.ExpiredAt
		c.ExpiredAt = &t
	}
	return c
}

func copyCard(c *model.Card) model.Card {
	r := *c
	if c.OrderID != nil {
		id := *c.OrderID
		r.OrderID = &id
	}
	if c.UsedAt != nil {
		t := *c.UsedAt
		r.UsedAt = &t
	}
	return r
}

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(ctx context.Context, in model.NewOrder, at time.Time) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Create"); err != nil {
		return nil, err
	}
	if _, exists := r.s.orders[in.ID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	o := &model.Order{
		ID:         in.ID,
		AccountID:  in.AccountID,
		ProductID:  in.ProductID,
		Amount:     in.Amount,
		SessionRef: in.SessionRef,
		Status:     model.OrderStatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	r.s.orders[o.ID] = o
	c := copyOrder(o)
	return &c, nil
}

func (r memoryOrders) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetByID"); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (r memoryOrders) GetBySessionRef(ctx context.Context, ref string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetBySessionRef"); err != nil {
		return nil, err
	}
	matches := r.s.sortedOrders(func(o *model.Order) bool { return o.SessionRef == ref })
	if len(matches) == 0 {
		return nil, domainErrors.ErrNotFound
	}
	latest := matches[len(matches)-1]
	return &latest, nil
}

func (r memoryOrders) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListByAccount"); err != nil {
		return nil, err
	}
	matches := r.s.sortedOrders(func(o *model.Order) bool { return o.AccountID == accountID })
	var result []model.Order
	for i := len(matches) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, matches[i])
	}
	return result, nil
}

func (r memoryOrders) ListPendingSince(ctx context.Context, accountID string, since time.Time) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListPendingSince"); err != nil {
		return nil, err
	}
	return r.s.sortedOrders(func(o *model.Order) bool {
		return o.AccountID == accountID && o.Status == model.OrderStatusPending && !o.CreatedAt.Before(since)
	}), nil
}

func (r memoryOrders) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListStalePending"); err != nil {
		return nil, err
	}
	matches := r.s.sortedOrders(func(o *model.Order) bool {
		return o.Status == model.OrderStatusPending && o.CreatedAt.Before(before)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r memoryOrders) Transition(ctx context.Context, id string, from, to model.OrderStatus, fields model.TransitionFields) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Transition"); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if o.Status != from {
		return nil, domainErrors.ErrConflictingState
	}
	o.Status = to
	if fields.CardID != nil {
		cardID := *fields.CardID
		o.CardID = &cardID
	}
	if fields.PaidAt != nil {
		t := *fields.PaidAt
		o.PaidAt = &t
	}
	if fields.ExpiredAt != nil {
		t := *fields.ExpiredAt
		o.ExpiredAt = &t
	}
	o.UpdatedAt = fields.At
	c := copyOrder(o)
	return &c, nil
}

func (r memoryOrders) ClearExpiredCards(ctx context.Context, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ClearExpiredCards"); err != nil {
		return 0, err
	}
	var n int64
	for _, o := range r.s.orders {
		if o.Status == model.OrderStatusExpired && o.CardID != nil {
			o.CardID = nil
			o.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r memoryOrders) RepointCard(ctx context.Context, id, cardID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("RepointCard"); err != nil {
		return false, err
	}
	o, ok := r.s.orders[id]
	if !ok || o.Status != model.OrderStatusDelivered || (o.CardID != nil && *o.CardID == cardID) {
		return false, nil
	}
	o.CardID = &cardID
	o.UpdatedAt = at
	return true, nil
}

func (r memoryOrders) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CountByStatus"); err != nil {
		return nil, err
	}
	result := make(map[model.OrderStatus]int64)
	for _, o := range r.s.orders {
		result[o.Status]++
	}
	return result, nil
}

type memoryCards struct{ s *MemoryStore }

func (r memoryCards) Claim(ctx context.Context, productID, orderID string, at time.Time) (*model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Claim"); err != nil {
		return nil, err
	}
	for _, c := range r.s.cards {
		if c.ProductID != productID || c.Used {
			continue
		}
		id := orderID
		usedAt := at
		c.Used = true
		c.OrderID = &id
		c.UsedAt = &usedAt
		r.s.Claims++
		res := copyCard(c)
		return &res, nil
	}
	return nil, domainErrors.ErrOutOfStock
}

func (r memoryCards) Release(ctx context.Context, cardID string, orderID *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Release"); err != nil {
		return false, err
	}
	for _, c := range r.s.cards {
		if c.ID != cardID || !c.Used {
			continue
		}
		sameOwner := (c.OrderID == nil && orderID == nil) ||
			(c.OrderID != nil && orderID != nil && *c.OrderID == *orderID)
		if !sameOwner {
			return false, nil
		}
		c.Used = false
		c.OrderID = nil
		c.UsedAt = nil
		return true, nil
	}
	return false, nil
}

func (r memoryCards) GetByID(ctx context.Context, id string) (*model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetCard"); err != nil {
		return nil, err
	}
	for _, c := range r.s.cards {
		if c.ID == id {
			res := copyCard(c)
			return &res, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryCards) ListByOrder(ctx context.Context, orderID string) ([]model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListByOrder"); err != nil {
		return nil, err
	}
	return r.collect(func(c *model.Card) bool { return c.OrderID != nil && *c.OrderID == orderID }), nil
}

func (r memoryCards) CountUnused(ctx context.Context, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CountUnused"); err != nil {
		return 0, err
	}
	return int64(len(r.collect(func(c *model.Card) bool { return c.ProductID == productID && !c.Used }))), nil
}

func (r memoryCards) ListOrphaned(ctx context.Context) ([]model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListOrphaned"); err != nil {
		return nil, err
	}
	return r.collect(func(c *model.Card) bool { return c.Used && c.OrderID == nil }), nil
}

func (r memoryCards) ListBoundToExpired(ctx context.Context) ([]model.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListBoundToExpired"); err != nil {
		return nil, err
	}
	return r.collect(func(c *model.Card) bool {
		if !c.Used || c.OrderID == nil {
			return false
		}
		o, ok := r.s.orders[*c.OrderID]
		return ok && o.Status == model.OrderStatusExpired
	}), nil
}

func (r memoryCards) ListMultiplyBound(ctx context.Context) ([]model.MultiBound, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListMultiplyBound"); err != nil {
		return nil, err
	}
	byOrder := make(map[string][]model.Card)
	for _, c := range r.collect(func(c *model.Card) bool { return c.Used && c.OrderID != nil }) {
		byOrder[*c.OrderID] = append(byOrder[*c.OrderID], c)
	}
	var result []model.MultiBound
	for orderID, cards := range byOrder {
		if len(cards) < 2 {
			continue
		}
		o, ok := r.s.orders[orderID]
		if !ok {
			continue
		}
		result = append(result, model.MultiBound{OrderID: orderID, Status: o.Status, Cards: cards})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderID < result[j].OrderID })
	return result, nil
}

func (r memoryCards) Counts(ctx context.Context) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Counts"); err != nil {
		return 0, 0, err
	}
	var used int64
	for _, c := range r.s.cards {
		if c.Used {
			used++
		}
	}
	return int64(len(r.s.cards)), used, nil
}

// collect returns matching cards ordered by creation time then id.
func (r memoryCards) collect(keep func(*model.Card) bool) []model.Card {
	var result []model.Card
	for _, c := range r.s.cards {
		if keep(c) {
			result = append(result, copyCard(c))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

type memorySuspensions struct{ s *MemoryStore }

func (r memorySuspensions) Get(ctx context.Context, accountID string) (*model.Suspension, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetSuspension"); err != nil {
		return nil, err
	}
	susp, ok := r.s.suspensions[accountID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	c := *susp
	return &c, nil
}

func (r memorySuspensions) Upsert(ctx context.Context, accountID, reason string, until, at time.Time) (*model.Suspension, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Upsert"); err != nil {
		return nil, err
	}
	susp, ok := r.s.suspensions[accountID]
	if !ok {
		susp = &model.Suspension{AccountID: accountID}
		r.s.suspensions[accountID] = susp
	}
	susp.Reason = reason
	susp.Count++
	susp.SuspendedUntil = until
	susp.UpdatedAt = at
	c := *susp
	return &c, nil
}

func (r memorySuspensions) DeleteExpired(ctx context.Context, accountID string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("DeleteExpired"); err != nil {
		return false, err
	}
	susp, ok := r.s.suspensions[accountID]
	if !ok || susp.SuspendedUntil.After(now) {
		return false, nil
	}
	delete(r.s.suspensions, accountID)
	return true, nil
}

func (r memorySuspensions) Delete(ctx context.Context, accountID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("DeleteSuspension"); err != nil {
		return false, err
	}
	if _, ok := r.s.suspensions[accountID]; !ok {
		return false, nil
	}
	delete(r.s.suspensions, accountID)
	return true, nil
}

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) GetByID(ctx context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	c := *p
	return &c, nil
}

var _ repository.Factory = (*MemoryStore)(nil)
