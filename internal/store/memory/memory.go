package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
)

// Stores bundles the process-lifetime backends.
type Stores struct {
	Orders *OrderStore
	Codes  *CodeStore
}

func New() *Stores {
	return &Stores{
		Orders: NewOrderStore(),
		Codes:  NewCodeStore(),
	}
}

// OrderStore is an append-only order log with a first-match index on order_id.
type OrderStore struct {
	mu     sync.RWMutex
	orders []activation.Order
	index  map[string]int
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make([]activation.Order, 0, 64),
		index:  make(map[string]int),
	}
}

func (s *OrderStore) Insert(_ context.Context, order activation.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[order.OrderID]; !exists {
		s.index[order.OrderID] = len(s.orders)
	}
	s.orders = append(s.orders, order)
	return nil
}

func (s *OrderStore) FindByOrderID(_ context.Context, orderID string) (activation.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[orderID]
	if !ok {
		return activation.Order{}, activation.ErrOrderNotFound
	}
	return s.orders[pos], nil
}

func (s *OrderStore) All(_ context.Context) ([]activation.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders), nil
}

func (s *OrderStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}

// CodeStore keeps code entries keyed by code, listed in issue order.
type CodeStore struct {
	mu      sync.RWMutex
	entries map[string]activation.CodeEntry
	order   []string
}

func NewCodeStore() *CodeStore {
	return &CodeStore{entries: make(map[string]activation.CodeEntry)}
}

func (s *CodeStore) Put(_ context.Context, entry activation.CodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.Code]; exists {
		return activation.ErrCodeExists
	}
	s.entries[entry.Code] = cloneEntry(entry)
	s.order = append(s.order, entry.Code)
	return nil
}

func (s *CodeStore) Get(_ context.Context, code string) (activation.CodeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[code]
	if !ok {
		return activation.CodeEntry{}, activation.ErrCodeNotFound
	}
	return cloneEntry(entry), nil
}

func (s *CodeStore) MarkUsed(_ context.Context, code string, usedAt time.Time, userEmail string) (activation.CodeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[code]
	if !ok {
		return activation.CodeEntry{}, activation.ErrCodeNotFound
	}
	if entry.Used {
		return cloneEntry(entry), activation.ErrCodeUsed
	}
	entry.Used = true
	entry.UsedAt = &usedAt
	entry.UserEmail = userEmail
	s.entries[code] = entry
	return cloneEntry(entry), nil
}

func (s *CodeStore) List(_ context.Context) ([]activation.CodeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]activation.CodeEntry, 0, len(s.order))
	for _, code := range s.order {
		items = append(items, cloneEntry(s.entries[code]))
	}
	return items, nil
}

func (s *CodeStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func cloneEntry(entry activation.CodeEntry) activation.CodeEntry {
	if entry.UsedAt != nil {
		usedAt := *entry.UsedAt
		entry.UsedAt = &usedAt
	}
	return entry
}

var (
	_ activation.OrderStore = (*OrderStore)(nil)
	_ activation.CodeStore  = (*CodeStore)(nil)
)
