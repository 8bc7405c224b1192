// Package memory keeps every marketplace aggregate in process behind a single
// mutex. It backs STORE=memory runs and the application tests.
package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	cartdomain "github.com/dmehra2102/agro-marketplace/internal/cart/domain"
	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	moddomain "github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Store struct {
	mu       sync.Mutex
	products map[string]catalogdomain.Product
	carts    map[string]*cartdomain.Cart
	orders   map[string]orderdomain.Order
	reports  map[string]moddomain.Report
	events   []outbox.Message
	// delivery holds relay progress per event; index i is event id i+1.
	delivery []outbox.Status
	lastTick time.Time
}

func NewStore() *Store {
	return &Store{
		products: map[string]catalogdomain.Product{},
		carts:    map[string]*cartdomain.Cart{},
		orders:   map[string]orderdomain.Order{},
		reports:  map[string]moddomain.Report{},
	}
}

// tick returns a strictly increasing timestamp so cart versions never collide.
// Caller holds mu.
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTick) {
		now = s.lastTick.Add(time.Nanosecond)
	}
	s.lastTick = now
	return now
}

func (s *Store) PutProduct(p catalogdomain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p.Normalized()
}

func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *Store) Product(id string) (catalogdomain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) PutOrder(o orderdomain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Events returns a copy of every enqueued outbox message, oldest first.
func (s *Store) Events() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]outbox.Message, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Catalog() *Catalog     { return &Catalog{s: s} }
func (s *Store) Carts() *Carts         { return &Carts{s: s} }
func (s *Store) Orders() *Orders       { return &Orders{s: s} }
func (s *Store) Reports() *Reports     { return &Reports{s: s} }
func (s *Store) Committer() *Committer { return &Committer{s: s} }
func (s *Store) Outbox() *Outbox       { return &Outbox{s: s} }

// Seed loads a JSON array of products, replacing any with the same id.
func (s *Store) Seed(r io.Reader) (int, error) {
	var products []catalogdomain.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return 0, fmt.Errorf("decode seed products: %w", err)
	}
	for i, p := range products {
		p = p.Normalized()
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("seed product %d: %w", i, err)
		}
		products[i] = p
	}
	for _, p := range products {
		s.PutProduct(p)
	}
	return len(products), nil
}
