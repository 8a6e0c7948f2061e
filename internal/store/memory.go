package store

import (
	"context"
	"strings"
	"sync"

	"github.com/cmdshifts/backend-products/internal/errors"
)

// MemStore implements CatalogStore using an in-memory slice kept in insertion
// order. Each accessor is individually guarded by the RWMutex; compound
// check-then-act sequences are serialized one level up, in the service.
type MemStore struct {
	mu       sync.RWMutex
	products []Product
	nextID   int64
}

// NewMemStore creates an empty in-memory catalog store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
	}
}

// Insert assigns the next id in the sequence and appends the product.
func (s *MemStore) Insert(_ context.Context, p Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.products = append(s.products, p)
	return &p, nil
}

// FindByID retrieves a product by its ID.
func (s *MemStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.ErrProductNotFound
}

// FindBySku retrieves a product by its exact sku.
func (s *MemStore) FindBySku(_ context.Context, sku string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.products {
		if s.products[i].Sku == sku {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.ErrProductNotFound
}

// FindAll retrieves all products in insertion order.
func (s *MemStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

// FindByCategory retrieves all products with the given category.
func (s *MemStore) FindByCategory(_ context.Context, category string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0)
	for _, p := range s.products {
		if p.Category == category {
			list = append(list, p)
		}
	}
	return list, nil
}

// SearchByKeyword retrieves all products whose name or sku contains the
// keyword, case-insensitively.
func (s *MemStore) SearchByKeyword(_ context.Context, keyword string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(keyword)
	list := make([]Product, 0)
	for _, p := range s.products {
		nameMatch := strings.Contains(strings.ToLower(p.Name), kw)
		skuMatch := strings.Contains(strings.ToLower(p.Sku), kw)
		if nameMatch || skuMatch {
			list = append(list, p)
		}
	}
	return list, nil
}

// UpdatePrice overwrites a product's price.
func (s *MemStore) UpdatePrice(_ context.Context, id int64, price float64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Price = price
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.ErrProductNotFound
}

// UpdateStock overwrites a product's stock level.
func (s *MemStore) UpdateStock(_ context.Context, id int64, stock float64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Stock = stock
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, errors.ErrProductNotFound
}
