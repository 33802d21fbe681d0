// Package resource implementa el catálogo de productos del resource server.
// Todo el acceso va detrás del middleware del verifier: el resource server
// confía en el auth server únicamente a través del JWKS publicado.
package resource

import (
	"sync"
)

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ProductStore es un CRUD en memoria; la persistencia del catálogo no es el
// punto de este servicio.
type ProductStore struct {
	mu     sync.RWMutex
	items  map[int]Product
	nextID int
}

func NewProductStore() *ProductStore {
	s := &ProductStore{items: make(map[int]Product), nextID: 1}
	for _, p := range []Product{
		{Name: "Product A", Price: 10.0, Description: "Test Product A"},
		{Name: "Product B", Price: 20.0, Description: "Test Product B"},
		{Name: "Product C", Price: 30.0, Description: "Test Product C"},
	} {
		s.add(p)
	}
	return s
}

func (s *ProductStore) add(p Product) Product {
	p.ID = s.nextID
	s.nextID++
	s.items[p.ID] = p
	return p
}

func (s *ProductStore) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.items))
	for id := 1; id < s.nextID; id++ {
		if p, ok := s.items[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *ProductStore) Get(id int) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p, ok
}

func (s *ProductStore) Add(p Product) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(p)
}

func (s *ProductStore) Update(id int, p Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	p.ID = id
	s.items[id] = p
	return true
}

func (s *ProductStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}
