// Package memory implementa core.Store en memoria. Se usa en dev y en los
// tests de concurrencia (rotación + emisión con clock inyectado).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/keysmith/internal/store/core"
)

type Store struct {
	mu      sync.Mutex
	keys    []core.SigningKey
	users   map[string]core.User // id -> user
	clients map[string]core.Client
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:   make(map[string]core.User),
		clients: make(map[string]core.Client),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

// ----- signing keys -----

func (s *Store) GetActiveSigningKey(ctx context.Context) (*core.SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.keys {
		if s.keys[i].Status == core.KeyActive {
			cp := s.keys[i]
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListPublishableSigningKeys(ctx context.Context, now time.Time) ([]core.SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SigningKey, 0, len(s.keys))
	for _, k := range s.keys {
		if k.Expired(now) {
			continue
		}
		cp := k
		cp.PrivateKey = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status == core.KeyActive
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateSigningKey inserta como active y retira la active previa bajo el
// mismo lock: ningún lector puede observar dos claves active.
func (s *Store) CreateSigningKey(ctx context.Context, k *core.SigningKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.keys {
		if s.keys[i].KID == k.KID {
			return core.ErrConflict
		}
	}
	now := time.Now().UTC()
	for i := range s.keys {
		if s.keys[i].Status == core.KeyActive {
			s.keys[i].Status = core.KeyRetired
			rotated := now
			s.keys[i].RotatedAt = &rotated
		}
	}
	cp := *k
	cp.Status = core.KeyActive
	s.keys = append(s.keys, cp)
	return nil
}

func (s *Store) RetireSigningKey(ctx context.Context, kid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.keys {
		if s.keys[i].KID == kid && s.keys[i].Status == core.KeyActive {
			s.keys[i].Status = core.KeyRetired
			rotated := time.Now().UTC()
			s.keys[i].RotatedAt = &rotated
		}
	}
	return nil
}

// ----- users -----

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(u.Email)
	for _, ex := range s.users {
		if strings.ToLower(ex.Email) == lower {
			return core.ErrConflict
		}
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	s.users[u.ID] = cp
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == lower {
			cp := u
			cp.Roles = append([]string(nil), u.Roles...)
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	lower := strings.ToLower(u.Email)
	for id, ex := range s.users {
		if id != u.ID && strings.ToLower(ex.Email) == lower {
			return core.ErrConflict
		}
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	s.users[u.ID] = cp
	return nil
}

// ----- clients -----

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; ok {
		return core.ErrConflict
	}
	s.clients[c.ClientID] = *c
	return nil
}

func (s *Store) GetClientByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := c
	return &cp, nil
}
