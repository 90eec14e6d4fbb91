// Package guest persists anonymous carts. Every guest owns a single key holding
// the whole cart, which is overwritten on each mutation.
package guest

import (
	"context"
	"sync"

	"qahwa/internal/model"
)

// Storage is the client-local store of guest carts.
type Storage interface {
	// Load returns the guest's lines. A guest without a cart has none.
	Load(ctx context.Context, guestID string) ([]model.CartLine, error)

	// Save overwrites the guest's cart with lines.
	Save(ctx context.Context, guestID string, lines []model.CartLine) error

	// Delete drops the guest's cart.
	Delete(ctx context.Context, guestID string) error
}

// MemoryStorage keeps guest carts in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]model.CartLine
}

// NewMemoryStorage creates an empty in-memory guest storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]model.CartLine)}
}

func (m *MemoryStorage) Load(_ context.Context, guestID string) ([]model.CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLines(m.carts[guestID]), nil
}

func (m *MemoryStorage) Save(_ context.Context, guestID string, lines []model.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(lines) == 0 {
		delete(m.carts, guestID)
		return nil
	}
	m.carts[guestID] = cloneLines(lines)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, guestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, guestID)
	return nil
}

func cloneLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.Product != nil {
			p := *l.Product
			out[i].Product = &p
		}
	}
	return out
}
