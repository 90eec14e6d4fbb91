// Package cart holds the shopping cart of one session and keeps it consistent
// with its backing storage.
package cart

import (
	"sync"

	"qahwa/internal/model"

	"github.com/shopspring/decimal"
)

// Mode is the backing of a cart. It is fixed for the lifetime of an Engine.
type Mode string

const (
	// ModeGuest carts live only in guest storage.
	ModeGuest Mode = "guest"
	// ModeRemote carts are mirrored from cart_items rows.
	ModeRemote Mode = "remote"
)

// Store is the in-memory line list of a cart. It holds at most one line per
// product and never a line with quantity below one. Only the Engine mutates it.
type Store struct {
	mu    sync.RWMutex
	lines []model.CartLine
}

func newStore(lines []model.CartLine) *Store {
	s := &Store{}
	s.reset(lines)
	return s
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []model.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// TotalQuantity returns the sum of line quantities.
func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the sum of unit price times quantity, computed on every call.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Line returns the line holding productID.
func (s *Store) Line(productID int64) (model.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return model.CartLine{}, false
}

func (s *Store) index(productID int64) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// put replaces the line for line.ProductID or appends it.
func (s *Store) put(line model.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(line.ProductID); i >= 0 {
		s.lines[i] = line
		return
	}
	s.lines = append(s.lines, line)
}

func (s *Store) remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// reset replaces every line. Later duplicates of a product are folded into the
// first occurrence and non-positive quantities are dropped.
func (s *Store) reset(lines []model.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i := s.index(l.ProductID); i >= 0 {
			s.lines[i].Quantity += l.Quantity
			continue
		}
		s.lines = append(s.lines, l)
	}
}

func (s *Store) clear() {
	s.reset(nil)
}
