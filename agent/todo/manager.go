// Package todo holds the in-memory todo list that backs the domain tool set.
package todo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTask    = errors.New("task is empty")
	ErrItemNotFound = errors.New("todo not found")
)

type Item struct {
	ID          string     `json:"id"`
	Task        string     `json:"task"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    string     `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Manager is safe for concurrent use. One Manager is created per process
// and handed to the tools that need it.
type Manager struct {
	mu    sync.RWMutex
	items []*Item
	now   func() time.Time
	newID func() string
}

func NewManager() *Manager {
	return &Manager{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type AddOption func(*Item)

func WithPriority(priority string) AddOption {
	return func(it *Item) {
		it.Priority = strings.TrimSpace(priority)
	}
}

func WithDeadline(deadline string) AddOption {
	return func(it *Item) {
		it.Deadline = strings.TrimSpace(deadline)
	}
}

func (m *Manager) Add(task string, opts ...AddOption) (Item, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Item{}, ErrEmptyTask
	}

	it := &Item{
		ID:        m.newID(),
		Task:      task,
		CreatedAt: m.now().UTC(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(it)
		}
	}

	m.mu.Lock()
	m.items = append(m.items, it)
	m.mu.Unlock()
	return *it, nil
}

// Complete marks the item matching identifier as done. Completing an
// already completed item is a no-op.
func (m *Manager) Complete(identifier string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.resolveLocked(identifier)
	if err != nil {
		return Item{}, err
	}
	it := m.items[idx]
	if !it.Completed {
		done := m.now().UTC()
		it.Completed = true
		it.CompletedAt = &done
	}
	return *it, nil
}

func (m *Manager) Delete(identifier string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.resolveLocked(identifier)
	if err != nil {
		return Item{}, err
	}
	removed := *m.items[idx]
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	return removed, nil
}

func (m *Manager) List() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out
}

// ClearCompleted removes completed items and reports how many were removed.
func (m *Manager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	removed := 0
	for _, it := range m.items {
		if it.Completed {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return removed
}

func (m *Manager) ClearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.items)
	m.items = nil
	return removed
}

// resolveLocked matches by id, then by 1-based position, then by task text
// (exact first, then substring), all case-insensitive.
func (m *Manager) resolveLocked(identifier string) (int, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return -1, fmt.Errorf("%w: identifier is empty", ErrItemNotFound)
	}

	for i, it := range m.items {
		if it.ID == identifier {
			return i, nil
		}
	}

	if n, err := strconv.Atoi(identifier); err == nil {
		if n >= 1 && n <= len(m.items) {
			return n - 1, nil
		}
		return -1, fmt.Errorf("%w: index %d out of range", ErrItemNotFound, n)
	}

	lower := strings.ToLower(identifier)
	for i, it := range m.items {
		if strings.ToLower(it.Task) == lower {
			return i, nil
		}
	}
	for i, it := range m.items {
		if strings.Contains(strings.ToLower(it.Task), lower) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrItemNotFound, identifier)
}
