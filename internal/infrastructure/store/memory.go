package store

import (
	"context"
	"sync"
	"time"
)

// MemoryOutbox keeps entries for the lifetime of the process.
type MemoryOutbox struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
	now     func() time.Time
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func (s *MemoryOutbox) Append(_ context.Context, aggregateID, aggregateType, eventType string, data any) (*Entry, error) {
	e, err := newEntry(aggregateID, aggregateType, eventType, data, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[e.ID] = &e
	s.order = append(s.order, e.ID)
	s.mu.Unlock()

	out := e
	return &out, nil
}

func (s *MemoryOutbox) Pending(_ context.Context, limit int) ([]Entry, error) {
	limit = batchSize(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, id := range s.order {
		e := s.entries[id]
		if e.Status != StatusPending {
			continue
		}
		out = append(out, *e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryOutbox) MarkProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status = StatusProcessed
	e.UpdatedAt = s.now()
	return nil
}

func (s *MemoryOutbox) MarkFailed(_ context.Context, id string, cause error, dead bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	e.Attempts++
	e.LastError = errorText(cause)
	e.Status = failedStatus(dead)
	e.UpdatedAt = s.now()
	return nil
}

// All returns every entry in insertion order regardless of status.
func (s *MemoryOutbox) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out
}
