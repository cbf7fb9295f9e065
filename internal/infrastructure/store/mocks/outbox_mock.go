package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/store"
)

// MockOutbox wraps an in-memory outbox and records calls for tests.
type MockOutbox struct {
	*store.MemoryOutbox

	mu sync.Mutex

	AppendCalls []AppendCall
	FailedCalls []FailedCall
	AppendErr   error
	PendingErr  error
	MarkErr     error
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

// FailedCall records parameters passed to MarkFailed
type FailedCall struct {
	ID    string
	Cause error
	Dead  bool
}

func NewMockOutbox() *MockOutbox {
	return &MockOutbox{MemoryOutbox: store.NewMemoryOutbox()}
}

func (m *MockOutbox) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Entry, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	err := m.AppendErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.MemoryOutbox.Append(ctx, aggregateID, aggregateType, eventType, data)
}

func (m *MockOutbox) Pending(ctx context.Context, limit int) ([]store.Entry, error) {
	if m.PendingErr != nil {
		return nil, m.PendingErr
	}
	return m.MemoryOutbox.Pending(ctx, limit)
}

func (m *MockOutbox) MarkProcessed(ctx context.Context, id string) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	return m.MemoryOutbox.MarkProcessed(ctx, id)
}

func (m *MockOutbox) MarkFailed(ctx context.Context, id string, cause error, dead bool) error {
	m.mu.Lock()
	m.FailedCalls = append(m.FailedCalls, FailedCall{ID: id, Cause: cause, Dead: dead})
	m.mu.Unlock()

	if m.MarkErr != nil {
		return m.MarkErr
	}
	return m.MemoryOutbox.MarkFailed(ctx, id, cause, dead)
}

// Reset clears recorded calls and injected errors.
func (m *MockOutbox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls = nil
	m.FailedCalls = nil
	m.AppendErr = nil
	m.PendingErr = nil
	m.MarkErr = nil
}

var _ store.OutboxStore = (*MockOutbox)(nil)
