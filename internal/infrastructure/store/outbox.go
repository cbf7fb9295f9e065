package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusDead      Status = "dead"
)

// DefaultBatch is used by Pending when no positive limit is given.
const DefaultBatch = 100

var ErrEntryNotFound = errors.New("outbox entry not found")

// Entry is an event waiting to be delivered by the relay.
type Entry struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Decode unmarshals the payload into v.
func (e Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", e.EventType, e.ID, err)
	}
	return nil
}

// OutboxStore persists events until the relay has handled them.
type OutboxStore interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Entry, error)
	// Pending returns up to limit pending entries, oldest first.
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkProcessed(ctx context.Context, id string) error
	// MarkFailed records a failed attempt. dead moves the entry out of the pending set.
	MarkFailed(ctx context.Context, id string, cause error, dead bool) error
}

func newEntry(aggregateID, aggregateType, eventType string, data any, now time.Time) (Entry, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Entry{
		ID:            uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          payload,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func batchSize(limit int) int {
	if limit <= 0 {
		return DefaultBatch
	}
	return limit
}

func failedStatus(dead bool) Status {
	if dead {
		return StatusDead
	}
	return StatusPending
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
