package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresOutbox stores entries in the outbox table.
type PostgresOutbox struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresOutbox(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db, now: time.Now}
}

// ConnectPostgres opens and pings a connection pool.
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *PostgresOutbox) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Entry, error) {
	e, err := newEntry(aggregateID, aggregateType, eventType, data, s.now())
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, data, status, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AggregateID, e.AggregateType, e.EventType, []byte(e.Data), e.Status, e.Attempts, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert outbox entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresOutbox) Pending(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, status, attempts, last_error, created_at, updated_at
		 FROM outbox
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		StatusPending, batchSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			data []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &data,
			&e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Data = data
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresOutbox) MarkProcessed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET status = $2, updated_at = $3 WHERE id = $1`,
		id, StatusProcessed, s.now(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}
	return expectOne(res, id)
}

func (s *PostgresOutbox) MarkFailed(ctx context.Context, id string, cause error, dead bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = $2, status = $3, updated_at = $4 WHERE id = $1`,
		id, errorText(cause), failedStatus(dead), s.now(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return nil
}
