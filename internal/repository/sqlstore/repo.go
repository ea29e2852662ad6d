// Package sqlstore persists conversation messages in PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	messagesTable = "messages"
)

var (
	//go:embed schema_postgres.sql
	postgresSchema string

	//go:embed schema_sqlite.sql
	sqliteSchema string
)

var messageColumns = []string{
	"id",
	"conversation_id",
	"role",
	"content",
	"language_code",
	"sender_id",
	"extra_metadata",
	"idempotency_key",
	"created_at",
}

// Config selects the database.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Repository reads and writes persisted messages.
type Repository struct {
	db          *sqlx.DB
	driver      string
	placeholder sq.PlaceholderFormat
}

// Open connects to the database and creates the schema if it is missing.
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	driver := strings.ToLower(cfg.Driver)
	var schema string
	var placeholder sq.PlaceholderFormat

	switch driver {
	case DriverPostgres:
		schema, placeholder = postgresSchema, sq.Dollar
	case DriverSQLite:
		schema, placeholder = sqliteSchema, sq.Question
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One connection keeps in-memory databases shared and serializes writers.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite pragma: %w", err)
		}
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{db: db, driver: driver, placeholder: placeholder}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Driver returns the database driver name.
func (r *Repository) Driver() string {
	return r.driver
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InsertMessage stores msg unless a row with the same idempotency key exists. It reports
// whether a row was written.
func (r *Repository) InsertMessage(ctx context.Context, msg *model.PersistedMessage) (bool, error) {
	extra := msg.ExtraMetadata
	if extra == "" {
		extra = "{}"
	}

	query, args, err := sq.Insert(messagesTable).
		Columns(messageColumns...).
		Values(
			msg.ID,
			msg.ConversationID,
			string(msg.Role),
			msg.Content,
			msg.LanguageCode,
			msg.SenderID,
			extra,
			msg.IdempotencyKey,
			msg.CreatedAt.UTC(),
		).
		Suffix("ON CONFLICT (idempotency_key) DO NOTHING").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build sql query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListMessages returns one page of a conversation, newest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID string, page, limit int) ([]model.PersistedMessage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	query, args, err := sq.Select(messageColumns...).
		From(messagesTable).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %w", err)
	}

	messages := make([]model.PersistedMessage, 0, limit)
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	for i := range messages {
		messages[i].CreatedAt = messages[i].CreatedAt.UTC()
	}
	return messages, nil
}

// CountMessages returns how many messages of a conversation are stored.
func (r *Repository) CountMessages(ctx context.Context, conversationID string) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(messagesTable).
		Where(sq.Eq{"conversation_id": conversationID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
