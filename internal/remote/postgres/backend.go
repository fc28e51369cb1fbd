package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/five82/courier/internal/remote"
)

// Channel is the LISTEN/NOTIFY channel; payloads are collection names.
const Channel = "courier_collections"

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS courier_collections (
	name       text PRIMARY KEY,
	doc        jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`
	selectSQL = `SELECT doc FROM courier_collections WHERE name = $1`
	upsertSQL = `INSERT INTO courier_collections (name, doc, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`
	notifySQL = `SELECT pg_notify($1, $2)`

	defaultReconnect = 2 * time.Second
)

// Ensure Backend implements remote.Backend at compile time.
var _ remote.Backend = (*Backend)(nil)

// Backend stores each collection as a jsonb row and pushes changes with NOTIFY.
type Backend struct {
	pool         *pgxpool.Pool
	ownsPool     bool
	reconnectMin time.Duration
}

// New wraps an existing pool. Close leaves the pool open.
func New(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool, reconnectMin: defaultReconnect}
}

// Open connects to dsn, verifies the connection, and creates the table when missing.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	b := New(pool)
	b.ownsPool = true
	if err := b.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// EnsureSchema creates the collections table if it does not exist.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create courier_collections: %w", err)
	}
	return nil
}

// Get returns the stored document or remote.Null.
func (b *Backend) Get(ctx context.Context, collection string) (json.RawMessage, error) {
	return get(ctx, b.pool, collection)
}

// Set upserts the document and notifies listeners in the same transaction.
func (b *Backend) Set(ctx context.Context, collection string, doc json.RawMessage) error {
	if remote.IsNull(doc) {
		doc = remote.Null
	}
	if !json.Valid(doc) {
		return fmt.Errorf("set %s: document is not valid JSON", collection)
	}
	return withTx(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertSQL, collection, string(doc)); err != nil {
			return fmt.Errorf("upsert %s: %w", collection, err)
		}
		if _, err := tx.Exec(ctx, notifySQL, Channel, collection); err != nil {
			return fmt.Errorf("notify %s: %w", collection, err)
		}
		return nil
	})
}

// Watch holds a dedicated pooled connection listening on Channel and
// re-reads the collection whenever it is notified.
func (b *Backend) Watch(ctx context.Context, collection string, onValue func(json.RawMessage), onError func(error)) error {
	return remote.Reconnect(ctx, b.reconnectMin, func(ctx context.Context, reset func()) error {
		return b.listen(ctx, collection, onValue, reset)
	}, onError)
}

// Close closes the pool when the backend opened it.
func (b *Backend) Close() error {
	if b.ownsPool {
		b.pool.Close()
	}
	return nil
}

func (b *Backend) listen(ctx context.Context, collection string, onValue func(json.RawMessage), reset func()) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(cleanupCtx, "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	// Read after LISTEN so a write between the two is not lost.
	doc, err := get(ctx, conn, collection)
	if err != nil {
		return err
	}
	reset()
	onValue(doc)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload != collection {
			continue
		}
		doc, err := get(ctx, conn, collection)
		if err != nil {
			return err
		}
		onValue(doc)
	}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func get(ctx context.Context, q querier, collection string) (json.RawMessage, error) {
	var doc []byte
	err := q.QueryRow(ctx, selectSQL, collection).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return remote.Null, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", collection, err)
	}
	return json.RawMessage(doc), nil
}

// withTx runs fn in a transaction, joining any rollback failure into the error.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (txErr error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
