package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	pingTimeout      = 1 * time.Second
	queryTimeout     = 3 * time.Second
	listenRetryDelay = 2 * time.Second

	notifyChannel = "kv_changes"

	pgDiskFull     = "53100"
	pgOutOfMemory  = "53200"
	pgProgramLimit = "54000"
)

type notification struct {
	Key     string `json:"key"`
	Origin  string `json:"origin"`
	Deleted bool   `json:"deleted,omitempty"`
}

// PostgresStore keeps entries in one table and announces writes with
// NOTIFY. Postgres delivers a notification to the session that sent it as
// well, so every payload carries the writer's origin id and the listener
// drops its own.
type PostgresStore struct {
	pool   *pgxpool.Pool
	origin string
	log    *zap.Logger

	mu   sync.Mutex
	subs subscribers

	stop context.CancelFunc
	done chan struct{}
}

// OpenPostgres connects, creates the table if needed and starts listening.
func OpenPostgres(ctx context.Context, dsn string, log *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	s := NewPostgresStore(pool, log)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s.start()
	return s, nil
}

func NewPostgresStore(pool *pgxpool.Pool, log *zap.Logger) *PostgresStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStore{
		pool:   pool,
		origin: uuid.NewString(),
		log:    log,
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS kv_entries (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				origin     UUID NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			SELECT value
			FROM kv_entries
			WHERE key = $1
		`, key).Scan(&v)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `
			INSERT INTO kv_entries (key, value, origin, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at
		`, key, value, s.origin)
		if err != nil {
			return err
		}

		if err := s.notify(ctx, tx, notification{Key: key, Origin: s.origin}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if isCapacityError(err) {
		return ErrQuotaExceeded
	}
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		tag, err := tx.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if err := s.notify(ctx, tx, notification{Key: key, Origin: s.origin, Deleted: true}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (s *PostgresStore) notify(ctx context.Context, tx pgx.Tx, n notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload))
	return err
}

func (s *PostgresStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.subs.add(fn)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.subs.remove(id)
		s.mu.Unlock()
	}
}

func (s *PostgresStore) Close() error {
	if s.stop != nil {
		s.stop()
		<-s.done
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan struct{})
	go s.listen(ctx)
}

func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("kv listener stopped, retrying", zap.Error(err), zap.Duration("backoff", listenRetryDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryDelay):
		}
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// A LISTENing session must not go back to the pool.
	conn := pc.Hijack()
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.handleNotification(ctx, n.Payload)
	}
}

func (s *PostgresStore) handleNotification(ctx context.Context, payload string) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		s.log.Warn("kv notification ignored", zap.Error(err), zap.String("payload", payload))
		return
	}
	if n.Origin == s.origin {
		return
	}

	c := Change{Key: n.Key, Deleted: n.Deleted}
	if !n.Deleted {
		v, ok, err := s.Get(ctx, n.Key)
		if err != nil {
			s.log.Warn("kv notification fetch failed", zap.Error(err), zap.String("key", n.Key))
			return
		}
		c.Value = v
		c.Deleted = !ok
	}

	s.mu.Lock()
	fns := s.subs.snapshot()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func isCapacityError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgDiskFull, pgOutOfMemory, pgProgramLimit:
		return true
	}
	return false
}
