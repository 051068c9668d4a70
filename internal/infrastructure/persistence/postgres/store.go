package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/feed"
)

// Store provides the PostgreSQL implementation of todo.Repository.
//
// Change notifications come from the database itself: a trigger issues
// pg_notify on every row change, so subscribers also see writes made by
// other processes such as the reminder worker.
type Store struct {
	pool *pgxpool.Pool
	feed *feed.Broadcaster

	listenMu     sync.Mutex
	listening    bool
	stopListener context.CancelFunc
	listenerDone chan struct{}
}

// Compile-time verification that Store implements the repository interface.
var _ todo.Repository = (*Store)(nil)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	s := &Store{pool: pool}
	s.feed = feed.New(s.List)
	return s
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close stops the change listener and closes the connection pool.
func (s *Store) Close() error {
	s.listenMu.Lock()
	if s.listening {
		s.stopListener()
		<-s.listenerDone
		s.listening = false
	}
	s.listenMu.Unlock()

	s.pool.Close()
	return nil
}

// finalizeTx rolls back on error and commits on success.
func finalizeTx(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed",
				"original_error", *err,
				"rollback_error", rbErr)
			*err = fmt.Errorf("transaction failed: %w (rollback error: %v)", *err, rbErr)
		}
		return
	}
	if *err = tx.Commit(ctx); *err != nil {
		slog.ErrorContext(ctx, "transaction commit failed", "error", *err)
	}
}

// executeInTransaction runs fn inside a transaction with logging and panic recovery.
func (s *Store) executeInTransaction(ctx context.Context, operationName string, fn func(tx pgx.Tx) error) (err error) {
	start := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to begin transaction",
			"operation", operationName,
			"error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back",
				"operation", operationName,
				"panic", p)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed",
					"operation", operationName,
					"rollback_error", rbErr)
			}
			panic(p)
		}

		finalizeTx(ctx, tx, &err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed",
				"operation", operationName,
				"duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(tx)
	return
}

// Subscribe delivers the current list and then a fresh list after every
// change to the tasks table.
func (s *Store) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	if err := s.ensureListener(ctx); err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, fn)
}

// ensureListener starts the LISTEN loop once. It returns only after LISTEN
// is active, so no change committed after Subscribe returns can be missed.
func (s *Store) ensureListener(ctx context.Context) error {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	if s.listening {
		return nil
	}

	conn, err := s.listen(ctx)
	if err != nil {
		return err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s.stopListener = cancel
	s.listenerDone = make(chan struct{})
	s.listening = true

	go s.runListener(listenCtx, conn)
	return nil
}

func (s *Store) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}
	return conn, nil
}

// runListener waits for notifications and republishes the task list. A lost
// connection is re-established with backoff, followed by one publish to
// cover changes made while disconnected.
func (s *Store) runListener(ctx context.Context, conn *pgxpool.Conn) {
	defer close(s.listenerDone)

	backoff := time.Second
	for {
		err := s.wait(ctx, conn)
		conn.Release()
		if ctx.Err() != nil {
			return
		}
		slog.ErrorContext(ctx, "Task change listener disconnected", "error", err, "retry_in", backoff)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			conn, err = s.listen(ctx)
			if err == nil {
				break
			}
			backoff = min(backoff*2, 30*time.Second)
			slog.ErrorContext(ctx, "Task change listener reconnect failed", "error", err, "retry_in", backoff)
		}
		backoff = time.Second
		s.feed.Publish(ctx)
	}
}

func (s *Store) wait(ctx context.Context, conn *pgxpool.Conn) error {
	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}
		s.feed.Publish(ctx)
	}
}
