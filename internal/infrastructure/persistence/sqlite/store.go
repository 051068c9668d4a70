// Package sqlite stores tasks in a single SQLite file using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver without CGO

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/feed"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/record"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Timestamps are stored as fixed-width UTC text so they sort correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const taskColumns = `id, title, description, projects, due_at, start_at, end_at,
	priority, tags, reminder, notified, completed, comments, created_at, updated_at`

// Store is a SQLite implementation of todo.Repository.
type Store struct {
	db   *sql.DB
	feed *feed.Broadcaster
}

var _ todo.Repository = (*Store)(nil)

// NewStore opens (or creates) the database at path and migrates it.
func NewStore(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Store{db: db}
	s.feed = feed.New(s.List)
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a new task row.
func (s *Store) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	args, err := taskArgs(task)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.feed.Publish(ctx)
	return s.Get(ctx, task.ID)
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q execer, id string) (*domain.Task, error) {
	task, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Update applies the field mask inside a transaction.
func (s *Store) Update(ctx context.Context, params domain.UpdateTaskParams) (_ *domain.Task, err error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed", "original_error", err, "rollback_error", rbErr)
			}
		}
	}()

	task, err := getTask(ctx, tx, params.TaskID)
	if err != nil {
		return nil, err
	}
	params.Apply(task, time.Now())

	args, err := taskArgs(task)
	if err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE tasks SET
			title = ?2, description = ?3, projects = ?4, due_at = ?5,
			start_at = ?6, end_at = ?7, priority = ?8, tags = ?9,
			reminder = ?10, notified = ?11, completed = ?12,
			comments = ?13, updated_at = ?15
		WHERE id = ?1`,
		args...); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.feed.Publish(ctx)
	return task, nil
}

// Delete removes a task row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}

	s.feed.Publish(ctx)
	return nil
}

// List returns every task ordered by due date.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY due_at, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Subscribe delivers a snapshot now and after every write through this Store.
func (s *Store) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	return s.feed.Subscribe(ctx, fn)
}

// AddCategory inserts name; an existing category keeps its position.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	return nil
}

// ListCategories returns the categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, name)
	}
	return categories, rows.Err()
}

func taskArgs(task *domain.Task) ([]any, error) {
	rec := record.FromDomain(task)

	projects, err := json.Marshal(rec.Projects)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal projects: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	comments, err := json.Marshal(rec.Comments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comments: %w", err)
	}

	return []any{
		rec.ID,
		rec.Title,
		rec.Description,
		string(projects),
		formatTime(rec.Date),
		formatTimePtr(rec.Start),
		formatTimePtr(rec.End),
		rec.Priority,
		string(tags),
		rec.Reminder,
		rec.Notified,
		rec.Completed,
		string(comments),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	}, nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		rec                      record.Task
		projects, tags, comments string
		due, created, updated    string
		start, end               sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&projects,
		&due,
		&start,
		&end,
		&rec.Priority,
		&tags,
		&rec.Reminder,
		&rec.Notified,
		&rec.Completed,
		&comments,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw  string
		dest *[]string
	}{{projects, &rec.Projects}, {tags, &rec.Tags}, {comments, &rec.Comments}} {
		if err := json.Unmarshal([]byte(field.raw), field.dest); err != nil {
			return nil, fmt.Errorf("task %s: failed to decode list column: %w", rec.ID, err)
		}
	}

	var err error
	if rec.Date, err = parseTime(due); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if rec.Start, err = parseTimePtr(start); err != nil {
		return nil, err
	}
	if rec.End, err = parseTimePtr(end); err != nil {
		return nil, err
	}

	return rec.ToDomain()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
