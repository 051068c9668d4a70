package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rezkam/todoline/internal/domain"
)

// checkRowsAffected returns domain.ErrTaskNotFound when a write touched no row.
func checkRowsAffected(tag pgconn.CommandTag, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return nil
}

// isUniqueViolation reports a 23505 unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// === Task Operations ===

// Create inserts a new task row.
func (s *Store) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+taskColumns,
		taskArgs(task)...)

	created, err := scanTask(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("task with ID %s already exists: %w", task.ID, err)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	return getTask(ctx, s.pool, id, false)
}

func getTask(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Update locks the row, applies the field mask, and writes it back in one
// transaction so concurrent partial updates never lose each other's fields.
func (s *Store) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Task
	err := s.executeInTransaction(ctx, "update_task", func(tx pgx.Tx) error {
		task, err := getTask(ctx, tx, params.TaskID, true)
		if err != nil {
			return err
		}

		params.Apply(task, time.Now())

		args := taskArgs(task)
		tag, err := tx.Exec(ctx,
			`UPDATE tasks SET
				title = $2, description = $3, projects = $4, due_at = $5,
				start_at = $6, end_at = $7, priority = $8, tags = $9,
				reminder = $10, notified = $11, completed = $12,
				comments = $13, updated_at = $15
			WHERE id = $1`,
			args...)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := checkRowsAffected(tag, params.TaskID); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task row.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkRowsAffected(tag, id)
}

// List returns every task ordered by due date.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY due_at, created_at`)
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

// === Category Operations ===

// AddCategory inserts name; an existing category keeps its position.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	return nil
}

// ListCategories returns the categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
