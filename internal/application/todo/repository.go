package todo

import (
	"context"

	"github.com/rezkam/todoline/internal/domain"
)

// Repository defines storage operations for tasks and categories.
// All create/update operations return the entity as persisted.
type Repository interface {
	// === Task Operations ===

	// Create stores a new task. The ID is assigned by the service.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Get retrieves a single task by its ID.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// Update applies a field-mask update and returns the updated task.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)

	// Delete removes a task.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	Delete(ctx context.Context, id string) error

	// List returns every task.
	List(ctx context.Context) ([]*domain.Task, error)

	// Subscribe calls fn with the full task list once on subscription and
	// again after every change, until unsubscribe is called or ctx ends.
	Subscribe(ctx context.Context, fn func([]*domain.Task)) (unsubscribe func(), err error)

	// === Category Operations ===

	// AddCategory records a custom category in canonical "#Name" form.
	// Adding an existing category is a no-op.
	AddCategory(ctx context.Context, name string) error

	// ListCategories returns the custom categories in insertion order.
	ListCategories(ctx context.Context) ([]string, error)
}
