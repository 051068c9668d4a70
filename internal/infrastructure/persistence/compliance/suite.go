// Package compliance holds the behavioral test suite every todo.Repository
// backend must pass.
package compliance

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
)

// RunRepositoryComplianceTest runs a standard set of tests against a Repository implementation.
// setup returns a fresh (clean) Repository and a teardown func that releases its resources.
func RunRepositoryComplianceTest(t *testing.T, setup func() (todo.Repository, func())) {
	t.Run("CreateAndGetTask", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task := newTask("Call the dentist")
		start := task.Date
		end := start.Add(45 * time.Minute)
		task.Start, task.End = &start, &end
		task.Reminder = domain.ReminderBefore()
		task.Priority = domain.PriorityFor(1)
		task.Projects = []string{"#Work", "#Work/api"}
		task.Tags = []string{"phone"}

		created, err := repo.Create(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, task.ID, created.ID)

		fetched, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Call the dentist", fetched.Title)
		assert.Equal(t, []string{"#Work", "#Work/api"}, fetched.Projects)
		assert.Equal(t, []string{"phone"}, fetched.Tags)
		assert.Equal(t, domain.PriorityFor(1), fetched.Priority)
		assert.Equal(t, domain.ReminderKindBefore, fetched.Reminder.Kind())
		assert.True(t, fetched.Date.Equal(task.Date))
		require.NotNil(t, fetched.Start)
		require.NotNil(t, fetched.End)
		assert.True(t, fetched.Start.Equal(start))
		assert.True(t, fetched.End.Equal(end))
		assert.Empty(t, fetched.Comments)
		assert.False(t, fetched.Completed)
	})

	t.Run("GetNonExistentTask", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()

		_, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()).String())
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("UpdateAppliesOnlyMaskedFields", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task := newTask("Write report")
		task.Description = "quarterly"
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		priority := domain.PriorityFor(2)
		completed := true
		comment := "halfway there"
		updated, err := repo.Update(ctx, domain.UpdateTaskParams{
			TaskID:        task.ID,
			UpdateMask:    []string{domain.FieldPriority, domain.FieldCompleted, domain.FieldComments},
			Priority:      &priority,
			Completed:     &completed,
			AppendComment: &comment,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Priority.Level)
		assert.True(t, updated.Completed)
		assert.Equal(t, []string{"halfway there"}, updated.Comments)
		assert.Equal(t, "quarterly", updated.Description, "unmasked field must survive")

		fetched, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Priority, fetched.Priority)
		assert.True(t, fetched.Completed)
		assert.Equal(t, []string{"halfway there"}, fetched.Comments)
		assert.Equal(t, "Write report", fetched.Title)
	})

	t.Run("UpdateClearsReminder", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task := newTask("Pay rent")
		task.Reminder = domain.ReminderAt(task.Date.Add(-time.Hour))
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		_, err = repo.Update(ctx, domain.UpdateTaskParams{
			TaskID:     task.ID,
			UpdateMask: []string{domain.FieldReminder},
		})
		require.NoError(t, err)

		fetched, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, fetched.Reminder.IsSet())
	})

	t.Run("UpdateNonExistentTask", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()

		notified := true
		_, err := repo.Update(context.Background(), domain.UpdateTaskParams{
			TaskID:     uuid.Must(uuid.NewV7()).String(),
			UpdateMask: []string{domain.FieldNotified},
			Notified:   &notified,
		})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("UpdateRejectsInvalidMask", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task := newTask("Anything")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		_, err = repo.Update(ctx, domain.UpdateTaskParams{TaskID: task.ID})
		assert.ErrorIs(t, err, domain.ErrEmptyUpdateMask)
	})

	t.Run("DeleteTask", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task := newTask("Throw away")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, task.ID))

		_, err = repo.Get(ctx, task.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		err = repo.Delete(ctx, task.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("ListTasks", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		task1 := newTask("Task 1")
		task2 := newTask("Task 2")
		_, err := repo.Create(ctx, task1)
		require.NoError(t, err)
		_, err = repo.Create(ctx, task2)
		require.NoError(t, err)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)

		ids := make(map[string]bool)
		for _, task := range tasks {
			ids[task.ID] = true
		}
		assert.Len(t, tasks, 2)
		assert.True(t, ids[task1.ID])
		assert.True(t, ids[task2.ID])
	})

	t.Run("Categories", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		categories, err := repo.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)

		require.NoError(t, repo.AddCategory(ctx, "#Work"))
		require.NoError(t, repo.AddCategory(ctx, "#Errands"))
		require.NoError(t, repo.AddCategory(ctx, "#Work"))

		categories, err = repo.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"#Work", "#Errands"}, categories)
	})

	t.Run("SubscribeDeliversSnapshots", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		existing := newTask("Already here")
		_, err := repo.Create(ctx, existing)
		require.NoError(t, err)

		var mu sync.Mutex
		var snapshots [][]*domain.Task
		unsubscribe, err := repo.Subscribe(ctx, func(tasks []*domain.Task) {
			mu.Lock()
			defer mu.Unlock()
			snapshots = append(snapshots, tasks)
		})
		require.NoError(t, err)
		defer unsubscribe()

		contains := func(id string) bool {
			mu.Lock()
			defer mu.Unlock()
			if len(snapshots) == 0 {
				return false
			}
			return slices.ContainsFunc(snapshots[len(snapshots)-1], func(t *domain.Task) bool {
				return t.ID == id
			})
		}

		require.Eventually(t, func() bool { return contains(existing.ID) }, 5*time.Second, 10*time.Millisecond,
			"initial snapshot must include existing tasks")

		added := newTask("Added later")
		_, err = repo.Create(ctx, added)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return contains(added.ID) }, 5*time.Second, 10*time.Millisecond,
			"a write must produce a fresh snapshot")
	})
}

func newTask(title string) *domain.Task {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Task{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     title,
		Projects:  []string{domain.InboxProject},
		Date:      now,
		Priority:  domain.DefaultPriority(),
		Tags:      []string{},
		Comments:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
