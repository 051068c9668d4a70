package todo

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rezkam/todoline/internal/domain"
)

// fakeRepo is an in-memory Repository that counts calls.
type fakeRepo struct {
	mu         sync.Mutex
	tasks      map[string]*domain.Task
	order      []string
	categories []string
	calls      int
	createErr  error
	now        func() time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[string]*domain.Task{}, now: time.Now}
}

func (r *fakeRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.tasks[task.ID] = task.Clone()
	r.order = append(r.order, task.ID)
	return task.Clone(), nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *fakeRepo) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tasks[params.TaskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	params.Apply(t, r.now())
	return t.Clone(), nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]*domain.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].Clone())
	}
	return out, nil
}

func (r *fakeRepo) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	tasks, _ := r.List(ctx)
	fn(tasks)
	return func() {}, nil
}

func (r *fakeRepo) AddCategory(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.categories, name) {
		r.categories = append(r.categories, name)
	}
	return nil
}

func (r *fakeRepo) ListCategories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.categories), nil
}

func (r *fakeRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var errStoreDown = errors.New("store unavailable")
