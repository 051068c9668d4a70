// Package firestore stores tasks in a Cloud Firestore collection and streams
// changes with query snapshot listeners.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/record"
)

const (
	tasksCollection = "tasks"
	metaCollection  = "meta"
	categoriesDoc   = "categories"
)

// categoryList is the single document holding the ordered category names.
type categoryList struct {
	Names []string `firestore:"names"`
}

// Store is a Firestore implementation of todo.Repository.
type Store struct {
	client *firestore.Client
	prefix string
}

var _ todo.Repository = (*Store)(nil)

// NewStore wraps client. Collections are named with prefix prepended, which
// lets tests share one project.
func NewStore(client *firestore.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) tasks() *firestore.CollectionRef {
	return s.client.Collection(s.prefix + tasksCollection)
}

func (s *Store) categoriesRef() *firestore.DocumentRef {
	return s.client.Collection(s.prefix + metaCollection).Doc(categoriesDoc)
}

// Create adds the task document; an existing ID is an error.
func (s *Store) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	rec := record.FromDomain(task)
	if _, err := s.tasks().Doc(task.ID).Create(ctx, rec); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("task with ID %s already exists: %w", task.ID, err)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return rec.ToDomain()
}

// Get reads a task document.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	snap, err := s.tasks().Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, id)
	}
	return decode(snap)
}

// Update applies the field mask inside a Firestore transaction, which
// retries automatically on contention.
func (s *Store) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ref := s.tasks().Doc(params.TaskID)
	var updated *domain.Task
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err, params.TaskID)
		}
		task, err := decode(snap)
		if err != nil {
			return err
		}

		params.Apply(task, time.Now())
		updated = task
		return tx.Set(ref, record.FromDomain(task))
	})
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// Delete removes a task document.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.tasks().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return notFound(err, id)
	}
	return nil
}

// List returns every task document.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	docs, err := s.tasks().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return decodeAll(docs)
}

// Subscribe opens a snapshot listener on the tasks collection. Firestore
// sends the current result set first and a new one after every change,
// including changes made by other clients.
func (s *Store) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.tasks().Snapshots(ctx)

	// The first snapshot is read synchronously so setup errors reach the caller.
	first, err := nextSnapshot(it)
	if err != nil {
		it.Stop()
		cancel()
		return nil, fmt.Errorf("failed to start snapshot listener: %w", err)
	}

	go func() {
		defer it.Stop()
		fn(first)
		for {
			tasks, err := nextSnapshot(it)
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					slog.ErrorContext(ctx, "Task snapshot listener stopped", "error", err)
				}
				return
			}
			fn(tasks)
		}
	}()

	return cancel, nil
}

func nextSnapshot(it *firestore.QuerySnapshotIterator) ([]*domain.Task, error) {
	snap, err := it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	return decodeAll(docs)
}

// AddCategory appends name to the categories document.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	ref := s.categoriesRef()
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var list categoryList
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&list); err != nil {
				return err
			}
		}

		if slices.Contains(list.Names, name) {
			return nil
		}
		list.Names = append(list.Names, name)
		return tx.Set(ref, list)
	})
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	return nil
}

// ListCategories returns the categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	snap, err := s.categoriesRef().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	var list categoryList
	if err := snap.DataTo(&list); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if list.Names == nil {
		return []string{}, nil
	}
	return list.Names, nil
}

func decode(snap *firestore.DocumentSnapshot) (*domain.Task, error) {
	var rec record.Task
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", snap.Ref.ID, err)
	}
	return rec.ToDomain()
}

func decodeAll(docs []*firestore.DocumentSnapshot) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := decode(doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func notFound(err error, id string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return fmt.Errorf("firestore request failed: %w", err)
}
