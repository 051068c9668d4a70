// Package gcs stores tasks as JSON objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/feed"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/record"
)

const (
	taskPrefix      = "tasks/"
	categoriesName  = "categories.json"
	maxWriteRetries = 5
)

// Store is a GCS-based implementation of todo.Repository.
//
// Read-modify-write cycles are guarded with object generation preconditions,
// so two writers updating the same task retry instead of overwriting.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
	feed   *feed.Broadcaster
}

var _ todo.Repository = (*Store)(nil)

// NewStore creates a new GCS store. Objects are written under prefix, which
// may be empty. Without options the client uses Application Default
// Credentials (e.g. GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	s := &Store{
		client: client,
		bucket: bucketName,
		prefix: prefix,
	}
	s.feed = feed.New(s.List)
	return s, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + name)
}

func (s *Store) taskObject(id string) *storage.ObjectHandle {
	return s.object(taskPrefix + id + ".json")
}

// Create writes the task only if no object with its ID exists.
func (s *Store) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	rec := record.FromDomain(task)
	obj := s.taskObject(task.ID).If(storage.Conditions{DoesNotExist: true})

	if err := writeJSON(ctx, obj, rec); err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("task with ID %s already exists: %w", task.ID, err)
		}
		return nil, err
	}

	s.feed.Publish(ctx)
	return rec.ToDomain()
}

// Get reads a task object.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, _, err := s.read(ctx, id)
	return task, err
}

// read returns the task and the generation it was read at.
func (s *Store) read(ctx context.Context, id string) (*domain.Task, int64, error) {
	r, err := s.taskObject(id).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	var rec record.Task
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, 0, fmt.Errorf("failed to decode task: %w", err)
	}
	task, err := rec.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	return task, r.Attrs.Generation, nil
}

// Update applies params and writes back only if nobody else wrote in
// between, retrying on conflict.
func (s *Store) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		task, generation, err := s.read(ctx, params.TaskID)
		if err != nil {
			return nil, err
		}
		params.Apply(task, time.Now())

		obj := s.taskObject(params.TaskID).If(storage.Conditions{GenerationMatch: generation})
		err = writeJSON(ctx, obj, record.FromDomain(task))
		if isPreconditionFailed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.feed.Publish(ctx)
		return task, nil
	}
	return nil, fmt.Errorf("failed to update task %s: too many concurrent writes", params.TaskID)
}

// Delete removes a task object.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.taskObject(id).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.feed.Publish(ctx)
	return nil
}

// List scans the task prefix and loads the objects in parallel.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + taskPrefix})

	var objectNames []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, ".json") {
			objectNames = append(objectNames, attrs.Name)
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	tasks := make([]*domain.Task, 0, len(objectNames))

	const maxConcurrency = 20
	semaphore := make(chan struct{}, maxConcurrency)

	for _, name := range objectNames {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(objectName string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			r, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
			if err != nil {
				// Deleted between listing and reading.
				return
			}
			defer r.Close()

			var rec record.Task
			if err := json.NewDecoder(r).Decode(&rec); err != nil {
				return
			}
			task, err := rec.ToDomain()
			if err != nil {
				return
			}
			mu.Lock()
			tasks = append(tasks, task)
			mu.Unlock()
		}(name)
	}

	wg.Wait()
	return tasks, nil
}

// Subscribe delivers a snapshot now and after every write through this Store.
func (s *Store) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	return s.feed.Subscribe(ctx, fn)
}

// AddCategory appends name to the categories object under a generation
// precondition.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		categories, generation, err := s.readCategories(ctx)
		if err != nil {
			return err
		}
		if slices.Contains(categories, name) {
			return nil
		}

		cond := storage.Conditions{GenerationMatch: generation}
		if generation == 0 {
			cond = storage.Conditions{DoesNotExist: true}
		}
		err = writeJSON(ctx, s.object(categoriesName).If(cond), append(categories, name))
		if isPreconditionFailed(err) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to add category %s: too many concurrent writes", name)
}

// ListCategories returns the categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories, _, err := s.readCategories(ctx)
	return categories, err
}

func (s *Store) readCategories(ctx context.Context) ([]string, int64, error) {
	r, err := s.object(categoriesName).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return []string{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read categories: %w", err)
	}
	defer r.Close()

	var categories []string
	if err := json.NewDecoder(r).Decode(&categories); err != nil {
		return nil, 0, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, r.Attrs.Generation, nil
}

func writeJSON(ctx context.Context, obj *storage.ObjectHandle, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
