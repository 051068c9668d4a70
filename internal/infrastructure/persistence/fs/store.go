// Package fs stores tasks as one JSON file each under a base directory.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/feed"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/record"
)

const (
	tasksDir       = "tasks"
	categoriesFile = "categories.json"
)

// Store is a filesystem-based implementation of todo.Repository.
type Store struct {
	baseDir string
	mu      sync.RWMutex
	feed    *feed.Broadcaster
}

var _ todo.Repository = (*Store)(nil)

// NewStore creates a new filesystem store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, tasksDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	s := &Store{baseDir: baseDir}
	s.feed = feed.New(s.List)
	return s, nil
}

func (s *Store) taskPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return filepath.Join(s.baseDir, tasksDir, id+".json"), nil
}

// Create writes a new task file. An existing ID is an error.
func (s *Store) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	path, err := s.taskPath(task.ID)
	if err != nil {
		return nil, err
	}

	rec := record.FromDomain(task)

	s.mu.Lock()
	if _, err := os.Stat(path); err == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("task with ID %s already exists", task.ID)
	}
	err = writeJSON(path, rec)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx)
	return rec.ToDomain()
}

// Get reads a task file.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	path, err := s.taskPath(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readTask(path, id)
}

// Update applies params to the stored task and rewrites its file.
func (s *Store) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	path, err := s.taskPath(params.TaskID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	task, err := readTask(path, params.TaskID)
	if err == nil {
		params.Apply(task, time.Now())
		err = writeJSON(path, record.FromDomain(task))
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx)
	return task, nil
}

// Delete removes a task file.
func (s *Store) Delete(ctx context.Context, id string) error {
	path, err := s.taskPath(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = os.Remove(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.feed.Publish(ctx)
	return nil
}

// List scans the tasks directory and loads the files in parallel.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.baseDir, tasksDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	tasks := make([]*domain.Task, 0, len(entries))

	// Bounded so large directories do not exhaust file descriptors.
	const maxConcurrency = 20
	semaphore := make(chan struct{}, maxConcurrency)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		wg.Add(1)
		semaphore <- struct{}{}

		go func(filename string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			task, err := readTask(filepath.Join(dir, filename), strings.TrimSuffix(filename, ".json"))
			if err != nil {
				// One corrupt file must not hide the rest of the list.
				return
			}
			mu.Lock()
			tasks = append(tasks, task)
			mu.Unlock()
		}(entry.Name())
	}

	wg.Wait()
	return tasks, nil
}

// Subscribe delivers a snapshot now and after every write through this Store.
func (s *Store) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	return s.feed.Subscribe(ctx, fn)
}

// AddCategory appends name to the categories file unless already present.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.readCategories()
	if err != nil {
		return err
	}
	if slices.Contains(categories, name) {
		return nil
	}
	return writeJSON(filepath.Join(s.baseDir, categoriesFile), append(categories, name))
}

// ListCategories returns the categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readCategories()
}

func (s *Store) readCategories() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, categoriesFile))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	return categories, nil
}

func readTask(path, id string) (*domain.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rec record.Task
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return rec.ToDomain()
}

// writeJSON replaces path atomically so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
