package todo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
)

// ListView returns the tasks shown on one of the fixed tabs, ordered by due date.
func (s *Service) ListView(ctx context.Context, view domain.View) ([]*domain.Task, error) {
	tasks, custom, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.config.Now()
	var keep func(*domain.Task) bool
	switch view {
	case domain.ViewAll:
		keep = func(t *domain.Task) bool {
			return !t.Completed && (len(t.Projects) == 0 || !custom.has(t.Projects[0]))
		}
	case domain.ViewToday:
		keep = func(t *domain.Task) bool { return s.isToday(t, now, custom) }
	case domain.ViewUpcoming:
		keep = func(t *domain.Task) bool { return s.isUpcoming(t, now, custom) }
	case domain.ViewInbox:
		keep = func(t *domain.Task) bool { return !t.Completed && t.InboxOnly() }
	case domain.ViewCompleted:
		keep = func(t *domain.Task) bool { return t.Completed }
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidView, view)
	}

	return filterSorted(tasks, keep), nil
}

// CategoryTasks returns the open tasks in a category or any of its subcategories.
func (s *Service) CategoryTasks(ctx context.Context, name string) ([]*domain.Task, error) {
	category := parser.NormalizeProject(name)
	if category == "" {
		return nil, domain.ErrCategoryRequired
	}

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return filterSorted(tasks, func(t *domain.Task) bool {
		return !t.Completed && t.HasProject(category)
	}), nil
}

// Search matches the query case-insensitively against the title, each
// project and the RFC 3339 due date. A date narrows results to that day.
func (s *Service) Search(ctx context.Context, params domain.SearchParams) ([]*domain.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	return filterSorted(tasks, func(t *domain.Task) bool {
		if params.Date != nil && !domain.SameDay(t.Date, *params.Date, s.config.Location) {
			return false
		}
		return matchesQuery(t, query)
	}), nil
}

// Counts returns the sidebar badge numbers.
func (s *Service) Counts(ctx context.Context) (domain.Counts, error) {
	tasks, custom, err := s.snapshot(ctx)
	if err != nil {
		return domain.Counts{}, err
	}

	now := s.config.Now()
	var c domain.Counts
	for _, t := range tasks {
		switch {
		case t.Completed:
			c.Completed++
		case s.isToday(t, now, custom):
			c.Today++
		case s.isUpcoming(t, now, custom):
			c.Upcoming++
		}
	}
	return c, nil
}

// categorySet holds the custom categories.
type categorySet map[string]struct{}

// has reports whether project, or the main category of a "#Main/sub"
// project, is a custom category.
func (c categorySet) has(project string) bool {
	main, _, _ := strings.Cut(project, "/")
	_, ok := c[main]
	return ok
}

func (c categorySet) any(projects []string) bool {
	return slices.ContainsFunc(projects, c.has)
}

func (s *Service) snapshot(ctx context.Context) ([]*domain.Task, categorySet, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	names, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories: %w", err)
	}

	custom := make(categorySet, len(names))
	for _, n := range names {
		custom[parser.NormalizeProject(n)] = struct{}{}
	}
	return tasks, custom, nil
}

func (s *Service) isToday(t *domain.Task, now time.Time, custom categorySet) bool {
	return !t.Completed && domain.SameDay(t.Date, now, s.config.Location) && !custom.any(t.Projects)
}

func (s *Service) isUpcoming(t *domain.Task, now time.Time, custom categorySet) bool {
	loc := s.config.Location
	return !t.Completed &&
		domain.StartOfDay(t.Date, loc).After(domain.StartOfDay(now, loc)) &&
		!custom.any(t.Projects)
}

func matchesQuery(t *domain.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	for _, p := range t.Projects {
		if strings.Contains(strings.ToLower(p), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(t.Date.Format(time.RFC3339)), query)
}

// filterSorted keeps matching tasks ordered by due date, oldest first.
func filterSorted(tasks []*domain.Task, keep func(*domain.Task) bool) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Task) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
