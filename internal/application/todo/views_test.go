package todo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
)

// seedViews creates one task per tab rule. #Work is a custom category.
func seedViews(t *testing.T, svc *Service, clock *testClock) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.AddCategory(ctx, "Work")
	require.NoError(t, err)

	yesterday := start.AddDate(0, 0, -1)
	for _, in := range []parser.Input{
		{Text: "Plain task"},
		{Text: "Later task tomorrow"},
		{Text: "Work item #Work"},
		{Text: "Sub task #Work/api"},
		{Text: "Errand #Errands"},
		{Text: "Old task", DueDate: &yesterday},
	} {
		clock.Advance(time.Second)
		_, err := svc.AddTask(ctx, in)
		require.NoError(t, err)
	}

	done, err := svc.AddTask(ctx, parser.Input{Text: "Done task"})
	require.NoError(t, err)
	_, err = svc.ToggleComplete(ctx, done.ID)
	require.NoError(t, err)
}

func titles(tasks []*domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestListView(t *testing.T) {
	svc, _, clock := newTestService(t)
	seedViews(t, svc, clock)
	ctx := context.Background()

	tests := []struct {
		view domain.View
		want []string
	}{
		{domain.ViewAll, []string{"Old task", "Plain task", "Errand", "Later task"}},
		{domain.ViewToday, []string{"Plain task", "Errand"}},
		{domain.ViewUpcoming, []string{"Later task"}},
		{domain.ViewInbox, []string{"Old task", "Plain task", "Later task"}},
		{domain.ViewCompleted, []string{"Done task"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.view), func(t *testing.T) {
			tasks, err := svc.ListView(ctx, tc.view)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(tasks))
		})
	}
}

func TestListView_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListView(context.Background(), domain.View("someday"))
	assert.ErrorIs(t, err, domain.ErrInvalidView)
}

func TestCategoryTasks(t *testing.T) {
	svc, _, clock := newTestService(t)
	seedViews(t, svc, clock)
	ctx := context.Background()

	tasks, err := svc.CategoryTasks(ctx, "Work")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Work item", "Sub task"}, titles(tasks))

	tasks, err = svc.CategoryTasks(ctx, "#Errands")
	require.NoError(t, err)
	assert.Equal(t, []string{"Errand"}, titles(tasks))

	_, err = svc.CategoryTasks(ctx, "")
	assert.ErrorIs(t, err, domain.ErrCategoryRequired)
}

func TestSearch(t *testing.T) {
	svc, _, clock := newTestService(t)
	seedViews(t, svc, clock)
	ctx := context.Background()
	tomorrow := start.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		params domain.SearchParams
		want   []string
	}{
		{"title case-insensitive", domain.SearchParams{Query: "ERRAND"}, []string{"Errand"}},
		{"project", domain.SearchParams{Query: "#work"}, []string{"Work item", "Sub task"}},
		{"date string", domain.SearchParams{Query: "2024-05-02"}, []string{"Later task"}},
		{"date filter", domain.SearchParams{Date: &tomorrow}, []string{"Later task"}},
		{"query and date", domain.SearchParams{Query: "task", Date: &tomorrow}, []string{"Later task"}},
		{"no match", domain.SearchParams{Query: "zebra"}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := svc.Search(ctx, tc.params)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, titles(tasks))
		})
	}
}

func TestCounts(t *testing.T) {
	svc, _, clock := newTestService(t)
	seedViews(t, svc, clock)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Today: 2, Upcoming: 1, Completed: 1}, counts)
}
