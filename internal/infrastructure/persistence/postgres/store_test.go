package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/persistence/compliance"
)

func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TODOLINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TODOLINE_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

func TestPostgresStore_Compliance(t *testing.T) {
	dsn := testDSN(t)

	compliance.RunRepositoryComplianceTest(t, func() (todo.Repository, func()) {
		ctx := context.Background()
		store, err := NewPostgresStore(ctx, dsn)
		require.NoError(t, err)

		_, err = store.Pool().Exec(ctx, "TRUNCATE tasks, categories RESTART IDENTITY")
		require.NoError(t, err)

		cleanup := func() {
			_, _ = store.Pool().Exec(context.Background(), "TRUNCATE tasks, categories RESTART IDENTITY")
			_ = store.Close()
		}
		return store, cleanup
	})
}

func TestPostgresStore_SeesWritesFromOtherConnections(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	subscriber, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer subscriber.Close()
	writer, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer writer.Close()

	_, err = writer.Pool().Exec(ctx, "TRUNCATE tasks, categories RESTART IDENTITY")
	require.NoError(t, err)

	seen := make(chan int, 16)
	unsubscribe, err := subscriber.Subscribe(ctx, func(tasks []*domain.Task) { seen <- len(tasks) })
	require.NoError(t, err)
	defer unsubscribe()
	assert.Equal(t, 0, <-seen)

	now := time.Now().UTC()
	_, err = writer.Create(ctx, &domain.Task{
		ID: "external", Title: "From elsewhere", Projects: []string{domain.InboxProject},
		Date: now, Priority: domain.DefaultPriority(), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	select {
	case n := <-seen:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after a write from another connection")
	}
}

func TestPostgresStore_ReturnsUTC(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Pool().Exec(ctx, "TRUNCATE tasks, categories RESTART IDENTITY")
	require.NoError(t, err)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	date := time.Date(2024, 5, 2, 9, 30, 0, 0, tokyo)
	end := date.Add(time.Hour)

	_, err = store.Create(ctx, &domain.Task{
		ID: "tz", Title: "Standup", Projects: []string{domain.InboxProject},
		Date: date, Start: &date, End: &end, Priority: domain.DefaultPriority(),
		CreatedAt: date, UpdatedAt: date,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "tz")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Date.Location())
	assert.True(t, got.Date.Equal(date), "same instant, got %v", got.Date)
	require.NotNil(t, got.End)
	assert.Equal(t, time.UTC, got.End.Location())
	assert.True(t, got.End.Equal(end))
}

func TestPostgresStore_SQLInTextIsData(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Pool().Exec(ctx, "TRUNCATE tasks, categories RESTART IDENTITY")
	require.NoError(t, err)

	payloads := []string{
		"'; DROP TABLE tasks; --",
		"x' OR '1'='1",
		"Robert'); DELETE FROM categories; --",
	}
	now := time.Now().UTC()
	for i, p := range payloads {
		_, err := store.Create(ctx, &domain.Task{
			ID: string(rune('a' + i)), Title: p, Projects: []string{domain.InboxProject},
			Tags: []string{p}, Comments: []string{p},
			Date: now, Priority: domain.DefaultPriority(), CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
		require.NoError(t, store.AddCategory(ctx, "#"+p))
	}

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, len(payloads))
	for _, task := range tasks {
		assert.Contains(t, payloads, task.Title)
		assert.Equal(t, []string{task.Title}, task.Tags)
		assert.Equal(t, []string{task.Title}, task.Comments)
	}

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(payloads))

	_, err = store.Get(ctx, "a' OR '1'='1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDBConfig_Defaults(t *testing.T) {
	cfg := DBConfig{MinConns: 50}.withDefaults()

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(10), cfg.MinConns, "min is capped at max")
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.ConnMaxIdleTime)
}
