package todo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
)

// testClock is a settable clock shared by the parser and the service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var start = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeRepo, *testClock) {
	t.Helper()
	clock := &testClock{now: start}
	repo := newFakeRepo()
	repo.now = clock.Now
	p := parser.New(parser.Options{Now: clock.Now, Location: time.UTC})
	svc := NewService(repo, p, Config{Now: clock.Now})
	return svc, repo, clock
}

func TestAddTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, parser.Input{
		Text:     "Plan meeting #Work /frontend @alice p2 tomorrow at 3pm for 30min",
		Reminder: domain.ReminderBefore(),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(task.ID)
	assert.NoError(t, err, "ID should be a UUID")
	assert.Equal(t, "Plan meeting", task.Title)
	assert.Equal(t, []string{"#Work", "#Work/frontend"}, task.Projects)
	assert.Equal(t, []string{"alice"}, task.Tags)
	assert.Equal(t, 2, task.Priority.Level)
	assert.Equal(t, time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC), task.Date)
	assert.Equal(t, "⏰ 03:00 PM – 03:30 PM", task.TimeRangeLabel())
	assert.Equal(t, start, task.CreatedAt)
	assert.Equal(t, start, task.UpdatedAt)

	stored, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, stored.Title)
}

func TestAddTask_ValidationSkipsRepository(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		text    string
		wantErr error
	}{
		{"", domain.ErrTitleRequired},
		{"#Work p1 tomorrow", domain.ErrTitleRequired},
		{"Design /frontend", domain.ErrMainCategoryRequired},
	}

	for _, tc := range tests {
		_, err := svc.AddTask(ctx, parser.Input{Text: tc.text})
		assert.ErrorIs(t, err, tc.wantErr, "text %q", tc.text)
	}
	assert.Zero(t, repo.callCount())
}

func TestAddTask_CategoryContext(t *testing.T) {
	svc, _, _ := newTestService(t)

	task, err := svc.AddTask(context.Background(), parser.Input{Text: "Design /frontend", Category: "Work"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#Work", "#Work/frontend"}, task.Projects)
}

func TestAddTask_PersistenceFailureIsWrapped(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = errStoreDown

	_, err := svc.AddTask(context.Background(), parser.Input{Text: "Buy milk"})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, repo.callCount(), "no retry")
}

func TestPreview_DoesNotStore(t *testing.T) {
	svc, repo, _ := newTestService(t)

	res, err := svc.Preview(context.Background(), parser.Input{Text: "Buy milk #Groceries p3"})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", res.Title)
	assert.Equal(t, 3, res.Priority.Level)
	assert.Zero(t, repo.callCount())
}

func TestEditTask_KeepsCommentsAndCompletion(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, parser.Input{Text: "Old title #Home"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, task.ID, "keep me")
	require.NoError(t, err)
	_, err = svc.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	edited, err := svc.EditTask(ctx, task.ID, parser.Input{Text: "New title #Work tomorrow p1"})
	require.NoError(t, err)

	assert.Equal(t, "New title", edited.Title)
	assert.Equal(t, []string{"#Work"}, edited.Projects)
	assert.Equal(t, 1, edited.Priority.Level)
	// "tomorrow" is relative to the task's current date, not the clock.
	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), edited.Date)
	assert.Equal(t, []string{"keep me"}, edited.Comments)
	assert.True(t, edited.Completed)
	assert.Equal(t, start, edited.CreatedAt)
	assert.Equal(t, start.Add(time.Hour), edited.UpdatedAt)
}

func TestEditTask_RejectsBadText(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, parser.Input{Text: "Keep"})
	require.NoError(t, err)

	_, err = svc.EditTask(ctx, task.ID, parser.Input{Text: "   "})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)

	stored, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", stored.Title)
}

func TestEditTask_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.EditTask(context.Background(), "missing", parser.Input{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestEditText(t *testing.T) {
	from := time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC)
	to := from.Add(45 * time.Minute)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name string
		task *domain.Task
		loc  *time.Location
		want string
	}{
		{"projects", &domain.Task{Title: "Design", Projects: []string{"#Work", "#Work/frontend"}}, time.UTC, "Design #Work #Work/frontend"},
		{"tags", &domain.Task{Title: "Call", Projects: []string{"#Inbox"}, Tags: []string{"alice", "bob"}}, time.UTC, "Call #Inbox @alice @bob"},
		{"start only", &domain.Task{Title: "Call", Projects: []string{"#Inbox"}, Start: &from}, time.UTC, "Call #Inbox at 1:00pm"},
		{"range", &domain.Task{Title: "Call", Projects: []string{"#Inbox"}, Start: &from, End: &to}, time.UTC, "Call #Inbox from 1:00pm to 1:45pm"},
		{"range in zone", &domain.Task{Title: "Call", Projects: []string{"#Inbox"}, Start: &from, End: &to}, paris, "Call #Inbox from 3:00pm to 3:45pm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EditText(tc.task, tc.loc))
		})
	}
}

func TestEditTask_UnchangedTextKeepsEveryField(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, parser.Input{Text: "Write report p1 @alice #Work tomorrow at 3pm for 30min"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	edited, err := svc.EditTask(ctx, task.ID, parser.Input{Text: EditText(task, time.UTC)})
	require.NoError(t, err)

	assert.Equal(t, "Write report", edited.Title)
	assert.Equal(t, []string{"#Work"}, edited.Projects)
	assert.Equal(t, 1, edited.Priority.Level)
	assert.Equal(t, []string{"alice"}, edited.Tags)
	require.NotNil(t, edited.Start)
	require.NotNil(t, edited.End)
	assert.Equal(t, *task.Start, *edited.Start)
	assert.Equal(t, *task.End, *edited.End)
	assert.Equal(t, task.Date, edited.Date)
}

func TestEditTask_PriorityWidget(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, parser.Input{Text: "Write report p2"})
	require.NoError(t, err)

	edited, err := svc.EditTask(ctx, task.ID, parser.Input{Text: "Write report", Priority: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, edited.Priority.Level)

	edited, err = svc.EditTask(ctx, task.ID, parser.Input{Text: "Write report p1", Priority: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, edited.Priority.Level, "a pN token beats the widget")
}

func TestEditText_ReparsesToSameFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	task, err := svc.AddTask(context.Background(), parser.Input{Text: "Design #Work /frontend"})
	require.NoError(t, err)

	res, err := svc.Preview(context.Background(), parser.Input{Text: EditText(task, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, task.Title, res.Title)
	assert.Equal(t, task.Projects, res.Projects)
}

func TestSetPriority(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task"})
	require.NoError(t, err)

	updated, err := svc.SetPriority(ctx, task.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "🔴 Priority 1", updated.Priority.Label)

	_, err = svc.SetPriority(ctx, task.ID, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestSetProjects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task"})
	require.NoError(t, err)

	updated, err := svc.SetProjects(ctx, task.ID, []string{"Work", "#Work", "Home!", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"#Work", "#Home"}, updated.Projects)

	updated, err = svc.SetProjects(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.InboxProject}, updated.Projects)
}

func TestSetDescriptionAndReminder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task"})
	require.NoError(t, err)

	updated, err := svc.SetDescription(ctx, task.ID, "details")
	require.NoError(t, err)
	assert.Equal(t, "details", updated.Description)

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	updated, err = svc.SetReminder(ctx, task.ID, domain.ReminderAt(at))
	require.NoError(t, err)
	got, ok := updated.Reminder.Time()
	require.True(t, ok)
	assert.Equal(t, at, got)

	updated, err = svc.SetReminder(ctx, task.ID, domain.ReminderNone())
	require.NoError(t, err)
	assert.False(t, updated.Reminder.IsSet())
}

func TestMovingTheReminderRearmsIt(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task", Reminder: domain.ReminderBefore()})
	require.NoError(t, err)

	notified := true
	_, err = repo.Update(ctx, domain.UpdateTaskParams{
		TaskID: task.ID, UpdateMask: []string{domain.FieldNotified}, Notified: &notified,
	})
	require.NoError(t, err)

	// Same fire time: stays notified.
	updated, err := svc.SetDate(ctx, task.ID, task.Date)
	require.NoError(t, err)
	assert.True(t, updated.Notified)

	updated, err = svc.SetDate(ctx, task.ID, task.Date.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, updated.Notified)
}

func TestAddComment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, task.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrCommentRequired)

	_, err = svc.AddComment(ctx, task.ID, "first")
	require.NoError(t, err)
	updated, err := svc.AddComment(ctx, task.ID, "  second ")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, updated.Comments)

	_, err = svc.AddComment(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeleteTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.AddTask(ctx, parser.Input{Text: "Task"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	_, err = svc.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.ErrorIs(t, svc.DeleteTask(ctx, task.ID), domain.ErrTaskNotFound)
	assert.ErrorIs(t, svc.DeleteTask(ctx, ""), domain.ErrTaskNotFound)
}

func TestAddCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	name, err := svc.AddCategory(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, "#Work", name)

	_, err = svc.AddCategory(ctx, "#Work")
	require.NoError(t, err)

	_, err = svc.AddCategory(ctx, " !! ")
	assert.ErrorIs(t, err, domain.ErrCategoryRequired)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"#Work"}, cats)
}
