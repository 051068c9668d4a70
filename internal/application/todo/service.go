package todo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
)

// DefaultUndoWindow is how long a completion can be undone.
const DefaultUndoWindow = 5 * time.Second

// Config holds configuration for the Service.
type Config struct {
	// UndoWindow bounds how long after a completion Undo still works.
	UndoWindow time.Duration

	// Location is the zone views are computed in. Defaults to the parser's.
	Location *time.Location

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service provides business logic for task management.
// It runs task text through the parser and persists results via Repository.
type Service struct {
	repo    Repository
	parser  *parser.Parser
	config  Config
	metrics *metrics

	mu   sync.Mutex
	undo *undoSlot
}

// undoSlot remembers the most recent completion.
type undoSlot struct {
	taskID      string
	completedAt time.Time
}

// NewService creates a new todo service.
// Applies application defaults for zero config values.
func NewService(repo Repository, p *parser.Parser, config Config) *Service {
	if config.UndoWindow <= 0 {
		config.UndoWindow = DefaultUndoWindow
	}
	if config.Location == nil {
		config.Location = p.Location()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Service{
		repo:    repo,
		parser:  p,
		config:  config,
		metrics: newMetrics(),
	}
}

// Preview parses task text without storing anything.
func (s *Service) Preview(ctx context.Context, in parser.Input) (*parser.Result, error) {
	return s.parse(ctx, in)
}

// AddTask parses task text and stores the resulting task.
// Validation failures return before the repository is touched.
func (s *Service) AddTask(ctx context.Context, in parser.Input) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "todo.AddTask")
	defer span.End()

	res, err := s.parse(ctx, in)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	task := res.Task()

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}
	task.ID = idObj.String()

	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	span.SetAttributes(attribute.String("task.id", task.ID))

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		slog.ErrorContext(ctx, "failed to store task", "task_id", task.ID, "error", err)
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	return s.repo.Get(ctx, id)
}

// EditTask re-parses edited task text and replaces every parsed field.
// Comments, completion and CreatedAt are left as they are.
func (s *Service) EditTask(ctx context.Context, id string, in parser.Input) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "todo.EditTask", withTaskID(id))
	defer span.End()

	existing, err := s.GetTask(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	// The due-date and priority widgets start out holding the task's
	// current values.
	if in.DueDate == nil {
		in.DueDate = &existing.Date
	}
	if in.Priority == 0 {
		in.Priority = existing.Priority.Level
	}

	res, err := s.parse(ctx, in)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	parsed := res.Task()

	params := domain.UpdateTaskParams{
		TaskID: id,
		UpdateMask: []string{
			domain.FieldTitle,
			domain.FieldDescription,
			domain.FieldProjects,
			domain.FieldDate,
			domain.FieldTimeRange,
			domain.FieldPriority,
			domain.FieldTags,
			domain.FieldReminder,
		},
		Title:       &parsed.Title,
		Description: &parsed.Description,
		Projects:    parsed.Projects,
		Date:        &parsed.Date,
		Start:       parsed.Start,
		End:         parsed.End,
		Priority:    &parsed.Priority,
		Tags:        parsed.Tags,
		Reminder:    &parsed.Reminder,
	}
	s.resetNotified(&params, existing, parsed.Date, parsed.Reminder)

	updated, err := s.update(ctx, params)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return updated, nil
}

// EditText rebuilds the text a task was entered with, for the edit field.
// Projects, tags and the time range are written back as tokens, with clock
// times in loc, so that submitting the text unchanged keeps them. Priority and
// date travel in their own widgets.
func EditText(task *domain.Task, loc *time.Location) string {
	parts := []string{task.Title}
	parts = append(parts, task.Projects...)
	for _, tag := range task.Tags {
		parts = append(parts, "@"+tag)
	}
	if task.Start != nil {
		const layout = "3:04pm"
		if task.End != nil {
			parts = append(parts, "from", task.Start.In(loc).Format(layout), "to", task.End.In(loc).Format(layout))
		} else {
			parts = append(parts, "at", task.Start.In(loc).Format(layout))
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// SetDate changes the due date without re-parsing.
func (s *Service) SetDate(ctx context.Context, id string, date time.Time) (*domain.Task, error) {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	params := domain.UpdateTaskParams{
		TaskID:     id,
		UpdateMask: []string{domain.FieldDate},
		Date:       &date,
	}
	s.resetNotified(&params, existing, date, existing.Reminder)
	return s.update(ctx, params)
}

// SetPriority changes the priority level (1-4).
func (s *Service) SetPriority(ctx context.Context, id string, level int) (*domain.Task, error) {
	p, err := domain.NewPriority(level)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, domain.UpdateTaskParams{
		TaskID:     id,
		UpdateMask: []string{domain.FieldPriority},
		Priority:   &p,
	})
}

// SetProjects replaces the task's projects. Names are normalized to "#Name"
// and an empty list falls back to the default project.
func (s *Service) SetProjects(ctx context.Context, id string, projects []string) (*domain.Task, error) {
	normalized := make([]string, 0, len(projects))
	for _, p := range projects {
		if n := parser.NormalizeProject(p); n != "" && !slices.Contains(normalized, n) {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		normalized = []string{s.parser.DefaultProject()}
	}

	return s.update(ctx, domain.UpdateTaskParams{
		TaskID:     id,
		UpdateMask: []string{domain.FieldProjects},
		Projects:   normalized,
	})
}

// SetReminder replaces the reminder. ReminderNone clears it.
func (s *Service) SetReminder(ctx context.Context, id string, reminder domain.Reminder) (*domain.Task, error) {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	params := domain.UpdateTaskParams{
		TaskID:     id,
		UpdateMask: []string{domain.FieldReminder},
		Reminder:   &reminder,
	}
	s.resetNotified(&params, existing, existing.Date, reminder)
	return s.update(ctx, params)
}

// SetDescription replaces the free-text description.
func (s *Service) SetDescription(ctx context.Context, id string, description string) (*domain.Task, error) {
	return s.update(ctx, domain.UpdateTaskParams{
		TaskID:      id,
		UpdateMask:  []string{domain.FieldDescription},
		Description: &description,
	})
}

// AddComment appends a comment to the task.
func (s *Service) AddComment(ctx context.Context, id string, text string) (*domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrCommentRequired
	}
	return s.update(ctx, domain.UpdateTaskParams{
		TaskID:        id,
		UpdateMask:    []string{domain.FieldComments},
		AppendComment: &text,
	})
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrTaskNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.undo != nil && s.undo.taskID == id {
		s.undo = nil
	}
	s.mu.Unlock()
	return nil
}

// AddCategory registers a custom category. Tasks in custom categories are
// kept out of the Today, Upcoming and "all" views.
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	normalized := parser.NormalizeProject(name)
	if normalized == "" {
		return "", domain.ErrCategoryRequired
	}
	if err := s.repo.AddCategory(ctx, normalized); err != nil {
		return "", fmt.Errorf("failed to add category: %w", err)
	}
	return normalized, nil
}

// Categories lists the custom categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// Subscribe streams full task snapshots to fn until unsubscribed.
func (s *Service) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	return s.repo.Subscribe(ctx, fn)
}

func (s *Service) parse(ctx context.Context, in parser.Input) (*parser.Result, error) {
	res, err := s.parser.Parse(in)
	if err != nil {
		s.metrics.rejected(ctx, err)
		return nil, err
	}
	s.metrics.parsed(ctx)
	return res, nil
}

func (s *Service) update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if params.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if params.Title != nil {
		title, err := domain.NewTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		t := title.String()
		params.Title = &t
	}

	return s.repo.Update(ctx, params)
}

// resetNotified re-arms the reminder when its fire time moves.
func (s *Service) resetNotified(params *domain.UpdateTaskParams, existing *domain.Task, date time.Time, reminder domain.Reminder) {
	if !existing.Notified {
		return
	}
	oldFire, _ := existing.Reminder.FireAt(existing.Date)
	newFire, _ := reminder.FireAt(date)
	if oldFire.Equal(newFire) {
		return
	}
	notified := false
	params.UpdateMask = append(params.UpdateMask, domain.FieldNotified)
	params.Notified = &notified
}

func (s *Service) now() time.Time {
	return s.config.Now().UTC()
}
