package handler

import (
	"time"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
	"github.com/rezkam/todoline/internal/ptr"
)

// TaskInput is the body of preview, create and full-edit requests.
// It mirrors the task form: the free text plus the side widgets.
type TaskInput struct {
	Text        string          `json:"text"`
	Description string          `json:"description,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Category    string          `json:"category,omitempty"`
	Priority    int             `json:"priority,omitempty"`
	Reminder    domain.Reminder `json:"reminder"`
}

func (in TaskInput) toParserInput() parser.Input {
	return parser.Input{
		Text:        in.Text,
		Description: in.Description,
		DueDate:     in.DueDate,
		Category:    in.Category,
		Priority:    in.Priority,
		Reminder:    in.Reminder,
	}
}

// PatchTaskRequest changes individual fields without re-parsing.
// Absent fields are left alone.
type PatchTaskRequest struct {
	Date        *time.Time `json:"date,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	Projects    *[]string  `json:"projects,omitempty"`
	Reminder    *string    `json:"reminder,omitempty"`
	Description *string    `json:"description,omitempty"`
}

func (p PatchTaskRequest) empty() bool {
	return p.Date == nil && p.Priority == nil && p.Projects == nil &&
		p.Reminder == nil && p.Description == nil
}

// CommentRequest is the body of POST /tasks/{id}/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

// CategoryRequest is the body of POST /categories.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse returns the normalized category tag.
type CategoryResponse struct {
	Name string `json:"name"`
}

// CategoriesResponse lists custom categories in the order they were added.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// TaskDTO is the wire shape of a task. Derived fields are computed here
// and never accepted on input.
type TaskDTO struct {
	ID             string          `json:"id,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Projects       []string        `json:"projects"`
	Tags           []string        `json:"tags"`
	Priority       domain.Priority `json:"priority"`
	Date           time.Time       `json:"date"`
	Start          *time.Time      `json:"start,omitempty"`
	End            *time.Time      `json:"end,omitempty"`
	TimeRangeLabel string          `json:"time_range_label"`
	Reminder       domain.Reminder `json:"reminder"`
	Notified       bool            `json:"notified"`
	Completed      bool            `json:"completed"`
	Comments       []string        `json:"comments"`
	InboxOnly      bool            `json:"inbox_only"`
	EditText       string          `json:"edit_text"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task TaskDTO `json:"task"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

// CountsResponse carries the sidebar badges.
type CountsResponse struct {
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
}

func ptrTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return ptr.To(t)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MapTaskToDTO converts a domain task. Clock times in the label are
// rendered in loc.
func MapTaskToDTO(task *domain.Task, loc *time.Location) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Projects:       nonNil(task.Projects),
		Tags:           nonNil(task.Tags),
		Priority:       task.Priority,
		Date:           task.Date,
		Start:          task.Start,
		End:            task.End,
		TimeRangeLabel: task.TimeRangeLabelIn(loc),
		Reminder:       task.Reminder,
		Notified:       task.Notified,
		Completed:      task.Completed,
		Comments:       nonNil(task.Comments),
		InboxOnly:      task.InboxOnly(),
		EditText:       todo.EditText(task, loc),
		CreatedAt:      ptrTime(task.CreatedAt),
		UpdatedAt:      ptrTime(task.UpdatedAt),
	}
}

// MapTasksToDTO converts a slice of tasks, never returning nil.
func MapTasksToDTO(tasks []*domain.Task, loc *time.Location) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, MapTaskToDTO(t, loc))
	}
	return out
}
