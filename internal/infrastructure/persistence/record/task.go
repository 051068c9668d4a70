// Package record defines the flat serialized task shape shared by the
// document and SQL backends, and its conversion to and from domain.Task.
package record

import (
	"fmt"
	"time"

	"github.com/rezkam/todoline/internal/domain"
)

// Task is a domain.Task as it is written to storage. Priority is stored as its
// level and Reminder as its string form, so labels never reach the disk.
type Task struct {
	ID          string     `json:"id" firestore:"id"`
	Title       string     `json:"title" firestore:"title"`
	Description string     `json:"description,omitempty" firestore:"description"`
	Projects    []string   `json:"projects" firestore:"projects"`
	Date        time.Time  `json:"date" firestore:"date"`
	Start       *time.Time `json:"start,omitempty" firestore:"start"`
	End         *time.Time `json:"end,omitempty" firestore:"end"`
	Priority    int        `json:"priority" firestore:"priority"`
	Tags        []string   `json:"tags" firestore:"tags"`
	Reminder    string     `json:"reminder,omitempty" firestore:"reminder"`
	Notified    bool       `json:"notified" firestore:"notified"`
	Completed   bool       `json:"completed" firestore:"completed"`
	Comments    []string   `json:"comments" firestore:"comments"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// FromDomain flattens t for storage. All instants are stored in UTC.
func FromDomain(t *domain.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Projects:    nonNil(t.Projects),
		Date:        t.Date.UTC(),
		Start:       utc(t.Start),
		End:         utc(t.End),
		Priority:    t.Priority.Level,
		Tags:        nonNil(t.Tags),
		Reminder:    t.Reminder.String(),
		Notified:    t.Notified,
		Completed:   t.Completed,
		Comments:    nonNil(t.Comments),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

// ToDomain rebuilds the domain task. Out-of-range priorities fall back to
// the default level; an unreadable reminder is an error.
func (r Task) ToDomain() (*domain.Task, error) {
	reminder, err := domain.ParseReminder(r.Reminder)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", r.ID, err)
	}
	return &domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Projects:    nonNil(r.Projects),
		Date:        r.Date.UTC(),
		Start:       utc(r.Start),
		End:         utc(r.End),
		Priority:    domain.PriorityFor(r.Priority),
		Tags:        nonNil(r.Tags),
		Reminder:    reminder,
		Notified:    r.Notified,
		Completed:   r.Completed,
		Comments:    nonNil(r.Comments),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

// ToDomainAll converts a batch, failing on the first unreadable record.
func ToDomainAll(records []Task) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(records))
	for _, r := range records {
		t, err := r.ToDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
