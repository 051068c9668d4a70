package domain

import (
	"slices"
	"strings"
	"time"
)

// InboxProject is the default project for tasks with no #project token and no
// category context.
const InboxProject = "#Inbox"

// timeLabelLayout renders short clock times, e.g. "03:00 PM".
const timeLabelLayout = "03:04 PM"

// Task is the aggregate root of the application: one to-do entry.
//
// Parsed fields (Title, Projects, Tags, Priority, Date, Start, End) are set
// when the task is created or fully edited from its text. Every other change
// goes through UpdateTaskParams.
type Task struct {
	ID          string
	Title       string
	Description string

	// Projects holds canonical "#Name" and "#Name/Sub" tags. Never empty.
	Projects []string

	// Date is the due instant. Defaults to the creation moment, not midnight.
	Date time.Time

	// Start and End are either both nil or both set, except that a single
	// clock time sets only Start.
	Start *time.Time
	End   *time.Time

	Priority Priority
	Tags     []string
	Reminder Reminder

	// Notified records that the reminder has been delivered.
	Notified bool

	Completed bool
	Comments  []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeRangeLabel is derived from Start and End and is never stored.
func (t *Task) TimeRangeLabel() string {
	return TimeRangeLabel(t.Start, t.End)
}

// TimeRangeLabelIn renders the label with clock times in loc.
func (t *Task) TimeRangeLabelIn(loc *time.Location) string {
	if t.Start == nil {
		return ""
	}
	start := t.Start.In(loc)
	var end *time.Time
	if t.End != nil {
		e := t.End.In(loc)
		end = &e
	}
	return TimeRangeLabel(&start, end)
}

// InboxOnly reports whether the task sits in the Inbox project.
func (t *Task) InboxOnly() bool {
	return len(t.Projects) == 0 || slices.Contains(t.Projects, InboxProject)
}

// HasProject reports whether the task belongs to project, either directly or
// through one of its subcategories.
func (t *Task) HasProject(project string) bool {
	for _, p := range t.Projects {
		if p == project || strings.HasPrefix(p, project+"/") {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.Projects = slices.Clone(t.Projects)
	c.Tags = slices.Clone(t.Tags)
	c.Comments = slices.Clone(t.Comments)
	if t.Start != nil {
		s := *t.Start
		c.Start = &s
	}
	if t.End != nil {
		e := *t.End
		c.End = &e
	}
	return &c
}

// TimeRangeLabel formats start and end as "⏰ 03:00 PM – 04:30 PM".
// With only a start it returns "⏰ 03:00 PM"; with no start it returns "".
func TimeRangeLabel(start, end *time.Time) string {
	if start == nil {
		return ""
	}
	label := "⏰ " + start.Format(timeLabelLayout)
	if end != nil {
		label += " – " + end.In(start.Location()).Format(timeLabelLayout)
	}
	return label
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
