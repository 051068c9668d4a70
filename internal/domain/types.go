package domain

import (
	"fmt"
	"strings"
	"time"
)

// View names one of the task tabs.
type View string

const (
	ViewAll       View = "all" // the "Add Task" tab: open tasks outside custom categories
	ViewToday     View = "today"
	ViewUpcoming  View = "upcoming"
	ViewInbox     View = "inbox"
	ViewCompleted View = "completed"
)

// NewView validates and creates a View. The empty string is ViewAll.
func NewView(s string) (View, error) {
	if s == "" {
		return ViewAll, nil
	}

	view := View(strings.ToLower(s))

	switch view {
	case ViewAll, ViewToday, ViewUpcoming, ViewInbox, ViewCompleted:
		return view, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidView, s)
	}
}

// SearchParams filters tasks the way the search dialog does.
//
//   - Query matches title, any project, or the RFC 3339 date string (case-insensitive).
//   - Date, when set, keeps only tasks due on that calendar day.
type SearchParams struct {
	Query string
	Date  *time.Time
}

// Counts holds the sidebar badge numbers.
type Counts struct {
	Today     int
	Upcoming  int
	Completed int
}
