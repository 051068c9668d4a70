package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters in a task title.
const MaxTitleLength = 255

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if utf8.RuneCountInString(s) > MaxTitleLength {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// ReminderBeforeSentinel is the literal stored for a "10 minutes before" reminder.
const ReminderBeforeSentinel = "10 minutes before"

// reminderLead is how long before the due date a sentinel reminder fires.
const reminderLead = 10 * time.Minute

// ReminderKind tags the Reminder union.
type ReminderKind int

const (
	ReminderKindNone ReminderKind = iota
	ReminderKindBefore
	ReminderKindAt
)

// Reminder is a tagged union: no reminder, the "10 minutes before" sentinel,
// or an absolute instant.
type Reminder struct {
	kind ReminderKind
	at   time.Time
}

// ReminderNone returns the empty reminder.
func ReminderNone() Reminder { return Reminder{} }

// ReminderBefore returns the "10 minutes before" sentinel reminder.
func ReminderBefore() Reminder { return Reminder{kind: ReminderKindBefore} }

// ReminderAt returns a reminder firing at t.
func ReminderAt(t time.Time) Reminder {
	return Reminder{kind: ReminderKindAt, at: t.UTC()}
}

// ParseReminder decodes the stored string form: "" is none, the sentinel is
// ReminderBefore, anything else must be an RFC 3339 instant.
func ParseReminder(s string) (Reminder, error) {
	switch s = strings.TrimSpace(s); s {
	case "":
		return ReminderNone(), nil
	case ReminderBeforeSentinel:
		return ReminderBefore(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Reminder{}, fmt.Errorf("%w: %q", ErrInvalidReminder, s)
	}
	return ReminderAt(t), nil
}

// Kind reports which variant r holds.
func (r Reminder) Kind() ReminderKind { return r.kind }

// IsSet reports whether r holds any reminder.
func (r Reminder) IsSet() bool { return r.kind != ReminderKindNone }

// Time returns the instant of a ReminderAt reminder.
func (r Reminder) Time() (time.Time, bool) {
	return r.at, r.kind == ReminderKindAt
}

// FireAt returns when the reminder should fire for a task due at date.
func (r Reminder) FireAt(date time.Time) (time.Time, bool) {
	switch r.kind {
	case ReminderKindBefore:
		return date.Add(-reminderLead), true
	case ReminderKindAt:
		return r.at, true
	default:
		return time.Time{}, false
	}
}

// String returns the stored form: "", the sentinel, or RFC 3339.
func (r Reminder) String() string {
	switch r.kind {
	case ReminderKindBefore:
		return ReminderBeforeSentinel
	case ReminderKindAt:
		return r.at.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// MarshalJSON encodes none as null and the other variants as strings.
func (r Reminder) MarshalJSON() ([]byte, error) {
	if !r.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts null or a string understood by ParseReminder.
func (r *Reminder) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ReminderNone()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidReminder, string(data))
	}
	parsed, err := ParseReminder(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
