package domain

import (
	"fmt"
	"slices"
	"time"
)

// Field names for UpdateTaskParams masks.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldProjects    = "projects"
	FieldDate        = "date"
	FieldTimeRange   = "time_range" // start and end always change together
	FieldPriority    = "priority"
	FieldTags        = "tags"
	FieldReminder    = "reminder"
	FieldNotified    = "notified"
	FieldCompleted   = "completed"
	FieldComments    = "comments" // append-only, see AppendComment
)

// Valid fields for UpdateTaskParams.
var updateTaskValidFields = map[string]struct{}{
	FieldTitle:       {},
	FieldDescription: {},
	FieldProjects:    {},
	FieldDate:        {},
	FieldTimeRange:   {},
	FieldPriority:    {},
	FieldTags:        {},
	FieldReminder:    {},
	FieldNotified:    {},
	FieldCompleted:   {},
	FieldComments:    {},
}

// UpdateTaskParams is a partial update of a task.
// Only fields named in UpdateMask are applied.
type UpdateTaskParams struct {
	TaskID     string
	UpdateMask []string

	Title       *string
	Description *string
	Projects    []string
	Date        *time.Time
	Start       *time.Time
	End         *time.Time
	Priority    *Priority
	Tags        []string
	Reminder    *Reminder
	Notified    *bool
	Completed   *bool

	// AppendComment is added to the end of Comments when FieldComments is in the mask.
	AppendComment *string
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have values when included in the mask.
func (p UpdateTaskParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	for _, field := range p.UpdateMask {
		if _, ok := updateTaskValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	switch {
	case maskSet[FieldTitle] && p.Title == nil:
		return ErrTitleRequired
	case maskSet[FieldDate] && p.Date == nil:
		return fmt.Errorf("%w: date requires a value", ErrUnknownField)
	case maskSet[FieldPriority] && p.Priority == nil:
		return ErrInvalidPriority
	case maskSet[FieldComments] && p.AppendComment == nil:
		return ErrCommentRequired
	case maskSet[FieldProjects] && len(p.Projects) == 0:
		return fmt.Errorf("%w: projects cannot be empty", ErrUnknownField)
	case maskSet[FieldCompleted] && p.Completed == nil:
		return fmt.Errorf("%w: completed requires a value", ErrUnknownField)
	case maskSet[FieldNotified] && p.Notified == nil:
		return fmt.Errorf("%w: notified requires a value", ErrUnknownField)
	}

	if maskSet[FieldTimeRange] {
		if p.Start == nil && p.End != nil {
			return ErrInvalidTimeRange
		}
		if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
			return ErrInvalidTimeRange
		}
	}

	return nil
}

// Apply writes the masked fields onto task and bumps UpdatedAt to now.
// Every repository implementation uses it so partial updates behave the same
// regardless of backend.
func (p UpdateTaskParams) Apply(task *Task, now time.Time) {
	for _, field := range p.UpdateMask {
		switch field {
		case FieldTitle:
			task.Title = *p.Title
		case FieldDescription:
			if p.Description != nil {
				task.Description = *p.Description
			} else {
				task.Description = ""
			}
		case FieldProjects:
			task.Projects = slices.Clone(p.Projects)
		case FieldDate:
			task.Date = p.Date.UTC()
		case FieldTimeRange:
			task.Start = utcPtr(p.Start)
			task.End = utcPtr(p.End)
		case FieldPriority:
			task.Priority = *p.Priority
		case FieldTags:
			task.Tags = slices.Clone(p.Tags)
		case FieldReminder:
			if p.Reminder != nil {
				task.Reminder = *p.Reminder
			} else {
				task.Reminder = ReminderNone()
			}
		case FieldNotified:
			task.Notified = *p.Notified
		case FieldCompleted:
			task.Completed = *p.Completed
		case FieldComments:
			task.Comments = append(task.Comments, *p.AppendComment)
		}
	}
	task.UpdatedAt = now.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
