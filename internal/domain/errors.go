package domain

import "errors"

// Domain errors returned by the parser, the service and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTaskNotFound indicates the specified task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrTitleRequired indicates the task text produced an empty title.
	ErrTitleRequired = errors.New("please enter a task title")

	// ErrTitleTooLong indicates the title exceeds the maximum length.
	ErrTitleTooLong = errors.New("title must be 255 characters or less")

	// ErrMainCategoryRequired indicates a /subcategory token was given without
	// any #project or category context to attach it to.
	ErrMainCategoryRequired = errors.New("main category required for subcategory")

	// ErrInvalidTime indicates a malformed clock time. Only returned in strict mode.
	ErrInvalidTime = errors.New("invalid time of day")

	// ErrInvalidPriority indicates a priority level outside 1..4.
	ErrInvalidPriority = errors.New("invalid priority level")

	// ErrInvalidReminder indicates a reminder that is neither the sentinel nor an instant.
	ErrInvalidReminder = errors.New("invalid reminder")

	// ErrCommentRequired indicates an empty comment.
	ErrCommentRequired = errors.New("comment text is required")

	// ErrCategoryRequired indicates an empty category name.
	ErrCategoryRequired = errors.New("category name is required")

	// ErrNothingToUndo indicates there is no completion inside the undo window.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrInvalidView indicates an unknown task view.
	ErrInvalidView = errors.New("invalid view")

	// ErrInvalidTimeRange indicates an end time before the start time,
	// or only one of start and end being set.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// Update mask validation errors.
	ErrEmptyUpdateMask = errors.New("update mask cannot be empty")
	ErrUnknownField    = errors.New("unknown field in update mask")
)
