package domain

import (
	"encoding/json"
	"fmt"
)

// Priority levels. Level 1 is the most urgent.
const (
	PriorityUrgent  = 1
	PriorityHigh    = 2
	PriorityMedium  = 3
	PriorityDefault = 4
)

var priorityLabels = map[int]string{
	1: "🔴 Priority 1",
	2: "🟠 Priority 2",
	3: "🟡 Priority 3",
	4: "⚪ Priority 4",
}

// Priority is a value object pairing a level with its fixed display label.
type Priority struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

// NewPriority validates level and returns its Priority.
func NewPriority(level int) (Priority, error) {
	label, ok := priorityLabels[level]
	if !ok {
		return Priority{}, fmt.Errorf("%w: %d", ErrInvalidPriority, level)
	}
	return Priority{Level: level, Label: label}, nil
}

// PriorityFor returns the Priority for level, falling back to level 4
// for anything outside 1..4.
func PriorityFor(level int) Priority {
	p, err := NewPriority(level)
	if err != nil {
		return Priority{Level: PriorityDefault, Label: priorityLabels[PriorityDefault]}
	}
	return p
}

// DefaultPriority is the priority given to tasks without a pN token.
func DefaultPriority() Priority {
	return PriorityFor(PriorityDefault)
}

// UnmarshalJSON accepts either {"level":N,...} or a bare level number.
// The label is always recomputed from the level.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var level int
	if err := json.Unmarshal(data, &level); err == nil {
		np, err := NewPriority(level)
		if err != nil {
			return err
		}
		*p = np
		return nil
	}

	var raw struct {
		Level int `json:"level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, string(data))
	}
	np, err := NewPriority(raw.Level)
	if err != nil {
		return err
	}
	*p = np
	return nil
}
