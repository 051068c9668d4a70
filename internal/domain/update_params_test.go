package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/todoline/internal/ptr"
)

func TestNewView(t *testing.T) {
	v, err := NewView("")
	require.NoError(t, err)
	assert.Equal(t, ViewAll, v)

	v, err = NewView("Today")
	require.NoError(t, err)
	assert.Equal(t, ViewToday, v)

	_, err = NewView("someday")
	assert.ErrorIs(t, err, ErrInvalidView)
}

func TestUpdateTaskParams_Validate(t *testing.T) {
	start := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	p1 := PriorityFor(1)

	tests := []struct {
		name    string
		params  UpdateTaskParams
		wantErr error
	}{
		{"empty mask", UpdateTaskParams{}, ErrEmptyUpdateMask},
		{"unknown field", UpdateTaskParams{UpdateMask: []string{"owner"}}, ErrUnknownField},
		{"title without value", UpdateTaskParams{UpdateMask: []string{FieldTitle}}, ErrTitleRequired},
		{"priority without value", UpdateTaskParams{UpdateMask: []string{FieldPriority}}, ErrInvalidPriority},
		{"comment without value", UpdateTaskParams{UpdateMask: []string{FieldComments}}, ErrCommentRequired},
		{"empty projects", UpdateTaskParams{UpdateMask: []string{FieldProjects}}, ErrUnknownField},
		{"end without start", UpdateTaskParams{UpdateMask: []string{FieldTimeRange}, End: &start}, ErrInvalidTimeRange},
		{"end before start", UpdateTaskParams{UpdateMask: []string{FieldTimeRange}, Start: &start, End: &before}, ErrInvalidTimeRange},
		{"clear time range", UpdateTaskParams{UpdateMask: []string{FieldTimeRange}}, nil},
		{"priority", UpdateTaskParams{UpdateMask: []string{FieldPriority}, Priority: &p1}, nil},
		{"clear description", UpdateTaskParams{UpdateMask: []string{FieldDescription}}, nil},
		{"clear reminder", UpdateTaskParams{UpdateMask: []string{FieldReminder}}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUpdateTaskParams_ApplyOnlyTouchesMask(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	task := &Task{
		ID:          "t1",
		Title:       "Old",
		Description: "keep me",
		Projects:    []string{"#Work"},
		Priority:    DefaultPriority(),
		Comments:    []string{"first"},
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	params := UpdateTaskParams{
		UpdateMask:    []string{FieldTitle, FieldComments, FieldCompleted},
		Title:         ptr.To("New"),
		Description:   ptr.To("ignored, not in mask"),
		AppendComment: ptr.To("second"),
		Completed:     ptr.To(true),
	}
	require.NoError(t, params.Validate())

	params.Apply(task, now)

	assert.Equal(t, "New", task.Title)
	assert.Equal(t, "keep me", task.Description)
	assert.Equal(t, []string{"first", "second"}, task.Comments)
	assert.True(t, task.Completed)
	assert.Equal(t, now, task.UpdatedAt)
	assert.Equal(t, created, task.CreatedAt)
}

func TestUpdateTaskParams_ApplyClearsOptionalFields(t *testing.T) {
	start := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	task := &Task{
		Description: "old",
		Start:       &start,
		End:         &end,
		Reminder:    ReminderBefore(),
	}

	UpdateTaskParams{
		UpdateMask: []string{FieldDescription, FieldTimeRange, FieldReminder},
	}.Apply(task, time.Now())

	assert.Empty(t, task.Description)
	assert.Nil(t, task.Start)
	assert.Nil(t, task.End)
	assert.False(t, task.Reminder.IsSet())
}

func TestUpdateTaskParams_ApplyStoresUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	date := time.Date(2024, 5, 2, 17, 0, 0, 0, zone)
	task := &Task{}

	UpdateTaskParams{
		UpdateMask: []string{FieldDate, FieldTimeRange},
		Date:       &date,
		Start:      &date,
	}.Apply(task, time.Now())

	assert.Equal(t, time.UTC, task.Date.Location())
	assert.Equal(t, 15, task.Date.Hour())
	require.NotNil(t, task.Start)
	assert.Equal(t, time.UTC, task.Start.Location())
	assert.Equal(t, time.UTC, task.UpdatedAt.Location())
}
