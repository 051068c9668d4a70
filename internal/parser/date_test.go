package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDate(t *testing.T) {
	ref := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		wantText string
		wantDate time.Time
	}{
		{"tomorrow", "Submit report tomorrow", "Submit report", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
		{"case insensitive", "Submit report TOMORROW", "Submit report", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
		{"next week", "Review next week please", "Review please", time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)},
		{"in days", "Renew passport in 3 days", "Renew passport", time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)},
		{"in one day", "Call in 1 day", "Call", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
		{"in weeks", "Dentist in 2 weeks", "Dentist", time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)},
		// The in-N pass is independent and stacks on the first pass.
		{"tomorrow stacks with in N days", "Pay tomorrow in 3 days", "Pay", time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)},
		// Only the first phrase of the chain applies; the other stays in the text.
		{"tomorrow beats today", "today or tomorrow", "today or", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
		{"word boundary", "Read Tomorrowland", "Read Tomorrowland", ref},
		{"inside a tag", "Buy milk @today", "Buy milk @today", ref},
		{"inside a project", "Launch #tomorrow", "Launch #tomorrow", ref},
		{"inside a subcategory", "Ship /next week", "Ship /next week", ref},
		{"in N inside a project", "Plan #in 3 days", "Plan #in 3 days", ref},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, date := ResolveDate(tc.text, ref, ref)
			assert.Equal(t, tc.wantText, text)
			assert.Equal(t, tc.wantDate, date)
		})
	}
}

func TestResolveDate_TodayKeepsReferenceClock(t *testing.T) {
	ref := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

	text, date := ResolveDate("Standup today", ref, now)

	assert.Equal(t, "Standup", text)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), date)
}

func TestResolveDate_NoMatchReturnsInputUnchanged(t *testing.T) {
	ref := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	text, date := ResolveDate("  Water   plants ", ref, ref)

	assert.Equal(t, "  Water   plants ", text)
	assert.Equal(t, ref, date)
}

func TestResolveDate_KeepsLocation(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	ref := time.Date(2024, 3, 31, 23, 0, 0, 0, zone)

	_, date := ResolveDate("tomorrow", ref, ref)

	assert.Equal(t, zone, date.Location())
	assert.Equal(t, time.April, date.Month())
	assert.Equal(t, 1, date.Day())
}
