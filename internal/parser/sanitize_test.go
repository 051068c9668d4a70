package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sanitizeCorpus = []string{
	"",
	"   ",
	"Buy milk",
	"Buy milk #Groceries",
	"Design #Work /frontend",
	"Plan meeting #Work /frontend @alice p2 tomorrow at 3pm for 30min",
	"Call from 3pm to 4:30pm",
	"from 3 tomorrow to 5",
	"Submit report tomorrow",
	"Pay tomorrow in 3 days",
	"Read 30 min",
	"Buy 2 apples",
	"Email bob@x.com about and/or",
	"#a#b",
	"p1p2 p3",
	"at at 3pm",
	"today today next week",
	"Odd 13am",
	"  lots\tof \n whitespace  ",
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Buy milk #Groceries", "Buy milk"},
		{"Plan meeting #Work /frontend @alice p2 tomorrow at 3pm for 30min", "Plan meeting"},
		{"Call from 3pm to 4:30pm", "Call"},
		{"Buy 2 apples", "Buy 2 apples"},
		{"Email bob@x.com about and/or", "Email bob@x.com about and/or"},
		{"  lots\tof \n whitespace  ", "lots of whitespace"},
		// Removing the date exposes a range.
		{"from 3 tomorrow to 5", ""},
		{"#a#b", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeTitle(tc.in))
		})
	}
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	for _, in := range sanitizeCorpus {
		once := SanitizeTitle(in)
		assert.Equal(t, once, SanitizeTitle(once), "input %q", in)
	}
}
