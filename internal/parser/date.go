package parser

import (
	"regexp"
	"strconv"
	"time"
)

// Phrases start at the beginning of the text or after whitespace, so
// "#today" and "@tomorrow" stay intact for the tag stage.
var (
	tomorrowRe = regexp.MustCompile(`(?i)(?:^|\s)tomorrow\b`)
	todayRe    = regexp.MustCompile(`(?i)(?:^|\s)today\b`)
	nextWeekRe = regexp.MustCompile(`(?i)(?:^|\s)next\s+week\b`)
	inNRe      = regexp.MustCompile(`(?i)(?:^|\s)in\s+(\d{1,4})\s+(day|week)s?\b`)
)

// ResolveDate finds natural-language date phrases in text and returns the
// text without them plus the resolved due date.
//
// "tomorrow", "today" and "next week" are exclusive: the first one found in
// that order wins. "in N days" and "in N weeks" are checked afterwards on
// their own and shift whatever the first pass produced, so
// "tomorrow in 3 days" lands four days out.
//
// "today" moves ref onto now's calendar day and keeps ref's clock time.
// Without any phrase the text and ref come back unchanged.
func ResolveDate(text string, ref, now time.Time) (string, time.Time) {
	resolved := ref
	matched := false

	switch {
	case tomorrowRe.MatchString(text):
		resolved = ref.AddDate(0, 0, 1)
		text = tomorrowRe.ReplaceAllString(text, " ")
		matched = true
	case todayRe.MatchString(text):
		y, m, d := now.In(ref.Location()).Date()
		resolved = time.Date(y, m, d, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
		text = todayRe.ReplaceAllString(text, " ")
		matched = true
	case nextWeekRe.MatchString(text):
		resolved = ref.AddDate(0, 0, 7)
		text = nextWeekRe.ReplaceAllString(text, " ")
		matched = true
	}

	if m := inNRe.FindStringSubmatchIndex(text); m != nil {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err == nil {
			days := n
			if unit := text[m[4]:m[5]]; unit[0] == 'w' || unit[0] == 'W' {
				days = n * 7
			}
			resolved = resolved.AddDate(0, 0, days)
			text = text[:m[0]] + " " + text[m[1]:]
			matched = true
		}
	}

	if !matched {
		return text, ref
	}
	return collapseSpace(text), resolved
}
