package parser

import (
	"regexp"
	"strings"
)

// SanitizeTitle strips every token the parser understands from text and
// collapses whitespace. Removing one token can expose another ("from 3
// tomorrow to 5" becomes a range), so passes repeat until nothing changes.
func SanitizeTitle(text string) string {
	text = collapseSpace(text)
	for {
		next := sanitizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func sanitizeOnce(text string) string {
	for _, re := range []*regexp.Regexp{tomorrowRe, todayRe, nextWeekRe, inNRe, priorityRe, rangeRe} {
		text = re.ReplaceAllString(text, " ")
	}
	text = removeMatches(text, singleRe, func(text string, m []int) bool {
		c := clockFrom(text, m[2:8])
		return c.meridiem != "" || c.hasColon
	})
	text = durationRe.ReplaceAllString(text, " ")
	text = tokenRe.ReplaceAllString(text, " ")
	return collapseSpace(text)
}

// removeMatches replaces each match of re for which remove returns true with
// a single space.
func removeMatches(text string, re *regexp.Regexp, remove func(string, []int) bool) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if !remove(text, m) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
