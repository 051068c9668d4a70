package parser

import (
	"regexp"

	"github.com/rezkam/todoline/internal/domain"
)

// priorityRe only matches a standalone token, never the tail of #p1 or @p2.
var priorityRe = regexp.MustCompile(`(?i)(?:^|\s)p([1-4])\b`)

// ExtractPriority returns the priority named by the first pN token in text,
// or the fallback level when there is none.
func ExtractPriority(text string, fallback int) domain.Priority {
	_, p := extractPriority(text, fallback)
	return p
}

// extractPriority also consumes every pN token so later stages never see one.
func extractPriority(text string, fallback int) (string, domain.Priority) {
	m := priorityRe.FindStringSubmatch(text)
	if m == nil {
		return text, domain.PriorityFor(fallback)
	}
	// The group is always a single digit 1-4.
	level := int(m[1][0] - '0')
	return collapseSpace(priorityRe.ReplaceAllString(text, " ")), domain.PriorityFor(level)
}
