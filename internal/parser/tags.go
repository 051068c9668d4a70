package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/rezkam/todoline/internal/domain"
)

// tokenRe matches #project (optionally #project/sub), /sub and @tag. A token
// only starts at the beginning of the text or after whitespace, so e-mail
// addresses and "and/or" are left alone.
var tokenRe = regexp.MustCompile(`(?:^|\s)(#[\w-]+(?:/[\w-]+)*|/[\w-]+|@[\w-]+)`)

var projectStripRe = regexp.MustCompile(`[^A-Za-z0-9_/-]`)

// TagResult is the output of ExtractTags.
type TagResult struct {
	// Text is the input with every token removed.
	Text     string
	Projects []string
	Tags     []string
}

// NormalizeProject returns the canonical "#Name" form of a project: every
// character outside [A-Za-z0-9_/-] is dropped and a single "#" is prefixed.
// Input that normalizes to nothing returns "".
func NormalizeProject(s string) string {
	s = projectStripRe.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	return "#" + s
}

// ExtractTags pulls #project, /subcategory and @tag tokens out of text.
//
// A standalone /sub belongs to the first #project in the text, or to the
// category when there is none. With neither it fails with
// domain.ErrMainCategoryRequired. Both the main project and "#Main/sub" are
// listed in Projects.
//
// Without any project the category is used, then defaultProject.
func ExtractTags(text, category, defaultProject string) (TagResult, error) {
	var (
		projects []string
		subs     []string
		tags     []string
		main     string
	)

	addProject := func(p string) {
		if p != "" && !slices.Contains(projects, p) {
			projects = append(projects, p)
		}
	}

	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	var b strings.Builder
	last := 0
	for _, m := range matches {
		token := text[m[2]:m[3]]
		b.WriteString(text[last:m[0]])
		b.WriteByte(' ')
		last = m[1]

		switch token[0] {
		case '#':
			name, sub, hasSub := strings.Cut(token[1:], "/")
			p := NormalizeProject(name)
			if main == "" {
				main = p
			}
			addProject(p)
			if hasSub {
				addProject(NormalizeProject(name + "/" + sub))
			}
		case '/':
			subs = append(subs, token[1:])
		case '@':
			tag := strings.ToLower(token[1:])
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	b.WriteString(text[last:])

	if len(subs) > 0 {
		if main == "" {
			main = NormalizeProject(category)
		}
		if main == "" {
			return TagResult{}, domain.ErrMainCategoryRequired
		}
		addProject(main)
		for _, sub := range subs {
			addProject(NormalizeProject(main + "/" + sub))
		}
	}

	if len(projects) == 0 {
		if p := NormalizeProject(category); p != "" {
			projects = []string{p}
		} else {
			projects = []string{NormalizeProject(defaultProject)}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	return TagResult{
		Text:     collapseSpace(b.String()),
		Projects: projects,
		Tags:     tags,
	}, nil
}
