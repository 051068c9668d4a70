// Package parser turns one line of task text into a structured task.
//
// "Plan meeting #Work /frontend @alice p2 tomorrow at 3pm for 30min" yields
// the title "Plan meeting", projects #Work and #Work/frontend, the tag alice,
// priority 2, and a 15:00-15:30 slot tomorrow.
//
// Parsing is a fixed sequence of stages over the residual text: date,
// priority, time, tags, then title. Each stage sees only what the previous
// ones left behind.
package parser

import (
	"slices"
	"time"

	"github.com/rezkam/todoline/internal/domain"
)

// Options configures a Parser.
type Options struct {
	// DefaultProject is used when the text names no project and there is no
	// category context. Defaults to domain.InboxProject.
	DefaultProject string

	// StrictTime rejects malformed clock times instead of normalizing them.
	StrictTime bool

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Location is the zone dates and clock times are resolved in.
	// Defaults to time.Local.
	Location *time.Location
}

// Input is what the task form submits.
type Input struct {
	Text        string
	Description string

	// DueDate is the due-date widget value. Nil means untouched, in which
	// case the reference date is now.
	DueDate *time.Time

	// Category is the category page the task is entered from, if any.
	Category string

	// Priority is the priority widget value, used when the text has no pN
	// token. Zero means untouched.
	Priority int

	Reminder domain.Reminder
}

// Result is a parsed task that has not been stored yet.
type Result struct {
	Title       string
	Description string
	Projects    []string
	Tags        []string
	Priority    domain.Priority
	Date        time.Time
	Start       *time.Time
	End         *time.Time
	Reminder    domain.Reminder
}

// TimeRangeLabel renders Start and End for display.
func (r *Result) TimeRangeLabel() string {
	return domain.TimeRangeLabel(r.Start, r.End)
}

// Task converts r into a task with no ID or timestamps.
// Times are stored in UTC.
func (r *Result) Task() *domain.Task {
	t := &domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Projects:    slices.Clone(r.Projects),
		Tags:        slices.Clone(r.Tags),
		Priority:    r.Priority,
		Date:        r.Date.UTC(),
		Reminder:    r.Reminder,
		Comments:    []string{},
	}
	if r.Start != nil {
		s := r.Start.UTC()
		t.Start = &s
	}
	if r.End != nil {
		e := r.End.UTC()
		t.End = &e
	}
	return t
}

// state is threaded through the stages.
type state struct {
	text     string
	in       Input
	now      time.Time
	date     time.Time
	priority domain.Priority
	start    *time.Time
	end      *time.Time
	projects []string
	tags     []string
	title    string
}

type stage func(*state) error

// Parser parses task text. It is safe for concurrent use.
type Parser struct {
	opts   Options
	stages []stage
}

// New creates a Parser, filling in defaults for zero options.
func New(opts Options) *Parser {
	if NormalizeProject(opts.DefaultProject) == "" {
		opts.DefaultProject = domain.InboxProject
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	p := &Parser{opts: opts}
	p.stages = []stage{
		p.dateStage,
		p.priorityStage,
		p.timeStage,
		p.tagStage,
		p.titleStage,
	}
	return p
}

// Parse runs every stage over in.Text. It fails with domain.ErrTitleRequired,
// domain.ErrTitleTooLong or domain.ErrMainCategoryRequired, or with
// domain.ErrInvalidTime in strict mode. A failed parse produces no result.
func (p *Parser) Parse(in Input) (*Result, error) {
	now := p.opts.Now().In(p.opts.Location)
	ref := now
	if in.DueDate != nil {
		ref = in.DueDate.In(p.opts.Location)
	}

	s := &state{text: in.Text, in: in, now: now, date: ref}
	for _, run := range p.stages {
		if err := run(s); err != nil {
			return nil, err
		}
	}

	return &Result{
		Title:       s.title,
		Description: in.Description,
		Projects:    s.projects,
		Tags:        s.tags,
		Priority:    s.priority,
		Date:        s.date,
		Start:       s.start,
		End:         s.end,
		Reminder:    in.Reminder,
	}, nil
}

// DefaultProject returns the project used when none is given.
func (p *Parser) DefaultProject() string {
	return NormalizeProject(p.opts.DefaultProject)
}

// Location returns the zone the parser resolves dates in.
func (p *Parser) Location() *time.Location {
	return p.opts.Location
}

func (p *Parser) dateStage(s *state) error {
	s.text, s.date = ResolveDate(s.text, s.date, s.now)
	return nil
}

func (p *Parser) priorityStage(s *state) error {
	fallback := s.in.Priority
	if fallback == 0 {
		fallback = domain.PriorityDefault
	}
	s.text, s.priority = extractPriority(s.text, fallback)
	return nil
}

func (p *Parser) timeStage(s *state) error {
	res, err := ExtractTime(s.text, s.date, p.opts.StrictTime)
	if err != nil {
		return err
	}
	s.text = res.Text
	s.start, s.end = res.Start, res.End
	if s.start != nil {
		s.date = *s.start
	}
	return nil
}

func (p *Parser) tagStage(s *state) error {
	res, err := ExtractTags(s.text, s.in.Category, p.opts.DefaultProject)
	if err != nil {
		return err
	}
	s.text = res.Text
	s.projects, s.tags = res.Projects, res.Tags
	return nil
}

func (p *Parser) titleStage(s *state) error {
	title, err := domain.NewTitle(SanitizeTitle(s.text))
	if err != nil {
		return err
	}
	s.title = title.String()
	return nil
}
