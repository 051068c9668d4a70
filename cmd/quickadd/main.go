// Command quickadd parses task text the way the add-task form does and
// prints what would be stored. Nothing is persisted.
//
//	quickadd [-json] [-category Work] [-strict] [-due 2024-05-01] text...
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rezkam/todoline/internal/config"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/parser"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "quickadd: %v\n", err)
		}
		os.Exit(1)
	}
}

// parsed is the printed form of a parse result.
type parsed struct {
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Projects       []string `json:"projects" yaml:"projects"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Priority       int      `json:"priority" yaml:"priority"`
	PriorityLabel  string   `json:"priority_label" yaml:"priority_label"`
	Date           string   `json:"date" yaml:"date"`
	TimeRangeLabel string   `json:"time_range_label,omitempty" yaml:"time_range_label,omitempty"`
	Reminder       string   `json:"reminder,omitempty" yaml:"reminder,omitempty"`
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	cfg, err := config.LoadParserConfig()
	if err != nil {
		return err
	}

	fset := flag.NewFlagSet("quickadd", flag.ContinueOnError)
	fset.SetOutput(stdout)
	asJSON := fset.Bool("json", false, "print JSON instead of YAML")
	category := fset.String("category", "", "category page the task is entered from")
	strict := fset.Bool("strict", cfg.StrictTime, "reject malformed clock times instead of normalizing them")
	due := fset.String("due", "", "due-date widget value, YYYY-MM-DD")
	remind := fset.String("reminder", "", `"10 minutes before" or an RFC 3339 instant`)
	description := fset.String("description", "", "task description")
	tz := fset.String("tz", cfg.Timezone, "IANA timezone dates are resolved in")
	if err := fset.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fset.Args(), " ")
	if strings.TrimSpace(text) == "" {
		fset.Usage()
		return errors.New("task text is required")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("invalid -tz: %w", err)
	}

	in := parser.Input{
		Text:        text,
		Description: *description,
		Category:    *category,
	}
	if *due != "" {
		d, err := time.ParseInLocation(time.DateOnly, *due, loc)
		if err != nil {
			return fmt.Errorf("invalid -due: %w", err)
		}
		in.DueDate = &d
	}
	if in.Reminder, err = domain.ParseReminder(*remind); err != nil {
		return err
	}

	p := parser.New(parser.Options{
		DefaultProject: cfg.DefaultProject,
		StrictTime:     *strict,
		Now:            now,
		Location:       loc,
	})
	res, err := p.Parse(in)
	if err != nil {
		return err
	}

	out := parsed{
		Title:          res.Title,
		Description:    res.Description,
		Projects:       res.Projects,
		Tags:           res.Tags,
		Priority:       res.Priority.Level,
		PriorityLabel:  res.Priority.Label,
		Date:           res.Date.In(loc).Format(time.RFC3339),
		TimeRangeLabel: res.TimeRangeLabel(),
		Reminder:       res.Reminder.String(),
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
