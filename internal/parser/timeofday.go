package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rezkam/todoline/internal/domain"
)

// clock is one time token: an hour, optional ":mm" and optional am/pm.
const clock = `(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`

var (
	rangeRe    = regexp.MustCompile(`(?i)(?:^|\s)from\s+` + clock + `\s+to\s+` + clock + `\b`)
	singleRe   = regexp.MustCompile(`(?i)(?:^|\s)(?:at\s+)?` + clock + `\b`)
	durationRe = regexp.MustCompile(`(?i)(?:^|\s)(?:for\s+)?(\d{1,4})\s*min(?:ute)?s?\b`)
)

// TimeResult is the output of ExtractTime.
type TimeResult struct {
	// Text is the input with the time and duration tokens removed.
	Text  string
	Start *time.Time
	End   *time.Time
}

// Label renders Start and End for display.
func (r TimeResult) Label() string {
	return domain.TimeRangeLabel(r.Start, r.End)
}

type clockTime struct {
	hour, minute int
	meridiem     string // "", "am" or "pm"
	hasColon     bool
}

// ExtractTime finds a clock time in text and places it on base's calendar day.
//
// Three shapes are recognized, in order:
//
//	from 3pm to 4:30pm   start and end
//	at 3pm for 30 min    start, end = start + duration
//	3pm                  start only
//
// A single time needs am/pm or a colon so that plain numbers stay in the
// title. A range end before its start rolls to the next day, so "from 9 to 5"
// ends at 05:00 on the day after base. This departs from keeping both ends on
// base's day in exchange for End never preceding Start.
//
// In lenient mode out-of-range values are left to time.Date to normalize.
// With strict set they fail with domain.ErrInvalidTime.
func ExtractTime(text string, base time.Time, strict bool) (TimeResult, error) {
	if m := rangeRe.FindStringSubmatchIndex(text); m != nil {
		from := clockFrom(text, m[2:8])
		to := clockFrom(text, m[8:14])
		if strict {
			if err := from.validate(); err != nil {
				return TimeResult{}, err
			}
			if err := to.validate(); err != nil {
				return TimeResult{}, err
			}
		}

		start := from.on(base)
		end := to.on(base)
		if end.Before(start) {
			end = end.AddDate(0, 0, 1)
		}
		return TimeResult{
			Text:  collapseSpace(text[:m[0]] + " " + text[m[1]:]),
			Start: &start,
			End:   &end,
		}, nil
	}

	for _, m := range singleRe.FindAllStringSubmatchIndex(text, -1) {
		c := clockFrom(text, m[2:8])
		if c.meridiem == "" && !c.hasColon {
			continue
		}
		if strict {
			if err := c.validate(); err != nil {
				return TimeResult{}, err
			}
		}

		start := c.on(base)
		rest := text[:m[0]] + " " + text[m[1]:]
		res := TimeResult{Start: &start}

		// A duration only counts when it follows the time.
		tail := rest[m[0]:]
		if d := durationRe.FindStringSubmatchIndex(tail); d != nil {
			mins, err := strconv.Atoi(tail[d[2]:d[3]])
			if err == nil {
				end := start.Add(time.Duration(mins) * time.Minute)
				res.End = &end
				rest = rest[:m[0]] + tail[:d[0]] + " " + tail[d[1]:]
			}
		}

		res.Text = collapseSpace(rest)
		return res, nil
	}

	return TimeResult{Text: text}, nil
}

// clockFrom reads hour, minute and meridiem from three submatch index pairs.
func clockFrom(text string, idx []int) clockTime {
	var c clockTime
	c.hour, _ = strconv.Atoi(text[idx[0]:idx[1]])
	if idx[2] >= 0 {
		c.minute, _ = strconv.Atoi(text[idx[2]:idx[3]])
		c.hasColon = true
	}
	if idx[4] >= 0 {
		c.meridiem = strings.ToLower(text[idx[4]:idx[5]])
	}
	return c
}

// hour24 converts to a 24-hour clock: pm adds 12 below noon, 12am is midnight.
// Without a meridiem the hour is taken as already 24-hour.
func (c clockTime) hour24() int {
	switch {
	case c.meridiem == "pm" && c.hour < 12:
		return c.hour + 12
	case c.meridiem == "am" && c.hour == 12:
		return 0
	default:
		return c.hour
	}
}

func (c clockTime) on(base time.Time) time.Time {
	y, m, d := base.Date()
	return time.Date(y, m, d, c.hour24(), c.minute, 0, 0, base.Location())
}

func (c clockTime) validate() error {
	switch {
	case c.minute > 59:
		return fmt.Errorf("%w: minute %d", domain.ErrInvalidTime, c.minute)
	case c.meridiem != "" && (c.hour == 0 || c.hour > 12):
		return fmt.Errorf("%w: %d%s", domain.ErrInvalidTime, c.hour, c.meridiem)
	case c.hour > 23:
		return fmt.Errorf("%w: hour %d", domain.ErrInvalidTime, c.hour)
	}
	return nil
}
