// Package period assigns reviews to construction-timeline periods and computes
// grouped rating statistics over them.
//
// Classification is a pure function of a review date and a Boundary. A period is
// never authoritative state: anything that stores one is holding a cache that
// can be recomputed with Classify.
//
// All functions are safe for concurrent use.
package period

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period is the timeline bucket a review falls into.
type Period string

const (
	Pre              Period = "pre"
	BorderStartMonth Period = "border_start_month"
	During           Period = "during"
	BorderEndMonth   Period = "border_end_month"
	Post             Period = "post"
	MissingDate      Period = "missing_date"
)

// Order is the reporting order of periods.
var Order = []Period{Pre, BorderStartMonth, During, BorderEndMonth, Post, MissingDate}

var periodLabels = map[Period]string{
	Pre:              "Pre-Construction",
	BorderStartMonth: "Construction Start Month",
	During:           "During Construction",
	BorderEndMonth:   "Construction End Month",
	Post:             "Post-Construction",
	MissingDate:      "Missing Date",
}

// rank gives each period its position in Order.
var rank = map[Period]int{}

func init() {
	for i, p := range Order {
		rank[p] = i
	}
}

func (p Period) String() string {
	return string(p)
}

// Label returns the human-readable name used in dashboard exports.
func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

// IsBorder reports whether p is one of the two flagged border months.
func (p Period) IsBorder() bool {
	return p == BorderStartMonth || p == BorderEndMonth
}

// Valid reports whether p is one of the six known periods.
func (p Period) Valid() bool {
	_, ok := rank[p]
	return ok
}

// legacyBorders are the border month names older exports wrote for the
// February 2016 to May 2018 construction.
var legacyBorders = map[string]Period{
	"border_feb2016": BorderStartMonth,
	"border_may2018": BorderEndMonth,
}

// ParsePeriod reads a period name. The *_construction spellings and the
// legacyBorders names of older exports are accepted as well.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	p := Period(s)
	if p.Valid() {
		return p, nil
	}
	switch {
	case s == "pre_construction":
		return Pre, nil
	case s == "during_construction":
		return During, nil
	case s == "post_construction":
		return Post, nil
	case s == "border_start":
		return BorderStartMonth, nil
	case s == "border_end":
		return BorderEndMonth, nil
	}
	if p, ok := legacyBorders[s]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ErrInvalidBoundary is returned when a Boundary does not satisfy Start < End.
var ErrInvalidBoundary = errors.New("construction start must be before construction end")

// Boundary holds the construction start and end dates.
type Boundary struct {
	Start time.Time
	End   time.Time
}

// NewBoundary builds a validated Boundary.
func NewBoundary(start, end time.Time) (Boundary, error) {
	b := Boundary{Start: start, End: end}
	if err := b.Validate(); err != nil {
		return Boundary{}, err
	}
	return b, nil
}

// ParseBoundary builds a Boundary from two date strings in any layout ParseDate accepts.
func ParseBoundary(start, end string) (Boundary, error) {
	s, ok := ParseDate(start)
	if !ok {
		return Boundary{}, fmt.Errorf("invalid construction start %q", start)
	}
	e, ok := ParseDate(end)
	if !ok {
		return Boundary{}, fmt.Errorf("invalid construction end %q", end)
	}
	return NewBoundary(s, e)
}

func (b Boundary) Validate() error {
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("%w: both dates are required", ErrInvalidBoundary)
	}
	if !civil(b.Start).Before(civil(b.End)) {
		return ErrInvalidBoundary
	}
	return nil
}

func (b Boundary) String() string {
	return b.Start.Format(dateLayout) + ".." + b.End.Format(dateLayout)
}

// Classify assigns a review date to its period.
//
// The checks run in a fixed order: missing date, the calendar month of Start,
// the calendar month of End, then the strict inequalities. A date equal to
// Start or End always lies inside that boundary's own month, so it is reported
// as the border month and every input maps to exactly one period.
func Classify(date time.Time, b Boundary) Period {
	if date.IsZero() {
		return MissingDate
	}
	d := civil(date)
	start, end := civil(b.Start), civil(b.End)

	if sameMonth(d, start) {
		return BorderStartMonth
	}
	if sameMonth(d, end) {
		return BorderEndMonth
	}

	switch {
	case d.Before(start):
		return Pre
	case d.After(end):
		return Post
	default:
		return During
	}
}

// ClassifyInclusive is the coarse three-way split used when writing period
// files: before Start is Pre, Start through End inclusive is During, after
// End is Post. Border months are not flagged.
func ClassifyInclusive(date time.Time, b Boundary) Period {
	if date.IsZero() {
		return MissingDate
	}
	d := civil(date)
	switch {
	case d.Before(civil(b.Start)):
		return Pre
	case d.After(civil(b.End)):
		return Post
	default:
		return During
	}
}

// ClassifyString parses s and classifies it. Unparseable input is MissingDate.
func ClassifyString(s string, b Boundary) Period {
	d, ok := ParseDate(s)
	if !ok {
		return MissingDate
	}
	return Classify(d, b)
}

// civil drops the time of day and zone, keeping the calendar date as written.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
