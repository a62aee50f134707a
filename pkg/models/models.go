package models

import (
	"regexp"
	"strings"
	"time"
)

// Status is the outcome of a step, scenario or feature
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPending   Status = "pending"
	StatusUndefined Status = "undefined"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusPassed, StatusFailed, StatusSkipped, StatusPending, StatusUndefined}

// IsPassed reports whether the status counts as a success
func (s Status) IsPassed() bool {
	return s == StatusPassed
}

// Feature is a single feature file as reported by cucumber
type Feature struct {
	ID          string     `json:"id"`
	URI         string     `json:"uri"`
	Keyword     string     `json:"keyword"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Line        int        `json:"line"`
	Tags        []Tag      `json:"tags"`
	Elements    []*Element `json:"elements"`

	// Slug is the URL-safe identifier of the feature report page
	Slug string `json:"-"`
	// JSONFile is the result file the feature was read from
	JSONFile string `json:"-"`
}

// Element is a scenario or background
type Element struct {
	ID          string  `json:"id"`
	Keyword     string  `json:"keyword"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Line        int     `json:"line"`
	Tags        []Tag   `json:"tags"`
	Before      []*Hook `json:"before"`
	Steps       []*Step `json:"steps"`
	After       []*Hook `json:"after"`

	// Feature points back at the owning feature
	Feature *Feature `json:"-"`
}

// Step is a single executed step
type Step struct {
	Keyword string `json:"keyword"`
	Name    string `json:"name"`
	Line    int    `json:"line"`
	Result  Result `json:"result"`
	Match   Match  `json:"match"`
}

// Hook is a before or after hook
type Hook struct {
	Result Result `json:"result"`
	Match  Match  `json:"match"`
}

// Result holds the execution outcome; Duration is in nanoseconds
type Result struct {
	Status       Status `json:"status"`
	Duration     int64  `json:"duration"`
	ErrorMessage string `json:"error_message"`
}

// Match identifies the step definition that executed a step
type Match struct {
	Location string `json:"location"`
}

// Tag is a cucumber tag such as @smoke
type Tag struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// IsScenario reports whether the element is a scenario rather than a background
func (e *Element) IsScenario() bool {
	return e.Type != "background"
}

// GetStatus returns the worst status among hooks and steps
func (e *Element) GetStatus() Status {
	status := StatusPassed
	for _, h := range e.Before {
		status = worse(status, h.Result.Status)
	}
	for _, s := range e.Steps {
		status = worse(status, s.Result.Status)
	}
	for _, h := range e.After {
		status = worse(status, h.Result.Status)
	}
	return status
}

// GetDuration sums the step and hook durations
func (e *Element) GetDuration() time.Duration {
	var total int64
	for _, h := range e.Before {
		total += h.Result.Duration
	}
	for _, s := range e.Steps {
		total += s.Result.Duration
	}
	for _, h := range e.After {
		total += h.Result.Duration
	}
	return time.Duration(total)
}

// Location returns the key steps are aggregated by; steps without a match fall back to their text
func (s *Step) Location() string {
	if s.Match.Location != "" {
		return s.Match.Location
	}
	return s.Name
}

// GetDuration returns the step duration
func (s *Step) GetDuration() time.Duration {
	return time.Duration(s.Result.Duration)
}

// GetStatus returns the worst status among the feature's scenarios
func (f *Feature) GetStatus() Status {
	status := StatusPassed
	for _, e := range f.Elements {
		status = worse(status, e.GetStatus())
	}
	return status
}

// GetDuration sums the durations of all elements
func (f *Feature) GetDuration() time.Duration {
	var total time.Duration
	for _, e := range f.Elements {
		total += e.GetDuration()
	}
	return total
}

// GetScenarios returns the elements that are scenarios
func (f *Feature) GetScenarios() []*Element {
	scenarios := make([]*Element, 0, len(f.Elements))
	for _, e := range f.Elements {
		if e.IsScenario() {
			scenarios = append(scenarios, e)
		}
	}
	return scenarios
}

// GetHTMLFileName returns the file name of the feature report page
func (f *Feature) GetHTMLFileName() string {
	return f.Slug + ".html"
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeName turns an arbitrary string into something usable in a file name or URL
func SafeName(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(s, "-"), "-")
}

// worse returns the more severe of two statuses; an empty status counts as undefined
func worse(a, b Status) Status {
	if b == "" {
		b = StatusUndefined
	}
	if severity(b) > severity(a) {
		return b
	}
	return a
}

func severity(s Status) int {
	switch s {
	case StatusPassed:
		return 0
	case StatusSkipped:
		return 1
	case StatusPending:
		return 2
	case StatusFailed:
		return 4
	default:
		return 3
	}
}
