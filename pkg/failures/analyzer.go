// Package failures groups failed scenarios by the shape of their error so the
// failures overview can show one row per distinct problem.
package failures

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// Kind is the category of a failure
type Kind string

const (
	KindAssertion   Kind = "Assertion Failure"
	KindTimeout     Kind = "Timeout"
	KindNetwork     Kind = "Network Error"
	KindNullPointer Kind = "Null Pointer"
	KindFileSystem  Kind = "File System"
	KindDatabase    Kind = "Database"
	KindEnvironment Kind = "Environment"
	KindUndefined   Kind = "Undefined Step"
	KindUnknown     Kind = "Unknown Error"
)

// Severity levels, most severe first
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

const maxRootCause = 150

var (
	numbers = regexp.MustCompile(`\d+`)
	paths   = regexp.MustCompile(`/[^\s]+`)
	uuids   = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
)

var patterns = []struct {
	kind  Kind
	words []string
}{
	{KindAssertion, []string{"assertion", "assert", "expected", "actual", "should be", "must be", "equals", "not equal"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindNetwork, []string{"connection refused", "network", "socket", "http", "connection reset", "connection closed", "dns"}},
	{KindNullPointer, []string{"nullpointer", "null pointer", "nil pointer", "null", "nil", "none"}},
	{KindFileSystem, []string{"file not found", "no such file", "permission denied", "directory", "path"}},
	{KindDatabase, []string{"database", "sql", "query", "transaction", "duplicate key", "constraint"}},
	{KindEnvironment, []string{"environment", "config", "configuration", "property", "variable not set"}},
}

// Group is a set of scenarios failing for the same reason
type Group struct {
	Signature string
	Kind      Kind
	RootCause string
	Severity  string
	Hint      string
	Scenarios []*models.Element
	Features  []*models.Feature
}

// Count returns the number of scenarios in the group
func (g *Group) Count() int {
	return len(g.Scenarios)
}

// Classify determines the category of an error message
func Classify(message string) Kind {
	lower := strings.ToLower(message)
	for _, p := range patterns {
		for _, word := range p.words {
			if strings.Contains(lower, word) {
				return p.kind
			}
		}
	}
	return KindUnknown
}

// Signature identifies messages that differ only in numbers, paths and ids
func Signature(message string, kind Kind) string {
	cleaned := uuids.ReplaceAllString(message, "UUID")
	cleaned = numbers.ReplaceAllString(cleaned, "N")
	cleaned = paths.ReplaceAllString(cleaned, "/PATH")

	hash := md5.Sum([]byte(fmt.Sprintf("%s:%s", kind, cleaned)))
	return hex.EncodeToString(hash[:])
}

// GroupScenarios groups the given scenarios by failure signature, largest group first
func GroupScenarios(scenarios []*models.Element) []*Group {
	groups := make(map[string]*Group)
	var order []*Group

	for _, scenario := range scenarios {
		message, kind := firstFailure(scenario)
		cause := rootCause(message)
		signature := Signature(cause, kind)

		group, ok := groups[signature]
		if !ok {
			group = &Group{
				Signature: signature,
				Kind:      kind,
				RootCause: cause,
				Hint:      hint(kind),
			}
			groups[signature] = group
			order = append(order, group)
		}
		group.Scenarios = append(group.Scenarios, scenario)
		if scenario.Feature != nil && !containsFeature(group.Features, scenario.Feature) {
			group.Features = append(group.Features, scenario.Feature)
		}
	}

	for _, group := range order {
		group.Severity = severity(group.Kind, group.Count())
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Count() > order[j].Count() })
	return order
}

// firstFailure returns the error of the first failed hook or step
func firstFailure(e *models.Element) (string, Kind) {
	var results []models.Result
	for _, h := range e.Before {
		results = append(results, h.Result)
	}
	for _, s := range e.Steps {
		results = append(results, s.Result)
	}
	for _, h := range e.After {
		results = append(results, h.Result)
	}

	for _, r := range results {
		if r.Status == models.StatusFailed {
			return r.ErrorMessage, Classify(r.ErrorMessage)
		}
	}
	for _, r := range results {
		if r.Status == models.StatusUndefined || r.Status == "" {
			return "", KindUndefined
		}
	}
	return "", KindUnknown
}

// rootCause returns the first line of the message, shortened
func rootCause(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	line = strings.TrimSpace(line)
	if len(line) > maxRootCause {
		return line[:maxRootCause] + "..."
	}
	return line
}

func severity(kind Kind, count int) string {
	if count >= 3 {
		return SeverityCritical
	}

	switch kind {
	case KindAssertion:
		if count >= 2 {
			return SeverityHigh
		}
		return SeverityMedium
	case KindTimeout, KindNetwork, KindNullPointer:
		return SeverityHigh
	case KindDatabase:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

func hint(kind Kind) string {
	switch kind {
	case KindAssertion:
		return "Review test expectations and verify they match actual behavior."
	case KindTimeout:
		return "Increase timeout values or investigate slow external dependencies."
	case KindNetwork:
		return "Verify network connectivity and service availability."
	case KindNullPointer:
		return "Verify object initialization and data flow."
	case KindFileSystem:
		return "Verify file paths and permissions."
	case KindDatabase:
		return "Check the database connection, schema and test data."
	case KindEnvironment:
		return "Review environment configuration and required properties."
	case KindUndefined:
		return "Implement the missing step definitions."
	default:
		return "Review the error message and stack trace."
	}
}

func containsFeature(features []*models.Feature, f *models.Feature) bool {
	for _, existing := range features {
		if existing == f {
			return true
		}
	}
	return false
}
