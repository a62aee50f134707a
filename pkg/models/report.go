package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Slug prefixes for subject pages
const (
	FeatureSlugPrefix = "report-feature_"
	TagSlugPrefix     = "report-tag_"
	StepSlugPrefix    = "report-step_"
)

// StatusCounter counts occurrences per status
type StatusCounter struct {
	counts map[Status]int
	total  int
}

// Increment records one more occurrence of the status
func (c *StatusCounter) Increment(s Status) {
	if c.counts == nil {
		c.counts = make(map[Status]int)
	}
	if s == "" {
		s = StatusUndefined
	}
	c.counts[s]++
	c.total++
}

// Get returns the count for a status
func (c StatusCounter) Get(s Status) int { return c.counts[s] }

func (c StatusCounter) Passed() int    { return c.counts[StatusPassed] }
func (c StatusCounter) Failed() int    { return c.counts[StatusFailed] }
func (c StatusCounter) Skipped() int   { return c.counts[StatusSkipped] }
func (c StatusCounter) Pending() int   { return c.counts[StatusPending] }
func (c StatusCounter) Undefined() int { return c.counts[StatusUndefined] }
func (c StatusCounter) Total() int     { return c.total }

// PassedPercent returns the share of passed occurrences formatted for display
func (c StatusCounter) PassedPercent() string {
	if c.total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(c.Passed())*100/float64(c.total))
}

// TagObject aggregates every scenario carrying a tag
type TagObject struct {
	Name      string
	Slug      string
	Elements  []*Element
	Scenarios StatusCounter
	Steps     StatusCounter
	Duration  time.Duration
}

// GetStatus returns the worst status among the tagged scenarios
func (t *TagObject) GetStatus() Status {
	status := StatusPassed
	for _, e := range t.Elements {
		status = worse(status, e.GetStatus())
	}
	return status
}

// GetHTMLFileName returns the file name of the tag report page
func (t *TagObject) GetHTMLFileName() string {
	return t.Slug + ".html"
}

// StepOccurrence is one execution of a step definition
type StepOccurrence struct {
	Feature *Feature
	Element *Element
	Step    *Step
}

// StepObject aggregates every execution of one step definition
type StepObject struct {
	Location    string
	Slug        string
	Occurrences []StepOccurrence
	Statuses    StatusCounter
	Duration    time.Duration
	MaxDuration time.Duration
}

// AverageDuration returns the mean duration of the executions
func (s *StepObject) AverageDuration() time.Duration {
	if len(s.Occurrences) == 0 {
		return 0
	}
	return s.Duration / time.Duration(len(s.Occurrences))
}

// GetStatus returns the worst status among the executions
func (s *StepObject) GetStatus() Status {
	status := StatusPassed
	for _, o := range s.Occurrences {
		status = worse(status, o.Step.Result.Status)
	}
	return status
}

// GetHTMLFileName returns the file name of the step report page
func (s *StepObject) GetHTMLFileName() string {
	return s.Slug + ".html"
}

// ReportResult is the aggregated, read-only view over all features of a run
type ReportResult struct {
	Features []*Feature
	Tags     []*TagObject
	Steps    []*StepObject

	FeatureCounter  StatusCounter
	ScenarioCounter StatusCounter
	StepCounter     StatusCounter
	Duration        time.Duration

	featuresBySlug map[string]*Feature
	tagsBySlug     map[string]*TagObject
	stepsBySlug    map[string]*StepObject
}

// NewReportResult aggregates features into tags and steps and assigns page slugs
func NewReportResult(features []*Feature) *ReportResult {
	r := &ReportResult{
		Features:       features,
		featuresBySlug: make(map[string]*Feature),
		tagsBySlug:     make(map[string]*TagObject),
		stepsBySlug:    make(map[string]*StepObject),
	}

	tags := make(map[string]*TagObject)
	steps := make(map[string]*StepObject)
	used := make(map[string]int)

	for _, feature := range features {
		if feature.Slug == "" {
			feature.Slug = uniqueSlug(used, FeatureSlugPrefix+featureKey(feature))
		} else {
			used[feature.Slug]++
		}
		r.featuresBySlug[feature.Slug] = feature

		r.FeatureCounter.Increment(feature.GetStatus())
		r.Duration += feature.GetDuration()

		for _, element := range feature.Elements {
			element.Feature = feature
			collectSteps(steps, feature, element, &r.StepCounter)
			if !element.IsScenario() {
				continue
			}
			r.ScenarioCounter.Increment(element.GetStatus())

			for _, name := range tagNames(feature, element) {
				tag, ok := tags[name]
				if !ok {
					tag = &TagObject{Name: name}
					tags[name] = tag
				}
				tag.Elements = append(tag.Elements, element)
				tag.Scenarios.Increment(element.GetStatus())
				tag.Duration += element.GetDuration()
				for _, step := range element.Steps {
					tag.Steps.Increment(step.Result.Status)
				}
			}
		}
	}

	for _, tag := range tags {
		r.Tags = append(r.Tags, tag)
	}
	sort.Slice(r.Tags, func(i, j int) bool { return r.Tags[i].Name < r.Tags[j].Name })
	for _, tag := range r.Tags {
		tag.Slug = uniqueSlug(used, TagSlugPrefix+SafeName(strings.TrimPrefix(tag.Name, "@")))
		r.tagsBySlug[tag.Slug] = tag
	}

	for _, step := range steps {
		r.Steps = append(r.Steps, step)
	}
	sort.Slice(r.Steps, func(i, j int) bool { return r.Steps[i].Location < r.Steps[j].Location })
	for _, step := range r.Steps {
		step.Slug = uniqueSlug(used, StepSlugPrefix+SafeName(step.Location))
		r.stepsBySlug[step.Slug] = step
	}

	return r
}

// GetAllTags returns the tags sorted by name
func (r *ReportResult) GetAllTags() []*TagObject { return r.Tags }

// GetAllSteps returns the steps sorted by location
func (r *ReportResult) GetAllSteps() []*StepObject { return r.Steps }

// GetAllFeatures returns the features in input order
func (r *ReportResult) GetAllFeatures() []*Feature { return r.Features }

// FeatureBySlug looks up a feature by its page slug
func (r *ReportResult) FeatureBySlug(slug string) (*Feature, bool) {
	f, ok := r.featuresBySlug[slug]
	return f, ok
}

// TagBySlug looks up a tag by its page slug
func (r *ReportResult) TagBySlug(slug string) (*TagObject, bool) {
	t, ok := r.tagsBySlug[slug]
	return t, ok
}

// StepBySlug looks up a step by its page slug
func (r *ReportResult) StepBySlug(slug string) (*StepObject, bool) {
	s, ok := r.stepsBySlug[slug]
	return s, ok
}

// FailedScenarios returns every failed scenario in feature order
func (r *ReportResult) FailedScenarios() []*Element {
	var failed []*Element
	for _, feature := range r.Features {
		for _, element := range feature.Elements {
			if element.IsScenario() && element.GetStatus() == StatusFailed {
				failed = append(failed, element)
			}
		}
	}
	return failed
}

func collectSteps(steps map[string]*StepObject, feature *Feature, element *Element, counter *StatusCounter) {
	for _, step := range element.Steps {
		counter.Increment(step.Result.Status)

		location := step.Location()
		obj, ok := steps[location]
		if !ok {
			obj = &StepObject{Location: location}
			steps[location] = obj
		}
		obj.Occurrences = append(obj.Occurrences, StepOccurrence{Feature: feature, Element: element, Step: step})
		obj.Statuses.Increment(step.Result.Status)
		obj.Duration += step.GetDuration()
		if step.GetDuration() > obj.MaxDuration {
			obj.MaxDuration = step.GetDuration()
		}
	}
}

// tagNames returns the scenario's own tags plus the inherited feature tags, without duplicates
func tagNames(feature *Feature, element *Element) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tags := range [][]Tag{feature.Tags, element.Tags} {
		for _, tag := range tags {
			if tag.Name == "" || seen[tag.Name] {
				continue
			}
			seen[tag.Name] = true
			names = append(names, tag.Name)
		}
	}
	return names
}

func featureKey(f *Feature) string {
	for _, candidate := range []string{f.URI, f.ID, f.Name} {
		if key := SafeName(candidate); key != "" {
			return key
		}
	}
	return "unnamed"
}

// uniqueSlug returns slug, or the first free slug_N after it; the returned slug is marked used
func uniqueSlug(used map[string]int, slug string) string {
	candidate := slug
	for n := 2; used[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s_%d", slug, n)
	}
	used[candidate]++
	return candidate
}
