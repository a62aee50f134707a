package pages

import (
	"time"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/failures"
	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// bodyContext is what the variant body templates see
type bodyContext struct {
	Report   *models.ReportResult
	Features []featureRow
	Feature  *models.Feature
	Tag      *models.TagObject
	Step     *models.StepObject
	Failures []*models.Element
	Groups   []*failures.Group
}

type featureRow struct {
	Feature   *models.Feature
	Scenarios models.StatusCounter
	Steps     models.StatusCounter
	Status    models.Status
	Duration  time.Duration
}

// NewFeaturesOverviewPage lists every feature with its statistics
func NewFeaturesOverviewPage(report *models.ReportResult, cfg *config.Config, opts ...Option) *Page {
	body := func() interface{} {
		return bodyContext{Report: report, Features: featureRows(report)}
	}
	return newPage(FeaturesOverview, FeaturesOverviewSlug, variants[FeaturesOverview].title, report, cfg, body, opts)
}

// NewTagsOverviewPage lists every tag with its statistics
func NewTagsOverviewPage(report *models.ReportResult, cfg *config.Config, opts ...Option) *Page {
	body := func() interface{} {
		return bodyContext{Report: report}
	}
	return newPage(TagsOverview, TagsOverviewSlug, variants[TagsOverview].title, report, cfg, body, opts)
}

// NewStepsOverviewPage lists every step definition with its statistics
func NewStepsOverviewPage(report *models.ReportResult, cfg *config.Config, opts ...Option) *Page {
	body := func() interface{} {
		return bodyContext{Report: report}
	}
	return newPage(StepsOverview, StepsOverviewSlug, variants[StepsOverview].title, report, cfg, body, opts)
}

// NewFailuresOverviewPage lists the failed scenarios of the run grouped by cause
func NewFailuresOverviewPage(report *models.ReportResult, cfg *config.Config, opts ...Option) *Page {
	body := func() interface{} {
		failed := report.FailedScenarios()
		return bodyContext{Report: report, Failures: failed, Groups: failures.GroupScenarios(failed)}
	}
	return newPage(FailuresOverview, FailuresOverviewSlug, variants[FailuresOverview].title, report, cfg, body, opts)
}

// NewFeatureReportPage shows the scenarios and steps of one feature
func NewFeatureReportPage(report *models.ReportResult, cfg *config.Config, feature *models.Feature, opts ...Option) (*Page, error) {
	if feature == nil {
		return nil, pageError(models.FeatureSlugPrefix, ErrUnknownSubject, nil)
	}
	if found, ok := report.FeatureBySlug(feature.Slug); !ok || found != feature {
		return nil, pageError(feature.Slug, ErrUnknownSubject, nil)
	}
	body := func() interface{} {
		return bodyContext{Report: report, Feature: feature}
	}
	return newPage(FeatureReport, feature.Slug, feature.Name, report, cfg, body, opts), nil
}

// NewTagReportPage shows every scenario carrying one tag
func NewTagReportPage(report *models.ReportResult, cfg *config.Config, tag *models.TagObject, opts ...Option) (*Page, error) {
	if tag == nil {
		return nil, pageError(models.TagSlugPrefix, ErrUnknownSubject, nil)
	}
	if found, ok := report.TagBySlug(tag.Slug); !ok || found != tag {
		return nil, pageError(tag.Slug, ErrUnknownSubject, nil)
	}
	body := func() interface{} {
		return bodyContext{Report: report, Tag: tag}
	}
	return newPage(TagReport, tag.Slug, tag.Name, report, cfg, body, opts), nil
}

// NewStepReportPage shows every execution of one step definition
func NewStepReportPage(report *models.ReportResult, cfg *config.Config, step *models.StepObject, opts ...Option) (*Page, error) {
	if step == nil {
		return nil, pageError(models.StepSlugPrefix, ErrUnknownSubject, nil)
	}
	if found, ok := report.StepBySlug(step.Slug); !ok || found != step {
		return nil, pageError(step.Slug, ErrUnknownSubject, nil)
	}
	body := func() interface{} {
		return bodyContext{Report: report, Step: step}
	}
	return newPage(StepReport, step.Slug, step.Location, report, cfg, body, opts), nil
}

// AllPages builds every page of the report: the overviews followed by one page per feature, tag and step
func AllPages(report *models.ReportResult, cfg *config.Config, opts ...Option) ([]*Page, error) {
	all := []*Page{
		NewFeaturesOverviewPage(report, cfg, opts...),
		NewTagsOverviewPage(report, cfg, opts...),
		NewStepsOverviewPage(report, cfg, opts...),
		NewFailuresOverviewPage(report, cfg, opts...),
	}

	for _, feature := range report.GetAllFeatures() {
		p, err := NewFeatureReportPage(report, cfg, feature, opts...)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	for _, tag := range report.GetAllTags() {
		p, err := NewTagReportPage(report, cfg, tag, opts...)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	for _, step := range report.GetAllSteps() {
		p, err := NewStepReportPage(report, cfg, step, opts...)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	return all, nil
}

func featureRows(report *models.ReportResult) []featureRow {
	rows := make([]featureRow, 0, len(report.Features))
	for _, feature := range report.Features {
		row := featureRow{
			Feature:  feature,
			Status:   feature.GetStatus(),
			Duration: feature.GetDuration(),
		}
		for _, element := range feature.Elements {
			if element.IsScenario() {
				row.Scenarios.Increment(element.GetStatus())
			}
			for _, step := range element.Steps {
				row.Steps.Increment(step.Result.Status)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
