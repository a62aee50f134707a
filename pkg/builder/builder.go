package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getgauge/gauge-proto/go/gauge_messages"
	"google.golang.org/protobuf/proto"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/generator"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// gaugeKeyword is the keyword shown for gauge steps, which have none
const gaugeKeyword = "* "

// ReportBuilder turns gauge suite results into a cucumber report
type ReportBuilder struct {
	config      *config.Config
	generator   *generator.Generator
	projectRoot string
}

// NewReportBuilder creates a report builder; spec file names are made relative to projectRoot
func NewReportBuilder(cfg *config.Config, projectRoot string) *ReportBuilder {
	return &ReportBuilder{
		config:      cfg,
		generator:   generator.NewGenerator(cfg),
		projectRoot: projectRoot,
	}
}

// BuildReport generates the HTML report from suite results
func (rb *ReportBuilder) BuildReport(suiteResult *gauge_messages.ProtoSuiteResult, outputDir string) (*generator.Result, error) {
	if suiteResult.GetPreHookFailure() != nil {
		logger.Warnf("Before suite hook failed: %s", suiteResult.GetPreHookFailure().GetErrorMessage())
	}
	if suiteResult.GetPostHookFailure() != nil {
		logger.Warnf("After suite hook failed: %s", suiteResult.GetPostHookFailure().GetErrorMessage())
	}

	features := rb.ConvertSuite(suiteResult)
	if len(features) == 0 {
		return nil, fmt.Errorf("suite %q has no specifications", suiteResult.GetProjectName())
	}

	logger.Infof("Converted %d specifications", len(features))
	return rb.generator.Generate(models.NewReportResult(features), outputDir)
}

// BuildFromFile generates the report from a serialised ProtoSuiteResult
func (rb *ReportBuilder) BuildFromFile(inputFile, outputDir string) (*generator.Result, error) {
	logger.Infof("Reading gauge results from %s", inputFile)

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	suiteResult := &gauge_messages.ProtoSuiteResult{}
	if err := proto.Unmarshal(data, suiteResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proto data: %w", err)
	}

	return rb.BuildReport(suiteResult, outputDir)
}

// ConvertSuite maps every specification to a feature
func (rb *ReportBuilder) ConvertSuite(suiteResult *gauge_messages.ProtoSuiteResult) []*models.Feature {
	features := make([]*models.Feature, 0, len(suiteResult.GetSpecResults()))
	for _, specResult := range suiteResult.GetSpecResults() {
		if specResult.GetProtoSpec() == nil {
			continue
		}
		features = append(features, rb.convertSpec(specResult.GetProtoSpec()))
	}
	return features
}

// convertSpec converts a proto spec to a feature
func (rb *ReportBuilder) convertSpec(spec *gauge_messages.ProtoSpec) *models.Feature {
	feature := &models.Feature{
		Keyword: "Specification",
		Name:    spec.GetSpecHeading(),
		URI:     rb.relative(spec.GetFileName()),
		Tags:    convertTags(spec.GetTags()),
	}

	for _, item := range spec.GetItems() {
		switch item.GetItemType() {
		case gauge_messages.ProtoItem_Scenario:
			feature.Elements = append(feature.Elements, convertScenario(item.GetScenario(), ""))
		case gauge_messages.ProtoItem_TableDrivenScenario:
			tds := item.GetTableDrivenScenario()
			suffix := fmt.Sprintf(" (row %d)", tds.GetTableRowIndex()+1)
			feature.Elements = append(feature.Elements, convertScenario(tds.GetScenario(), suffix))
		}
	}
	return feature
}

// convertScenario converts a proto scenario to an element; context and teardown steps run as part of it
func convertScenario(scenario *gauge_messages.ProtoScenario, suffix string) *models.Element {
	element := &models.Element{
		Keyword: "Scenario",
		Type:    "scenario",
		Name:    scenario.GetScenarioHeading() + suffix,
		Tags:    convertTags(scenario.GetTags()),
	}

	if failure := scenario.GetPreHookFailure(); failure != nil {
		element.Before = append(element.Before, convertHookFailure(failure))
	}
	if failure := scenario.GetPostHookFailure(); failure != nil {
		element.After = append(element.After, convertHookFailure(failure))
	}

	element.Steps = append(element.Steps, convertItems(scenario.GetContexts())...)
	element.Steps = append(element.Steps, convertItems(scenario.GetScenarioItems())...)
	element.Steps = append(element.Steps, convertItems(scenario.GetTearDownSteps())...)

	logger.Debugf("Converted scenario '%s' with %d steps", element.Name, len(element.Steps))
	return element
}

func convertItems(items []*gauge_messages.ProtoItem) []*models.Step {
	var steps []*models.Step
	for _, item := range items {
		switch item.GetItemType() {
		case gauge_messages.ProtoItem_Step:
			steps = append(steps, convertStep(item.GetStep()))
		case gauge_messages.ProtoItem_Concept:
			// concepts are flattened into the steps they are made of
			steps = append(steps, convertItems(item.GetConcept().GetSteps())...)
		}
	}
	return steps
}

// convertStep converts a proto step; the parameterised text identifies the step implementation
func convertStep(step *gauge_messages.ProtoStep) *models.Step {
	text := step.GetActualText()
	if text == "" {
		text = step.GetParsedText()
	}

	result := step.GetStepExecutionResult()
	execResult := result.GetExecutionResult()

	converted := &models.Step{
		Keyword: gaugeKeyword,
		Name:    text,
		Match:   models.Match{Location: step.GetParsedText()},
		Result: models.Result{
			Status:   stepStatus(result),
			Duration: execResult.GetExecutionTime() * int64(time.Millisecond),
		},
	}

	if execResult.GetFailed() {
		converted.Result.ErrorMessage = joinNonEmpty(execResult.GetErrorMessage(), execResult.GetStackTrace())
	}
	return converted
}

func stepStatus(result *gauge_messages.ProtoStepExecutionResult) models.Status {
	switch {
	case result.GetExecutionResult().GetFailed():
		return models.StatusFailed
	case result.GetSkipped():
		return models.StatusSkipped
	case result.GetExecutionResult() == nil:
		// never reached because an earlier step failed
		return models.StatusSkipped
	default:
		return models.StatusPassed
	}
}

func convertHookFailure(failure *gauge_messages.ProtoHookFailure) *models.Hook {
	return &models.Hook{
		Result: models.Result{
			Status:       models.StatusFailed,
			ErrorMessage: joinNonEmpty(failure.GetErrorMessage(), failure.GetStackTrace()),
		},
	}
}

// convertTags prefixes gauge tags with @ the way cucumber reports them
func convertTags(tags []string) []models.Tag {
	converted := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "@") {
			tag = "@" + tag
		}
		converted = append(converted, models.Tag{Name: tag})
	}
	return converted
}

func (rb *ReportBuilder) relative(fileName string) string {
	if rb.projectRoot == "" || !filepath.IsAbs(fileName) {
		return filepath.ToSlash(fileName)
	}
	rel, err := filepath.Rel(rb.projectRoot, fileName)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(fileName)
	}
	return filepath.ToSlash(rel)
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
