package builder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getgauge/gauge-proto/go/gauge_messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/models"
)

func step(actual, parsed string, exec *gauge_messages.ProtoExecutionResult, skipped bool) *gauge_messages.ProtoItem {
	return &gauge_messages.ProtoItem{
		ItemType: gauge_messages.ProtoItem_Step,
		Step: &gauge_messages.ProtoStep{
			ActualText: actual,
			ParsedText: parsed,
			StepExecutionResult: &gauge_messages.ProtoStepExecutionResult{
				ExecutionResult: exec,
				Skipped:         skipped,
			},
		},
	}
}

func sampleSuite() *gauge_messages.ProtoSuiteResult {
	return &gauge_messages.ProtoSuiteResult{
		ProjectName: "atm",
		SpecResults: []*gauge_messages.ProtoSpecResult{{
			ProtoSpec: &gauge_messages.ProtoSpec{
				SpecHeading: "Withdraw money",
				FileName:    "/work/atm/specs/withdraw.spec",
				Tags:        []string{"atm"},
				Items: []*gauge_messages.ProtoItem{
					{
						ItemType: gauge_messages.ProtoItem_Scenario,
						Scenario: &gauge_messages.ProtoScenario{
							ScenarioHeading: "Sufficient funds",
							Tags:            []string{"fast", "@checkout"},
							ScenarioItems: []*gauge_messages.ProtoItem{
								step(`Balance is "100"`, "Balance is {}", &gauge_messages.ProtoExecutionResult{ExecutionTime: 12}, false),
								{
									ItemType: gauge_messages.ProtoItem_Concept,
									Concept: &gauge_messages.ProtoConcept{
										Steps: []*gauge_messages.ProtoItem{
											step(`Withdraw "20"`, "Withdraw {}", &gauge_messages.ProtoExecutionResult{ExecutionTime: 3}, false),
										},
									},
								},
							},
						},
					},
					{
						ItemType: gauge_messages.ProtoItem_Scenario,
						Scenario: &gauge_messages.ProtoScenario{
							ScenarioHeading: "Insufficient funds",
							ScenarioItems: []*gauge_messages.ProtoItem{
								step(`Balance is "5"`, "Balance is {}", &gauge_messages.ProtoExecutionResult{
									Failed:        true,
									ExecutionTime: 7,
									ErrorMessage:  "expected 10 but was 5",
								}, false),
								step(`Withdraw "10"`, "Withdraw {}", nil, true),
							},
						},
					},
				},
			},
		}},
	}
}

func TestConvertSuite(t *testing.T) {
	rb := NewReportBuilder(config.NewConfig(), "/work/atm")

	features := rb.ConvertSuite(sampleSuite())
	require.Len(t, features, 1)

	feature := features[0]
	assert.Equal(t, "Withdraw money", feature.Name)
	assert.Equal(t, "specs/withdraw.spec", feature.URI)
	assert.Equal(t, []models.Tag{{Name: "@atm"}}, feature.Tags)
	require.Len(t, feature.Elements, 2)

	passed := feature.Elements[0]
	assert.Equal(t, "Sufficient funds", passed.Name)
	assert.True(t, passed.IsScenario())
	assert.Equal(t, []models.Tag{{Name: "@fast"}, {Name: "@checkout"}}, passed.Tags)
	require.Len(t, passed.Steps, 2)
	assert.Equal(t, `Withdraw "20"`, passed.Steps[1].Name)
	assert.Equal(t, "Withdraw {}", passed.Steps[1].Location())
	assert.Equal(t, 12*time.Millisecond, passed.Steps[0].GetDuration())
	assert.Equal(t, models.StatusPassed, passed.GetStatus())

	failed := feature.Elements[1]
	require.Len(t, failed.Steps, 2)
	assert.Equal(t, models.StatusFailed, failed.Steps[0].Result.Status)
	assert.Equal(t, "expected 10 but was 5", failed.Steps[0].Result.ErrorMessage)
	assert.Equal(t, models.StatusSkipped, failed.Steps[1].Result.Status)
	assert.Equal(t, models.StatusFailed, failed.GetStatus())
}

func TestConvertSuiteAggregatesSteps(t *testing.T) {
	rb := NewReportBuilder(config.NewConfig(), "")
	report := models.NewReportResult(rb.ConvertSuite(sampleSuite()))

	require.Len(t, report.Steps, 2)
	assert.Equal(t, "Balance is {}", report.Steps[0].Location)
	assert.Len(t, report.Steps[0].Occurrences, 2)
	assert.Equal(t, 1, report.ScenarioCounter.Failed())
	assert.Equal(t, 1, report.ScenarioCounter.Passed())
	require.Len(t, report.Tags, 3)
	assert.Equal(t, "@atm", report.Tags[0].Name)
	assert.Equal(t, 2, report.Tags[0].Scenarios.Total())
}

func TestConvertScenarioHookFailure(t *testing.T) {
	element := convertScenario(&gauge_messages.ProtoScenario{
		ScenarioHeading: "hooked",
		PreHookFailure:  &gauge_messages.ProtoHookFailure{ErrorMessage: "db down", StackTrace: "at setup"},
	}, "")

	require.Len(t, element.Before, 1)
	assert.Equal(t, "db down\nat setup", element.Before[0].Result.ErrorMessage)
	assert.Equal(t, models.StatusFailed, element.GetStatus())
}

func TestBuildFromFile(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProjectName = "atm"
	cfg.ReportsDir = t.TempDir()

	data, err := proto.Marshal(sampleSuite())
	require.NoError(t, err)
	input := filepath.Join(t.TempDir(), "last_run_result")
	require.NoError(t, os.WriteFile(input, data, 0644))

	out := t.TempDir()
	result, err := NewReportBuilder(cfg, "/work/atm").BuildFromFile(input, out)
	require.NoError(t, err)

	// 4 overviews, 1 feature, 3 tags, 2 steps
	assert.Len(t, result.Pages, 10)
	assert.FileExists(t, filepath.Join(out, "feature-overview.html"))
}

func TestBuildReportWithoutSpecs(t *testing.T) {
	_, err := NewReportBuilder(config.NewConfig(), "").BuildReport(&gauge_messages.ProtoSuiteResult{}, t.TempDir())
	assert.Error(t, err)
}
