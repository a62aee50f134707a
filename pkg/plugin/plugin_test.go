package plugin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/getgauge/gauge-proto/go/gauge_messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/cucumber-html-report/pkg/config"
)

func suite() *gauge_messages.SuiteExecutionResult {
	return &gauge_messages.SuiteExecutionResult{
		SuiteResult: &gauge_messages.ProtoSuiteResult{
			SpecResults: []*gauge_messages.ProtoSpecResult{{
				ProtoSpec: &gauge_messages.ProtoSpec{
					SpecHeading: "Search",
					FileName:    "specs/search.spec",
					Items: []*gauge_messages.ProtoItem{{
						ItemType: gauge_messages.ProtoItem_Scenario,
						Scenario: &gauge_messages.ProtoScenario{
							ScenarioHeading: "Find a book",
							ScenarioItems: []*gauge_messages.ProtoItem{{
								ItemType: gauge_messages.ProtoItem_Step,
								Step: &gauge_messages.ProtoStep{
									ActualText: `Search for "gauge"`,
									ParsedText: "Search for {}",
									StepExecutionResult: &gauge_messages.ProtoStepExecutionResult{
										ExecutionResult: &gauge_messages.ProtoExecutionResult{ExecutionTime: 5},
									},
								},
							}},
						},
					}},
				},
			}},
		},
	}
}

func TestNotifySuiteResultWritesReport(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GAUGE_PROJECT_ROOT", root)
	t.Setenv("gauge_reports_dir", "reports")

	cfg := config.NewConfig()
	cfg.ProjectName = "search"
	p := NewPlugin(cfg)

	_, err := p.NotifyExecutionStarting(context.Background(), &gauge_messages.ExecutionStartingRequest{})
	require.NoError(t, err)

	_, err = p.NotifySuiteResult(context.Background(), suite())
	require.NoError(t, err)

	out := filepath.Join(root, "reports", cfg.ReportDirName)
	assert.FileExists(t, filepath.Join(out, "feature-overview.html"))
	assert.FileExists(t, filepath.Join(out, "report-feature_specs-search-spec.html"))
}

func TestNotifySuiteResultWithoutResult(t *testing.T) {
	t.Setenv("GAUGE_PROJECT_ROOT", t.TempDir())

	p := NewPlugin(config.NewConfig())
	_, err := p.NotifySuiteResult(context.Background(), &gauge_messages.SuiteExecutionResult{})
	assert.NoError(t, err)
}

func TestKillStopsOnce(t *testing.T) {
	p := NewPlugin(config.NewConfig())

	_, err := p.Kill(context.Background(), &gauge_messages.KillProcessRequest{})
	require.NoError(t, err)
	_, err = p.Kill(context.Background(), &gauge_messages.KillProcessRequest{})
	require.NoError(t, err)

	select {
	case <-p.stopChan:
	default:
		t.Fatal("expected plugin to be stopped")
	}
}

func TestReportsDirDefaultsBelowProjectRoot(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GAUGE_PROJECT_ROOT", root)
	t.Setenv("gauge_reports_dir", "")

	p := NewPlugin(config.NewConfig())
	p.ensureBuilder()
	assert.Equal(t, filepath.Join(root, "reports"), p.config.ReportsDir)
}

func TestProgressCallbacksAnswerEmpty(t *testing.T) {
	p := NewPlugin(config.NewConfig())
	ctx := context.Background()
	info := &gauge_messages.ExecutionInfo{
		CurrentSpec: &gauge_messages.SpecInfo{Name: "Search"},
	}

	calls := map[string]func() (*gauge_messages.Empty, error){
		"spec starting": func() (*gauge_messages.Empty, error) {
			return p.NotifySpecExecutionStarting(ctx, &gauge_messages.SpecExecutionStartingRequest{CurrentExecutionInfo: info})
		},
		"spec ending": func() (*gauge_messages.Empty, error) {
			return p.NotifySpecExecutionEnding(ctx, &gauge_messages.SpecExecutionEndingRequest{CurrentExecutionInfo: info})
		},
		"scenario starting": func() (*gauge_messages.Empty, error) {
			return p.NotifyScenarioExecutionStarting(ctx, &gauge_messages.ScenarioExecutionStartingRequest{})
		},
		"scenario ending": func() (*gauge_messages.Empty, error) {
			return p.NotifyScenarioExecutionEnding(ctx, &gauge_messages.ScenarioExecutionEndingRequest{})
		},
		"step starting": func() (*gauge_messages.Empty, error) {
			return p.NotifyStepExecutionStarting(ctx, &gauge_messages.StepExecutionStartingRequest{})
		},
		"step ending": func() (*gauge_messages.Empty, error) {
			return p.NotifyStepExecutionEnding(ctx, &gauge_messages.StepExecutionEndingRequest{})
		},
		"concept starting": func() (*gauge_messages.Empty, error) {
			return p.NotifyConceptExecutionStarting(ctx, &gauge_messages.ConceptExecutionStartingRequest{})
		},
		"concept ending": func() (*gauge_messages.Empty, error) {
			return p.NotifyConceptExecutionEnding(ctx, &gauge_messages.ConceptExecutionEndingRequest{})
		},
		"execution ending": func() (*gauge_messages.Empty, error) {
			return p.NotifyExecutionEnding(ctx, &gauge_messages.ExecutionEndingRequest{})
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			resp, err := call()
			require.NoError(t, err)
			assert.NotNil(t, resp)
		})
	}
}
