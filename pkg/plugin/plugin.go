package plugin

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/getgauge/gauge-proto/go/gauge_messages"
	"google.golang.org/grpc"

	"github.com/lirany1/cucumber-html-report/pkg/builder"
	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
)

// maxMessageSize bounds suite results sent by gauge
const maxMessageSize = 1024 * 1024 * 1024

// Plugin is a gauge reporter that writes a cucumber report when the suite ends
type Plugin struct {
	gauge_messages.UnimplementedReporterServer
	config        *config.Config
	server        *grpc.Server
	stopChan      chan struct{}
	stopOnce      sync.Once
	reportBuilder *builder.ReportBuilder
}

// NewPlugin creates a new plugin instance
func NewPlugin(cfg *config.Config) *Plugin {
	return &Plugin{
		config:   cfg,
		stopChan: make(chan struct{}),
	}
}

// Start starts the plugin as a gRPC server and blocks until it is killed
func (p *Plugin) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	p.server = grpc.NewServer(grpc.MaxRecvMsgSize(maxMessageSize))
	gauge_messages.RegisterReporterServer(p.server, p)

	port := listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := p.server.Serve(listener); err != nil {
			logger.Errorf("gRPC server error: %v", err)
		}
		p.stop()
	}()

	// gauge reads the port from stdout in exactly this format
	fmt.Fprintf(os.Stdout, "Listening on port:%d\n", port)
	_ = os.Stdout.Sync()

	logger.Infof("gRPC server ready on port %d", port)

	<-p.stopChan
	logger.Info("Plugin shutdown complete")
	return nil
}

// NotifyExecutionStarting prepares the report builder for the run
func (p *Plugin) NotifyExecutionStarting(ctx context.Context, info *gauge_messages.ExecutionStartingRequest) (*gauge_messages.Empty, error) {
	logger.Info("Execution starting...")
	p.ensureBuilder()
	return &gauge_messages.Empty{}, nil
}

// NotifyExecutionEnding is a no-op; the report is written from the suite result
func (p *Plugin) NotifyExecutionEnding(ctx context.Context, result *gauge_messages.ExecutionEndingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

// Progress callbacks. Gauge treats any error as a failed reporter, so each one answers Empty.

func (p *Plugin) NotifySpecExecutionStarting(ctx context.Context, info *gauge_messages.SpecExecutionStartingRequest) (*gauge_messages.Empty, error) {
	logger.Debugf("Specification started: %s", info.GetCurrentExecutionInfo().GetCurrentSpec().GetName())
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifySpecExecutionEnding(ctx context.Context, result *gauge_messages.SpecExecutionEndingRequest) (*gauge_messages.Empty, error) {
	logger.Debugf("Specification finished: %s", result.GetCurrentExecutionInfo().GetCurrentSpec().GetName())
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyScenarioExecutionStarting(ctx context.Context, info *gauge_messages.ScenarioExecutionStartingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyScenarioExecutionEnding(ctx context.Context, result *gauge_messages.ScenarioExecutionEndingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyStepExecutionStarting(ctx context.Context, info *gauge_messages.StepExecutionStartingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyStepExecutionEnding(ctx context.Context, result *gauge_messages.StepExecutionEndingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyConceptExecutionStarting(ctx context.Context, info *gauge_messages.ConceptExecutionStartingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) NotifyConceptExecutionEnding(ctx context.Context, result *gauge_messages.ConceptExecutionEndingRequest) (*gauge_messages.Empty, error) {
	return &gauge_messages.Empty{}, nil
}

// NotifySuiteResult generates the report from the final suite result
func (p *Plugin) NotifySuiteResult(ctx context.Context, result *gauge_messages.SuiteExecutionResult) (*gauge_messages.Empty, error) {
	logger.Info("Suite execution complete, generating report...")

	if result.GetSuiteResult() == nil {
		logger.Warn("Suite result is empty, no report generated")
		return &gauge_messages.Empty{}, nil
	}

	out, err := p.ensureBuilder().BuildReport(result.GetSuiteResult(), "")
	if err != nil {
		logger.Errorf("Failed to generate report: %v", err)
		return &gauge_messages.Empty{}, err
	}

	logger.Infof("Successfully generated cucumber report to => %s", out.OutputDir)
	return &gauge_messages.Empty{}, nil
}

// Kill stops the plugin
func (p *Plugin) Kill(ctx context.Context, request *gauge_messages.KillProcessRequest) (*gauge_messages.Empty, error) {
	logger.Info("Shutting down plugin...")
	if p.server != nil {
		go p.server.GracefulStop()
	}
	p.stop()
	return &gauge_messages.Empty{}, nil
}

func (p *Plugin) stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// ensureBuilder creates the builder writing below the gauge reports directory
func (p *Plugin) ensureBuilder() *builder.ReportBuilder {
	if p.reportBuilder != nil {
		return p.reportBuilder
	}

	projectRoot := os.Getenv("GAUGE_PROJECT_ROOT")
	if projectRoot == "" {
		projectRoot = "."
	}

	reportsDir := os.Getenv("gauge_reports_dir")
	if reportsDir == "" {
		reportsDir = filepath.Join(projectRoot, "reports")
	} else if !filepath.IsAbs(reportsDir) {
		reportsDir = filepath.Join(projectRoot, reportsDir)
	}

	p.config.ReportsDir = reportsDir
	if p.config.ProjectName == "" {
		if abs, err := filepath.Abs(projectRoot); err == nil {
			p.config.ProjectName = filepath.Base(abs)
		}
	}

	p.reportBuilder = builder.NewReportBuilder(p.config, projectRoot)
	logger.Infof("Report builder initialized for %s", reportsDir)
	return p.reportBuilder
}
