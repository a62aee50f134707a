package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/metrics"
	"github.com/lirany1/cucumber-html-report/pkg/models"
	"github.com/lirany1/cucumber-html-report/pkg/pages"
	"github.com/lirany1/cucumber-html-report/pkg/parser"
	"github.com/lirany1/cucumber-html-report/pkg/renderer"
	"github.com/lirany1/cucumber-html-report/pkg/storage"
	"github.com/lirany1/cucumber-html-report/pkg/themes"
)

// SearchIndexFile is written below the js directory of the report
const SearchIndexFile = "search-index.json"

// Generator writes every page of a report to disk
type Generator struct {
	config   *config.Config
	renderer *renderer.Renderer
	themes   *themes.Manager
	now      func() time.Time
}

// Result describes a finished generation
type Result struct {
	RunID     string
	OutputDir string
	Pages     []string
	Previous  string
}

// NewGenerator creates a generator using the embedded templates
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		config: cfg,
		themes: themes.NewManager(cfg),
		now:    time.Now,
	}
}

// WithRenderer replaces the embedded templates
func (g *Generator) WithRenderer(r *renderer.Renderer) *Generator {
	g.renderer = r
	return g
}

// OutputDir returns the directory pages are written to when none is given
func (g *Generator) OutputDir() string {
	return filepath.Join(g.config.ReportsDir, g.config.ReportDirName)
}

// GenerateFromFiles parses cucumber JSON files and generates the report
func (g *Generator) GenerateFromFiles(inputFiles []string, outputDir string) (*Result, error) {
	logger.Infof("Reading test results from %d file(s)", len(inputFiles))

	features, err := parser.ParseFiles(inputFiles...)
	if err != nil {
		return nil, err
	}
	return g.Generate(models.NewReportResult(features), outputDir)
}

// Generate renders every page of report into outputDir
func (g *Generator) Generate(report *models.ReportResult, outputDir string) (*Result, error) {
	startTime := g.now()
	logger.Info("Starting report generation...")

	if outputDir == "" {
		outputDir = g.OutputDir()
	}

	// work on a copy so that history lookups never leak into the caller's config
	cfg := *g.config

	var db *storage.Database
	if cfg.HistoryEnabled {
		var err error
		db, err = storage.NewDatabase(cfg.ReportsDir)
		if err != nil {
			logger.Warnf("Failed to open history database: %v", err)
			logger.Warnf("Build history will not be recorded")
		} else {
			defer db.Close()
			resolvePreviousBuild(&cfg, db)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RunWithJenkins && cfg.BuildPreviousURL == "" && cfg.PreviousBuild() == "" {
		logger.Warnf("Cannot derive the previous build from %q, linking the last completed build instead", cfg.BuildNumber)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("Copying theme assets...")
	if err := g.themes.CopyAssets(cfg.ThemePath, outputDir); err != nil {
		return nil, fmt.Errorf("failed to copy theme assets: %w", err)
	}

	opts := []pages.Option{pages.WithGeneratedAt(startTime)}
	if g.renderer != nil {
		opts = append(opts, pages.WithRenderer(g.renderer))
	}
	all, err := pages.AllPages(report, &cfg, opts...)
	if err != nil {
		return nil, err
	}

	logger.Infof("Rendering %d pages...", len(all))
	written, err := g.renderPages(all, outputDir, cfg.MaxConcurrentGen)
	if err != nil {
		return nil, fmt.Errorf("failed to render pages: %w", err)
	}

	result := &Result{
		RunID:     uuid.New().String(),
		OutputDir: outputDir,
		Pages:     written,
		Previous:  cfg.PreviousBuild(),
	}

	logger.Info("Generating search index...")
	if err := writeSearchIndex(result.RunID, &cfg, report, outputDir); err != nil {
		logger.Warnf("Failed to generate search index: %v", err)
	}

	if db != nil {
		record := storage.NewBuildRecord(cfg.ProjectName, cfg.BuildNumber, report, startTime)
		record.ID = result.RunID
		if err := db.SaveBuild(record); err != nil {
			logger.Warnf("Failed to save build record: %v", err)
		}
		if cfg.HistoryRetentionDays > 0 {
			if _, err := db.CleanupOldData(cfg.HistoryRetentionDays); err != nil {
				logger.Warnf("Failed to cleanup history: %v", err)
			}
		}
	}

	metrics.SetScenarios(cfg.ProjectName, report.ScenarioCounter)
	metrics.ObserveGeneration(time.Since(startTime))

	logger.Infof("✓ Report generated successfully in %v", time.Since(startTime))
	logger.Infof("Open: file://%s/%s.html", outputDir, pages.FeaturesOverviewSlug)
	return result, nil
}

// renderPages generates and writes the pages with bounded concurrency
func (g *Generator) renderPages(all []*pages.Page, outputDir string, maxConcurrent int) ([]string, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	var wg sync.WaitGroup
	errors := make(chan error, len(all))
	files := make([]string, len(all))

	semaphore := make(chan struct{}, maxConcurrent)

	for i, page := range all {
		wg.Add(1)
		go func(i int, p *pages.Page) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := writePage(p, outputDir); err != nil {
				metrics.TrackPageFailure(p.Variant().String())
				errors <- err
				return
			}
			metrics.TrackPageGenerated(p.Variant().String())
			files[i] = p.Slug() + ".html"
		}(i, page)
	}

	wg.Wait()
	close(errors)

	var firstError error
	for err := range errors {
		if firstError == nil {
			firstError = err
		}
		logger.Errorf("Failed to render page: %v", err)
	}
	if firstError != nil {
		return nil, firstError
	}
	return files, nil
}

func writePage(p *pages.Page, outputDir string) error {
	if err := p.GeneratePage(); err != nil {
		return err
	}
	web, err := p.WebPage()
	if err != nil {
		return err
	}
	path := filepath.Join(outputDir, web.FileName())
	if err := os.WriteFile(path, []byte(web.HTML), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// resolvePreviousBuild points the previous-build link at the last recorded run
func resolvePreviousBuild(cfg *config.Config, db *storage.Database) {
	if !cfg.RunWithJenkins || cfg.BuildPreviousURL != "" || cfg.PreviousBuildNumber != "" {
		return
	}

	last, ok, err := db.LastBuild(cfg.ProjectName)
	if err != nil {
		logger.Warnf("Failed to read build history: %v", err)
		return
	}
	if !ok || last.BuildNumber == "" || last.BuildNumber == cfg.BuildNumber {
		return
	}

	logger.Debugf("Previous build resolved from history: %s", last.BuildNumber)
	cfg.PreviousBuildNumber = last.BuildNumber
}

type searchEntry struct {
	Name   string   `json:"name"`
	Page   string   `json:"page"`
	Status string   `json:"status"`
	Tags   []string `json:"tags,omitempty"`
}

type searchIndex struct {
	RunID    string        `json:"runId"`
	Project  string        `json:"project"`
	Build    string        `json:"build,omitempty"`
	Features []searchEntry `json:"features"`
	Tags     []searchEntry `json:"tags"`
	Steps    []searchEntry `json:"steps"`
}

// buildSearchIndex creates a search index from the report
func buildSearchIndex(runID string, cfg *config.Config, report *models.ReportResult) searchIndex {
	index := searchIndex{
		RunID:    runID,
		Project:  cfg.ProjectName,
		Features: make([]searchEntry, 0, len(report.Features)),
		Tags:     make([]searchEntry, 0, len(report.Tags)),
		Steps:    make([]searchEntry, 0, len(report.Steps)),
	}
	if cfg.RunWithJenkins {
		index.Build = cfg.BuildNumber
	}

	for _, feature := range report.GetAllFeatures() {
		index.Features = append(index.Features, searchEntry{
			Name:   feature.Name,
			Page:   feature.GetHTMLFileName(),
			Status: string(feature.GetStatus()),
			Tags:   collectTags(feature),
		})
	}
	for _, tag := range report.GetAllTags() {
		index.Tags = append(index.Tags, searchEntry{
			Name:   tag.Name,
			Page:   tag.GetHTMLFileName(),
			Status: string(tag.GetStatus()),
		})
	}
	for _, step := range report.GetAllSteps() {
		index.Steps = append(index.Steps, searchEntry{
			Name:   step.Location,
			Page:   step.GetHTMLFileName(),
			Status: string(step.GetStatus()),
		})
	}
	return index
}

// collectTags collects the unique tags of a feature and its scenarios
func collectTags(feature *models.Feature) []string {
	tagMap := make(map[string]bool)
	for _, tag := range feature.Tags {
		tagMap[tag.Name] = true
	}
	for _, element := range feature.Elements {
		for _, tag := range element.Tags {
			tagMap[tag.Name] = true
		}
	}

	tags := make([]string, 0, len(tagMap))
	for tag := range tagMap {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func writeSearchIndex(runID string, cfg *config.Config, report *models.ReportResult, outputDir string) error {
	indexPath := filepath.Join(outputDir, "js", SearchIndexFile)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return err
	}

	data, err := json.Marshal(buildSearchIndex(runID, cfg, report))
	if err != nil {
		return err
	}
	return os.WriteFile(indexPath, data, 0644)
}
