package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// timeLayout is fixed width so that timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Database keeps the history of report runs
type Database struct {
	db   *sql.DB
	path string
}

// BuildRecord is one generated report
type BuildRecord struct {
	ID              string    `json:"id"`
	Project         string    `json:"project"`
	BuildNumber     string    `json:"buildNumber"`
	Timestamp       time.Time `json:"timestamp"`
	Duration        int64     `json:"duration"`
	Features        int       `json:"features"`
	FailedFeatures  int       `json:"failedFeatures"`
	Scenarios       int       `json:"scenarios"`
	PassedScenarios int       `json:"passedScenarios"`
	FailedScenarios int       `json:"failedScenarios"`
	Steps           int       `json:"steps"`
	PassedSteps     int       `json:"passedSteps"`
	FailedSteps     int       `json:"failedSteps"`
	SkippedSteps    int       `json:"skippedSteps"`
	PendingSteps    int       `json:"pendingSteps"`
	UndefinedSteps  int       `json:"undefinedSteps"`
}

// NewBuildRecord summarises a report into a history record with a fresh id
func NewBuildRecord(project, buildNumber string, report *models.ReportResult, at time.Time) *BuildRecord {
	return &BuildRecord{
		ID:              uuid.New().String(),
		Project:         project,
		BuildNumber:     buildNumber,
		Timestamp:       at,
		Duration:        int64(report.Duration),
		Features:        report.FeatureCounter.Total(),
		FailedFeatures:  report.FeatureCounter.Failed(),
		Scenarios:       report.ScenarioCounter.Total(),
		PassedScenarios: report.ScenarioCounter.Passed(),
		FailedScenarios: report.ScenarioCounter.Failed(),
		Steps:           report.StepCounter.Total(),
		PassedSteps:     report.StepCounter.Passed(),
		FailedSteps:     report.StepCounter.Failed(),
		SkippedSteps:    report.StepCounter.Skipped(),
		PendingSteps:    report.StepCounter.Pending(),
		UndefinedSteps:  report.StepCounter.Undefined(),
	}
}

// NewDatabase creates or opens the history database below reportsDir
func NewDatabase(reportsDir string) (*Database, error) {
	historyDir := filepath.Join(reportsDir, ".cucumber-history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := filepath.Join(historyDir, "builds.db")
	logger.Debugf("Opening history database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:   db,
		path: dbPath,
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return database, nil
}

// Path returns the database file location
func (d *Database) Path() string {
	return d.path
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			build_number TEXT,
			timestamp TEXT NOT NULL,
			duration INTEGER NOT NULL,
			features INTEGER,
			failed_features INTEGER,
			scenarios INTEGER,
			passed_scenarios INTEGER,
			failed_scenarios INTEGER,
			steps INTEGER,
			passed_steps INTEGER,
			failed_steps INTEGER,
			skipped_steps INTEGER,
			pending_steps INTEGER,
			undefined_steps INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_builds_project_timestamp
		 ON builds(project, timestamp DESC)`,
	}

	for i, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

// SaveBuild stores a build record
func (d *Database) SaveBuild(b *BuildRecord) error {
	query := `
		INSERT INTO builds (
			id, project, build_number, timestamp, duration,
			features, failed_features, scenarios, passed_scenarios, failed_scenarios,
			steps, passed_steps, failed_steps, skipped_steps, pending_steps, undefined_steps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.Exec(query,
		b.ID,
		b.Project,
		b.BuildNumber,
		b.Timestamp.UTC().Format(timeLayout),
		b.Duration,
		b.Features,
		b.FailedFeatures,
		b.Scenarios,
		b.PassedScenarios,
		b.FailedScenarios,
		b.Steps,
		b.PassedSteps,
		b.FailedSteps,
		b.SkippedSteps,
		b.PendingSteps,
		b.UndefinedSteps,
	)
	if err != nil {
		return fmt.Errorf("failed to save build: %w", err)
	}

	logger.Debugf("Saved build record: %s", b.ID)
	return nil
}

// RecentBuilds returns the latest builds of a project, newest first
func (d *Database) RecentBuilds(project string, limit int) ([]BuildRecord, error) {
	query := `
		SELECT
			id, project, build_number, timestamp, duration,
			features, failed_features, scenarios, passed_scenarios, failed_scenarios,
			steps, passed_steps, failed_steps, skipped_steps, pending_steps, undefined_steps
		FROM builds
		WHERE project = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := d.db.Query(query, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []BuildRecord
	for rows.Next() {
		var b BuildRecord
		var timestamp string

		err := rows.Scan(
			&b.ID,
			&b.Project,
			&b.BuildNumber,
			&timestamp,
			&b.Duration,
			&b.Features,
			&b.FailedFeatures,
			&b.Scenarios,
			&b.PassedScenarios,
			&b.FailedScenarios,
			&b.Steps,
			&b.PassedSteps,
			&b.FailedSteps,
			&b.SkippedSteps,
			&b.PendingSteps,
			&b.UndefinedSteps,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to read build: %w", err)
		}

		b.Timestamp, _ = time.Parse(timeLayout, timestamp)
		builds = append(builds, b)
	}

	return builds, rows.Err()
}

// LastBuild returns the most recent build of a project; ok is false when there is none
func (d *Database) LastBuild(project string) (BuildRecord, bool, error) {
	builds, err := d.RecentBuilds(project, 1)
	if err != nil {
		return BuildRecord{}, false, err
	}
	if len(builds) == 0 {
		return BuildRecord{}, false, nil
	}
	return builds[0], true, nil
}

// Projects returns every project that has history
func (d *Database) Projects() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT project FROM builds ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CleanupOldData removes builds older than retentionDays
func (d *Database) CleanupOldData(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("retention must be positive")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(timeLayout)

	result, err := d.db.Exec(`DELETE FROM builds WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup builds: %w", err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		logger.Infof("Cleaned up %d old build records", removed)
	}
	return removed, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
