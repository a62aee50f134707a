package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfiguration is returned when the configuration cannot be used to generate pages
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Labels holds the display strings of the CI navigation items
type Labels struct {
	Jenkins  string `mapstructure:"jenkins"`
	Previous string `mapstructure:"previous"`
	Last     string `mapstructure:"last"`
}

// Config holds the configuration for report generation
type Config struct {
	// General settings
	ProjectName   string `mapstructure:"project_name"`
	ReportsDir    string `mapstructure:"reports_dir"`
	ReportDirName string `mapstructure:"report_dir_name"`
	ThemePath     string `mapstructure:"theme_path"`

	// Jenkins settings
	RunWithJenkins      bool   `mapstructure:"run_with_jenkins"`
	BuildNumber         string `mapstructure:"build_number"`
	PreviousBuildNumber string `mapstructure:"previous_build_number"`
	JenkinsBasePath     string `mapstructure:"jenkins_base_path"`
	BuildCurrentURL     string `mapstructure:"build_current_url"`
	BuildPreviousURL    string `mapstructure:"build_previous_url"`
	BuildLastURL        string `mapstructure:"build_last_url"`
	Labels              Labels `mapstructure:"labels"`

	// Performance settings
	MaxConcurrentGen int `mapstructure:"max_concurrent_gen"`

	// History settings
	HistoryEnabled       bool `mapstructure:"history_enabled"`
	HistoryRetentionDays int  `mapstructure:"history_retention_days"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ProjectName:     getProjectName(),
		ReportsDir:      "target",
		ReportDirName:   "cucumber-html-reports",
		ThemePath:       "default",
		JenkinsBasePath: "/",
		Labels: Labels{
			Jenkins:  "Jenkins",
			Previous: "Previous",
			Last:     "Last",
		},
		MaxConcurrentGen:     4,
		HistoryEnabled:       false,
		HistoryRetentionDays: 90,
	}
}

// LoadConfig loads configuration from a well-known file, then the environment
func LoadConfig() (*Config, error) {
	cfg := NewConfig()

	configPaths := []string{
		"cucumber-report.yml",
		"cucumber-report.yaml",
		"cucumber-report.json",
		".cucumber/report.yml",
	}

	for _, path := range configPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		break
	}

	// a local .env stands in for the variables a CI server would export
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, JSON, or TOML)
func (c *Config) LoadFromFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(c)
}

// LoadFromEnv picks up the variables Jenkins exports to a build
func (c *Config) LoadFromEnv() {
	if dir := os.Getenv("CUCUMBER_REPORTS_DIR"); dir != "" {
		c.ReportsDir = dir
	}

	if job := os.Getenv("JOB_NAME"); job != "" && c.ProjectName == getProjectName() {
		c.ProjectName = job
	}

	if url := os.Getenv("JENKINS_URL"); url != "" {
		c.RunWithJenkins = true
		if c.JenkinsBasePath == "" || c.JenkinsBasePath == "/" {
			c.JenkinsBasePath = url
		}
	}

	if number := os.Getenv("BUILD_NUMBER"); number != "" {
		c.BuildNumber = number
	}

	if url := os.Getenv("BUILD_URL"); url != "" && c.BuildCurrentURL == "" {
		c.BuildCurrentURL = url
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("project_name", c.ProjectName)
	v.Set("reports_dir", c.ReportsDir)
	v.Set("report_dir_name", c.ReportDirName)
	v.Set("theme_path", c.ThemePath)
	v.Set("run_with_jenkins", c.RunWithJenkins)
	v.Set("build_number", c.BuildNumber)
	v.Set("jenkins_base_path", c.JenkinsBasePath)
	v.Set("labels", map[string]string{
		"jenkins":  c.Labels.Jenkins,
		"previous": c.Labels.Previous,
		"last":     c.Labels.Last,
	})
	v.Set("max_concurrent_gen", c.MaxConcurrentGen)
	v.Set("history_enabled", c.HistoryEnabled)
	v.Set("history_retention_days", c.HistoryRetentionDays)

	return v.WriteConfig()
}

// Validate checks that pages can be generated with this configuration
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return fmt.Errorf("%w: project name is empty", ErrInvalidConfiguration)
	}
	if !c.RunWithJenkins {
		return nil
	}
	if c.BuildNumber == "" {
		return fmt.Errorf("%w: build number is required when running with Jenkins", ErrInvalidConfiguration)
	}
	return nil
}

// PreviousBuild returns the build number the "previous" link points at;
// empty when the build number is not numeric and none was configured
func (c *Config) PreviousBuild() string {
	if c.PreviousBuildNumber != "" {
		return c.PreviousBuildNumber
	}
	n, err := strconv.Atoi(c.BuildNumber)
	if err != nil {
		return ""
	}
	return strconv.Itoa(n - 1)
}

// getProjectName tries to get project name from current directory
func getProjectName() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "Cucumber Project"
	}
	return filepath.Base(cwd)
}
