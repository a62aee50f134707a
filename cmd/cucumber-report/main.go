package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lirany1/cucumber-html-report/pkg/builder"
	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/generator"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/pages"
	"github.com/lirany1/cucumber-html-report/pkg/plugin"
	"github.com/lirany1/cucumber-html-report/pkg/server"
	"github.com/lirany1/cucumber-html-report/pkg/storage"
	"github.com/lirany1/cucumber-html-report/pkg/themes"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// gauge starts reporters with this action and no arguments
	if os.Getenv("cucumber-report_action") == "execution" {
		runAsGaugePlugin()
		return
	}

	pages.Version = version

	var rootCmd = &cobra.Command{
		Use:   "cucumber-report",
		Short: "HTML report generator for cucumber JSON results",
		Long: `Cucumber HTML Report

Generates feature, tag and step reports from cucumber JSON result files,
with Jenkins navigation and build history.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.SetLevel(level)
		},
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	var generateCmd = &cobra.Command{
		Use:   "generate [json files...]",
		Short: "Generate HTML report from cucumber JSON results",
		Long:  "Generate the feature, tag and step pages of a cucumber report from one or more JSON result files.",
		RunE:  runGenerate,
	}

	var serverCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start report server",
		Long:  "Start a local server to browse a generated report and its build history.",
		RunE:  runServer,
	}

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds",
		RunE:  runHistory,
	}

	var themeCmd = &cobra.Command{
		Use:   "theme",
		Short: "Manage report themes",
	}

	var createThemeCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new theme from the default one",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreateTheme,
	}

	var listThemesCmd = &cobra.Command{
		Use:   "list",
		Short: "List available themes",
		RunE:  runListThemes,
	}

	var pluginCmd = &cobra.Command{
		Use:   "plugin",
		Short: "Run as Gauge reporter plugin",
		Long:  "Start the plugin in Gauge plugin mode (used internally by Gauge).",
		Run:   func(cmd *cobra.Command, args []string) { runAsGaugePlugin() },
	}

	generateCmd.Flags().StringP("output", "o", "", "Output directory (default <reports-dir>/<report-dir-name>)")
	generateCmd.Flags().StringP("config", "c", "", "Path to configuration file")
	generateCmd.Flags().StringP("project", "p", "", "Project name")
	generateCmd.Flags().StringP("theme", "t", "", "Theme name or path")
	generateCmd.Flags().Bool("jenkins", false, "Render Jenkins navigation and build number")
	generateCmd.Flags().StringP("build-number", "b", "", "Build number")
	generateCmd.Flags().String("previous-build", "", "Build number the previous link points at")
	generateCmd.Flags().String("gauge-result", "", "Read a serialised gauge suite result instead of JSON files")
	generateCmd.Flags().Bool("history", false, "Record the run in the build history")
	generateCmd.Flags().Int("parallel", 0, "Maximum pages rendered concurrently")

	serverCmd.Flags().IntP("port", "p", 8080, "Port to run server on")
	serverCmd.Flags().StringP("host", "H", "localhost", "Host to bind server to")
	serverCmd.Flags().StringP("dir", "d", "", "Report directory to serve")
	serverCmd.Flags().StringP("config", "c", "", "Path to configuration file")

	historyCmd.Flags().StringP("config", "c", "", "Path to configuration file")
	historyCmd.Flags().StringP("project", "p", "", "Project name")
	historyCmd.Flags().IntP("limit", "n", 10, "Number of builds to show")
	historyCmd.Flags().Bool("cleanup", false, "Remove builds older than the retention period")

	createThemeCmd.Flags().StringP("output", "o", "themes", "Output directory for new theme")
	listThemesCmd.Flags().StringP("dir", "d", "themes", "Directory containing themes")

	themeCmd.AddCommand(createThemeCmd, listThemesCmd)
	rootCmd.AddCommand(generateCmd, serverCmd, historyCmd, themeCmd, pluginCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads the given file or the well-known ones, then the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.LoadConfig()
	}

	cfg := config.NewConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.LoadFromEnv()
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.ProjectName, _ = flags.GetString("project")
	}
	if flags.Changed("theme") {
		cfg.ThemePath, _ = flags.GetString("theme")
	}
	if flags.Changed("jenkins") {
		cfg.RunWithJenkins, _ = flags.GetBool("jenkins")
	}
	if flags.Changed("build-number") {
		cfg.BuildNumber, _ = flags.GetString("build-number")
	}
	if flags.Changed("previous-build") {
		cfg.PreviousBuildNumber, _ = flags.GetString("previous-build")
	}
	if flags.Changed("history") {
		cfg.HistoryEnabled, _ = flags.GetBool("history")
	}
	if flags.Changed("parallel") {
		cfg.MaxConcurrentGen, _ = flags.GetInt("parallel")
	}

	outputDir, _ := flags.GetString("output")
	gaugeResult, _ := flags.GetString("gauge-result")

	logger.Info("Starting cucumber HTML report generation...")
	logger.Infof("Project: %s", cfg.ProjectName)

	var result *generator.Result
	switch {
	case gaugeResult != "":
		result, err = builder.NewReportBuilder(cfg, "").BuildFromFile(gaugeResult, outputDir)
	case len(args) > 0:
		result, err = generator.NewGenerator(cfg).GenerateFromFiles(args, outputDir)
	default:
		return fmt.Errorf("no input: pass cucumber JSON files or --gauge-result")
	}
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	logger.Infof("✓ Wrote %d pages", len(result.Pages))
	logger.Infof("View report: file://%s/%s.html", result.OutputDir, pages.FeaturesOverviewSlug)
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = generator.NewGenerator(cfg).OutputDir()
	}

	srvCfg := &server.Config{
		Host:      host,
		Port:      port,
		ReportDir: dir,
		Project:   cfg.ProjectName,
	}
	if cfg.HistoryEnabled {
		db, err := storage.NewDatabase(cfg.ReportsDir)
		if err != nil {
			logger.Warnf("Build history not available: %v", err)
		} else {
			defer db.Close()
			srvCfg.History = db
		}
	}

	logger.Infof("Serving report from: %s", dir)
	return server.NewServer(srvCfg).Start()
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("project") {
		cfg.ProjectName, _ = cmd.Flags().GetString("project")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	cleanup, _ := cmd.Flags().GetBool("cleanup")

	db, err := storage.NewDatabase(cfg.ReportsDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if cleanup {
		removed, err := db.CleanupOldData(cfg.HistoryRetentionDays)
		if err != nil {
			return err
		}
		logger.Infof("Removed %d builds older than %d days", removed, cfg.HistoryRetentionDays)
	}

	builds, err := db.RecentBuilds(cfg.ProjectName, limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		logger.Infof("No builds recorded for %s", cfg.ProjectName)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUILD\tDATE\tSCENARIOS\tFAILED\tSTEPS\tDURATION")
	for _, b := range builds {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			b.BuildNumber,
			b.Timestamp.Local().Format(pages.DateFormat),
			b.Scenarios,
			b.FailedScenarios,
			b.Steps,
			time.Duration(b.Duration).Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func runCreateTheme(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")

	themeDir, err := themes.NewManager(config.NewConfig()).CreateTheme(args[0], outputDir)
	if err != nil {
		return err
	}

	logger.Info("✓ Theme created successfully!")
	logger.Infof("Theme location: %s", themeDir)
	return nil
}

func runListThemes(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	names, err := themes.NewManager(config.NewConfig()).ListThemes(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Printf("  • %s\n", name)
	}
	return nil
}

func runAsGaugePlugin() {
	logger.Info("Starting cucumber report plugin")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warnf("Failed to load config, using defaults: %v", err)
		cfg = config.NewConfig()
		cfg.LoadFromEnv()
	}

	p := plugin.NewPlugin(cfg)
	if err := p.Start(); err != nil {
		logger.Fatalf("Failed to start plugin: %v", err)
	}
}

func init() {
	logger.Logger().SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.Logger().SetLevel(logrus.InfoLevel)
}
