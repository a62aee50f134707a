package pages

import (
	"strings"
	"time"

	"github.com/lirany1/cucumber-html-report/pkg/config"
)

// PluginName is the product name shown in the navigation bar
const PluginName = "Cucumber-JVM Report"

// Version is printed in the footer
var Version = "1.0.0"

// Fixed slugs of the aggregating pages
const (
	FeaturesOverviewSlug = "feature-overview"
	TagsOverviewSlug     = "tag-overview"
	StepsOverviewSlug    = "step-overview"
	FailuresOverviewSlug = "failures-overview"
)

// Footer links, in display order
const (
	JenkinsPluginLabel = "Jenkins Plugin"
	JenkinsPluginURL   = "https://github.com/jenkinsci/cucumber-reports-plugin"
	ReportingLabel     = "Cucumber-JVM Reports"
	ReportingURL       = "https://github.com/damianszczepanik/cucumber-reporting"
)

// DateFormat is the layout of the build date cell
const DateFormat = "02 Jan 2006, 15:04"

// NavigationKind identifies a navigation bar entry
type NavigationKind string

const (
	NavJenkins       NavigationKind = "jenkins"
	NavPreviousBuild NavigationKind = "previousBuild"
	NavLastBuild     NavigationKind = "lastBuild"
	NavFeatures      NavigationKind = "features"
	NavTags          NavigationKind = "tags"
	NavSteps         NavigationKind = "steps"
)

// NavigationItem is a single link in the navigation bar
type NavigationItem struct {
	Kind   NavigationKind
	Href   string
	Label  string
	Active bool
}

// BuildInfo is the two-row build information table
type BuildInfo struct {
	Headers []string
	Values  []string
}

// Link is an anchor with its label
type Link struct {
	Label string
	Href  string
}

// Footer is the constant page footer
type Footer struct {
	Links   []Link
	Version string
}

// BuildNavigation returns the navigation items for the page with the given file name.
// The CI items come first and only when running with Jenkins.
func BuildNavigation(cfg *config.Config, fileName string, section NavigationKind) []NavigationItem {
	items := make([]NavigationItem, 0, 6)

	if cfg.RunWithJenkins {
		items = append(items,
			NavigationItem{Kind: NavJenkins, Href: jenkinsURL(cfg), Label: cfg.Labels.Jenkins},
			NavigationItem{Kind: NavPreviousBuild, Href: previousBuildURL(cfg, fileName), Label: cfg.Labels.Previous},
			NavigationItem{Kind: NavLastBuild, Href: lastBuildURL(cfg, fileName), Label: cfg.Labels.Last},
		)
	}

	items = append(items,
		NavigationItem{Kind: NavFeatures, Href: FeaturesOverviewSlug + ".html", Label: "Features"},
		NavigationItem{Kind: NavTags, Href: TagsOverviewSlug + ".html", Label: "Tags"},
		NavigationItem{Kind: NavSteps, Href: StepsOverviewSlug + ".html", Label: "Steps"},
	)

	for i := range items {
		items[i].Active = items[i].Kind == section
	}
	return items
}

// BuildBuildInfo returns the build information table; the date is only shown for Jenkins builds
func BuildBuildInfo(cfg *config.Config, generatedAt time.Time) BuildInfo {
	if !cfg.RunWithJenkins {
		return BuildInfo{
			Headers: []string{"Project", "Date"},
			Values:  []string{cfg.ProjectName, ""},
		}
	}
	return BuildInfo{
		Headers: []string{"Project", "Number", "Date"},
		Values:  []string{cfg.ProjectName, cfg.BuildNumber, generatedAt.Format(DateFormat)},
	}
}

// BuildFooter returns the footer shared by every page
func BuildFooter() Footer {
	return Footer{
		Links: []Link{
			{Label: JenkinsPluginLabel, Href: JenkinsPluginURL},
			{Label: ReportingLabel, Href: ReportingURL},
		},
		Version: "Generated by cucumber-html-report " + Version,
	}
}

func jenkinsURL(cfg *config.Config) string {
	if cfg.BuildCurrentURL != "" {
		return cfg.BuildCurrentURL
	}
	return withSlash(cfg.JenkinsBasePath) + "job/" + cfg.ProjectName + "/" + cfg.BuildNumber
}

func previousBuildURL(cfg *config.Config, fileName string) string {
	if cfg.BuildPreviousURL != "" {
		return withSlash(cfg.BuildPreviousURL) + fileName
	}
	previous := cfg.PreviousBuild()
	if previous == "" {
		// the running build is not completed yet, so this permalink is the one before it
		return "../../lastCompletedBuild/" + cfg.ReportDirName + "/" + fileName
	}
	return "../../" + previous + "/" + cfg.ReportDirName + "/" + fileName
}

func lastBuildURL(cfg *config.Config, fileName string) string {
	if cfg.BuildLastURL != "" {
		return withSlash(cfg.BuildLastURL) + fileName
	}
	return "../../lastCompletedBuild/" + cfg.ReportDirName + "/" + fileName
}

func withSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
