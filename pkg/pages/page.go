package pages

import (
	"time"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/models"
	"github.com/lirany1/cucumber-html-report/pkg/renderer"
)

// Variant identifies the kind of page
type Variant int

const (
	FeaturesOverview Variant = iota
	TagsOverview
	StepsOverview
	FailuresOverview
	FeatureReport
	TagReport
	StepReport
)

type variantInfo struct {
	name     string
	template string
	title    string
	section  NavigationKind
}

var variants = map[Variant]variantInfo{
	FeaturesOverview: {"FeaturesOverview", "feature-overview", "Features Statistics", NavFeatures},
	TagsOverview:     {"TagsOverview", "tag-overview", "Tags Statistics", NavTags},
	StepsOverview:    {"StepsOverview", "step-overview", "Steps Statistics", NavSteps},
	FailuresOverview: {"FailuresOverview", "failures-overview", "Failures Overview", NavFeatures},
	FeatureReport:    {"FeatureReport", "feature-report", "Feature Report", NavFeatures},
	TagReport:        {"TagReport", "tag-report", "Tag Report", NavTags},
	StepReport:       {"StepReport", "step-report", "Step Report", NavSteps},
}

func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}
	return "Unknown"
}

// WebPage is a rendered HTML document
type WebPage struct {
	Slug        string
	HTML        string
	GeneratedAt time.Time
}

// FileName returns the name the page is written under
func (w WebPage) FileName() string {
	return w.Slug + ".html"
}

// Page is a single report page; the variant decides slug, title and body
type Page struct {
	variant     Variant
	slug        string
	title       string
	report      *models.ReportResult
	config      *config.Config
	body        func() interface{}
	renderer    *renderer.Renderer
	generatedAt time.Time
	web         *WebPage
}

// Option customises a page
type Option func(*Page)

// WithRenderer renders the page with r instead of the embedded templates
func WithRenderer(r *renderer.Renderer) Option {
	return func(p *Page) { p.renderer = r }
}

// WithGeneratedAt fixes the generation time shown in the build info
func WithGeneratedAt(t time.Time) Option {
	return func(p *Page) { p.generatedAt = t }
}

func newPage(v Variant, slug, title string, report *models.ReportResult, cfg *config.Config, body func() interface{}, opts []Option) *Page {
	p := &Page{
		variant:     v,
		slug:        slug,
		title:       title,
		report:      report,
		config:      cfg,
		body:        body,
		generatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Slug returns the page identifier
func (p *Page) Slug() string { return p.slug }

// Variant returns the page kind
func (p *Page) Variant() Variant { return p.variant }

// Title returns the page title
func (p *Page) Title() string { return p.title }

// GeneratePage renders the page. Repeated calls produce the same document.
func (p *Page) GeneratePage() error {
	web, err := Render(p.renderer, p.config, p.variant, p.slug, p.title, p.body(), p.generatedAt)
	if err != nil {
		logger.WithPage(p.slug).Errorf("Failed to generate page: %v", err)
		return err
	}
	p.web = &web
	logger.WithPage(p.slug).Debugf("Generated %s page", p.variant)
	return nil
}

// WebPage returns the rendered document
func (p *Page) WebPage() (WebPage, error) {
	if p.web == nil {
		return WebPage{}, pageError(p.slug, ErrNotGenerated, nil)
	}
	return *p.web, nil
}

// pageData is the context handed to the layout template
type pageData struct {
	Title      string
	PluginName string
	Navigation []NavigationItem
	BuildInfo  BuildInfo
	Footer     Footer
	Body       interface{}
}

// Render assembles the chrome around body and renders the page. A nil renderer
// selects the embedded templates.
func Render(r *renderer.Renderer, cfg *config.Config, v Variant, slug, title string, body interface{}, generatedAt time.Time) (WebPage, error) {
	if err := cfg.Validate(); err != nil {
		return WebPage{}, pageError(slug, ErrInvalidConfiguration, err)
	}

	if r == nil {
		var err error
		if r, err = renderer.Default(); err != nil {
			return WebPage{}, pageError(slug, ErrRenderFailure, err)
		}
	}

	info := variants[v]
	data := pageData{
		Title:      title,
		PluginName: PluginName,
		Navigation: BuildNavigation(cfg, slug+".html", info.section),
		BuildInfo:  BuildBuildInfo(cfg, generatedAt),
		Footer:     BuildFooter(),
		Body:       body,
	}

	html, err := r.Render(info.template, data)
	if err != nil {
		return WebPage{}, pageError(slug, ErrRenderFailure, err)
	}

	return WebPage{Slug: slug, HTML: html, GeneratedAt: generatedAt}, nil
}
