package dom

import "fmt"

// Element ids and classes emitted by the page layout
const (
	NavigationID  = "navigation"
	BuildInfoID   = "build-info"
	FooterID      = "footer"
	ReportID      = "report"
	PluginNameCSS = "plugin-name"
)

// NavigationItem is one rendered navigation link
type NavigationItem struct {
	Kind   string
	Label  string
	Href   string
	Active bool
}

// Navigation is the rendered navigation bar
type Navigation struct {
	PluginName string
	Items      []NavigationItem
}

// HasPluginName reports whether the plugin name element is present and non-empty
func (n Navigation) HasPluginName() bool {
	return n.PluginName != ""
}

// Kinds returns the item kinds in order
func (n Navigation) Kinds() []string {
	kinds := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		kinds = append(kinds, item.Kind)
	}
	return kinds
}

// BuildInfo is the rendered build information table
type BuildInfo struct {
	Headers []string
	Values  []string
}

// Value returns the cell below header and whether the column exists
func (b BuildInfo) Value(header string) (string, bool) {
	for i, h := range b.Headers {
		if h == header && i < len(b.Values) {
			return b.Values[i], true
		}
	}
	return "", false
}

// ProjectName returns the Project cell
func (b BuildInfo) ProjectName() string {
	v, _ := b.Value("Project")
	return v
}

// BuildNumber returns the Number cell
func (b BuildInfo) BuildNumber() string {
	v, _ := b.Value("Number")
	return v
}

// HasBuildDate reports whether the Date cell holds a value
func (b BuildInfo) HasBuildDate() bool {
	v, _ := b.Value("Date")
	return v != ""
}

// Navigation extracts the navigation bar
func (d *Document) Navigation() (Navigation, error) {
	nav, ok := d.ByID(NavigationID)
	if !ok {
		return Navigation{}, fmt.Errorf("navigation: %w", ErrNotFound)
	}

	var result Navigation
	if name, ok := nav.First("." + PluginNameCSS); ok {
		result.PluginName = name.Text()
	}

	for _, li := range nav.All("li") {
		a, ok := li.First("a")
		if !ok {
			continue
		}
		result.Items = append(result.Items, NavigationItem{
			Kind:   li.Attr("data-kind"),
			Label:  a.Text(),
			Href:   a.Attr("href"),
			Active: li.HasClass("active"),
		})
	}
	return result, nil
}

// BuildInfo extracts the build information table
func (d *Document) BuildInfo() (BuildInfo, error) {
	table, ok := d.ByID(BuildInfoID)
	if !ok {
		return BuildInfo{}, fmt.Errorf("build info: %w", ErrNotFound)
	}

	var info BuildInfo
	for _, th := range table.All("th") {
		info.Headers = append(info.Headers, th.Text())
	}
	if body, ok := table.First("tbody"); ok {
		if row, ok := body.First("tr"); ok {
			for _, td := range row.Children("td") {
				info.Values = append(info.Values, td.Text())
			}
		}
	}
	return info, nil
}

// Footer returns the footer element
func (d *Document) Footer() (*Element, error) {
	footer, ok := d.ByID(FooterID)
	if !ok {
		return nil, fmt.Errorf("footer: %w", ErrNotFound)
	}
	return footer, nil
}

// FooterLinks returns the anchors of the footer in document order
func (d *Document) FooterLinks() ([]Link, error) {
	footer, err := d.Footer()
	if err != nil {
		return nil, err
	}
	return footer.Links(), nil
}

// Title returns the document title
func (d *Document) Title() string {
	if t, ok := d.First("title"); ok {
		return t.Text()
	}
	return ""
}
