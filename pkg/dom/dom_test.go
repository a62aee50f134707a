package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Report - Features</title></head>
<body>
  <nav id="navigation">
    <span class="plugin-name">Cucumber-JVM Report</span>
    <ul>
      <li class="nav-item" data-kind="jenkins"><a href="/job/atm/5">Jenkins</a></li>
      <li class="nav-item active" data-kind="features"><a href="feature-overview.html">Features</a></li>
      <li class="nav-item">no link</li>
    </ul>
  </nav>
  <table id="build-info">
    <thead><tr><th>Project</th><th>Number</th><th>Date</th></tr></thead>
    <tbody><tr><td>atm</td><td> 5 </td><td>18 Oct 2026, 14:30</td></tr></tbody>
  </table>
  <main id="report"><p class="note big">Hello
     world</p></main>
  <div id="footer">
    <a href="https://a.example.com">First</a>
    <a href="https://b.example.com">Second</a>
  </div>
</body>
</html>`

func parse(t *testing.T, source string) *Document {
	t.Helper()
	doc, err := Parse(source)
	require.NoError(t, err)
	return doc
}

func TestNavigation(t *testing.T) {
	nav, err := parse(t, page).Navigation()
	require.NoError(t, err)

	assert.True(t, nav.HasPluginName())
	assert.Equal(t, "Cucumber-JVM Report", nav.PluginName)
	assert.Equal(t, []string{"jenkins", "features"}, nav.Kinds())
	assert.Equal(t, NavigationItem{Kind: "features", Label: "Features", Href: "feature-overview.html", Active: true}, nav.Items[1])
	assert.False(t, nav.Items[0].Active)
}

func TestBuildInfo(t *testing.T) {
	info, err := parse(t, page).BuildInfo()
	require.NoError(t, err)

	assert.Equal(t, []string{"Project", "Number", "Date"}, info.Headers)
	assert.Equal(t, "atm", info.ProjectName())
	assert.Equal(t, "5", info.BuildNumber())
	assert.True(t, info.HasBuildDate())

	_, ok := info.Value("Missing")
	assert.False(t, ok)
}

func TestBuildInfoWithoutDate(t *testing.T) {
	doc := parse(t, `<table id="build-info"><thead><tr><th>Project</th><th>Date</th></tr></thead>
<tbody><tr><td>atm</td><td></td></tr></tbody></table>`)

	info, err := doc.BuildInfo()
	require.NoError(t, err)
	assert.False(t, info.HasBuildDate())
	assert.Equal(t, "", info.BuildNumber())
}

func TestFooterLinks(t *testing.T) {
	links, err := parse(t, page).FooterLinks()
	require.NoError(t, err)

	assert.Equal(t, []Link{
		{Label: "First", Href: "https://a.example.com"},
		{Label: "Second", Href: "https://b.example.com"},
	}, links)
}

func TestMissingRegions(t *testing.T) {
	doc := parse(t, `<html><body><p>empty</p></body></html>`)

	_, err := doc.Navigation()
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = doc.BuildInfo()
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = doc.FooterLinks()
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "", doc.Title())
}

func TestSelectors(t *testing.T) {
	doc := parse(t, page)

	assert.Equal(t, "Report - Features", doc.Title())

	p, ok := doc.First("p.big")
	require.True(t, ok)
	assert.Equal(t, "Hello world", p.Text())
	assert.True(t, p.HasClass("note"))
	assert.False(t, p.HasClass("small"))

	assert.Len(t, doc.All(".nav-item"), 3)
	assert.Len(t, doc.All("li.active"), 1)
	assert.Len(t, doc.All("#footer"), 1)

	report, ok := doc.ByID("report")
	require.True(t, ok)
	assert.Equal(t, "main", report.Tag())
	assert.Len(t, report.Children(""), 1)

	_, ok = doc.ByID("nope")
	assert.False(t, ok)
}
