package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/generator"
	"github.com/lirany1/cucumber-html-report/pkg/metrics"
	"github.com/lirany1/cucumber-html-report/pkg/models"
	"github.com/lirany1/cucumber-html-report/pkg/storage"
)

func newTestServer(t *testing.T, history *storage.Database) (*httptest.Server, string) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ProjectName = "atm"
	cfg.ReportsDir = t.TempDir()
	cfg.RunWithJenkins = true
	cfg.BuildNumber = "7"

	result, err := generator.NewGenerator(cfg).GenerateFromFiles([]string{filepath.Join("testdata", "sample.json")}, "")
	require.NoError(t, err)

	srv := NewServer(&Config{ReportDir: result.OutputDir, Project: "atm", History: history})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, result.OutputDir
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestRootRedirectsToFeaturesOverview(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/feature-overview.html", resp.Request.URL.Path)
}

func TestListPages(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Pages []PageSummary `json:"pages"`
	}
	resp := getJSON(t, ts.URL+"/api/pages", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Len(t, body.Pages, 16)

	slugs := make(map[string]bool)
	for _, p := range body.Pages {
		slugs[p.Slug] = true
	}
	assert.True(t, slugs["feature-overview"])
	assert.True(t, slugs["failures-overview"])
}

func TestGetPage(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var page PageSummary
	resp := getJSON(t, ts.URL+"/api/pages/tag-overview", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "tag-overview.html", page.File)
	require.Len(t, page.Navigation, 6)
	assert.Equal(t, "jenkins", page.Navigation[0].Kind)
	assert.True(t, page.Navigation[4].Active)
	assert.Equal(t, "atm", page.BuildInfo["Project"])
	assert.Equal(t, "7", page.BuildInfo["Number"])
	assert.NotEmpty(t, page.BuildInfo["Date"])
}

func TestGetPageNotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := getJSON(t, ts.URL+"/api/pages/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListBuilds(t *testing.T) {
	db, err := storage.NewDatabase(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	report := models.NewReportResult(nil)
	now := time.Now()
	require.NoError(t, db.SaveBuild(storage.NewBuildRecord("atm", "1", report, now.Add(-time.Hour))))
	require.NoError(t, db.SaveBuild(storage.NewBuildRecord("atm", "2", report, now)))
	require.NoError(t, db.SaveBuild(storage.NewBuildRecord("other", "5", report, now)))

	ts, _ := newTestServer(t, db)

	var body struct {
		Builds []storage.BuildRecord `json:"builds"`
	}
	resp := getJSON(t, ts.URL+"/api/builds", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Builds, 2)
	assert.Equal(t, "2", body.Builds[0].BuildNumber)

	resp = getJSON(t, ts.URL+"/api/builds?project=other&limit=1", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Builds, 1)
	assert.Equal(t, "5", body.Builds[0].BuildNumber)

	resp = getJSON(t, ts.URL+"/api/builds?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListBuildsWithoutHistory(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Builds []storage.BuildRecord `json:"builds"`
	}
	resp := getJSON(t, ts.URL+"/api/builds", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body.Builds)
}

func TestStaticFilesServed(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/css/cucumber.css")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	metrics.TrackPageGenerated("FeaturesOverview")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cucumber_report_pages_generated_total{variant="FeaturesOverview"}`)
	assert.Contains(t, string(body), "cucumber_report_generation_seconds_bucket")
}
