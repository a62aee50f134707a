package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lirany1/cucumber-html-report/pkg/dom"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/metrics"
	"github.com/lirany1/cucumber-html-report/pkg/pages"
	"github.com/lirany1/cucumber-html-report/pkg/storage"
)

const defaultBuildsLimit = 20

// Config holds server configuration
type Config struct {
	Host      string
	Port      int
	ReportDir string
	Project   string
	History   *storage.Database
}

// Server serves a generated report
type Server struct {
	config *Config
	router *mux.Router
}

// PageSummary describes a generated page
type PageSummary struct {
	Slug       string               `json:"slug"`
	File       string               `json:"file"`
	Title      string               `json:"title,omitempty"`
	Navigation []dom.NavigationItem `json:"navigation,omitempty"`
	BuildInfo  map[string]string    `json:"buildInfo,omitempty"`
}

// NewServer creates a new report server
func NewServer(cfg *Config) *Server {
	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.Infof("Server running at http://%s", addr)
	logger.Infof("Press Ctrl+C to stop")

	return http.ListenAndServe(addr, s.router)
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pages", s.handleListPages).Methods("GET")
	api.HandleFunc("/pages/{slug}", s.handleGetPage).Methods("GET")
	api.HandleFunc("/builds", s.handleListBuilds).Methods("GET")

	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	s.router.Handle("/", http.RedirectHandler("/"+pages.FeaturesOverviewSlug+".html", http.StatusFound))

	// static files go last so they never shadow the API
	fs := http.FileServer(http.Dir(s.config.ReportDir))
	s.router.PathPrefix("/").Handler(fs)
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	files, err := filepath.Glob(filepath.Join(s.config.ReportDir, "*.html"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sort.Strings(files)

	summaries := make([]PageSummary, 0, len(files))
	for _, file := range files {
		name := filepath.Base(file)
		summaries = append(summaries, PageSummary{
			Slug: strings.TrimSuffix(name, ".html"),
			File: name,
		})
	}
	writeJSON(w, map[string]interface{}{"pages": summaries})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if slug != filepath.Base(slug) || strings.HasPrefix(slug, ".") {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid page %q", slug))
		return
	}

	data, err := os.ReadFile(filepath.Join(s.config.ReportDir, slug+".html"))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, fmt.Errorf("page %q not found", slug))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	doc, err := dom.Parse(string(data))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	summary := PageSummary{Slug: slug, File: slug + ".html", Title: doc.Title()}
	if nav, err := doc.Navigation(); err == nil {
		summary.Navigation = nav.Items
	}
	if info, err := doc.BuildInfo(); err == nil {
		summary.BuildInfo = make(map[string]string, len(info.Headers))
		for _, header := range info.Headers {
			summary.BuildInfo[header], _ = info.Value(header)
		}
	}
	writeJSON(w, summary)
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	if s.config.History == nil {
		writeJSON(w, map[string]interface{}{"builds": []storage.BuildRecord{}})
		return
	}

	limit := defaultBuildsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	project := r.URL.Query().Get("project")
	if project == "" {
		project = s.config.Project
	}

	builds, err := s.config.History.RecentBuilds(project, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if builds == nil {
		builds = []storage.BuildRecord{}
	}
	writeJSON(w, map[string]interface{}{"builds": builds})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger.Debugf("Request failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
