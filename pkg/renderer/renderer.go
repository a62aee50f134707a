package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/lirany1/cucumber-html-report/pkg/models"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const layoutFile = "layout.tmpl"

// Renderer binds page templates to their data and produces HTML
type Renderer struct {
	templates map[string]*template.Template
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
	defaultErr      error
)

// Default returns the renderer built from the embedded templates
func Default() (*Renderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = NewRenderer(embedded, "templates")
	})
	return defaultRenderer, defaultErr
}

// NewRenderer parses the layout and every page template found in dir.
// Each page template must define a "body" block that the layout includes.
// Templates are parsed once; Render is safe for concurrent use.
func NewRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	layout, err := template.New(layoutFile).Funcs(funcMap()).ParseFS(fsys, path.Join(dir, layoutFile))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	// files starting with an underscore are partials shared by every page
	partials, err := fs.Glob(fsys, path.Join(dir, "_*.tmpl"))
	if err != nil {
		return nil, err
	}
	if len(partials) > 0 {
		if _, err := layout.ParseFS(fsys, partials...); err != nil {
			return nil, fmt.Errorf("failed to parse partials: %w", err)
		}
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, err
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, file := range files {
		base := path.Base(file)
		if base == layoutFile || strings.HasPrefix(base, "_") {
			continue
		}
		name := strings.TrimSuffix(base, ".tmpl")

		tmpl, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render executes the named page template with data
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Has reports whether a page template is available
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDuration": FormatDuration,
		"statusClass": func(s models.Status) string {
			if s == "" {
				return string(models.StatusUndefined)
			}
			return string(s)
		},
		"tagList": func(tags []models.Tag) string {
			names := make([]string, 0, len(tags))
			for _, t := range tags {
				names = append(names, t.Name)
			}
			return strings.Join(names, " ")
		},
		"inc": func(i int) int { return i + 1 },
	}
}

// FormatDuration formats a duration to a readable string
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.3fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	}
}
