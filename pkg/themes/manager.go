package themes

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/getgauge/common"

	"github.com/lirany1/cucumber-html-report/pkg/config"
	"github.com/lirany1/cucumber-html-report/pkg/logger"
)

//go:embed default
var builtin embed.FS

// DefaultTheme is served from the binary when no theme directory is found
const DefaultTheme = "default"

// Manager handles theme management
type Manager struct {
	config *config.Config
}

// NewManager creates a new theme manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// CopyAssets copies theme assets to output directory
func (m *Manager) CopyAssets(themeName, outputDir string) error {
	if themeName == "" {
		themeName = DefaultTheme
	}

	assetsPath := filepath.Join(m.getThemePath(themeName), "assets")
	if _, err := os.Stat(assetsPath); err == nil {
		logger.Debugf("Mirroring theme assets from %s", assetsPath)
		_, err := common.MirrorDir(assetsPath, outputDir)
		return err
	}

	if themeName != DefaultTheme {
		return fmt.Errorf("theme %q not found", themeName)
	}
	return writeBuiltin(outputDir)
}

// writeBuiltin extracts the embedded default theme into outputDir
func writeBuiltin(outputDir string) error {
	root, err := fs.Sub(builtin, DefaultTheme)
	if err != nil {
		return err
	}

	return fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(outputDir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fs.ReadFile(root, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

// CreateTheme writes a copy of the default theme to outputDir/name/assets
func (m *Manager) CreateTheme(name, outputDir string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid theme name %q", name)
	}

	themeDir := filepath.Join(outputDir, name)
	if _, err := os.Stat(themeDir); err == nil {
		return "", fmt.Errorf("theme %q already exists in %s", name, outputDir)
	}

	if err := writeBuiltin(filepath.Join(themeDir, "assets")); err != nil {
		return "", fmt.Errorf("failed to create theme: %w", err)
	}
	return themeDir, nil
}

// ListThemes returns the built-in theme followed by the themes found in dir
func (m *Manager) ListThemes(dir string) ([]string, error) {
	themes := []string{DefaultTheme}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return nil, err
	}

	var found []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == DefaultTheme {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), "assets")); err == nil {
			found = append(found, entry.Name())
		}
	}
	sort.Strings(found)
	return append(themes, found...), nil
}

// getThemePath returns the full path to a theme
func (m *Manager) getThemePath(themeName string) string {
	if filepath.IsAbs(themeName) {
		return themeName
	}

	// next to the reports
	if m.config != nil && m.config.ReportsDir != "" {
		local := filepath.Join(m.config.ReportsDir, "themes", themeName)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	projectThemes := filepath.Join("themes", themeName)
	if _, err := os.Stat(projectThemes); err == nil {
		return projectThemes
	}

	return filepath.Join("web", "themes", themeName)
}
