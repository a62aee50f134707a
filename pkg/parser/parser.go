package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lirany1/cucumber-html-report/pkg/logger"
	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// ErrNoFeatures is returned when none of the input files contain a feature
var ErrNoFeatures = errors.New("no features found")

// ParseFiles reads cucumber JSON result files and returns their features in file order
func ParseFiles(paths ...string) ([]*models.Feature, error) {
	var features []*models.Feature

	for _, path := range paths {
		parsed, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			logger.Warnf("File %s does not contain any features", path)
			continue
		}
		features = append(features, parsed...)
	}

	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	return features, nil
}

// Parse decodes a single cucumber JSON document
func Parse(r io.Reader) ([]*models.Feature, error) {
	var features []*models.Feature
	if err := json.NewDecoder(r).Decode(&features); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return features, nil
}

func parseFile(path string) ([]*models.Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	features, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, feature := range features {
		feature.JSONFile = path
	}
	logger.Debugf("Parsed %d features from %s", len(features), path)
	return features, nil
}
