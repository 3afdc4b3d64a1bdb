package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultDir is where generated scenarios are written.
const DefaultDir = "scenarios"

// GenerateScenarioPath creates a timestamped scenario filename in dir.
func GenerateScenarioPath(dir string) string {
	if dir == "" {
		dir = DefaultDir
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("scenario_%s.yaml", timestamp))
}

// FindLatestScenario finds the most recently modified .yaml file in dir.
func FindLatestScenario(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var scenarios []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scenarios = append(scenarios, candidate{path: filepath.Join(dir, name), mod: info.ModTime()})
	}

	if len(scenarios) == 0 {
		return "", fmt.Errorf("no scenario files found in %s", dir)
	}

	// Newest first
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].mod.After(scenarios[j].mod)
	})

	return scenarios[0].path, nil
}
