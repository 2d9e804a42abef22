package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim"
)

const blobExt = ".bin"

// Files stores one blob per scenario at <root>/<map>/<scenario>.bin.
type Files struct {
	root string
}

var _ Store = (*Files)(nil)

// NewFiles roots a file store at dir. The directory is created on first save.
func NewFiles(dir string) *Files {
	return &Files{root: dir}
}

func (f *Files) path(mapName, scenarioName string) string {
	return filepath.Join(f.root, mapName, scenarioName+blobExt)
}

// Save writes to a temporary file and renames it into place, so readers
// never observe a partial blob.
func (f *Files) Save(_ context.Context, s *sim.Scenario) error {
	if err := validateKey(s.MapName, s.ScenarioName); err != nil {
		return fmt.Errorf("saving scenario: %w", err)
	}
	dir := filepath.Join(f.root, s.MapName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saving scenario %s: %w", s.ScenarioName, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("saving scenario %s: %w", s.ScenarioName, err)
	}
	defer os.Remove(tmp.Name())

	if err := sim.EncodeScenario(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving scenario %s: %w", s.ScenarioName, err)
	}
	path := f.path(s.MapName, s.ScenarioName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving scenario %s: %w", s.ScenarioName, err)
	}
	logrus.Debugf("Saved scenario %s to %s", s.ScenarioName, path)
	return nil
}

func (f *Files) Load(_ context.Context, mapName, scenarioName string) (*sim.Scenario, error) {
	if err := validateKey(mapName, scenarioName); err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	file, err := os.Open(f.path(mapName, scenarioName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", mapName, scenarioName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s/%s: %w", mapName, scenarioName, err)
	}
	defer file.Close()
	s, err := sim.DecodeScenario(file)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s/%s: %w", mapName, scenarioName, err)
	}
	return s, nil
}

// List returns an empty list for a map with nothing saved.
func (f *Files) List(_ context.Context, mapName string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, mapName))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing scenarios for %s: %w", mapName, err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), blobExt))
	}
	sort.Strings(names)
	return names, nil
}
