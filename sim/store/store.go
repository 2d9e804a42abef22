// Package store persists scenarios keyed by (map name, scenario name).
// Both backends hold the blob produced by sim.EncodeScenario.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/demand-sim/demand-sim/sim"
)

// ErrNotFound is returned when no scenario is stored under the requested key.
var ErrNotFound = errors.New("scenario not found")

// Store is implemented by Files and Postgres.
type Store interface {
	// Save creates or replaces the scenario stored under its (MapName, ScenarioName).
	Save(ctx context.Context, s *sim.Scenario) error
	// Load returns ErrNotFound (wrapped) when the key is missing.
	Load(ctx context.Context, mapName, scenarioName string) (*sim.Scenario, error)
	// List returns the scenario names stored for a map, ascending.
	List(ctx context.Context, mapName string) ([]string, error)
}

// validateKey rejects names that can't safely become a path component.
func validateKey(mapName, scenarioName string) error {
	for _, name := range []string{mapName, scenarioName} {
		if name == "" {
			return fmt.Errorf("map and scenario names are required")
		}
		if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}
