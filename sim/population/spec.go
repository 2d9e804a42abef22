// Package population generates commuter scenarios procedurally from a small
// YAML description, for maps that have no travel-demand data of their own.
package population

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/demand-sim/demand-sim/sim"
)

// Spec is the top-level population configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Seed      int64  `yaml:"seed"`
	Scenario  string `yaml:"scenario"`
	NumPeople int    `yaml:"num_people"`
	// ModeSplit weighs travel modes by name (walk, bike, transit, drive).
	// Weights need not sum to 1.
	ModeSplit map[string]float64 `yaml:"mode_split"`
	// Depart bounds the morning departure, as time of day.
	Depart Window `yaml:"depart"`
	// ReturnAfter bounds how long after departing people head home.
	ReturnAfter Window `yaml:"return_after"`
	// MaxCommuteM caps the straight-line home to work distance. 0 = unlimited.
	MaxCommuteM float64 `yaml:"max_commute_m,omitempty"`
	// BorderFraction is the share of people who work off-map.
	BorderFraction float64 `yaml:"border_fraction,omitempty"`
}

// Window is a half-open interval [From, To). From == To pins the value.
type Window struct {
	From sim.Time `yaml:"from"`
	To   sim.Time `yaml:"to"`
}

// LoadSpec reads and parses a YAML population specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading population spec: %w", err)
	}
	return ParseSpec(data)
}

// ParseSpec is LoadSpec for in-memory YAML.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing population spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if s.Scenario == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.NumPeople <= 0 {
		return fmt.Errorf("num_people must be positive, got %d", s.NumPeople)
	}
	if len(s.ModeSplit) == 0 {
		return fmt.Errorf("mode_split needs at least one mode")
	}
	for _, name := range sortedModes(s.ModeSplit) {
		if _, err := sim.ParseTripMode(name); err != nil {
			return fmt.Errorf("mode_split: %w", err)
		}
		w := s.ModeSplit[name]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("mode_split.%s must be a finite non-negative weight, got %f", name, w)
		}
	}
	if lo.Sum(lo.Values(s.ModeSplit)) <= 0 {
		return fmt.Errorf("mode_split weights sum to zero")
	}
	if err := validateWindow("depart", s.Depart); err != nil {
		return err
	}
	if err := validateWindow("return_after", s.ReturnAfter); err != nil {
		return err
	}
	if s.ReturnAfter.From <= 0 {
		return fmt.Errorf("return_after.from must be positive, got %s", s.ReturnAfter.From)
	}
	if math.IsNaN(s.MaxCommuteM) || math.IsInf(s.MaxCommuteM, 0) || s.MaxCommuteM < 0 {
		return fmt.Errorf("max_commute_m must be a finite non-negative number, got %f", s.MaxCommuteM)
	}
	if math.IsNaN(s.BorderFraction) || s.BorderFraction < 0 || s.BorderFraction > 1 {
		return fmt.Errorf("border_fraction must be in [0, 1], got %f", s.BorderFraction)
	}
	return nil
}

func validateWindow(name string, w Window) error {
	if w.From < 0 {
		return fmt.Errorf("%s.from must be non-negative, got %s", name, w.From)
	}
	if w.To < w.From {
		return fmt.Errorf("%s.to (%s) is before %s.from (%s)", name, w.To, name, w.From)
	}
	return nil
}

// sortedModes fixes iteration order over the split, which YAML decoding
// hands us as a map.
func sortedModes(split map[string]float64) []string {
	names := lo.Keys(split)
	sort.Strings(names)
	return names
}
