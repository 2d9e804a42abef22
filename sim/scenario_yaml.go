package sim

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadScenarioYAML reads a human-authored scenario.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioYAML(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenarioYAML(data)
}

// ParseScenarioYAML decodes a scenario from YAML bytes.
func ParseScenarioYAML(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if s.ScenarioName == "" || s.MapName == "" {
		return nil, fmt.Errorf("parsing scenario: scenario and map names are required")
	}
	return &s, nil
}

// scenarioYAML is the written form of a Scenario. yaml.v3 writes a nil
// slice as [], so the transit filter goes through a pointer to keep "seed
// every route" (key absent) apart from "seed none" ([]).
type scenarioYAML struct {
	ScenarioName    string       `yaml:"scenario"`
	MapName         string       `yaml:"map"`
	People          []PersonSpec `yaml:"people"`
	OnlySeedTransit *[]string    `yaml:"only_seed_transit,omitempty"`
}

// MarshalYAML omits only_seed_transit when it is nil.
func (s Scenario) MarshalYAML() (interface{}, error) {
	out := scenarioYAML{ScenarioName: s.ScenarioName, MapName: s.MapName, People: s.People}
	if s.OnlySeedTransit != nil {
		out.OnlySeedTransit = &s.OnlySeedTransit
	}
	return out, nil
}

// UnmarshalYAML accepts "HH:MM", "HH:MM:SS" or a Go duration ("8h30m").
func (t *Time) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTime(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML writes HH:MM:SS.
func (t Time) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// ParseTime parses "HH:MM", "HH:MM:SS" or a Go duration string. Clock
// fields must be plain digits; anything else after them is rejected.
func ParseTime(raw string) (Time, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("invalid time %q: too many fields", raw)
		}
		var hms [3]int
		for i, part := range parts {
			n, err := clockField(part)
			if err != nil {
				return 0, fmt.Errorf("invalid time %q: %w", raw, err)
			}
			hms[i] = n
		}
		h, m, s := hms[0], hms[1], hms[2]
		if m > 59 || s > 59 {
			return 0, fmt.Errorf("invalid time %q: minutes and seconds must be below 60", raw)
		}
		return Time(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return Time(d), nil
}

func clockField(part string) (int, error) {
	if part == "" || strings.TrimLeft(part, "0123456789") != "" {
		return 0, fmt.Errorf("field %q is not a number", part)
	}
	return strconv.Atoi(part)
}

func (m *TripMode) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTripMode(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

func (m TripMode) MarshalYAML() (interface{}, error) { return m.String(), nil }

func (p *TripPurpose) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTripPurpose(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = parsed
	return nil
}

func (p TripPurpose) MarshalYAML() (interface{}, error) { return p.String(), nil }
