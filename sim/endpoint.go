package sim

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EndpointKind discriminates TripEndpoint.
type EndpointKind int

const (
	EndpointBuilding EndpointKind = iota
	EndpointBorder
	EndpointSuddenAppear
)

// TripEndpoint is where a trip starts or ends: a building, a border
// intersection, or a point where a vehicle suddenly appears (debug spawns).
// Only the field matching Kind is meaningful.
type TripEndpoint struct {
	Kind     EndpointKind
	Building BuildingID
	Border   IntersectionID
	Position Position
}

// AtBuilding is a building endpoint.
func AtBuilding(b BuildingID) TripEndpoint {
	return TripEndpoint{Kind: EndpointBuilding, Building: b}
}

// AtBorder is a border-intersection endpoint.
func AtBorder(i IntersectionID) TripEndpoint {
	return TripEndpoint{Kind: EndpointBorder, Border: i}
}

// SuddenlyAppear is an endpoint at an arbitrary lane position.
func SuddenlyAppear(pos Position) TripEndpoint {
	return TripEndpoint{Kind: EndpointSuddenAppear, Position: pos}
}

// BuildingOrNone returns the building and true for building endpoints.
// Border and sudden-appear endpoints mean "off-map" for location tracking.
func (e TripEndpoint) BuildingOrNone() (BuildingID, bool) {
	if e.Kind == EndpointBuilding {
		return e.Building, true
	}
	return 0, false
}

func (e TripEndpoint) String() string {
	switch e.Kind {
	case EndpointBuilding:
		return e.Building.String()
	case EndpointBorder:
		return fmt.Sprintf("border %s", e.Border)
	case EndpointSuddenAppear:
		return fmt.Sprintf("appear at %s", e.Position)
	}
	panic(fmt.Sprintf("unknown endpoint kind %d", e.Kind))
}

// yamlEndpoint is the authoring form: exactly one key set.
type yamlEndpoint struct {
	Building *BuildingID     `yaml:"building,omitempty"`
	Border   *IntersectionID `yaml:"border,omitempty"`
	Appear   *Position       `yaml:"appear,omitempty"`
}

// UnmarshalYAML accepts {building: N}, {border: N} or {appear: {lane: L, dist: D}}.
func (e *TripEndpoint) UnmarshalYAML(node *yaml.Node) error {
	var raw yamlEndpoint
	if err := node.Decode(&raw); err != nil {
		return err
	}
	set := 0
	if raw.Building != nil {
		*e = AtBuilding(*raw.Building)
		set++
	}
	if raw.Border != nil {
		*e = AtBorder(*raw.Border)
		set++
	}
	if raw.Appear != nil {
		*e = SuddenlyAppear(*raw.Appear)
		set++
	}
	if set != 1 {
		return fmt.Errorf("line %d: endpoint needs exactly one of building, border, appear", node.Line)
	}
	return nil
}

// MarshalYAML writes the authoring form.
func (e TripEndpoint) MarshalYAML() (interface{}, error) {
	switch e.Kind {
	case EndpointBuilding:
		return yamlEndpoint{Building: &e.Building}, nil
	case EndpointBorder:
		return yamlEndpoint{Border: &e.Border}, nil
	case EndpointSuddenAppear:
		return yamlEndpoint{Appear: &e.Position}, nil
	}
	return nil, fmt.Errorf("unknown endpoint kind %d", e.Kind)
}
