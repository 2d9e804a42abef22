package network

import (
	"bytes"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// Spec is the top-level network description.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Name          string             `yaml:"name"`
	Intersections []IntersectionSpec `yaml:"intersections"`
	Roads         []RoadSpec         `yaml:"roads"`
	Buildings     []BuildingSpec     `yaml:"buildings,omitempty"`
	ParkingLots   []ParkingLotSpec   `yaml:"parking_lots,omitempty"`
	TransitRoutes []TransitRouteSpec `yaml:"transit_routes,omitempty"`
}

// IntersectionSpec is a node of the road graph. Border intersections are
// where trips enter and leave the map.
type IntersectionSpec struct {
	ID     int       `yaml:"id"`
	Border bool      `yaml:"border,omitempty"`
	Pos    orb.Point `yaml:"pos"`
}

// RoadSpec connects two intersections. Forward lanes run From -> To.
type RoadSpec struct {
	ID    int        `yaml:"id"`
	From  int        `yaml:"from"`
	To    int        `yaml:"to"`
	Lanes []LaneSpec `yaml:"lanes"`
}

// LaneSpec is one lane of a road.
type LaneSpec struct {
	ID   int    `yaml:"id"`
	Kind string `yaml:"kind"`
	Dir  string `yaml:"dir"`
	// Spots is the on-street capacity; parking lanes only.
	Spots int `yaml:"spots,omitempty"`
}

// BuildingSpec is a building fronting a road.
type BuildingSpec struct {
	ID   int `yaml:"id"`
	Road int `yaml:"road"`
	// Sidewalk and Driving are lane IDs; nil means the building has no such access.
	Sidewalk *int        `yaml:"sidewalk,omitempty"`
	Driving  *int        `yaml:"driving,omitempty"`
	Parking  ParkingSpec `yaml:"parking,omitempty"`
	Pos      orb.Point   `yaml:"pos"`
}

// ParkingSpec is a building's off-street parking.
type ParkingSpec struct {
	Kind  string `yaml:"kind,omitempty"`
	Spots int    `yaml:"spots,omitempty"`
}

// ParkingLotSpec is a lot entered from a driving lane.
type ParkingLotSpec struct {
	ID    int `yaml:"id"`
	Lane  int `yaml:"lane"`
	Spots int `yaml:"spots"`
}

// TransitRouteSpec is a named route over ordered stops.
type TransitRouteSpec struct {
	ID    int               `yaml:"id"`
	Name  string            `yaml:"name"`
	Stops []TransitStopSpec `yaml:"stops"`
}

// TransitStopSpec is a stop on a sidewalk lane.
type TransitStopSpec struct {
	ID   int     `yaml:"id"`
	Lane int     `yaml:"lane"`
	Dist float64 `yaml:"dist"`
}

// Valid value registries.
var (
	validLaneKinds    = map[string]bool{"driving": true, "biking": true, "bus": true, "sidewalk": true, "parking": true}
	validLaneDirs     = map[string]bool{"fwd": true, "back": true}
	validParkingKinds = map[string]bool{"": true, "none": true, "public": true, "private": true}
)

// LoadSpec reads and parses a YAML network file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network: %w", err)
	}
	return ParseSpec(data)
}

// ParseSpec decodes a network description from YAML bytes.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing network: %w", err)
	}
	return &spec, nil
}

// Validate checks IDs are unique and every reference resolves.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("network name is required")
	}
	intersections := make(map[int]bool)
	for i, in := range s.Intersections {
		if intersections[in.ID] {
			return fmt.Errorf("intersections[%d]: duplicate id %d", i, in.ID)
		}
		intersections[in.ID] = true
	}
	roads := make(map[int]bool)
	lanes := make(map[int]string)
	for i, r := range s.Roads {
		prefix := fmt.Sprintf("roads[%d]", i)
		if roads[r.ID] {
			return fmt.Errorf("%s: duplicate id %d", prefix, r.ID)
		}
		roads[r.ID] = true
		if !intersections[r.From] || !intersections[r.To] {
			return fmt.Errorf("%s: unknown intersection in from=%d to=%d", prefix, r.From, r.To)
		}
		if r.From == r.To {
			return fmt.Errorf("%s: road loops on intersection %d", prefix, r.From)
		}
		for j, l := range r.Lanes {
			lprefix := fmt.Sprintf("%s.lanes[%d]", prefix, j)
			if _, dup := lanes[l.ID]; dup {
				return fmt.Errorf("%s: duplicate lane id %d", lprefix, l.ID)
			}
			if !validLaneKinds[l.Kind] {
				return fmt.Errorf("%s: unknown kind %q; valid: driving, biking, bus, sidewalk, parking", lprefix, l.Kind)
			}
			if !validLaneDirs[l.Dir] {
				return fmt.Errorf("%s: unknown dir %q; valid: fwd, back", lprefix, l.Dir)
			}
			if l.Spots < 0 || (l.Spots > 0 && l.Kind != "parking") {
				return fmt.Errorf("%s: spots only allowed (non-negative) on parking lanes, got %d", lprefix, l.Spots)
			}
			lanes[l.ID] = l.Kind
		}
	}
	buildings := make(map[int]bool)
	for i, b := range s.Buildings {
		prefix := fmt.Sprintf("buildings[%d]", i)
		if buildings[b.ID] {
			return fmt.Errorf("%s: duplicate id %d", prefix, b.ID)
		}
		buildings[b.ID] = true
		if !roads[b.Road] {
			return fmt.Errorf("%s: unknown road %d", prefix, b.Road)
		}
		if b.Sidewalk != nil && lanes[*b.Sidewalk] != "sidewalk" {
			return fmt.Errorf("%s: lane %d is not a sidewalk", prefix, *b.Sidewalk)
		}
		if b.Driving != nil {
			if k := lanes[*b.Driving]; k != "driving" && k != "biking" && k != "bus" {
				return fmt.Errorf("%s: lane %d is not drivable", prefix, *b.Driving)
			}
		}
		if !validParkingKinds[b.Parking.Kind] {
			return fmt.Errorf("%s.parking: unknown kind %q; valid: none, public, private", prefix, b.Parking.Kind)
		}
		if b.Parking.Spots < 0 {
			return fmt.Errorf("%s.parking: spots must be non-negative, got %d", prefix, b.Parking.Spots)
		}
		if b.Parking.Spots > 0 && (b.Parking.Kind == "" || b.Parking.Kind == "none") {
			return fmt.Errorf("%s.parking: %d spots need kind public or private", prefix, b.Parking.Spots)
		}
	}
	lots := make(map[int]bool)
	for i, pl := range s.ParkingLots {
		if lots[pl.ID] {
			return fmt.Errorf("parking_lots[%d]: duplicate id %d", i, pl.ID)
		}
		lots[pl.ID] = true
		if lanes[pl.Lane] != "driving" {
			return fmt.Errorf("parking_lots[%d]: lane %d is not a driving lane", i, pl.Lane)
		}
		if pl.Spots < 0 {
			return fmt.Errorf("parking_lots[%d]: spots must be non-negative, got %d", i, pl.Spots)
		}
	}
	routes := make(map[int]bool)
	for i, tr := range s.TransitRoutes {
		if routes[tr.ID] {
			return fmt.Errorf("transit_routes[%d]: duplicate id %d", i, tr.ID)
		}
		routes[tr.ID] = true
		if tr.Name == "" {
			return fmt.Errorf("transit_routes[%d]: name is required", i)
		}
		for j, stop := range tr.Stops {
			if lanes[stop.Lane] != "sidewalk" {
				return fmt.Errorf("transit_routes[%d].stops[%d]: lane %d is not a sidewalk", i, j, stop.Lane)
			}
		}
	}
	return nil
}
