package sim

import (
	"fmt"
	"time"
)

// === Units ===

// Time is an offset from midnight of the simulated day.
type Time time.Duration

// Hours builds a Time from an hour-of-day value (fractional hours allowed).
func Hours(h float64) Time {
	return Time(time.Duration(h * float64(time.Hour)))
}

// String renders the time as HH:MM:SS.
func (t Time) String() string {
	d := time.Duration(t)
	neg := ""
	if d < 0 {
		neg = "-"
		d = -d
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%s%02d:%02d:%02d", neg, h, m, s)
}

// Distance in meters.
type Distance float64

// Meters returns the raw value.
func (d Distance) Meters() float64 { return float64(d) }

func (d Distance) String() string { return fmt.Sprintf("%.1fm", float64(d)) }

// Speed in meters per second.
type Speed float64

const metersPerMile = 1609.344

// MilesPerHour converts mph to Speed.
func MilesPerHour(mph float64) Speed {
	return Speed(mph * metersPerMile / 3600.0)
}

// MetersPerSecond returns the raw value.
func (s Speed) MetersPerSecond() float64 { return float64(s) }

func (s Speed) String() string { return fmt.Sprintf("%.2fm/s", float64(s)) }

// === IDs ===

type PersonID int

func (id PersonID) String() string { return fmt.Sprintf("Person #%d", int(id)) }

// OrigPersonID identifies a person in the external dataset a scenario was
// imported from. Debugging only.
type OrigPersonID struct {
	Household int `yaml:"household"`
	Member    int `yaml:"member"`
}

func (o OrigPersonID) String() string { return fmt.Sprintf("(%d, %d)", o.Household, o.Member) }

type BuildingID int

func (id BuildingID) String() string { return fmt.Sprintf("Building #%d", int(id)) }

// IntersectionID names an intersection; border intersections are the map's
// entry and exit points.
type IntersectionID int

func (id IntersectionID) String() string { return fmt.Sprintf("Intersection #%d", int(id)) }

type RoadID int

func (id RoadID) String() string { return fmt.Sprintf("Road #%d", int(id)) }

type LaneID int

func (id LaneID) String() string { return fmt.Sprintf("Lane #%d", int(id)) }

type ParkingLotID int

func (id ParkingLotID) String() string { return fmt.Sprintf("Parking lot #%d", int(id)) }

type TransitRouteID int

func (id TransitRouteID) String() string { return fmt.Sprintf("Route #%d", int(id)) }

type TransitStopID int

func (id TransitStopID) String() string { return fmt.Sprintf("Stop #%d", int(id)) }

// DirectedRoadID is one direction of travel along a road.
type DirectedRoadID struct {
	Road    RoadID
	Forward bool
}

func (dr DirectedRoadID) String() string {
	dir := "fwd"
	if !dr.Forward {
		dir = "back"
	}
	return fmt.Sprintf("%s (%s)", dr.Road, dir)
}

// Position is a distance along a lane.
type Position struct {
	Lane LaneID   `yaml:"lane"`
	Dist Distance `yaml:"dist"`
}

func (p Position) String() string { return fmt.Sprintf("%s at %s", p.Lane, p.Dist) }
