package sim

import "fmt"

// PathConstraints restricts which lanes a mode may use.
type PathConstraints int

const (
	ConstraintPedestrian PathConstraints = iota
	ConstraintCar
	ConstraintBike
	ConstraintBus
)

func (c PathConstraints) String() string {
	switch c {
	case ConstraintPedestrian:
		return "Pedestrian"
	case ConstraintCar:
		return "Car"
	case ConstraintBike:
		return "Bike"
	case ConstraintBus:
		return "Bus"
	}
	return fmt.Sprintf("PathConstraints(%d)", int(c))
}

// TransitRoute is a named sequence of stops.
type TransitRoute struct {
	ID       TransitRouteID
	FullName string
	Stops    []TransitStopID
}

// TransitRide is a matched transit leg: board at Board, alight at Alight.
// A nil Alight means the rider stays aboard past the end of the map.
type TransitRide struct {
	Route  TransitRouteID
	Board  TransitStopID
	Alight *TransitStopID
}

// OffstreetKind says who may use a building's off-street parking.
type OffstreetKind int

const (
	OffstreetNone OffstreetKind = iota
	// OffstreetPublicGarage is open to any car.
	OffstreetPublicGarage
	// OffstreetPrivate is reserved for cars belonging to the building.
	OffstreetPrivate
)

// OffstreetParking describes a building's own parking.
type OffstreetParking struct {
	Kind     OffstreetKind
	Capacity int
}

// Map is the read-only road and transit network. Implementations must be
// safe for concurrent readers; instantiation never mutates it.
type Map interface {
	Name() string
	AllTransitRoutes() []TransitRoute
	// AllRoads lists every road in ascending ID order.
	AllRoads() []RoadID

	// DrivingGoal resolves where a vehicle obeying c should head to reach to.
	DrivingGoal(to TripEndpoint, c PathConstraints) (DrivingGoal, bool)
	// StartSidewalkSpot and EndSidewalkSpot find where a pedestrian leaves or
	// reaches an endpoint.
	StartSidewalkSpot(from TripEndpoint) (SidewalkSpot, bool)
	EndSidewalkSpot(to TripEndpoint) (SidewalkSpot, bool)
	// ShouldUseTransit matches a transit route between two sidewalk positions.
	ShouldUseTransit(start, goal Position) (TransitRide, bool)

	// OutgoingRoad picks a road leaving a border intersection.
	OutgoingRoad(border IntersectionID) (DirectedRoadID, bool)
	// Lanes lists the lanes of dr that c may use, in a stable order.
	Lanes(dr DirectedRoadID, c PathConstraints) []LaneID

	// NextRoads lists roads adjacent to r, in a stable order.
	NextRoads(r RoadID) []RoadID
	BuildingRoad(b BuildingID) RoadID
	BuildingParking(b BuildingID) OffstreetParking
	LaneRoad(l LaneID) RoadID
	ParkingLotRoad(lot ParkingLotID) RoadID
}
