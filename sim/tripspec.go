package sim

import "fmt"

// SpawnDist is how far along a border lane vehicles appear.
const SpawnDist Distance = 0.05

// GoalKind discriminates DrivingGoal.
type GoalKind int

const (
	// GoalParkNear: find parking near a building.
	GoalParkNear GoalKind = iota
	// GoalEndAtBorder: leave the map along one of Lanes.
	GoalEndAtBorder
)

// DrivingGoal is where a vehicle is headed.
type DrivingGoal struct {
	Kind     GoalKind
	Building BuildingID
	Road     DirectedRoadID
	Lanes    []LaneID
}

// ParkNear builds a GoalParkNear goal.
func ParkNear(b BuildingID) DrivingGoal {
	return DrivingGoal{Kind: GoalParkNear, Building: b}
}

// EndAtBorder builds a GoalEndAtBorder goal.
func EndAtBorder(dr DirectedRoadID, lanes []LaneID) DrivingGoal {
	return DrivingGoal{Kind: GoalEndAtBorder, Road: dr, Lanes: lanes}
}

func (g DrivingGoal) String() string {
	if g.Kind == GoalParkNear {
		return fmt.Sprintf("park near %s", g.Building)
	}
	return fmt.Sprintf("exit via %s", g.Road)
}

// SidewalkSpot is where a pedestrian enters or leaves the sidewalk network.
// Connection is the endpoint the spot serves.
type SidewalkSpot struct {
	Connection TripEndpoint
	Pos        Position
}

// ParkingKind discriminates ParkingSpot.
type ParkingKind int

const (
	ParkingOnstreet ParkingKind = iota
	ParkingOffstreet
	ParkingLot
)

// ParkingSpot is one physical space. Comparable, usable as a map key.
type ParkingSpot struct {
	Kind     ParkingKind
	Lane     LaneID
	Building BuildingID
	Lot      ParkingLotID
	Idx      int
}

func (s ParkingSpot) String() string {
	switch s.Kind {
	case ParkingOnstreet:
		return fmt.Sprintf("onstreet %s #%d", s.Lane, s.Idx)
	case ParkingOffstreet:
		return fmt.Sprintf("offstreet %s #%d", s.Building, s.Idx)
	case ParkingLot:
		return fmt.Sprintf("%s #%d", s.Lot, s.Idx)
	}
	return fmt.Sprintf("ParkingSpot(kind=%d)", int(s.Kind))
}

// TripInfo is metadata submitted alongside every TripSpec.
type TripInfo struct {
	Departure          Time
	Mode               TripMode
	Start              TripEndpoint
	End                TripEndpoint
	Purpose            TripPurpose
	Modified           bool
	Capped             bool
	CancellationReason *string
}

// TripSpec is a runnable command for the simulator. The set of
// implementations is closed; switch over them exhaustively.
type TripSpec interface {
	// Kind is a short stable name, used for logging and labels.
	Kind() string
	isTripSpec()
}

// VehicleAppearing spawns a vehicle directly onto a lane.
type VehicleAppearing struct {
	StartPos      Position
	Goal          DrivingGoal
	UseVehicle    CarID
	RetryIfNoRoom bool
}

// UsingParkedCar walks from a building to its car, then drives.
type UsingParkedCar struct {
	Car       CarID
	StartBldg BuildingID
	Goal      DrivingGoal
}

// UsingBike walks from a building, unlocks the bike, then rides.
type UsingBike struct {
	Bike  CarID
	Start BuildingID
	Goal  DrivingGoal
}

type JustWalking struct {
	Start SidewalkSpot
	Goal  SidewalkSpot
}

type UsingTransit struct {
	Start      SidewalkSpot
	Goal       SidewalkSpot
	Route      TransitRouteID
	Stop1      TransitStopID
	MaybeStop2 *TransitStopID
}

// SpawningFailure means the trip can't be realized on this map. The
// simulator records it as cancelled.
type SpawningFailure struct {
	UseVehicle *CarID
	Error      string
}

func (VehicleAppearing) Kind() string { return "vehicle_appearing" }
func (UsingParkedCar) Kind() string   { return "using_parked_car" }
func (UsingBike) Kind() string        { return "using_bike" }
func (JustWalking) Kind() string      { return "just_walking" }
func (UsingTransit) Kind() string     { return "using_transit" }
func (SpawningFailure) Kind() string  { return "spawning_failure" }

func (VehicleAppearing) isTripSpec() {}
func (UsingParkedCar) isTripSpec()   {}
func (UsingBike) isTripSpec()        {}
func (JustWalking) isTripSpec()      {}
func (UsingTransit) isTripSpec()     {}
func (SpawningFailure) isTripSpec()  {}
