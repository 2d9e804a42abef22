package sim

import (
	"fmt"
	"math/rand"
)

// spawnTrip is how a declarative trip realizes physically, before any
// random choice is made. Closed set; see newSpawnTrip.
type spawnTrip interface {
	isSpawnTrip()
}

// spawnVehicleAppearing is only for interactive / debug trips.
type spawnVehicleAppearing struct {
	start  Position
	goal   DrivingGoal
	isBike bool
}

// spawnFromBorder covers cars and bikes entering the map. Bikes starting
// at a border use this, not spawnUsingBike, which implies walk->bike.
type spawnFromBorder struct {
	dr     DirectedRoadID
	goal   DrivingGoal
	isBike bool
}

type spawnUsingParkedCar struct {
	start BuildingID
	goal  DrivingGoal
}

type spawnUsingBike struct {
	start BuildingID
	goal  DrivingGoal
}

type spawnJustWalking struct {
	start SidewalkSpot
	goal  SidewalkSpot
}

type spawnUsingTransit struct {
	start SidewalkSpot
	goal  SidewalkSpot
	ride  TransitRide
}

func (spawnVehicleAppearing) isSpawnTrip() {}
func (spawnFromBorder) isSpawnTrip()       {}
func (spawnUsingParkedCar) isSpawnTrip()   {}
func (spawnUsingBike) isSpawnTrip()        {}
func (spawnJustWalking) isSpawnTrip()      {}
func (spawnUsingTransit) isSpawnTrip()     {}

// newSpawnTrip classifies a trip by mode and endpoint kind. It fails only
// when geometry makes the trip impossible: no driving goal, no outgoing
// road at a border, no sidewalk at an endpoint.
func newSpawnTrip(from, to TripEndpoint, mode TripMode, m Map) (spawnTrip, error) {
	switch mode {
	case TripModeDrive:
		return newVehicleSpawn(from, to, ConstraintCar, m)
	case TripModeBike:
		return newVehicleSpawn(from, to, ConstraintBike, m)
	case TripModeWalk:
		start, goal, err := sidewalkSpots(from, to, m)
		if err != nil {
			return nil, err
		}
		return spawnJustWalking{start: start, goal: goal}, nil
	case TripModeTransit:
		start, goal, err := sidewalkSpots(from, to, m)
		if err != nil {
			return nil, err
		}
		if ride, ok := m.ShouldUseTransit(start.Pos, goal.Pos); ok {
			return spawnUsingTransit{start: start, goal: goal, ride: ride}, nil
		}
		// Walking always works; not worth failing over.
		return spawnJustWalking{start: start, goal: goal}, nil
	}
	return nil, fmt.Errorf("unknown trip mode %d", mode)
}

func newVehicleSpawn(from, to TripEndpoint, c PathConstraints, m Map) (spawnTrip, error) {
	isBike := c == ConstraintBike
	goal, ok := m.DrivingGoal(to, c)
	if !ok {
		return nil, fmt.Errorf("no %s driving goal for %s", c, to)
	}
	switch from.Kind {
	case EndpointBuilding:
		if isBike {
			return spawnUsingBike{start: from.Building, goal: goal}, nil
		}
		return spawnUsingParkedCar{start: from.Building, goal: goal}, nil
	case EndpointBorder:
		dr, ok := m.OutgoingRoad(from.Border)
		if !ok {
			return nil, fmt.Errorf("%s has no outgoing road", from.Border)
		}
		return spawnFromBorder{dr: dr, goal: goal, isBike: isBike}, nil
	case EndpointSuddenAppear:
		return spawnVehicleAppearing{start: from.Position, goal: goal, isBike: isBike}, nil
	}
	return nil, fmt.Errorf("unknown endpoint kind %d", from.Kind)
}

func sidewalkSpots(from, to TripEndpoint, m Map) (SidewalkSpot, SidewalkSpot, error) {
	start, ok := m.StartSidewalkSpot(from)
	if !ok {
		return SidewalkSpot{}, SidewalkSpot{}, fmt.Errorf("%s has no sidewalk to start from", from)
	}
	goal, ok := m.EndSidewalkSpot(to)
	if !ok {
		return SidewalkSpot{}, SidewalkSpot{}, fmt.Errorf("%s has no sidewalk to end at", to)
	}
	return start, goal, nil
}

// toTripSpec makes any remaining random choice and produces the runnable
// spec. rng must be forked for this trip alone. vehicle is nil only for
// walking and transit trips.
func toTripSpec(st spawnTrip, vehicle *CarID, retryIfNoRoom bool, rng *rand.Rand, m Map) TripSpec {
	switch t := st.(type) {
	case spawnVehicleAppearing:
		return VehicleAppearing{
			StartPos:      t.start,
			Goal:          t.goal,
			UseVehicle:    mustVehicle(vehicle, t),
			RetryIfNoRoom: retryIfNoRoom,
		}
	case spawnFromBorder:
		c := ConstraintCar
		if t.isBike {
			c = ConstraintBike
		}
		lanes := m.Lanes(t.dr, c)
		if len(lanes) == 0 {
			return SpawningFailure{
				UseVehicle: vehicle,
				Error:      fmt.Sprintf("%s has no lanes to spawn a %s", t.dr, c),
			}
		}
		return VehicleAppearing{
			StartPos:      Position{Lane: lanes[rng.Intn(len(lanes))], Dist: SpawnDist},
			Goal:          t.goal,
			UseVehicle:    mustVehicle(vehicle, t),
			RetryIfNoRoom: retryIfNoRoom,
		}
	case spawnUsingParkedCar:
		return UsingParkedCar{Car: mustVehicle(vehicle, t), StartBldg: t.start, Goal: t.goal}
	case spawnUsingBike:
		return UsingBike{Bike: mustVehicle(vehicle, t), Start: t.start, Goal: t.goal}
	case spawnJustWalking:
		return JustWalking{Start: t.start, Goal: t.goal}
	case spawnUsingTransit:
		return UsingTransit{
			Start:      t.start,
			Goal:       t.goal,
			Route:      t.ride.Route,
			Stop1:      t.ride.Board,
			MaybeStop2: t.ride.Alight,
		}
	}
	panic(fmt.Sprintf("unhandled spawn trip %T", st))
}

// mustVehicle enforces that the allocator gave every vehicle trip a vehicle.
func mustVehicle(vehicle *CarID, st spawnTrip) CarID {
	if vehicle == nil {
		panic(fmt.Sprintf("%T spawn has no vehicle allocated", st))
	}
	return *vehicle
}

// ResolveTrip turns one declarative trip into a TripSpec. Failures to
// classify become a SpawningFailure carrying the allocated vehicle.
func ResolveTrip(trip IndividTrip, vehicle *CarID, retryIfNoRoom bool, rng *rand.Rand, m Map) TripSpec {
	st, err := newSpawnTrip(trip.From, trip.To, trip.Mode, m)
	if err != nil {
		return SpawningFailure{UseVehicle: vehicle, Error: err.Error()}
	}
	return toTripSpec(st, vehicle, retryIfNoRoom, rng, m)
}
