package sim

import "time"

// Person is a person as registered with the simulator. Vehicles line up
// index-for-index with the VehicleSpecs passed to NewPerson.
type Person struct {
	ID       PersonID
	OrigID   *OrigPersonID
	PedSpeed Speed
	Vehicles []Vehicle
}

// Simulator is the runtime that consumes instantiation output. Only the
// orchestrator calls it, from a single goroutine.
type Simulator interface {
	SetName(name string)
	SeedTransitRoute(route TransitRoute)
	NewPerson(id PersonID, origID *OrigPersonID, pedSpeed Speed, vehicles []VehicleSpec) *Person

	// InfiniteParking means every building can hold any number of cars.
	InfiniteParking() bool
	// FreeOffstreetSpots lists the free spots at a building.
	FreeOffstreetSpots(b BuildingID) []ParkingSpot
	// AllParkingSpots lists every free spot in a stable order.
	AllParkingSpots() []ParkingSpot
	SeedParkedCar(v Vehicle, spot ParkingSpot)

	// FlushSpawner hands over every scheduled trip, after parked cars are seeded.
	FlushSpawner(spawner *TripSpawner)
}

// Observer receives progress from an instantiation run. Calls happen on the
// orchestrator goroutine.
type Observer interface {
	PersonRegistered(numVehicles int)
	TripScheduled(spec TripSpec)
	ParkingSeeded(report ParkingReport)
	PhaseDone(phase string, elapsed time.Duration)
}

// ScheduledTrip is one (person, spec, metadata) submission.
type ScheduledTrip struct {
	Person PersonID
	Spec   TripSpec
	Info   TripInfo
}

// TripSpawner collects scheduled trips in submission order. Submission order
// breaks ties in the simulator, so callers must append deterministically.
type TripSpawner struct {
	trips []ScheduledTrip
}

func NewTripSpawner() *TripSpawner {
	return &TripSpawner{}
}

// ScheduleTrip performs last-mile checks on a spec. It doesn't touch the
// spawner's state, so it's safe to call from many goroutines.
func (s *TripSpawner) ScheduleTrip(person PersonID, spec TripSpec, info TripInfo, m Map) ScheduledTrip {
	if walk, ok := spec.(JustWalking); ok && walk.Start.Pos == walk.Goal.Pos {
		spec = SpawningFailure{Error: "start and goal sidewalk spots are the same"}
	}
	return ScheduledTrip{Person: person, Spec: spec, Info: info}
}

// ScheduleTrips appends results in the given order.
func (s *TripSpawner) ScheduleTrips(trips []ScheduledTrip) {
	s.trips = append(s.trips, trips...)
}

// Trips returns everything scheduled so far.
func (s *TripSpawner) Trips() []ScheduledTrip {
	return s.trips
}
