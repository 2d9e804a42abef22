// Package recorder is an in-memory sim.Simulator. It owns parking
// occupancy, hands out vehicle IDs and records every command it receives in
// order, which makes it the reference collaborator for tests and dry runs.
package recorder

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim"
)

// ParkingInventory lists every physical parking spot in a stable order.
type ParkingInventory interface {
	AllParkingSpots() []sim.ParkingSpot
}

// blackholer is optionally implemented by a ParkingInventory to mark
// buildings no car can reach.
type blackholer interface {
	Blackholed(b sim.BuildingID) bool
}

// ParkedCar is a seeded (vehicle, spot) pair.
type ParkedCar struct {
	Vehicle sim.Vehicle
	Spot    sim.ParkingSpot
}

// Recorder implements sim.Simulator.
type Recorder struct {
	name            string
	infiniteParking bool
	spots           []sim.ParkingSpot
	blackholes      blackholer
	occupied        map[sim.ParkingSpot]sim.CarID
	// offstreetUsed counts seeded off-street cars per building.
	offstreetUsed map[sim.BuildingID]int
	people        []*sim.Person
	peopleByID    map[sim.PersonID]*sim.Person
	nextCarID     int
	transit       []sim.TransitRoute
	parked        []ParkedCar
	trips         []sim.ScheduledTrip
	flushed       bool
}

var _ sim.Simulator = (*Recorder)(nil)

// New creates a Recorder whose parking supply comes from inv. With
// infiniteParking, every building is treated as having unlimited off-street
// capacity.
func New(inv ParkingInventory, infiniteParking bool) *Recorder {
	r := &Recorder{
		infiniteParking: infiniteParking,
		spots:           inv.AllParkingSpots(),
		occupied:        make(map[sim.ParkingSpot]sim.CarID),
		offstreetUsed:   make(map[sim.BuildingID]int),
		peopleByID:      make(map[sim.PersonID]*sim.Person),
	}
	if bh, ok := inv.(blackholer); ok {
		r.blackholes = bh
	}
	return r
}

func (r *Recorder) SetName(name string) { r.name = name }

// Name is the scenario name set by the orchestrator.
func (r *Recorder) Name() string { return r.name }

func (r *Recorder) SeedTransitRoute(route sim.TransitRoute) {
	r.transit = append(r.transit, route)
}

// NewPerson registers a person and assigns vehicle IDs sequentially.
// Panics on a duplicate person ID.
func (r *Recorder) NewPerson(id sim.PersonID, origID *sim.OrigPersonID, pedSpeed sim.Speed, specs []sim.VehicleSpec) *sim.Person {
	if _, dup := r.peopleByID[id]; dup {
		panic(fmt.Sprintf("%s registered twice", id))
	}
	p := &sim.Person{ID: id, OrigID: origID, PedSpeed: pedSpeed}
	for _, spec := range specs {
		p.Vehicles = append(p.Vehicles, spec.MakeVehicle(sim.CarID{ID: r.nextCarID, Type: spec.Type}, id))
		r.nextCarID++
	}
	r.people = append(r.people, p)
	r.peopleByID[id] = p
	return p
}

func (r *Recorder) InfiniteParking() bool { return r.infiniteParking }

// FreeOffstreetSpots hands out a fresh spot index per request in infinite
// mode, so the building never fills up unless it is blackholed.
func (r *Recorder) FreeOffstreetSpots(b sim.BuildingID) []sim.ParkingSpot {
	if r.infiniteParking {
		if r.blackholes != nil && r.blackholes.Blackholed(b) {
			return nil
		}
		return []sim.ParkingSpot{{Kind: sim.ParkingOffstreet, Building: b, Idx: r.offstreetUsed[b]}}
	}
	return lo.Filter(r.spots, func(s sim.ParkingSpot, _ int) bool {
		_, taken := r.occupied[s]
		return !taken && s.Kind == sim.ParkingOffstreet && s.Building == b
	})
}

func (r *Recorder) AllParkingSpots() []sim.ParkingSpot {
	return lo.Filter(r.spots, func(s sim.ParkingSpot, _ int) bool {
		_, taken := r.occupied[s]
		return !taken
	})
}

// SeedParkedCar panics if the spot is already taken.
func (r *Recorder) SeedParkedCar(v sim.Vehicle, spot sim.ParkingSpot) {
	if other, taken := r.occupied[spot]; taken {
		panic(fmt.Sprintf("can't seed %s at %s, %s is already there", v.ID, spot, other))
	}
	r.occupied[spot] = v.ID
	if spot.Kind == sim.ParkingOffstreet {
		r.offstreetUsed[spot.Building]++
	}
	r.parked = append(r.parked, ParkedCar{Vehicle: v, Spot: spot})
}

// FlushSpawner records every scheduled trip. Panics if called twice.
func (r *Recorder) FlushSpawner(spawner *sim.TripSpawner) {
	if r.flushed {
		panic("Recorder.FlushSpawner called more than once")
	}
	r.flushed = true
	r.trips = append(r.trips, spawner.Trips()...)
	logrus.Debugf("%s: flushed %d trips, %d parked cars", r.name, len(r.trips), len(r.parked))
}

// People returns registered people in registration order.
func (r *Recorder) People() []*sim.Person { return r.people }

// TransitRoutes returns seeded routes in seeding order.
func (r *Recorder) TransitRoutes() []sim.TransitRoute { return r.transit }

// ParkedCars returns seeded cars in seeding order.
func (r *Recorder) ParkedCars() []ParkedCar { return r.parked }

// Trips returns flushed trips in submission order.
func (r *Recorder) Trips() []sim.ScheduledTrip { return r.trips }
