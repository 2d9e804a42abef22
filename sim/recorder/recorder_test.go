package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demand-sim/demand-sim/sim"
)

type inventory struct {
	spots      []sim.ParkingSpot
	blackholes map[sim.BuildingID]bool
}

func (i inventory) AllParkingSpots() []sim.ParkingSpot { return i.spots }

func (i inventory) Blackholed(b sim.BuildingID) bool { return i.blackholes[b] }

func onstreet(lane sim.LaneID, idx int) sim.ParkingSpot {
	return sim.ParkingSpot{Kind: sim.ParkingOnstreet, Lane: lane, Idx: idx}
}

func offstreet(b sim.BuildingID, idx int) sim.ParkingSpot {
	return sim.ParkingSpot{Kind: sim.ParkingOffstreet, Building: b, Idx: idx}
}

func TestNewPerson_AssignsSequentialVehicleIDs(t *testing.T) {
	r := New(inventory{}, false)
	car := sim.VehicleSpec{Type: sim.VehicleCar, Length: 5}
	bike := sim.VehicleSpec{Type: sim.VehicleBike, Length: sim.BikeLength}

	p0 := r.NewPerson(0, nil, 1.2, []sim.VehicleSpec{car, bike})
	p1 := r.NewPerson(1, &sim.OrigPersonID{Household: 3}, 1.3, []sim.VehicleSpec{car})

	require.Len(t, p0.Vehicles, 2)
	assert.Equal(t, sim.CarID{ID: 0, Type: sim.VehicleCar}, p0.Vehicles[0].ID)
	assert.Equal(t, sim.CarID{ID: 1, Type: sim.VehicleBike}, p0.Vehicles[1].ID)
	assert.Equal(t, sim.PersonID(0), p0.Vehicles[1].Owner)
	assert.Equal(t, sim.CarID{ID: 2, Type: sim.VehicleCar}, p1.Vehicles[0].ID)
	assert.Equal(t, []*sim.Person{p0, p1}, r.People())

	assert.Panics(t, func() { r.NewPerson(1, nil, 1, nil) })
}

func TestParking_Constrained(t *testing.T) {
	inv := inventory{spots: []sim.ParkingSpot{onstreet(1, 0), onstreet(1, 1), offstreet(7, 0)}}
	r := New(inv, false)
	v := sim.Vehicle{ID: sim.CarID{ID: 4}}

	assert.Equal(t, []sim.ParkingSpot{offstreet(7, 0)}, r.FreeOffstreetSpots(7))
	r.SeedParkedCar(v, onstreet(1, 1))
	assert.Equal(t, []sim.ParkingSpot{onstreet(1, 0), offstreet(7, 0)}, r.AllParkingSpots())
	assert.Equal(t, []ParkedCar{{Vehicle: v, Spot: onstreet(1, 1)}}, r.ParkedCars())

	assert.Panics(t, func() { r.SeedParkedCar(sim.Vehicle{ID: sim.CarID{ID: 5}}, onstreet(1, 1)) })

	r.SeedParkedCar(v, offstreet(7, 0))
	assert.Empty(t, r.FreeOffstreetSpots(7))
}

func TestParking_Infinite(t *testing.T) {
	r := New(inventory{blackholes: map[sim.BuildingID]bool{9: true}}, true)
	assert.True(t, r.InfiniteParking())

	for i := 0; i < 3; i++ {
		spots := r.FreeOffstreetSpots(2)
		require.Len(t, spots, 1)
		assert.Equal(t, offstreet(2, i), spots[0])
		r.SeedParkedCar(sim.Vehicle{ID: sim.CarID{ID: i}}, spots[0])
	}
	assert.Empty(t, r.FreeOffstreetSpots(9))
}

func TestParking_InfiniteCountsPerBuilding(t *testing.T) {
	r := New(inventory{}, true)

	next := func(b sim.BuildingID, car int) sim.ParkingSpot {
		spots := r.FreeOffstreetSpots(b)
		require.Len(t, spots, 1)
		r.SeedParkedCar(sim.Vehicle{ID: sim.CarID{ID: car}}, spots[0])
		return spots[0]
	}

	r.SeedParkedCar(sim.Vehicle{ID: sim.CarID{ID: 100}}, onstreet(1, 0))
	assert.Equal(t, offstreet(2, 0), next(2, 0))
	assert.Equal(t, offstreet(3, 0), next(3, 1))
	assert.Equal(t, offstreet(2, 1), next(2, 2))

	for car := 3; car < 2000; car++ {
		next(4, car)
	}
	assert.Equal(t, []sim.ParkingSpot{offstreet(4, 1997)}, r.FreeOffstreetSpots(4))
	assert.Equal(t, []sim.ParkingSpot{offstreet(3, 1)}, r.FreeOffstreetSpots(3))
}

func TestFlushSpawner(t *testing.T) {
	r := New(inventory{}, false)
	r.SetName("weekday")
	r.SeedTransitRoute(sim.TransitRoute{ID: 3, FullName: "Route 3"})

	spawner := sim.NewTripSpawner()
	spawner.ScheduleTrips([]sim.ScheduledTrip{
		{Person: 0, Spec: sim.SpawningFailure{Error: "nope"}},
		{Person: 1, Spec: sim.JustWalking{}},
	})
	r.FlushSpawner(spawner)

	assert.Equal(t, "weekday", r.Name())
	assert.Equal(t, []sim.TransitRoute{{ID: 3, FullName: "Route 3"}}, r.TransitRoutes())
	require.Len(t, r.Trips(), 2)
	assert.Equal(t, sim.PersonID(1), r.Trips()[1].Person)
	assert.Panics(t, func() { r.FlushSpawner(spawner) })
}
