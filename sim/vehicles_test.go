package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVehicles_WalkAndTransitNeedNothing(t *testing.T) {
	p := PersonSpec{ID: 0, Trips: []IndividTrip{
		trip(8, AtBuilding(1), AtBuilding(2), TripModeWalk),
		trip(12, AtBuilding(2), AtBuilding(3), TripModeTransit),
		trip(17, AtBuilding(3), AtBuilding(1), TripModeWalk),
	}}
	alloc := p.GetVehicles(newRand(1))
	assert.Empty(t, alloc.Specs)
	assert.Empty(t, alloc.InitiallyParked)
	assert.Equal(t, []int{NoVehicle, NoVehicle, NoVehicle}, alloc.PerTrip)
}

func TestGetVehicles_ChainedDrivesShareOneCar(t *testing.T) {
	p := PersonSpec{ID: 0, Trips: []IndividTrip{
		trip(8, AtBuilding(1), AtBuilding(2), TripModeDrive),
		trip(12, AtBuilding(2), AtBuilding(3), TripModeDrive),
		trip(17, AtBuilding(3), AtBuilding(1), TripModeDrive),
	}}
	alloc := p.GetVehicles(newRand(1))
	require.Len(t, alloc.Specs, 1)
	assert.Equal(t, VehicleCar, alloc.Specs[0].Type)
	assert.Equal(t, []ParkedAt{{VehicleIdx: 0, Building: 1}}, alloc.InitiallyParked)
	assert.Equal(t, []int{0, 0, 0}, alloc.PerTrip)
}

func TestGetVehicles_WalkThenDriveFromElsewhereNeedsSecondCar(t *testing.T) {
	p := PersonSpec{ID: 0, Trips: []IndividTrip{
		trip(8, AtBuilding(1), AtBuilding(2), TripModeDrive),
		trip(12, AtBuilding(2), AtBuilding(3), TripModeWalk),
		trip(17, AtBuilding(3), AtBuilding(1), TripModeDrive),
	}}
	alloc := p.GetVehicles(newRand(1))
	require.Len(t, alloc.Specs, 2)
	assert.Equal(t, []ParkedAt{{VehicleIdx: 0, Building: 1}, {VehicleIdx: 1, Building: 3}}, alloc.InitiallyParked)
	assert.Equal(t, []int{0, NoVehicle, 1}, alloc.PerTrip)
}

func TestGetVehicles_BorderRoundTripReusesOffMapCar(t *testing.T) {
	p := PersonSpec{ID: 0, Trips: []IndividTrip{
		trip(8, AtBorder(5), AtBuilding(1), TripModeDrive),
		trip(12, AtBuilding(1), AtBorder(6), TripModeDrive),
		trip(17, AtBorder(7), AtBuilding(2), TripModeDrive),
	}}
	alloc := p.GetVehicles(newRand(1))
	require.Len(t, alloc.Specs, 1)
	assert.Empty(t, alloc.InitiallyParked, "a car entering from a border starts off-map")
	assert.Equal(t, []int{0, 0, 0}, alloc.PerTrip)
}

func TestGetVehicles_OneBikeForAllBikeTrips(t *testing.T) {
	p := PersonSpec{ID: 0, Trips: []IndividTrip{
		trip(7, AtBuilding(1), AtBuilding(2), TripModeWalk),
		trip(8, AtBuilding(2), AtBuilding(3), TripModeBike),
		trip(12, AtBuilding(3), AtBuilding(4), TripModeBike),
	}}
	alloc := p.GetVehicles(newRand(1))
	require.Len(t, alloc.Specs, 1)
	bike := alloc.Specs[0]
	assert.Equal(t, VehicleBike, bike.Type)
	assert.Equal(t, BikeLength, bike.Length)
	require.NotNil(t, bike.MaxSpeed)
	assert.GreaterOrEqual(t, float64(*bike.MaxSpeed), float64(MilesPerHour(8)))
	assert.Less(t, float64(*bike.MaxSpeed), float64(MaxBikeSpeed()))
	assert.Empty(t, alloc.InitiallyParked)
	assert.Equal(t, []int{NoVehicle, 0, 0}, alloc.PerTrip)
}

func TestGetVehicles_NeverMoreCarsThanDrives(t *testing.T) {
	rng := newRand(99)
	bldgs := []TripEndpoint{AtBuilding(1), AtBuilding(2), AtBuilding(3), AtBorder(9)}
	modes := []TripMode{TripModeWalk, TripModeBike, TripModeTransit, TripModeDrive}
	for n := 0; n < 200; n++ {
		var trips []IndividTrip
		drives := 0
		for i := 0; i < 1+rng.Intn(6); i++ {
			mode := modes[rng.Intn(len(modes))]
			if mode == TripModeDrive {
				drives++
			}
			trips = append(trips, trip(float64(i+1), bldgs[rng.Intn(len(bldgs))], bldgs[rng.Intn(len(bldgs))], mode))
		}
		p := PersonSpec{Trips: trips}
		alloc := p.GetVehicles(newRand(int64(n)))

		cars := 0
		for _, s := range alloc.Specs {
			if s.Type == VehicleCar {
				cars++
				assert.GreaterOrEqual(t, float64(s.Length), float64(MinCarLength))
				assert.Less(t, float64(s.Length), float64(MaxCarLength))
			}
		}
		assert.LessOrEqual(t, cars, drives)
		require.Len(t, alloc.PerTrip, len(trips))
		for i, idx := range alloc.PerTrip {
			switch trips[i].Mode {
			case TripModeWalk, TripModeTransit:
				assert.Equal(t, NoVehicle, idx)
			default:
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, len(alloc.Specs))
			}
		}
	}
}

func TestRandSamplers_PanicOnEmptyRange(t *testing.T) {
	assert.Panics(t, func() { RandDist(newRand(1), 5, 5) })
	assert.Panics(t, func() { RandSpeed(newRand(1), 3, 2) })
}

func TestRandPedSpeed_InRange(t *testing.T) {
	rng := newRand(3)
	for i := 0; i < 100; i++ {
		s := RandPedSpeed(rng)
		assert.GreaterOrEqual(t, float64(s), float64(MilesPerHour(2)))
		assert.Less(t, float64(s), float64(MaxPedSpeed()))
	}
}
