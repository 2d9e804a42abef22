package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spawnFixture: buildings 1 and 2 with sidewalks, border 9 feeding road 4
// forward, one transit route between the two sidewalks.
func spawnFixture() *fakeMap {
	m := newFakeMap()
	b1, b2, border := AtBuilding(1), AtBuilding(2), AtBorder(9)
	m.sidewalk(b1, 10)
	m.sidewalk(b2, 20)
	m.sidewalk(border, 40)
	for _, c := range []PathConstraints{ConstraintCar, ConstraintBike} {
		m.goals[goalKey{b1, c}] = ParkNear(1)
		m.goals[goalKey{b2, c}] = ParkNear(2)
	}
	m.goals[goalKey{border, ConstraintCar}] = EndAtBorder(DirectedRoadID{Road: 4, Forward: false}, []LaneID{41})
	m.outgoing[9] = DirectedRoadID{Road: 4, Forward: true}
	m.lanes[lanesKey{DirectedRoadID{Road: 4, Forward: true}, ConstraintCar}] = []LaneID{42, 43, 44}
	stop2 := TransitStopID(2)
	m.transit[[2]Position{{Lane: 10, Dist: 10}, {Lane: 20, Dist: 10}}] = TransitRide{Route: 7, Board: 1, Alight: &stop2}
	return m
}

func TestResolveTrip_Classification(t *testing.T) {
	m := spawnFixture()
	car := &CarID{ID: 3, Type: VehicleCar}
	bike := &CarID{ID: 4, Type: VehicleBike}
	appear := SuddenlyAppear(Position{Lane: 42, Dist: 3})

	tests := []struct {
		name    string
		trip    IndividTrip
		vehicle *CarID
		want    TripSpec
	}{
		{
			name:    "drive from building",
			trip:    trip(8, AtBuilding(1), AtBuilding(2), TripModeDrive),
			vehicle: car,
			want:    UsingParkedCar{Car: *car, StartBldg: 1, Goal: ParkNear(2)},
		},
		{
			name:    "bike from building",
			trip:    trip(8, AtBuilding(1), AtBuilding(2), TripModeBike),
			vehicle: bike,
			want:    UsingBike{Bike: *bike, Start: 1, Goal: ParkNear(2)},
		},
		{
			name: "walk",
			trip: trip(8, AtBuilding(1), AtBuilding(2), TripModeWalk),
			want: JustWalking{Start: m.sidewalks[AtBuilding(1)], Goal: m.sidewalks[AtBuilding(2)]},
		},
		{
			name: "transit with a ride",
			trip: trip(8, AtBuilding(1), AtBuilding(2), TripModeTransit),
			want: UsingTransit{
				Start:      m.sidewalks[AtBuilding(1)],
				Goal:       m.sidewalks[AtBuilding(2)],
				Route:      7,
				Stop1:      1,
				MaybeStop2: m.transit[[2]Position{{Lane: 10, Dist: 10}, {Lane: 20, Dist: 10}}].Alight,
			},
		},
		{
			name: "transit without a ride walks",
			trip: trip(8, AtBuilding(2), AtBuilding(1), TripModeTransit),
			want: JustWalking{Start: m.sidewalks[AtBuilding(2)], Goal: m.sidewalks[AtBuilding(1)]},
		},
		{
			name:    "drive out to a border",
			trip:    trip(8, AtBuilding(1), AtBorder(9), TripModeDrive),
			vehicle: car,
			want:    UsingParkedCar{Car: *car, StartBldg: 1, Goal: EndAtBorder(DirectedRoadID{Road: 4, Forward: false}, []LaneID{41})},
		},
		{
			name:    "sudden appear drives as a car",
			trip:    trip(8, appear, AtBuilding(2), TripModeDrive),
			vehicle: car,
			want:    VehicleAppearing{StartPos: appear.Position, Goal: ParkNear(2), UseVehicle: *car, RetryIfNoRoom: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTrip(tt.trip, tt.vehicle, true, newRand(1), m)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTrip_FromBorderPicksOneOfTheLanes(t *testing.T) {
	m := spawnFixture()
	car := &CarID{ID: 0, Type: VehicleCar}
	seen := make(map[LaneID]bool)
	for seed := int64(0); seed < 50; seed++ {
		got := ResolveTrip(trip(8, AtBorder(9), AtBuilding(1), TripModeDrive), car, false, newRand(seed), m)
		va, ok := got.(VehicleAppearing)
		require.True(t, ok, "got %T", got)
		assert.Equal(t, SpawnDist, va.StartPos.Dist)
		assert.Contains(t, []LaneID{42, 43, 44}, va.StartPos.Lane)
		assert.False(t, va.RetryIfNoRoom)
		seen[va.StartPos.Lane] = true
	}
	assert.Len(t, seen, 3, "every lane should be chosen for some seed")
}

func TestResolveTrip_Failures(t *testing.T) {
	m := spawnFixture()
	car := &CarID{ID: 5, Type: VehicleCar}

	tests := []struct {
		name    string
		trip    IndividTrip
		vehicle *CarID
		msg     string
	}{
		{
			name:    "no driving goal",
			trip:    trip(8, AtBuilding(1), AtBuilding(3), TripModeDrive),
			vehicle: car,
			msg:     "no Car driving goal",
		},
		{
			name:    "bike to a border with no bike lanes out",
			trip:    trip(8, AtBuilding(1), AtBorder(9), TripModeBike),
			vehicle: &CarID{ID: 6, Type: VehicleBike},
			msg:     "no Bike driving goal",
		},
		{
			name: "walk from a building without sidewalk",
			trip: trip(8, AtBuilding(3), AtBuilding(1), TripModeWalk),
			msg:  "no sidewalk to start from",
		},
		{
			name: "walk to a building without sidewalk",
			trip: trip(8, AtBuilding(1), AtBuilding(3), TripModeWalk),
			msg:  "no sidewalk to end at",
		},
		{
			name:    "border without outgoing road",
			trip:    trip(8, AtBorder(8), AtBuilding(1), TripModeDrive),
			vehicle: car,
			msg:     "has no outgoing road",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTrip(tt.trip, tt.vehicle, true, newRand(1), m)
			f, ok := got.(SpawningFailure)
			require.True(t, ok, "got %T", got)
			assert.Contains(t, f.Error, tt.msg)
			assert.Equal(t, tt.vehicle, f.UseVehicle)
		})
	}
}

func TestResolveTrip_BorderWithoutSpawnLanes(t *testing.T) {
	m := spawnFixture()
	delete(m.lanes, lanesKey{DirectedRoadID{Road: 4, Forward: true}, ConstraintCar})
	car := &CarID{ID: 1, Type: VehicleCar}

	got := ResolveTrip(trip(8, AtBorder(9), AtBuilding(1), TripModeDrive), car, true, newRand(1), m)
	f, ok := got.(SpawningFailure)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, car, f.UseVehicle)
	assert.Contains(t, f.Error, "no lanes")
}

func TestResolveTrip_VehicleTripWithoutVehiclePanics(t *testing.T) {
	m := spawnFixture()
	assert.Panics(t, func() {
		ResolveTrip(trip(8, AtBuilding(1), AtBuilding(2), TripModeDrive), nil, true, newRand(1), m)
	})
}

func TestTripSpec_Kinds(t *testing.T) {
	kinds := map[string]TripSpec{
		"vehicle_appearing": VehicleAppearing{},
		"using_parked_car":  UsingParkedCar{},
		"using_bike":        UsingBike{},
		"just_walking":      JustWalking{},
		"using_transit":     UsingTransit{},
		"spawning_failure":  SpawningFailure{},
	}
	for want, spec := range kinds {
		assert.Equal(t, want, spec.Kind())
	}
}
