package sim

import (
	"math/rand"
	"sort"
)

type goalKey struct {
	to TripEndpoint
	c  PathConstraints
}

type lanesKey struct {
	dr DirectedRoadID
	c  PathConstraints
}

// fakeMap is a hand-wired Map for package-internal tests. Unset lookups fail.
type fakeMap struct {
	roads       []RoadID
	next        map[RoadID][]RoadID
	bldgRoad    map[BuildingID]RoadID
	bldgParking map[BuildingID]OffstreetParking
	laneRoad    map[LaneID]RoadID
	lotRoad     map[ParkingLotID]RoadID
	goals       map[goalKey]DrivingGoal
	sidewalks   map[TripEndpoint]SidewalkSpot
	transit     map[[2]Position]TransitRide
	outgoing    map[IntersectionID]DirectedRoadID
	lanes       map[lanesKey][]LaneID
	routes      []TransitRoute
}

func newFakeMap() *fakeMap {
	return &fakeMap{
		next:        make(map[RoadID][]RoadID),
		bldgRoad:    make(map[BuildingID]RoadID),
		bldgParking: make(map[BuildingID]OffstreetParking),
		laneRoad:    make(map[LaneID]RoadID),
		lotRoad:     make(map[ParkingLotID]RoadID),
		goals:       make(map[goalKey]DrivingGoal),
		sidewalks:   make(map[TripEndpoint]SidewalkSpot),
		transit:     make(map[[2]Position]TransitRide),
		outgoing:    make(map[IntersectionID]DirectedRoadID),
		lanes:       make(map[lanesKey][]LaneID),
	}
}

// connect adds roads and makes them mutually adjacent.
func (m *fakeMap) connect(a, b RoadID) {
	m.addRoad(a)
	m.addRoad(b)
	m.next[a] = append(m.next[a], b)
	m.next[b] = append(m.next[b], a)
}

func (m *fakeMap) addRoad(r RoadID) {
	for _, existing := range m.roads {
		if existing == r {
			return
		}
	}
	m.roads = append(m.roads, r)
	sort.Slice(m.roads, func(i, j int) bool { return m.roads[i] < m.roads[j] })
}

// sidewalk gives an endpoint a sidewalk spot on the given lane.
func (m *fakeMap) sidewalk(e TripEndpoint, lane LaneID) SidewalkSpot {
	spot := SidewalkSpot{Connection: e, Pos: Position{Lane: lane, Dist: 10}}
	m.sidewalks[e] = spot
	return spot
}

func (m *fakeMap) Name() string                     { return "fake" }
func (m *fakeMap) AllTransitRoutes() []TransitRoute { return m.routes }
func (m *fakeMap) AllRoads() []RoadID               { return m.roads }

func (m *fakeMap) DrivingGoal(to TripEndpoint, c PathConstraints) (DrivingGoal, bool) {
	g, ok := m.goals[goalKey{to, c}]
	return g, ok
}

func (m *fakeMap) StartSidewalkSpot(from TripEndpoint) (SidewalkSpot, bool) {
	s, ok := m.sidewalks[from]
	return s, ok
}

func (m *fakeMap) EndSidewalkSpot(to TripEndpoint) (SidewalkSpot, bool) {
	s, ok := m.sidewalks[to]
	return s, ok
}

func (m *fakeMap) ShouldUseTransit(start, goal Position) (TransitRide, bool) {
	r, ok := m.transit[[2]Position{start, goal}]
	return r, ok
}

func (m *fakeMap) OutgoingRoad(border IntersectionID) (DirectedRoadID, bool) {
	dr, ok := m.outgoing[border]
	return dr, ok
}

func (m *fakeMap) Lanes(dr DirectedRoadID, c PathConstraints) []LaneID {
	return m.lanes[lanesKey{dr, c}]
}

func (m *fakeMap) NextRoads(r RoadID) []RoadID                   { return m.next[r] }
func (m *fakeMap) BuildingRoad(b BuildingID) RoadID              { return m.bldgRoad[b] }
func (m *fakeMap) BuildingParking(b BuildingID) OffstreetParking { return m.bldgParking[b] }
func (m *fakeMap) LaneRoad(l LaneID) RoadID                      { return m.laneRoad[l] }
func (m *fakeMap) ParkingLotRoad(lot ParkingLotID) RoadID        { return m.lotRoad[lot] }

// fakeSim is a minimal Simulator for package-internal tests.
type fakeSim struct {
	infinite  bool
	free      []ParkingSpot
	offstreet map[BuildingID][]ParkingSpot
	seeded    map[ParkingSpot]CarID
	order     []ParkingSpot
	nextCar   int
}

func newFakeSim(free []ParkingSpot) *fakeSim {
	return &fakeSim{free: free, offstreet: make(map[BuildingID][]ParkingSpot), seeded: make(map[ParkingSpot]CarID)}
}

func (s *fakeSim) SetName(string)                {}
func (s *fakeSim) SeedTransitRoute(TransitRoute) {}
func (s *fakeSim) NewPerson(id PersonID, orig *OrigPersonID, speed Speed, specs []VehicleSpec) *Person {
	p := &Person{ID: id, OrigID: orig, PedSpeed: speed}
	for _, spec := range specs {
		p.Vehicles = append(p.Vehicles, spec.MakeVehicle(CarID{ID: s.nextCar, Type: spec.Type}, id))
		s.nextCar++
	}
	return p
}
func (s *fakeSim) InfiniteParking() bool { return s.infinite }
func (s *fakeSim) FreeOffstreetSpots(b BuildingID) []ParkingSpot {
	return s.offstreet[b]
}
func (s *fakeSim) AllParkingSpots() []ParkingSpot { return s.free }
func (s *fakeSim) SeedParkedCar(v Vehicle, spot ParkingSpot) {
	if _, taken := s.seeded[spot]; taken {
		panic("spot seeded twice")
	}
	s.seeded[spot] = v.ID
	s.order = append(s.order, spot)
}
func (s *fakeSim) FlushSpawner(*TripSpawner) {}

func onstreet(lane LaneID, idx int) ParkingSpot {
	return ParkingSpot{Kind: ParkingOnstreet, Lane: lane, Idx: idx}
}

func offstreetSpot(b BuildingID, idx int) ParkingSpot {
	return ParkingSpot{Kind: ParkingOffstreet, Building: b, Idx: idx}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func trip(depart float64, from, to TripEndpoint, mode TripMode) IndividTrip {
	return NewIndividTrip(Hours(depart), PurposeWork, from, to, mode)
}
