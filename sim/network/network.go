// Package network is an in-memory road and transit network implementing
// sim.Map. It is immutable once built and safe for concurrent readers.
package network

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"

	"github.com/demand-sim/demand-sim/sim"
)

type laneKind int

const (
	laneDriving laneKind = iota
	laneBiking
	laneBus
	laneSidewalk
	laneParking
)

var laneKinds = map[string]laneKind{
	"driving":  laneDriving,
	"biking":   laneBiking,
	"bus":      laneBus,
	"sidewalk": laneSidewalk,
	"parking":  laneParking,
}

type lane struct {
	id      sim.LaneID
	road    sim.RoadID
	kind    laneKind
	forward bool
	spots   int
}

// admits reports whether a vehicle or pedestrian obeying c may use the lane.
func (l *lane) admits(c sim.PathConstraints) bool {
	switch c {
	case sim.ConstraintPedestrian:
		return l.kind == laneSidewalk
	case sim.ConstraintCar:
		return l.kind == laneDriving
	case sim.ConstraintBike:
		return l.kind == laneDriving || l.kind == laneBiking
	case sim.ConstraintBus:
		return l.kind == laneDriving || l.kind == laneBus
	}
	return false
}

type road struct {
	id     sim.RoadID
	from   sim.IntersectionID
	to     sim.IntersectionID
	lanes  []*lane
	length sim.Distance
}

type intersection struct {
	id     sim.IntersectionID
	border bool
	pos    orb.Point
	roads  []sim.RoadID
}

type building struct {
	id           sim.BuildingID
	road         sim.RoadID
	sidewalk     *sim.LaneID
	driving      *sim.LaneID
	parking      sim.OffstreetParking
	pos          orb.Point
	distFromRoad sim.Distance
}

type parkingLot struct {
	id    sim.ParkingLotID
	lane  sim.LaneID
	spots int
}

type transitStop struct {
	id  sim.TransitStopID
	pos sim.Position
}

type transitRoute struct {
	route sim.TransitRoute
	stops []transitStop
}

// Network implements sim.Map.
type Network struct {
	name          string
	intersections map[sim.IntersectionID]*intersection
	roads         map[sim.RoadID]*road
	roadIDs       []sim.RoadID
	lanes         map[sim.LaneID]*lane
	buildings     map[sim.BuildingID]*building
	buildingIDs   []sim.BuildingID
	lots          map[sim.ParkingLotID]*parkingLot
	lotIDs        []sim.ParkingLotID
	routes        []transitRoute
}

var _ sim.Map = (*Network)(nil)

// Load reads, validates and builds a network from a YAML file.
func Load(path string) (*Network, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return New(spec)
}

// New validates spec and builds the network.
func New(spec *Spec) (*Network, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network %q: %w", spec.Name, err)
	}
	n := &Network{
		name:          spec.Name,
		intersections: make(map[sim.IntersectionID]*intersection),
		roads:         make(map[sim.RoadID]*road),
		lanes:         make(map[sim.LaneID]*lane),
		buildings:     make(map[sim.BuildingID]*building),
		lots:          make(map[sim.ParkingLotID]*parkingLot),
	}
	for _, is := range spec.Intersections {
		id := sim.IntersectionID(is.ID)
		n.intersections[id] = &intersection{id: id, border: is.Border, pos: is.Pos}
	}
	for _, rs := range spec.Roads {
		r := &road{id: sim.RoadID(rs.ID), from: sim.IntersectionID(rs.From), to: sim.IntersectionID(rs.To)}
		r.length = sim.Distance(planar.Distance(n.intersections[r.from].pos, n.intersections[r.to].pos))
		for _, ls := range rs.Lanes {
			l := &lane{id: sim.LaneID(ls.ID), road: r.id, kind: laneKinds[ls.Kind], forward: ls.Dir == "fwd", spots: ls.Spots}
			r.lanes = append(r.lanes, l)
			n.lanes[l.id] = l
		}
		n.roads[r.id] = r
		n.roadIDs = append(n.roadIDs, r.id)
		n.intersections[r.from].roads = append(n.intersections[r.from].roads, r.id)
		n.intersections[r.to].roads = append(n.intersections[r.to].roads, r.id)
	}
	sort.Slice(n.roadIDs, func(i, j int) bool { return n.roadIDs[i] < n.roadIDs[j] })
	for _, in := range n.intersections {
		sort.Slice(in.roads, func(i, j int) bool { return in.roads[i] < in.roads[j] })
	}

	for _, bs := range spec.Buildings {
		b := &building{id: sim.BuildingID(bs.ID), road: sim.RoadID(bs.Road), pos: bs.Pos}
		if bs.Sidewalk != nil {
			l := sim.LaneID(*bs.Sidewalk)
			b.sidewalk = &l
		}
		if bs.Driving != nil {
			l := sim.LaneID(*bs.Driving)
			b.driving = &l
		}
		b.parking = offstreet(bs.Parking)
		b.distFromRoad = n.project(n.roads[b.road], b.pos)
		n.buildings[b.id] = b
		n.buildingIDs = append(n.buildingIDs, b.id)
	}
	sort.Slice(n.buildingIDs, func(i, j int) bool { return n.buildingIDs[i] < n.buildingIDs[j] })

	for _, ps := range spec.ParkingLots {
		pl := &parkingLot{id: sim.ParkingLotID(ps.ID), lane: sim.LaneID(ps.Lane), spots: ps.Spots}
		n.lots[pl.id] = pl
		n.lotIDs = append(n.lotIDs, pl.id)
	}
	sort.Slice(n.lotIDs, func(i, j int) bool { return n.lotIDs[i] < n.lotIDs[j] })

	for _, trs := range spec.TransitRoutes {
		tr := transitRoute{route: sim.TransitRoute{ID: sim.TransitRouteID(trs.ID), FullName: trs.Name}}
		for _, ss := range trs.Stops {
			stop := transitStop{id: sim.TransitStopID(ss.ID), pos: sim.Position{Lane: sim.LaneID(ss.Lane), Dist: sim.Distance(ss.Dist)}}
			tr.stops = append(tr.stops, stop)
			tr.route.Stops = append(tr.route.Stops, stop.id)
		}
		n.routes = append(n.routes, tr)
	}
	sort.Slice(n.routes, func(i, j int) bool { return n.routes[i].route.ID < n.routes[j].route.ID })
	return n, nil
}

func offstreet(p ParkingSpec) sim.OffstreetParking {
	switch p.Kind {
	case "public":
		return sim.OffstreetParking{Kind: sim.OffstreetPublicGarage, Capacity: p.Spots}
	case "private":
		return sim.OffstreetParking{Kind: sim.OffstreetPrivate, Capacity: p.Spots}
	}
	return sim.OffstreetParking{Kind: sim.OffstreetNone}
}

// project returns how far along r the closest point to pos lies.
func (n *Network) project(r *road, pos orb.Point) sim.Distance {
	a, b := n.intersections[r.from].pos, n.intersections[r.to].pos
	dx, dy := b[0]-a[0], b[1]-a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0
	}
	t := ((pos[0]-a[0])*dx + (pos[1]-a[1])*dy) / lenSq
	return sim.Distance(lo.Clamp(t, 0, 1)) * r.length
}

func (n *Network) Name() string { return n.name }

func (n *Network) AllTransitRoutes() []sim.TransitRoute {
	return lo.Map(n.routes, func(tr transitRoute, _ int) sim.TransitRoute { return tr.route })
}

func (n *Network) AllRoads() []sim.RoadID {
	return append([]sim.RoadID(nil), n.roadIDs...)
}

// DrivingGoal: buildings need a driving lane admitting c; borders need an
// incoming road with lanes admitting c. Sudden-appear points are never goals.
func (n *Network) DrivingGoal(to sim.TripEndpoint, c sim.PathConstraints) (sim.DrivingGoal, bool) {
	switch to.Kind {
	case sim.EndpointBuilding:
		b, ok := n.buildings[to.Building]
		if !ok || b.driving == nil || !n.lanes[*b.driving].admits(c) {
			return sim.DrivingGoal{}, false
		}
		return sim.ParkNear(b.id), true
	case sim.EndpointBorder:
		in, ok := n.intersections[to.Border]
		if !ok || !in.border {
			return sim.DrivingGoal{}, false
		}
		for _, rid := range in.roads {
			// The direction that ends at the border.
			dr := sim.DirectedRoadID{Road: rid, Forward: n.roads[rid].to == in.id}
			if lanes := n.Lanes(dr, c); len(lanes) > 0 {
				return sim.EndAtBorder(dr, lanes), true
			}
		}
	}
	return sim.DrivingGoal{}, false
}

func (n *Network) StartSidewalkSpot(from sim.TripEndpoint) (sim.SidewalkSpot, bool) {
	return n.sidewalkSpot(from)
}

func (n *Network) EndSidewalkSpot(to sim.TripEndpoint) (sim.SidewalkSpot, bool) {
	return n.sidewalkSpot(to)
}

func (n *Network) sidewalkSpot(e sim.TripEndpoint) (sim.SidewalkSpot, bool) {
	switch e.Kind {
	case sim.EndpointBuilding:
		b, ok := n.buildings[e.Building]
		if !ok || b.sidewalk == nil {
			return sim.SidewalkSpot{}, false
		}
		return sim.SidewalkSpot{Connection: e, Pos: sim.Position{Lane: *b.sidewalk, Dist: b.distFromRoad}}, true
	case sim.EndpointBorder:
		in, ok := n.intersections[e.Border]
		if !ok || !in.border {
			return sim.SidewalkSpot{}, false
		}
		for _, rid := range in.roads {
			r := n.roads[rid]
			for _, l := range r.lanes {
				if l.kind != laneSidewalk {
					continue
				}
				dist := sim.Distance(0)
				if r.to == in.id {
					dist = r.length
				}
				return sim.SidewalkSpot{Connection: e, Pos: sim.Position{Lane: l.id, Dist: dist}}, true
			}
		}
	case sim.EndpointSuddenAppear:
		if l, ok := n.lanes[e.Position.Lane]; ok && l.kind == laneSidewalk {
			return sim.SidewalkSpot{Connection: e, Pos: e.Position}, true
		}
	}
	return sim.SidewalkSpot{}, false
}

// ShouldUseTransit finds the first route (by ID) with a stop on the start's
// sidewalk followed later by a stop on the goal's sidewalk.
func (n *Network) ShouldUseTransit(start, goal sim.Position) (sim.TransitRide, bool) {
	if start.Lane == goal.Lane {
		return sim.TransitRide{}, false
	}
	for _, tr := range n.routes {
		board := -1
		for i, stop := range tr.stops {
			if board < 0 && stop.pos.Lane == start.Lane {
				board = i
				continue
			}
			if board >= 0 && stop.pos.Lane == goal.Lane {
				alight := stop.id
				return sim.TransitRide{Route: tr.route.ID, Board: tr.stops[board].id, Alight: &alight}, true
			}
		}
	}
	return sim.TransitRide{}, false
}

// OutgoingRoad picks the lowest-ID road leaving the border with any
// vehicle lane heading away from it.
func (n *Network) OutgoingRoad(border sim.IntersectionID) (sim.DirectedRoadID, bool) {
	in, ok := n.intersections[border]
	if !ok || !in.border {
		return sim.DirectedRoadID{}, false
	}
	for _, rid := range in.roads {
		dr := sim.DirectedRoadID{Road: rid, Forward: n.roads[rid].from == in.id}
		for _, l := range n.roads[rid].lanes {
			if l.forward == dr.Forward && (l.kind == laneDriving || l.kind == laneBiking || l.kind == laneBus) {
				return dr, true
			}
		}
	}
	return sim.DirectedRoadID{}, false
}

func (n *Network) Lanes(dr sim.DirectedRoadID, c sim.PathConstraints) []sim.LaneID {
	r, ok := n.roads[dr.Road]
	if !ok {
		return nil
	}
	var out []sim.LaneID
	for _, l := range r.lanes {
		if l.forward == dr.Forward && l.admits(c) {
			out = append(out, l.id)
		}
	}
	return out
}

// NextRoads lists roads sharing an intersection with r, ascending.
func (n *Network) NextRoads(r sim.RoadID) []sim.RoadID {
	rd, ok := n.roads[r]
	if !ok {
		return nil
	}
	next := append(append([]sim.RoadID{}, n.intersections[rd.from].roads...), n.intersections[rd.to].roads...)
	next = lo.Uniq(lo.Without(next, r))
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

func (n *Network) BuildingRoad(b sim.BuildingID) sim.RoadID {
	return n.mustBuilding(b).road
}

func (n *Network) BuildingParking(b sim.BuildingID) sim.OffstreetParking {
	return n.mustBuilding(b).parking
}

func (n *Network) LaneRoad(l sim.LaneID) sim.RoadID {
	ln, ok := n.lanes[l]
	if !ok {
		panic(fmt.Sprintf("network %s has no %s", n.name, l))
	}
	return ln.road
}

func (n *Network) ParkingLotRoad(lot sim.ParkingLotID) sim.RoadID {
	pl, ok := n.lots[lot]
	if !ok {
		panic(fmt.Sprintf("network %s has no %s", n.name, lot))
	}
	return n.LaneRoad(pl.lane)
}

func (n *Network) mustBuilding(b sim.BuildingID) *building {
	bldg, ok := n.buildings[b]
	if !ok {
		panic(fmt.Sprintf("network %s has no %s", n.name, b))
	}
	return bldg
}

// AllParkingSpots enumerates every physical spot: on-street lanes by road
// then lane order, then building garages, then lots.
func (n *Network) AllParkingSpots() []sim.ParkingSpot {
	var spots []sim.ParkingSpot
	for _, rid := range n.roadIDs {
		for _, l := range n.roads[rid].lanes {
			for i := 0; i < l.spots; i++ {
				spots = append(spots, sim.ParkingSpot{Kind: sim.ParkingOnstreet, Lane: l.id, Idx: i})
			}
		}
	}
	for _, bid := range n.buildingIDs {
		for i := 0; i < n.buildings[bid].parking.Capacity; i++ {
			spots = append(spots, sim.ParkingSpot{Kind: sim.ParkingOffstreet, Building: bid, Idx: i})
		}
	}
	for _, lid := range n.lotIDs {
		for i := 0; i < n.lots[lid].spots; i++ {
			spots = append(spots, sim.ParkingSpot{Kind: sim.ParkingLot, Lot: lid, Idx: i})
		}
	}
	return spots
}

// Blackholed reports whether no car can reach the building, i.e. it has
// no driving lane.
func (n *Network) Blackholed(b sim.BuildingID) bool {
	bldg, ok := n.buildings[b]
	return !ok || bldg.driving == nil
}

// Buildings lists building IDs in ascending order.
func (n *Network) Buildings() []sim.BuildingID {
	return append([]sim.BuildingID(nil), n.buildingIDs...)
}

// BuildingPos is a building's location.
func (n *Network) BuildingPos(b sim.BuildingID) orb.Point {
	return n.mustBuilding(b).pos
}

// Borders lists border intersections in ascending order.
func (n *Network) Borders() []sim.IntersectionID {
	var out []sim.IntersectionID
	for id, in := range n.intersections {
		if in.border {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
