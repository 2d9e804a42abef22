package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ParkingReport summarizes the parked-car seeding pass.
type ParkingReport struct {
	Total  int
	Seeded int
	// Stranded cars got no spot because capacity ran out (constrained mode).
	Stranded int
	// Blackholed cars belong to buildings with no free spot (infinite-parking mode).
	Blackholed int
}

// parkedCar is a vehicle that should start the day parked near Building.
type parkedCar struct {
	vehicle  Vehicle
	building BuildingID
}

// openSpot is a free spot; if restricted, only cars for reservedFor may use it.
type openSpot struct {
	spot        ParkingSpot
	reservedFor BuildingID
	restricted  bool
}

// seedParkedCars gives each car a spot near its building. cars must
// already be in their final (shuffled) order.
func seedParkedCars(cars []parkedCar, sim Simulator, m Map, baseRNG *rand.Rand) ParkingReport {
	report := ParkingReport{Total: len(cars)}
	if sim.InfiniteParking() {
		for _, car := range cars {
			spots := sim.FreeOffstreetSpots(car.building)
			if len(spots) == 0 {
				report.Blackholed++
				continue
			}
			sim.SeedParkedCar(car.vehicle, spots[len(spots)-1])
			report.Seeded++
		}
		if report.Blackholed > 0 {
			logrus.Warnf("%d parked cars weren't seeded, due to blackholed buildings", report.Blackholed)
		}
		return report
	}

	openSpots := openSpotsPerRoad(sim.AllParkingSpots(), m)
	shuffleOpenSpots(openSpots, m, baseRNG)

	// The first car that can't find a spot ends the pass; capacity only shrinks,
	// so everyone after it is stranded too.
	for i, car := range cars {
		spot, ok := findSpotNearBuilding(car.building, openSpots, m)
		if !ok {
			report.Stranded = len(cars) - i
			logrus.Warnf("Not enough room to seed parked cars. Only found spots for %d of %d",
				report.Seeded, report.Total)
			break
		}
		sim.SeedParkedCar(car.vehicle, spot)
		report.Seeded++
	}
	return report
}

// openSpotsPerRoad groups free spots by the road they're reached from.
// Private off-street spots are restricted to their building.
func openSpotsPerRoad(spots []ParkingSpot, m Map) map[RoadID][]openSpot {
	perRoad := make(map[RoadID][]openSpot)
	for _, spot := range spots {
		var r RoadID
		open := openSpot{spot: spot}
		switch spot.Kind {
		case ParkingOnstreet:
			r = m.LaneRoad(spot.Lane)
		case ParkingOffstreet:
			r = m.BuildingRoad(spot.Building)
			if m.BuildingParking(spot.Building).Kind == OffstreetPrivate {
				open.reservedFor = spot.Building
				open.restricted = true
			}
		case ParkingLot:
			r = m.ParkingLotRoad(spot.Lot)
		}
		perRoad[r] = append(perRoad[r], open)
	}
	return perRoad
}

// shuffleOpenSpots forks once per road of the map, whether or not the road
// has parking, so changing parking on one road leaves every other road's
// order untouched.
func shuffleOpenSpots(perRoad map[RoadID][]openSpot, m Map, baseRNG *rand.Rand) {
	for _, r := range m.AllRoads() {
		tmp := ForkRNG(baseRNG)
		if spots, ok := perRoad[r]; ok {
			tmp.Shuffle(len(spots), func(i, j int) { spots[i], spots[j] = spots[j], spots[i] })
		}
	}
}

// findSpotNearBuilding takes a spot on the building's road if there is one,
// otherwise breadth-first searches outward over adjacent roads. A spot
// reserved for b wins over a public spot on the same road. The chosen spot
// is removed from perRoad.
func findSpotNearBuilding(b BuildingID, perRoad map[RoadID][]openSpot, m Map) (ParkingSpot, bool) {
	start := m.BuildingRoad(b)
	queue := []RoadID{start}
	visited := map[RoadID]bool{start: true}

	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]

		if spots := perRoad[r]; len(spots) > 0 {
			if idx := pickSpot(spots, b); idx >= 0 {
				spot := spots[idx].spot
				perRoad[r] = append(spots[:idx], spots[idx+1:]...)
				return spot, true
			}
		}

		for _, next := range m.NextRoads(r) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return ParkingSpot{}, false
}

// pickSpot returns the first spot reserved for b, else the first
// unrestricted spot, else -1.
func pickSpot(spots []openSpot, b BuildingID) int {
	for i, s := range spots {
		if s.restricted && s.reservedFor == b {
			return i
		}
	}
	for i, s := range spots {
		if !s.restricted {
			return i
		}
	}
	return -1
}
