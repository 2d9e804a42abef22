// Package sim turns a Scenario (a population's declarative trips for one
// map) into the concrete commands a traffic simulator executes: people and
// their vehicles, cars parked before the day starts, and one spawn command
// per trip.
//
// # Reading Guide
//
// Start with these files to follow one instantiation:
//   - scenario.go: the demand model (Scenario, PersonSpec, IndividTrip)
//   - vehicles.go: how many cars and bikes each person needs, and where cars start
//   - spawn.go: classifying a trip into a SpawnTrip and finalizing it into a TripSpec
//   - instantiate.go: the orchestrator that runs all of the above in order
//   - parking.go: seeding parked cars near their buildings
//
// # Determinism
//
// Instantiation is a pure function of (scenario, map, seed). Every trip gets
// its own stream from ForkRNG before resolution starts, so resolution can run
// on any number of goroutines and choices that depend on map geometry can't
// shift randomness seen by unrelated trips.
//
// # Architecture
//
// The sim package defines the collaborator interfaces; implementations live
// in sub-packages:
//   - sim/network/: an in-memory road and transit network implementing Map
//   - sim/recorder/: an in-memory Simulator that records every command
//   - sim/publish/: a Simulator decorator that streams spawn commands to NATS
//   - sim/store/: scenario persistence on disk or in PostgreSQL
//   - sim/population/: procedural commuter scenarios
//   - sim/metrics/: a Prometheus Observer
//
// # Key Interfaces
//
//   - Map: routing and geometry queries (driving goals, sidewalks, transit, lanes, parking adjacency)
//   - Simulator: receives people, transit routes, parked cars and the final TripSpawner
//   - Observer: optional progress callbacks during instantiation
package sim
