package sim

import (
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const cancelledByModifier = "cancelled by ScenarioModifier"

// InstantiateOptions tunes one instantiation run.
type InstantiateOptions struct {
	// RetryIfNoRoom=false turns vehicles that can't spawn because something
	// is in the way into cancelled trips instead of retrying.
	RetryIfNoRoom bool
	// Workers bounds trip resolution parallelism; <= 1 resolves sequentially.
	// Output is identical for every value.
	Workers  int
	Observer Observer
}

// InstantiationReport summarizes a run.
type InstantiationReport struct {
	People           int
	Trips            int
	SpawningFailures int
	Parking          ParkingReport
}

// resolveTask is one trip, ready to resolve on any goroutine: it owns its
// forked RNG and reads only the Map.
type resolveTask struct {
	person  PersonID
	trip    IndividTrip
	vehicle *CarID
	rng     *rand.Rand
}

// Instantiate feeds the scenario into sim with retries enabled and one
// resolution worker per CPU.
func (s *Scenario) Instantiate(sim Simulator, m Map, rng *rand.Rand) InstantiationReport {
	return s.InstantiateWithOptions(sim, m, rng, InstantiateOptions{
		RetryIfNoRoom: true,
		Workers:       runtime.GOMAXPROCS(0),
	})
}

// InstantiateWithOptions seeds transit, registers every person and their
// vehicles, resolves every trip, seeds parked cars and flushes the trips to
// sim. Panics if a person's schedule is inconsistent: RemoveWeirdSchedules
// should have filtered those out already.
func (s *Scenario) InstantiateWithOptions(sim Simulator, m Map, rng *rand.Rand, opts InstantiateOptions) InstantiationReport {
	log := logrus.WithFields(logrus.Fields{"scenario": s.ScenarioName, "scenario_id": s.ID()})
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	report := InstantiationReport{People: len(s.People)}

	sim.SetName(s.ScenarioName)
	log.Infof("Instantiating %s on %s", s.ScenarioName, m.Name())
	phaseStart := time.Now()

	for _, route := range m.AllTransitRoutes() {
		if s.seedsTransitRoute(route.FullName) {
			sim.SeedTransitRoute(route)
		}
	}

	var parked []parkedCar
	var tasks []resolveTask
	for i := range s.People {
		p := &s.People[i]
		if err := p.CheckSchedule(); err != nil {
			panic(err.Error())
		}

		alloc := p.GetVehicles(rng)
		person := sim.NewPerson(p.ID, p.OrigID, RandPedSpeed(rng), alloc.Specs)
		obs.PersonRegistered(len(alloc.Specs))
		log.Debugf("%s needs %d vehicles, %d start parked", p.ID, len(alloc.Specs), len(alloc.InitiallyParked))
		for _, pa := range alloc.InitiallyParked {
			parked = append(parked, parkedCar{vehicle: person.Vehicles[pa.VehicleIdx], building: pa.Building})
		}
		for tripIdx, trip := range p.Trips {
			var vehicle *CarID
			if idx := alloc.PerTrip[tripIdx]; idx != NoVehicle {
				id := person.Vehicles[idx].ID
				vehicle = &id
			}
			// Picking a spawn lane at a border may draw a different number of
			// times after map edits, so every trip gets its own stream.
			tasks = append(tasks, resolveTask{
				person:  p.ID,
				trip:    trip,
				vehicle: vehicle,
				rng:     ForkRNG(rng),
			})
		}
	}
	obs.PhaseDone("allocate", time.Since(phaseStart))

	phaseStart = time.Now()
	spawner := NewTripSpawner()
	results := resolveTrips(spawner, tasks, opts, m)
	spawner.ScheduleTrips(results)
	for _, st := range results {
		obs.TripScheduled(st.Spec)
		if _, failed := st.Spec.(SpawningFailure); failed {
			report.SpawningFailures++
		}
	}
	report.Trips = len(results)
	obs.PhaseDone("resolve", time.Since(phaseStart))

	// Parked cars are stable over map edits, so don't fork.
	phaseStart = time.Now()
	rng.Shuffle(len(parked), func(i, j int) { parked[i], parked[j] = parked[j], parked[i] })
	report.Parking = seedParkedCars(parked, sim, m, rng)
	obs.ParkingSeeded(report.Parking)
	obs.PhaseDone("parking", time.Since(phaseStart))

	sim.FlushSpawner(spawner)
	log.Infof("Instantiated %s: %d people, %d trips (%d failed to spawn), %d of %d parked cars seeded",
		s.ScenarioName, report.People, report.Trips, report.SpawningFailures,
		report.Parking.Seeded, report.Parking.Total)
	return report
}

// resolveTrips runs every task, in parallel when allowed, and returns
// results indexed exactly like tasks. Completion order never matters.
func resolveTrips(spawner *TripSpawner, tasks []resolveTask, opts InstantiateOptions, m Map) []ScheduledTrip {
	results := make([]ScheduledTrip, len(tasks))
	resolve := func(i int) {
		t := tasks[i]
		spec := ResolveTrip(t.trip, t.vehicle, opts.RetryIfNoRoom, t.rng, m)
		results[i] = spawner.ScheduleTrip(t.person, spec, tripInfo(t.trip), m)
	}

	if opts.Workers <= 1 {
		for i := range tasks {
			resolve(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range tasks {
		i := i
		g.Go(func() error {
			resolve(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func tripInfo(t IndividTrip) TripInfo {
	info := TripInfo{
		Departure: t.Depart,
		Mode:      t.Mode,
		Start:     t.From,
		End:       t.To,
		Purpose:   t.Purpose,
		Modified:  t.Modified,
	}
	if t.Cancelled {
		reason := cancelledByModifier
		info.CancellationReason = &reason
	}
	return info
}

type nopObserver struct{}

func (nopObserver) PersonRegistered(int)            {}
func (nopObserver) TripScheduled(TripSpec)          {}
func (nopObserver) ParkingSeeded(ParkingReport)     {}
func (nopObserver) PhaseDone(string, time.Duration) {}
