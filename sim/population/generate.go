package population

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim"
)

// Geography is what generation needs to know about a map.
// *network.Network satisfies it.
type Geography interface {
	Name() string
	Buildings() []sim.BuildingID
	BuildingPos(b sim.BuildingID) orb.Point
	Borders() []sim.IntersectionID
}

// Generate builds a scenario of commuters. Every person lives in a building,
// works in another building (or off-map, past a border) and makes two trips
// with the same mode: home to work, then work to home. The result is a pure
// function of spec and geo.
func Generate(spec *Spec, geo Geography) (*sim.Scenario, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid population spec: %w", err)
	}
	bldgs := geo.Buildings()
	if len(bldgs) < 2 {
		return nil, fmt.Errorf("map %s needs at least two buildings to generate commutes, has %d", geo.Name(), len(bldgs))
	}

	g := &generator{
		spec:       spec,
		geo:        geo,
		rng:        sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed)).ForSubsystem(sim.SubsystemPopulation),
		bldgs:      bldgs,
		borders:    geo.Borders(),
		modes:      newModePicker(spec.ModeSplit),
		candidates: make(map[sim.BuildingID][]sim.BuildingID),
	}

	s := sim.EmptyScenario(geo.Name(), spec.Scenario)
	s.OnlySeedTransit = nil
	s.People = make([]sim.PersonSpec, spec.NumPeople)
	for i := range s.People {
		s.People[i] = g.person(sim.PersonID(i))
	}

	offMap := lo.CountBy(s.People, func(p sim.PersonSpec) bool { return p.Trips[0].To.Kind == sim.EndpointBorder })
	logrus.Infof("Generated %d people for %s on %s (%d work off-map)", len(s.People), s.ScenarioName, s.MapName, offMap)
	return s, nil
}

type generator struct {
	spec    *Spec
	geo     Geography
	rng     *rand.Rand
	bldgs   []sim.BuildingID
	borders []sim.IntersectionID
	modes   *modePicker

	// candidates caches the workplaces reachable from each home.
	candidates map[sim.BuildingID][]sim.BuildingID
}

func (g *generator) person(id sim.PersonID) sim.PersonSpec {
	home := g.bldgs[g.rng.Intn(len(g.bldgs))]
	mode := g.modes.pick(g.rng)

	var work sim.TripEndpoint
	if len(g.borders) > 0 && g.rng.Float64() < g.spec.BorderFraction {
		work = sim.AtBorder(g.borders[g.rng.Intn(len(g.borders))])
	} else {
		c := g.workplaces(home)
		work = sim.AtBuilding(c[g.rng.Intn(len(c))])
	}

	depart := sample(g.rng, g.spec.Depart)
	back := depart + sample(g.rng, g.spec.ReturnAfter)
	return sim.PersonSpec{
		ID: id,
		Trips: []sim.IndividTrip{
			sim.NewIndividTrip(depart, sim.PurposeWork, sim.AtBuilding(home), work, mode),
			sim.NewIndividTrip(back, sim.PurposeHome, work, sim.AtBuilding(home), mode),
		},
	}
}

// workplaces lists the buildings within MaxCommuteM of home. When none are
// close enough, the nearest other building is the only choice.
func (g *generator) workplaces(home sim.BuildingID) []sim.BuildingID {
	if c, ok := g.candidates[home]; ok {
		return c
	}
	others := lo.Filter(g.bldgs, func(b sim.BuildingID, _ int) bool { return b != home })
	c := others
	if g.spec.MaxCommuteM > 0 {
		from := g.geo.BuildingPos(home)
		dist := func(b sim.BuildingID) float64 { return planar.Distance(from, g.geo.BuildingPos(b)) }
		c = lo.Filter(others, func(b sim.BuildingID, _ int) bool { return dist(b) <= g.spec.MaxCommuteM })
		if len(c) == 0 {
			c = []sim.BuildingID{lo.MinBy(others, func(a, b sim.BuildingID) bool { return dist(a) < dist(b) })}
		}
	}
	g.candidates[home] = c
	return c
}

func sample(rng *rand.Rand, w Window) sim.Time {
	span := int64(w.To - w.From)
	if span <= 0 {
		return w.From
	}
	return w.From + sim.Time(rng.Int63n(span))
}

// modePicker draws modes in proportion to their weights.
type modePicker struct {
	modes []sim.TripMode
	cum   []float64
}

// newModePicker expects a validated split.
func newModePicker(split map[string]float64) *modePicker {
	p := &modePicker{}
	total := 0.0
	for _, name := range sortedModes(split) {
		w := split[name]
		if w == 0 {
			continue
		}
		mode, err := sim.ParseTripMode(name)
		if err != nil {
			panic(fmt.Sprintf("unvalidated mode split: %v", err))
		}
		total += w
		p.modes = append(p.modes, mode)
		p.cum = append(p.cum, total)
	}
	return p
}

func (p *modePicker) pick(rng *rand.Rand) sim.TripMode {
	x := rng.Float64() * p.cum[len(p.cum)-1]
	for i, c := range p.cum {
		if x < c {
			return p.modes[i]
		}
	}
	return p.modes[len(p.modes)-1]
}
