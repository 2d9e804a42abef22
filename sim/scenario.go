package sim

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// scenarioNamespace roots Scenario.ID.
var scenarioNamespace = uuid.MustParse("6f1c9a52-2d7e-4b8a-9c1e-5a0d3e8b7f41")

// Scenario describes all the input to one instantiation: usually a day of
// travel for a population on one map. Identity is (MapName, ScenarioName).
type Scenario struct {
	ScenarioName string       `yaml:"scenario"`
	MapName      string       `yaml:"map"`
	People       []PersonSpec `yaml:"people"`
	// OnlySeedTransit restricts which transit routes (by full name) get
	// seeded. nil seeds every route; an empty non-nil slice seeds none.
	OnlySeedTransit []string `yaml:"only_seed_transit"`
}

// PersonSpec is one person's ordered chain of trips.
type PersonSpec struct {
	ID PersonID `yaml:"id"`
	// OrigID is only used for debugging.
	OrigID *OrigPersonID `yaml:"orig_id,omitempty"`
	Trips  []IndividTrip `yaml:"trips"`
}

// IndividTrip is one declarative trip.
type IndividTrip struct {
	Depart    Time         `yaml:"depart"`
	From      TripEndpoint `yaml:"from"`
	To        TripEndpoint `yaml:"to"`
	Mode      TripMode     `yaml:"mode"`
	Purpose   TripPurpose  `yaml:"purpose"`
	Cancelled bool         `yaml:"cancelled,omitempty"`
	// Modified marks trips altered by a scenario modifier.
	Modified bool `yaml:"modified,omitempty"`
}

// NewIndividTrip builds an uncancelled, unmodified trip.
func NewIndividTrip(depart Time, purpose TripPurpose, from, to TripEndpoint, mode TripMode) IndividTrip {
	return IndividTrip{
		Depart:  depart,
		From:    from,
		To:      to,
		Mode:    mode,
		Purpose: purpose,
	}
}

// TripMode is how a trip travels.
type TripMode int

const (
	TripModeWalk TripMode = iota
	TripModeBike
	TripModeTransit
	TripModeDrive
)

var tripModeNames = map[TripMode]string{
	TripModeWalk:    "walk",
	TripModeBike:    "bike",
	TripModeTransit: "transit",
	TripModeDrive:   "drive",
}

func (m TripMode) String() string {
	if s, ok := tripModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("TripMode(%d)", int(m))
}

// ParseTripMode is the inverse of TripMode.String.
func ParseTripMode(s string) (TripMode, error) {
	for m, name := range tripModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown trip mode %q; valid: walk, bike, transit, drive", s)
}

// TripPurpose is lifted from Seattle's Soundcast model, but is general
// enough to use anywhere.
type TripPurpose int

const (
	PurposeHome TripPurpose = iota
	PurposeWork
	PurposeSchool
	PurposeEscort
	PurposePersonalBusiness
	PurposeShopping
	PurposeMeal
	PurposeSocial
	PurposeRecreation
	PurposeMedical
	PurposeParkAndRideTransfer
)

var tripPurposeNames = []string{
	PurposeHome:                "home",
	PurposeWork:                "work",
	PurposeSchool:              "school",
	PurposeEscort:              "escort",
	PurposePersonalBusiness:    "personal business",
	PurposeShopping:            "shopping",
	PurposeMeal:                "eating",
	PurposeSocial:              "social",
	PurposeRecreation:          "recreation",
	PurposeMedical:             "medical",
	PurposeParkAndRideTransfer: "park-and-ride transfer",
}

func (p TripPurpose) String() string {
	if p >= 0 && int(p) < len(tripPurposeNames) {
		return tripPurposeNames[p]
	}
	return fmt.Sprintf("TripPurpose(%d)", int(p))
}

// ParseTripPurpose is the inverse of TripPurpose.String.
func ParseTripPurpose(s string) (TripPurpose, error) {
	for i, name := range tripPurposeNames {
		if name == s {
			return TripPurpose(i), nil
		}
	}
	return 0, fmt.Errorf("unknown trip purpose %q", s)
}

// EmptyScenario has no people and seeds no transit.
func EmptyScenario(mapName, name string) *Scenario {
	return &Scenario{
		ScenarioName:    name,
		MapName:         mapName,
		People:          []PersonSpec{},
		OnlySeedTransit: []string{},
	}
}

// ID is a stable identifier derived from (MapName, ScenarioName).
func (s *Scenario) ID() uuid.UUID {
	return uuid.NewSHA1(scenarioNamespace, []byte(s.MapName+"/"+s.ScenarioName))
}

// RemoveWeirdSchedules drops people whose trips fail CheckSchedule and
// renumbers the survivors densely from zero.
func (s *Scenario) RemoveWeirdSchedules() *Scenario {
	orig := len(s.People)
	kept := s.People[:0]
	for _, p := range s.People {
		if err := p.CheckSchedule(); err != nil {
			logrus.Warn(err)
			continue
		}
		kept = append(kept, p)
	}
	s.People = kept
	logrus.Infof("%d of %d people have nonsense schedules", orig-len(s.People), orig)
	for idx := range s.People {
		s.People[idx].ID = PersonID(idx)
	}
	return s
}

// CountParkedCarsPerBuilding reports how many cars start the day parked at
// each building. Vehicle attributes don't matter here, so a dummy RNG is used.
func (s *Scenario) CountParkedCarsPerBuilding() map[BuildingID]int {
	perBldg := make(map[BuildingID]int)
	rng := rand.New(rand.NewSource(0))
	for i := range s.People {
		alloc := s.People[i].GetVehicles(rng)
		for _, parked := range alloc.InitiallyParked {
			perBldg[parked.Building]++
		}
	}
	return perBldg
}

// seedsTransitRoute reports whether the named route should be seeded.
func (s *Scenario) seedsTransitRoute(fullName string) bool {
	if s.OnlySeedTransit == nil {
		return true
	}
	for _, name := range s.OnlySeedTransit {
		if name == fullName {
			return true
		}
	}
	return false
}
