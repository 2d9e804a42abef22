package sim

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const commuteYAML = `
scenario: weekday
map: montlake
only_seed_transit: ["Route 48"]
people:
  - id: 0
    orig_id: {household: 12, member: 2}
    trips:
      - depart: "08:15"
        from: {building: 3}
        to: {building: 9}
        mode: drive
        purpose: work
      - depart: "17:30:10"
        from: {building: 9}
        to: {border: 4}
        mode: transit
        purpose: personal business
  - id: 1
    trips:
      - depart: 9h
        from: {appear: {lane: 7, dist: 2.5}}
        to: {building: 3}
        mode: walk
        purpose: eating
        cancelled: true
`

func TestParseScenarioYAML(t *testing.T) {
	s, err := ParseScenarioYAML([]byte(commuteYAML))
	require.NoError(t, err)

	assert.Equal(t, "weekday", s.ScenarioName)
	assert.Equal(t, "montlake", s.MapName)
	assert.Equal(t, []string{"Route 48"}, s.OnlySeedTransit)
	require.Len(t, s.People, 2)

	p0 := s.People[0]
	require.NotNil(t, p0.OrigID)
	assert.Equal(t, OrigPersonID{Household: 12, Member: 2}, *p0.OrigID)
	require.Len(t, p0.Trips, 2)
	assert.Equal(t, Hours(8.25), p0.Trips[0].Depart)
	assert.Equal(t, AtBuilding(3), p0.Trips[0].From)
	assert.Equal(t, TripModeDrive, p0.Trips[0].Mode)
	assert.Equal(t, Time(17*time.Hour+30*time.Minute+10*time.Second), p0.Trips[1].Depart)
	assert.Equal(t, AtBorder(4), p0.Trips[1].To)
	assert.Equal(t, PurposePersonalBusiness, p0.Trips[1].Purpose)

	p1 := s.People[1]
	assert.Nil(t, p1.OrigID)
	assert.Equal(t, SuddenlyAppear(Position{Lane: 7, Dist: 2.5}), p1.Trips[0].From)
	assert.Equal(t, PurposeMeal, p1.Trips[0].Purpose)
	assert.True(t, p1.Trips[0].Cancelled)
}

func TestParseScenarioYAML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "scenario: a\nmap: b\npeople: []\ncolour: red\n"},
		{"missing map", "scenario: a\npeople: []\n"},
		{"two endpoint kinds", "scenario: a\nmap: b\npeople:\n  - id: 0\n    trips:\n      - depart: '8:00'\n        from: {building: 1, border: 2}\n        to: {building: 1}\n        mode: walk\n        purpose: work\n"},
		{"bad mode", "scenario: a\nmap: b\npeople:\n  - id: 0\n    trips:\n      - depart: '8:00'\n        from: {building: 1}\n        to: {building: 2}\n        mode: teleport\n        purpose: work\n"},
		{"bad time", "scenario: a\nmap: b\npeople:\n  - id: 0\n    trips:\n      - depart: '8:75'\n        from: {building: 1}\n        to: {building: 2}\n        mode: walk\n        purpose: work\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarioYAML([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestScenarioYAML_RoundTrip(t *testing.T) {
	s, err := ParseScenarioYAML([]byte(commuteYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	require.NoError(t, enc.Encode(s))
	require.NoError(t, enc.Close())

	back, err := ParseScenarioYAML(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestScenarioYAML_TransitFilterSurvives(t *testing.T) {
	none := EmptyScenario("montlake", "nobody")
	out, err := yaml.Marshal(none)
	require.NoError(t, err)
	assert.Contains(t, string(out), "only_seed_transit: []")
	back, err := ParseScenarioYAML(out)
	require.NoError(t, err)
	assert.NotNil(t, back.OnlySeedTransit, "an empty filter seeds no routes and must not become nil")
	assert.Empty(t, back.OnlySeedTransit)

	all := EmptyScenario("montlake", "everyone")
	all.OnlySeedTransit = nil
	out, err = yaml.Marshal(all)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "only_seed_transit")
	back, err = ParseScenarioYAML(out)
	require.NoError(t, err)
	assert.Nil(t, back.OnlySeedTransit)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want Time
	}{
		{"00:00", 0},
		{"7:05", Time(7*time.Hour + 5*time.Minute)},
		{"25:00:01", Time(25*time.Hour + time.Second)},
		{"90m", Time(90 * time.Minute)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, bad := range []string{
		"", "1:2:3:4", "12:60", "soon",
		"5:30pm", "08:30:15.9", "8:30junk", "8:-5", "+8:30", "8: 30", ":30", "8:",
	} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestTime_String(t *testing.T) {
	assert.Equal(t, "08:15:00", Hours(8.25).String())
	assert.Equal(t, "-00:00:30", Time(-30*time.Second).String())
}

func TestTripModeAndPurposeNames(t *testing.T) {
	for _, m := range []TripMode{TripModeWalk, TripModeBike, TripModeTransit, TripModeDrive} {
		parsed, err := ParseTripMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	for p := PurposeHome; p <= PurposeParkAndRideTransfer; p++ {
		parsed, err := ParseTripPurpose(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParseTripPurpose("napping")
	assert.Error(t, err)
}

func TestEmptyScenario(t *testing.T) {
	s := EmptyScenario("montlake", "nobody")
	assert.Empty(t, s.People)
	assert.NotNil(t, s.OnlySeedTransit)
	assert.False(t, s.seedsTransitRoute("Route 48"))

	s.OnlySeedTransit = nil
	assert.True(t, s.seedsTransitRoute("Route 48"))
}

func TestScenario_ID(t *testing.T) {
	a := EmptyScenario("montlake", "weekday")
	b := EmptyScenario("montlake", "weekday")
	c := EmptyScenario("montlake", "weekend")
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Equal(t, 5, int(a.ID().Version()))
}

func TestRemoveWeirdSchedules(t *testing.T) {
	s := EmptyScenario("m", "s")
	s.People = []PersonSpec{
		{ID: 10, Trips: []IndividTrip{trip(8, AtBuilding(1), AtBuilding(2), TripModeWalk)}},
		{ID: 11, Trips: []IndividTrip{
			trip(8, AtBuilding(1), AtBuilding(2), TripModeWalk),
			trip(9, AtBuilding(3), AtBuilding(1), TripModeWalk),
		}},
		{ID: 12, Trips: []IndividTrip{trip(8, AtBuilding(2), AtBuilding(1), TripModeDrive)}},
	}

	s.RemoveWeirdSchedules()
	require.Len(t, s.People, 2)
	assert.Equal(t, PersonID(0), s.People[0].ID)
	assert.Equal(t, PersonID(1), s.People[1].ID)
	assert.Equal(t, TripModeDrive, s.People[1].Trips[0].Mode)
}

func TestCountParkedCarsPerBuilding(t *testing.T) {
	s := EmptyScenario("m", "s")
	s.People = []PersonSpec{
		{ID: 0, Trips: []IndividTrip{
			trip(8, AtBuilding(1), AtBuilding(2), TripModeDrive),
			trip(17, AtBuilding(2), AtBuilding(1), TripModeDrive),
		}},
		{ID: 1, Trips: []IndividTrip{trip(8, AtBuilding(1), AtBorder(3), TripModeDrive)}},
		{ID: 2, Trips: []IndividTrip{trip(8, AtBorder(3), AtBuilding(2), TripModeDrive)}},
		{ID: 3, Trips: []IndividTrip{trip(8, AtBuilding(2), AtBuilding(1), TripModeBike)}},
	}
	assert.Equal(t, map[BuildingID]int{1: 2}, s.CountParkedCarsPerBuilding())
}
