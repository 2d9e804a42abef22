package sim

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const blobVersion = 1

// gob drops zero values, so optional fields travel with explicit presence
// flags to keep nil and empty distinct.
type scenarioBlob struct {
	Version         int
	ScenarioName    string
	MapName         string
	HasPeople       bool
	People          []personBlob
	HasTransitList  bool
	OnlySeedTransit []string
}

type personBlob struct {
	ID        PersonID
	HasOrigID bool
	OrigID    OrigPersonID
	HasTrips  bool
	Trips     []IndividTrip
}

// EncodeScenario writes s as a compressed binary blob.
func EncodeScenario(w io.Writer, s *Scenario) error {
	blob := scenarioBlob{
		Version:         blobVersion,
		ScenarioName:    s.ScenarioName,
		MapName:         s.MapName,
		HasPeople:       s.People != nil,
		People:          make([]personBlob, len(s.People)),
		HasTransitList:  s.OnlySeedTransit != nil,
		OnlySeedTransit: s.OnlySeedTransit,
	}
	for i, p := range s.People {
		pb := personBlob{ID: p.ID, HasTrips: p.Trips != nil, Trips: p.Trips}
		if p.OrigID != nil {
			pb.HasOrigID = true
			pb.OrigID = *p.OrigID
		}
		blob.People[i] = pb
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("encoding scenario %s: %w", s.ScenarioName, err)
	}
	if err := gob.NewEncoder(zw).Encode(&blob); err != nil {
		zw.Close()
		return fmt.Errorf("encoding scenario %s: %w", s.ScenarioName, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("encoding scenario %s: %w", s.ScenarioName, err)
	}
	return nil
}

// DecodeScenario reads a blob written by EncodeScenario.
func DecodeScenario(r io.Reader) (*Scenario, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	defer zr.Close()

	var blob scenarioBlob
	if err := gob.NewDecoder(zr).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if blob.Version != blobVersion {
		return nil, fmt.Errorf("decoding scenario: unsupported blob version %d", blob.Version)
	}

	s := &Scenario{
		ScenarioName: blob.ScenarioName,
		MapName:      blob.MapName,
	}
	if blob.HasPeople {
		s.People = make([]PersonSpec, len(blob.People))
	}
	if blob.HasTransitList {
		s.OnlySeedTransit = append([]string{}, blob.OnlySeedTransit...)
	}
	for i, pb := range blob.People {
		p := PersonSpec{ID: pb.ID, Trips: pb.Trips}
		if pb.HasOrigID {
			orig := pb.OrigID
			p.OrigID = &orig
		}
		if pb.HasTrips && p.Trips == nil {
			p.Trips = []IndividTrip{}
		}
		s.People[i] = p
	}
	return s, nil
}
