package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrTripsOutOfOrder: a trip departs no later than the one before it.
	ErrTripsOutOfOrder = errors.New("trips out of order")
	// ErrScheduleWarp: a trip starts somewhere other than where the previous one ended.
	ErrScheduleWarp = errors.New("warps between trips")
)

// ScheduleError describes the first inconsistent pair of trips in a
// person's schedule. Index is the position of the later trip of the pair.
type ScheduleError struct {
	Person PersonID
	OrigID *OrigPersonID
	Index  int
	Kind   error
	Prev   IndividTrip
	Next   IndividTrip
}

func (e *ScheduleError) Error() string {
	who := e.Person.String()
	if e.OrigID != nil {
		who = fmt.Sprintf("%s %s", who, e.OrigID)
	}
	if errors.Is(e.Kind, ErrTripsOutOfOrder) {
		return fmt.Sprintf("%s starts two trips in the wrong order: %s then %s",
			who, e.Prev.Depart, e.Next.Depart)
	}
	return fmt.Sprintf("at %s, %s warps between some trips, from %s to %s",
		e.Next.Depart, who, e.Prev.To, e.Next.From)
}

func (e *ScheduleError) Unwrap() error { return e.Kind }

// CheckSchedule verifies that trips are strictly ordered by departure and
// that each trip starts where the previous one ended. Border and
// sudden-appear endpoints are wildcards: once off-map, a person may come
// back through any border.
func (p *PersonSpec) CheckSchedule() error {
	for i := 1; i < len(p.Trips); i++ {
		prev, next := p.Trips[i-1], p.Trips[i]
		if prev.Depart >= next.Depart {
			return &ScheduleError{Person: p.ID, OrigID: p.OrigID, Index: i, Kind: ErrTripsOutOfOrder, Prev: prev, Next: next}
		}

		endBldg, endOnMap := prev.To.BuildingOrNone()
		startBldg, startOnMap := next.From.BuildingOrNone()
		if endOnMap && startOnMap && endBldg != startBldg {
			return &ScheduleError{Person: p.ID, OrigID: p.OrigID, Index: i, Kind: ErrScheduleWarp, Prev: prev, Next: next}
		}
	}
	return nil
}
