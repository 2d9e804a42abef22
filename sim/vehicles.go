package sim

import (
	"fmt"
	"math/rand"
)

const (
	MinCarLength Distance = 4.5
	MaxCarLength Distance = 6.5
	BikeLength   Distance = 1.8
)

// NoVehicle marks a trip that needs no vehicle in VehicleAllocation.PerTrip.
const NoVehicle = -1

// MaxBikeSpeed is the upper bound for sampled bike speeds.
func MaxBikeSpeed() Speed { return MilesPerHour(10.0) }

// MaxPedSpeed is the upper bound for sampled walking speeds.
func MaxPedSpeed() Speed { return MilesPerHour(3.0) }

type VehicleType int

const (
	VehicleCar VehicleType = iota
	VehicleBike
)

func (t VehicleType) String() string {
	switch t {
	case VehicleCar:
		return "car"
	case VehicleBike:
		return "bike"
	}
	return fmt.Sprintf("VehicleType(%d)", int(t))
}

// CarID is assigned by the simulator when a person is registered.
type CarID struct {
	ID   int
	Type VehicleType
}

func (c CarID) String() string { return fmt.Sprintf("%s #%d", c.Type, c.ID) }

// VehicleSpec is a vehicle before the simulator has given it an identity.
type VehicleSpec struct {
	Type   VehicleType
	Length Distance
	// MaxSpeed is only set for bikes.
	MaxSpeed *Speed
}

// Vehicle is a registered vehicle owned by one person.
type Vehicle struct {
	ID       CarID
	Owner    PersonID
	Length   Distance
	MaxSpeed *Speed
}

// MakeVehicle binds a spec to its simulator identity.
func (v VehicleSpec) MakeVehicle(id CarID, owner PersonID) Vehicle {
	return Vehicle{ID: id, Owner: owner, Length: v.Length, MaxSpeed: v.MaxSpeed}
}

// ParkedAt asks for vehicle Specs[VehicleIdx] to start the day parked near Building.
type ParkedAt struct {
	VehicleIdx int
	Building   BuildingID
}

// VehicleAllocation is the result of PersonSpec.GetVehicles.
type VehicleAllocation struct {
	Specs           []VehicleSpec
	InitiallyParked []ParkedAt
	// PerTrip holds an index into Specs for every trip, or NoVehicle.
	PerTrip []int
}

// carLocation tracks where an allocated car was last left. onMap=false
// means the car left through a border (or vanished at a debug endpoint).
type carLocation struct {
	idx   int
	bldg  BuildingID
	onMap bool
}

// GetVehicles assigns the fewest vehicles that satisfy the trip chain: one
// bike, created on the first bike trip, and as many cars as location
// constraints force. A car is reused whenever one is already where the trip
// starts.
func (p *PersonSpec) GetVehicles(rng *rand.Rand) VehicleAllocation {
	var alloc VehicleAllocation
	bikeIdx := NoVehicle
	var carLocations []carLocation

	for _, trip := range p.Trips {
		use := NoVehicle
		switch trip.Mode {
		case TripModeWalk, TripModeTransit:
		case TripModeBike:
			if bikeIdx == NoVehicle {
				bikeIdx = len(alloc.Specs)
				alloc.Specs = append(alloc.Specs, RandBike(rng))
			}
			use = bikeIdx
		case TripModeDrive:
			needBldg, needOnMap := trip.From.BuildingOrNone()

			use = NoVehicle
			for _, loc := range carLocations {
				if loc.onMap == needOnMap && loc.bldg == needBldg {
					use = loc.idx
					break
				}
			}
			if use == NoVehicle {
				use = len(alloc.Specs)
				alloc.Specs = append(alloc.Specs, RandCar(rng))
				if needOnMap {
					alloc.InitiallyParked = append(alloc.InitiallyParked, ParkedAt{VehicleIdx: use, Building: needBldg})
				}
			}

			// Where does this car wind up?
			remaining := carLocations[:0]
			for _, loc := range carLocations {
				if loc.idx != use {
					remaining = append(remaining, loc)
				}
			}
			carLocations = remaining
			endBldg, endOnMap := trip.To.BuildingOrNone()
			carLocations = append(carLocations, carLocation{idx: use, bldg: endBldg, onMap: endOnMap})
		default:
			panic(fmt.Sprintf("%s has a trip with unknown mode %d", p.ID, trip.Mode))
		}
		alloc.PerTrip = append(alloc.PerTrip, use)
	}
	return alloc
}

// RandCar samples a car with a uniform length.
func RandCar(rng *rand.Rand) VehicleSpec {
	return VehicleSpec{
		Type:   VehicleCar,
		Length: RandDist(rng, MinCarLength, MaxCarLength),
	}
}

// RandBike samples a bike with a uniform max speed.
func RandBike(rng *rand.Rand) VehicleSpec {
	maxSpeed := RandSpeed(rng, MilesPerHour(8.0), MaxBikeSpeed())
	return VehicleSpec{
		Type:     VehicleBike,
		Length:   BikeLength,
		MaxSpeed: &maxSpeed,
	}
}

// RandPedSpeed samples a walking speed.
func RandPedSpeed(rng *rand.Rand) Speed {
	return RandSpeed(rng, MilesPerHour(2.0), MaxPedSpeed())
}

// RandDist samples uniformly from [low, high). Panics unless high > low.
func RandDist(rng *rand.Rand, low, high Distance) Distance {
	if high <= low {
		panic(fmt.Sprintf("RandDist: empty range [%s, %s)", low, high))
	}
	return low + Distance(rng.Float64())*(high-low)
}

// RandSpeed samples uniformly from [low, high). Panics unless high > low.
func RandSpeed(rng *rand.Rand, low, high Speed) Speed {
	if high <= low {
		panic(fmt.Sprintf("RandSpeed: empty range [%s, %s)", low, high))
	}
	return low + Speed(rng.Float64())*(high-low)
}
