// Package testutil provides shared test infrastructure for the demand
// instantiation packages: fixture lookup in the repo-root testdata/
// directory and tolerant float assertions.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Fixture names under testdata/.
const (
	// TownNetwork is a four-road T with two borders, one transit route and
	// nine parking spots.
	TownNetwork = "town.yaml"
	// CommuteScenario is three people on TownNetwork.
	CommuteScenario = "commute.yaml"
	// PopulationSpec generates forty commuters on TownNetwork.
	PopulationSpec = "population.yaml"
)

// TestdataPath resolves name relative to the repo-root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataPath(t testing.TB, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
}

// ReadTestdata returns the contents of a fixture.
func ReadTestdata(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(TestdataPath(t, name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return data
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t testing.TB, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
