package wells

import (
	"math"
	"testing"
)

func TestDistanceMilesZero(t *testing.T) {
	if d := DistanceMiles(40.0, -100.0, 40.0, -100.0); d != 0 {
		t.Errorf("distance between identical points = %v, want 0", d)
	}
}

func TestDistanceMilesOneDegreeLatitude(t *testing.T) {
	// One degree of latitude is about 69.09 miles.
	d := DistanceMiles(40.0, -100.0, 41.0, -100.0)
	if math.Abs(d-69.09) > 0.05 {
		t.Errorf("one degree of latitude = %v miles, want about 69.09", d)
	}
}

func TestDistanceMilesSymmetric(t *testing.T) {
	a := DistanceMiles(35.2, -97.4, 36.1, -95.9)
	b := DistanceMiles(36.1, -95.9, 35.2, -97.4)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance is not symmetric: %v vs %v", a, b)
	}
}

func TestDistanceWells(t *testing.T) {
	w1 := &Well{ID: "a", Latitude: 40.0, Longitude: -100.0}
	w2 := &Well{ID: "b", Latitude: 40.0, Longitude: -100.0}
	if d := Distance(w1, w2); d != 0 {
		t.Errorf("Distance(%v, %v) = %v, want 0", w1.ID, w2.ID, d)
	}
}
