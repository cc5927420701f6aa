package geoutils

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point is zero",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 48.8566, lon2: 2.3522,
			want: 0, tolerance: 1e-9,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 51.5074, lon2: -0.1278,
			want: 343.5, tolerance: 1.0,
		},
		{
			name: "short hop stays under a kilometer",
			lat1: 35.6595, lon1: 139.7005,
			lat2: 35.6620, lon2: 139.7030,
			want: 0.36, tolerance: 0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm() = %v, want %v (±%v)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	ab := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	ba := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceMMatchesKm(t *testing.T) {
	km := DistanceKm(35.6595, 139.7005, 35.6620, 139.7030)
	m := DistanceM(35.6595, 139.7005, 35.6620, 139.7030)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Errorf("DistanceM() = %v, want %v", m, km*1000)
	}
}

func TestClosestIndex(t *testing.T) {
	// [lon, lat] pairs
	route := [][2]float64{
		{2.3522, 48.8566},   // paris
		{-0.1278, 51.5074},  // london
		{139.6917, 35.6895}, // tokyo
	}

	tests := []struct {
		name   string
		lat    float64
		lon    float64
		points [][2]float64
		want   int
	}{
		{name: "empty route", lat: 0, lon: 0, points: nil, want: -1},
		{name: "single point", lat: 10, lon: 10, points: [][2]float64{{0, 0}}, want: 0},
		{name: "near paris", lat: 48.85, lon: 2.35, points: route, want: 0},
		{name: "near london", lat: 51.5, lon: -0.12, points: route, want: 1},
		{name: "near tokyo", lat: 35.69, lon: 139.69, points: route, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClosestIndex(tt.lat, tt.lon, tt.points); got != tt.want {
				t.Errorf("ClosestIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClosestIndexFirstWinsOnTie(t *testing.T) {
	points := [][2]float64{
		{2.0, 48.0},
		{2.0, 48.0},
		{3.0, 49.0},
	}
	if got := ClosestIndex(48.0, 2.0, points); got != 0 {
		t.Errorf("ClosestIndex() = %d, want 0 for duplicate nearest points", got)
	}
}

func TestClosestIndexPrefersNearbyStop(t *testing.T) {
	// Second point sits ~8m from the reference, the rest are hundreds of
	// meters out. The near one must win.
	points := [][2]float64{
		{139.7000, 35.6590},
		{139.70051, 35.65951},
		{139.7100, 35.6700},
	}
	if got := ClosestIndex(35.6595, 139.7005, points); got != 1 {
		t.Errorf("ClosestIndex() = %d, want 1", got)
	}
}
