package geoutils

import "math"

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(lat1))*math.Cos(degToRad(lat2))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistanceM returns the great-circle distance between two points in meters.
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceKm(lat1, lon1, lat2, lon2) * 1000.0
}

// ClosestIndex returns the index of the point nearest to (refLat, refLon).
// Points are [longitude, latitude] pairs. Returns -1 for an empty slice.
// Ties keep the earliest index.
func ClosestIndex(refLat, refLon float64, points [][2]float64) int {
	if len(points) == 0 {
		return -1
	}
	best := 0
	bestDist := DistanceKm(refLat, refLon, points[0][1], points[0][0])
	for i := 1; i < len(points); i++ {
		d := DistanceKm(refLat, refLon, points[i][1], points[i][0])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
