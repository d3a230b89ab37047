package matcher

import "math"

const (
	earthRadiusMeters = 6371000.0

	// metersPerDegreeLat approximates one degree of latitude. Longitude
	// degrees shrink by cos(latitude) away from the equator.
	metersPerDegreeLat = 111000.0
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// boundingBox converts a center point and radius into a lat/lng box used to
// pre-filter candidates before the precise Haversine pass.
func boundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusMeters / metersPerDegreeLat

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := radiusMeters / (metersPerDegreeLat * cosLat)

	return lat - latDelta, lat + latDelta, lng - lngDelta, lng + lngDelta
}
