package wells

import "math"

// earthRadiusMiles is the mean Earth radius used for great-circle
// distances. Policy thresholds are specified in miles.
const earthRadiusMiles = 3958.7613

// DistanceMiles returns the haversine great-circle distance in miles
// between two coordinates given in degrees.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}

// Distance returns the haversine distance in miles between two wells.
func Distance(a, b *Well) float64 {
	return DistanceMiles(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
