package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Bearing returns the initial great-circle bearing from one point to another
// in degrees (0-360).
func Bearing(from, to Point) float64 {
	phi1 := from.Lat * math.Pi / 180
	phi2 := to.Lat * math.Pi / 180
	deltaLambda := (to.Lon - from.Lon) * math.Pi / 180

	x := math.Sin(deltaLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	bearing := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// Destination returns the point reached by travelling distM meters from p on
// the given initial bearing. A negative distance travels the opposite way.
func Destination(p Point, bearingDeg, distM float64) Point {
	phi1 := p.Lat * math.Pi / 180
	lambda1 := p.Lon * math.Pi / 180
	theta := bearingDeg * math.Pi / 180
	delta := distM / earthRadiusMeters

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return Point{
		Lat: phi2 * 180 / math.Pi,
		Lon: math.Mod(lambda2*180/math.Pi+540, 360) - 180,
	}
}

// NormalizeBearing wraps an angle in degrees into [0,360).
func NormalizeBearing(deg float64) float64 {
	return math.Mod(math.Mod(deg, 360)+360, 360)
}

// AverageBearings returns the angle-wrapped mean of two bearings, so that
// averaging 350 and 10 yields 0 rather than 180.
func AverageBearings(b1, b2 float64) float64 {
	diff := math.Mod(b2-b1+540, 360) - 180
	return NormalizeBearing(b1 + diff/2)
}

// lerpBearing interpolates between two bearings along the shortest arc.
func lerpBearing(b1, b2, t float64) float64 {
	diff := math.Mod(b2-b1+540, 360) - 180
	return NormalizeBearing(b1 + diff*t)
}
