package eew

import "math"

// Planar projection constants, keyed to Japan: x is linear in longitude,
// y follows a Mercator-style transform of latitude so that wave fronts
// stay true circles on the plane.
const (
	refLon    = 138.0
	refLat    = 37.0
	xKmPerDeg = 89.2

	// Kept as the exact rational rather than the 180/pi it closely (but
	// not exactly) equals.
	yMercatorScale = 89.22 * (5473695.0 / 95534.0)
)

// mercatorY returns the unitless Mercator y-coordinate for a latitude given
// in degrees.
func mercatorY(latDeg float64) float64 {
	latRad := latDeg * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + latRad/2))
}

// mercatorYInverse is the exact inverse of mercatorY, returning latitude in
// degrees.
func mercatorYInverse(y float64) float64 {
	latRad := 2*math.Atan(math.Exp(y)) - math.Pi/2
	return latRad * 180 / math.Pi
}

// LatLonToXYKm projects a lat/lon pair (degrees) onto the km-plane used
// by every distance calculation in the engine. It is never haversine: the
// km-plane keeps wave-front circles true circles and is analytically
// invertible.
func LatLonToXYKm(lat, lon float64) (xKm, yKm float64) {
	xKm = (lon - refLon) * xKmPerDeg
	yKm = (mercatorY(lat) - mercatorY(refLat)) * yMercatorScale
	return
}

// XYKmToLatLon is the exact inverse of LatLonToXYKm.
func XYKmToLatLon(xKm, yKm float64) (lat, lon float64) {
	lon = xKm/xKmPerDeg + refLon
	y := yKm/yMercatorScale + mercatorY(refLat)
	lat = mercatorYInverse(y)
	return
}

// EpicentralDistanceKm returns the km-plane distance between two lat/lon
// points.
func EpicentralDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	x0, y0 := LatLonToXYKm(lat1, lon1)
	x1, y1 := LatLonToXYKm(lat2, lon2)
	return math.Hypot(x1-x0, y1-y0)
}
