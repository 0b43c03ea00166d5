package geo

import "math"

// Snap is the result of projecting a point onto a line.
type Snap struct {
	Point         Point   // snapped position on the line
	DistanceM     float64 // distance from the start of the line, meters
	PerpDistanceM float64 // perpendicular distance from the query point, meters
	BearingDeg    float64 // line bearing at the snapped position
}

// SnapToLine projects p onto the nearest segment of line. It returns nil when
// the line is degenerate or the perpendicular distance exceeds maxDistanceM;
// callers must treat nil as "off network", not as an error.
func SnapToLine(p Point, line Line, maxDistanceM float64) *Snap {
	if !line.IsSnappable() {
		return nil
	}

	best := -1
	bestT := 0.0
	bestDist := math.MaxFloat64
	var bestPoint Point

	for i := 0; i < len(line.Points)-1; i++ {
		proj, t := projectOntoSegment(p, line.Points[i], line.Points[i+1])
		d := Haversine(p, proj)
		if d < bestDist {
			bestDist = d
			best = i
			bestT = t
			bestPoint = proj
		}
	}

	if best < 0 || bestDist > maxDistanceM {
		return nil
	}

	segLen := line.CumDistM[best+1] - line.CumDistM[best]
	return &Snap{
		Point:         bestPoint,
		DistanceM:     line.CumDistM[best] + bestT*segLen,
		PerpDistanceM: bestDist,
		BearingDeg:    Bearing(line.Points[best], line.Points[best+1]),
	}
}

// projectOntoSegment projects p onto the segment a-b using an equirectangular
// approximation (longitudes scaled by cos of the segment's mean latitude) and
// returns the projected point plus the clamped parameter t in [0,1].
// Adequate for the segment lengths found in transit line geometry.
func projectOntoSegment(p, a, b Point) (Point, float64) {
	scale := math.Cos((a.Lat + b.Lat) / 2 * math.Pi / 180)

	vx := (b.Lon - a.Lon) * scale
	vy := b.Lat - a.Lat
	wx := (p.Lon - a.Lon) * scale
	wy := p.Lat - a.Lat

	t := 0.0
	if denom := vx*vx + vy*vy; denom > 0 {
		t = (wx*vx + wy*vy) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	return Point{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lon: a.Lon + t*(b.Lon-a.Lon),
	}, t
}
