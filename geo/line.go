package geo

// Line is a transit line geometry preprocessed for fast positioning lookups.
// Points, CumDistM and Bearings are parallel arrays: CumDistM[i] is the
// distance in meters from the start of the line to Points[i] (CumDistM[0] is
// always 0 and values are non-decreasing) and Bearings[i] is the bearing of
// the segment leaving Points[i] (the last vertex repeats the final segment's
// bearing). A Line built from fewer than 2 coordinates is degenerate and
// cannot be snapped against.
type Line struct {
	Points   []Point
	CumDistM []float64
	Bearings []float64
}

// PreprocessLine builds a Line from raw coordinates. Fewer than 2 coordinates
// yields a degenerate Line that snapping and interpolation treat as empty.
func PreprocessLine(points []Point) Line {
	line := Line{Points: append([]Point(nil), points...)}
	if len(points) < 2 {
		return line
	}

	line.CumDistM = make([]float64, len(points))
	line.Bearings = make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		line.CumDistM[i] = line.CumDistM[i-1] + Haversine(points[i-1], points[i])
		line.Bearings[i-1] = Bearing(points[i-1], points[i])
	}
	line.Bearings[len(points)-1] = line.Bearings[len(points)-2]
	return line
}

// IsSnappable reports whether the line has enough geometry to snap against.
func (l Line) IsSnappable() bool {
	return len(l.Points) >= 2 && len(l.CumDistM) == len(l.Points)
}

// TotalLengthM returns the full length of the line in meters.
func (l Line) TotalLengthM() float64 {
	if len(l.CumDistM) == 0 {
		return 0
	}
	return l.CumDistM[len(l.CumDistM)-1]
}

// InterpolateAtDistance returns the position and bearing at the given
// distance along the line. The distance is clamped to [0, TotalLengthM].
// Degenerate lines return their only point (or a zero Point) with bearing 0.
func InterpolateAtDistance(line Line, distM float64) (Point, float64) {
	if !line.IsSnappable() {
		if len(line.Points) == 1 {
			return line.Points[0], 0
		}
		return Point{}, 0
	}

	if distM <= 0 {
		return line.Points[0], line.Bearings[0]
	}
	if total := line.TotalLengthM(); distM >= total {
		last := len(line.Points) - 1
		return line.Points[last], line.Bearings[last]
	}

	// Find the segment bracketing distM.
	seg := 0
	for i := 1; i < len(line.CumDistM); i++ {
		if line.CumDistM[i] >= distM {
			seg = i - 1
			break
		}
	}

	prev := line.CumDistM[seg]
	next := line.CumDistM[seg+1]
	t := 0.0
	if next > prev {
		t = (distM - prev) / (next - prev)
	}

	p1 := line.Points[seg]
	p2 := line.Points[seg+1]
	pos := Point{
		Lat: p1.Lat + t*(p2.Lat-p1.Lat),
		Lon: p1.Lon + t*(p2.Lon-p1.Lon),
	}
	return pos, lerpBearing(line.Bearings[seg], line.Bearings[seg+1], t)
}
