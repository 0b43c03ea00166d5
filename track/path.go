package track

import (
	"github.com/theoremus-urban-solutions/transit-map-core/geo"
)

// DefaultMaxSnapM is how far a station may sit from the line geometry before
// it is considered off network.
const DefaultMaxSnapM = 500

// Segment is the portion of a line between two stations, oriented in travel
// direction. Points, CumDistM and Bearings are parallel arrays with CumDistM
// re-based to start at 0. Reversed records that travel direction is opposite
// to the underlying line's coordinate order.
type Segment struct {
	Points   []geo.Point
	CumDistM []float64
	Bearings []float64
	Reversed bool
}

// TotalLengthM returns the length of the segment in meters.
func (s *Segment) TotalLengthM() float64 {
	if len(s.CumDistM) == 0 {
		return 0
	}
	return s.CumDistM[len(s.CumDistM)-1]
}

// ExtractPath cuts the sub-path between two stations out of line. Both
// stations are snapped onto the line; nil is returned if either station is
// unknown or snaps farther than maxSnapM (pass <=0 for DefaultMaxSnapM).
// When the stations sit too close together for an exact cut-out the result
// is a straight two-point segment between the raw station coordinates.
func ExtractPath(fromID, toID string, line geo.Line, stations map[string]geo.Point, maxSnapM float64) *Segment {
	if maxSnapM <= 0 {
		maxSnapM = DefaultMaxSnapM
	}

	fromPt, okFrom := stations[fromID]
	toPt, okTo := stations[toID]
	if !okFrom || !okTo {
		return nil
	}

	snapFrom := geo.SnapToLine(fromPt, line, maxSnapM)
	snapTo := geo.SnapToLine(toPt, line, maxSnapM)
	if snapFrom == nil || snapTo == nil {
		return nil
	}

	reversed := snapFrom.DistanceM > snapTo.DistanceM
	lo, hi := snapFrom.DistanceM, snapTo.DistanceM
	if reversed {
		lo, hi = hi, lo
	}

	// Interior vertices strictly between the two snapped distances, re-based
	// to the lower endpoint, with exact interpolated endpoints on each side.
	seg := &Segment{}
	loPt, loBearing := geo.InterpolateAtDistance(line, lo)
	seg.Points = append(seg.Points, loPt)
	seg.CumDistM = append(seg.CumDistM, 0)
	seg.Bearings = append(seg.Bearings, loBearing)

	for i, d := range line.CumDistM {
		if d > lo && d < hi {
			seg.Points = append(seg.Points, line.Points[i])
			seg.CumDistM = append(seg.CumDistM, d-lo)
			seg.Bearings = append(seg.Bearings, line.Bearings[i])
		}
	}

	if hi > lo {
		hiPt, hiBearing := geo.InterpolateAtDistance(line, hi)
		seg.Points = append(seg.Points, hiPt)
		seg.CumDistM = append(seg.CumDistM, hi-lo)
		seg.Bearings = append(seg.Bearings, hiBearing)
	}

	if len(seg.Points) < 2 {
		return straightFallback(fromPt, toPt)
	}

	if reversed {
		seg.reverse()
	}
	return seg
}

// straightFallback approximates the path as a direct segment between the raw
// station coordinates.
func straightFallback(from, to geo.Point) *Segment {
	bearing := geo.Bearing(from, to)
	return &Segment{
		Points:   []geo.Point{from, to},
		CumDistM: []float64{0, geo.Haversine(from, to)},
		Bearings: []float64{bearing, bearing},
	}
}

// reverse flips the segment in place so traversal runs from the high end of
// the underlying line to the low end: coordinates and distances are mirrored
// and every bearing rotated 180 degrees.
func (s *Segment) reverse() {
	n := len(s.Points)
	total := s.TotalLengthM()

	points := make([]geo.Point, n)
	dists := make([]float64, n)
	bearings := make([]float64, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		points[i] = s.Points[j]
		dists[i] = total - s.CumDistM[j]
		bearings[i] = geo.NormalizeBearing(s.Bearings[j] + 180)
	}

	s.Points = points
	s.CumDistM = dists
	s.Bearings = bearings
	s.Reversed = true
}
