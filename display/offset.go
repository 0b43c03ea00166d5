package display

import (
	"math"
	"sync"

	"github.com/theoremus-urban-solutions/transit-map-core/geo"
)

// zoomBucketWidth quantizes continuous zoom so a pinch gesture does not
// recompute offsets on every frame.
const zoomBucketWidth = 0.5

// Zoom breakpoints for the offset magnitude ramp. Lines separate visibly at
// medium zoom and converge toward (but never exactly onto) their true
// position at high zoom.
const (
	offsetZoomMin    = 12.0
	offsetZoomMid    = 14.0
	offsetZoomMax    = 16.0
	offsetMagnitudeM = 30.0
	offsetConvergedM = 10.0
)

type offsetKey struct {
	lineID string
	zoom   float64
}

// LineOffsetManager laterally offsets line geometries so parallel lines stay
// visually distinct. Each line id is assigned a signed slot index (0 means
// center, no offset); the assignment is configuration, not computed.
// Offset geometries are cached per (line, zoom bucket).
type LineOffsetManager struct {
	mu     sync.Mutex
	groups map[string]int
	cache  map[offsetKey][]geo.Point
}

// NewLineOffsetManager creates a manager seeded with the given line-id to
// slot-index assignment. The map may be nil.
func NewLineOffsetManager(groups map[string]int) *LineOffsetManager {
	m := &LineOffsetManager{
		groups: map[string]int{},
		cache:  map[offsetKey][]geo.Point{},
	}
	for id, idx := range groups {
		m.groups[id] = idx
	}
	return m
}

// ComputeLineOffset returns the signed offset in meters for a slot index at
// the given zoom. Index 0 is always 0.
func ComputeLineOffset(index int, zoom float64) float64 {
	if index == 0 {
		return 0
	}
	return float64(index) * offsetMagnitude(zoom)
}

func offsetMagnitude(zoom float64) float64 {
	switch {
	case zoom < offsetZoomMin:
		return 0
	case zoom < offsetZoomMid:
		return offsetMagnitudeM * (zoom - offsetZoomMin) / (offsetZoomMid - offsetZoomMin)
	case zoom < offsetZoomMax:
		return offsetMagnitudeM - (offsetMagnitudeM-offsetConvergedM)*(zoom-offsetZoomMid)/(offsetZoomMax-offsetZoomMid)
	default:
		return offsetConvergedM
	}
}

// ApplyOffset returns the geometry for lineID shifted laterally for the
// given zoom, consulting the per-zoom-bucket cache. When the line has no
// offset slot, or the magnitude at this zoom is ~0, the original geometry is
// returned (and cached) unchanged.
func (m *LineOffsetManager) ApplyOffset(lineID string, geometry []geo.Point, zoom float64) []geo.Point {
	key := offsetKey{lineID: lineID, zoom: math.Floor(zoom/zoomBucketWidth) * zoomBucketWidth}

	m.mu.Lock()
	if cached, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return cached
	}
	index := m.groups[lineID]
	m.mu.Unlock()

	offsetM := ComputeLineOffset(index, key.zoom)
	result := geometry
	if math.Abs(offsetM) >= 1e-9 {
		result = offsetGeometry(geometry, offsetM)
	}

	m.mu.Lock()
	m.cache[key] = result
	m.mu.Unlock()
	return result
}

// SetLineGroup reassigns lineID to a slot index and invalidates only that
// line's cached entries.
func (m *LineOffsetManager) SetLineGroup(lineID string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.groups[lineID] = index
	for key := range m.cache {
		if key.lineID == lineID {
			delete(m.cache, key)
		}
	}
}

// ClearCache drops every cached offset geometry.
func (m *LineOffsetManager) ClearCache() {
	m.mu.Lock()
	m.cache = map[offsetKey][]geo.Point{}
	m.mu.Unlock()
}

// offsetGeometry shifts every vertex perpendicular to the locally averaged
// line bearing: segment bearing at the endpoints, angle-wrapped average of
// incoming and outgoing bearings at interior vertices.
func offsetGeometry(points []geo.Point, offsetM float64) []geo.Point {
	if len(points) < 2 {
		return points
	}

	out := make([]geo.Point, len(points))
	for i, p := range points {
		var bearing float64
		switch {
		case i == 0:
			bearing = geo.Bearing(points[0], points[1])
		case i == len(points)-1:
			bearing = geo.Bearing(points[i-1], points[i])
		default:
			in := geo.Bearing(points[i-1], points[i])
			outB := geo.Bearing(points[i], points[i+1])
			bearing = geo.AverageBearings(in, outB)
		}
		out[i] = geo.Destination(p, geo.NormalizeBearing(bearing+90), offsetM)
	}
	return out
}
