package display

import (
	"math"

	"github.com/theoremus-urban-solutions/transit-map-core/geo"
)

// DefaultClusterThresholdPx is the pixel distance under which two projected
// markers are considered overlapping.
const DefaultClusterThresholdPx = 20.0

// ProjectedPoint is an entity projected into screen space.
type ProjectedPoint struct {
	ID string
	X  float64
	Y  float64
}

// PixelOffset is a screen-space displacement for one entity.
type PixelOffset struct {
	X float64
	Y float64
}

// Entity is a point feature that may need radial decluttering.
type Entity struct {
	ID  string
	Pos geo.Point
}

// Projector maps a geographic point to screen pixels.
type Projector func(p geo.Point) (x, y float64)

// ClusterByProximity groups points in a single greedy pass: each point joins
// the first existing cluster containing a member within thresholdPx, else
// starts a new cluster. This is not a transitive merge: a chain of
// pairwise-close points can split across clusters depending on input order.
func ClusterByProximity(points []ProjectedPoint, thresholdPx float64) [][]ProjectedPoint {
	var clusters [][]ProjectedPoint

next:
	for _, p := range points {
		for i, cluster := range clusters {
			for _, member := range cluster {
				dx := p.X - member.X
				dy := p.Y - member.Y
				if math.Hypot(dx, dy) <= thresholdPx {
					clusters[i] = append(clusters[i], p)
					continue next
				}
			}
		}
		clusters = append(clusters, []ProjectedPoint{p})
	}
	return clusters
}

// CalculateRadialOffsets projects each entity to screen space, clusters
// overlapping ones, and spreads each cluster of size N>1 evenly around a
// circle of radius 10+2N pixels. Singletons get a zero offset. The result
// maps entity id to its pixel offset.
func CalculateRadialOffsets(entities []Entity, project Projector) map[string]PixelOffset {
	points := make([]ProjectedPoint, 0, len(entities))
	for _, e := range entities {
		x, y := project(e.Pos)
		points = append(points, ProjectedPoint{ID: e.ID, X: x, Y: y})
	}

	offsets := make(map[string]PixelOffset, len(entities))
	for _, cluster := range ClusterByProximity(points, DefaultClusterThresholdPx) {
		n := len(cluster)
		if n <= 1 {
			for _, p := range cluster {
				offsets[p.ID] = PixelOffset{}
			}
			continue
		}
		radius := 10 + float64(n)*2
		for k, p := range cluster {
			angle := 2 * math.Pi * float64(k) / float64(n)
			offsets[p.ID] = PixelOffset{
				X: radius * math.Cos(angle),
				Y: radius * math.Sin(angle),
			}
		}
	}
	return offsets
}
