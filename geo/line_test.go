package geo

import (
	"math"
	"testing"
)

// A short west-to-east line along a constant latitude.
func testLine() Line {
	return PreprocessLine([]Point{
		{Lat: 41.38, Lon: 2.10},
		{Lat: 41.38, Lon: 2.12},
		{Lat: 41.38, Lon: 2.14},
		{Lat: 41.38, Lon: 2.16},
	})
}

func TestPreprocessLine(t *testing.T) {
	line := testLine()

	if !line.IsSnappable() {
		t.Fatal("expected line with 4 points to be snappable")
	}
	if line.CumDistM[0] != 0 {
		t.Errorf("cumulative distances must start at 0, got %v", line.CumDistM[0])
	}
	for i := 1; i < len(line.CumDistM); i++ {
		if line.CumDistM[i] < line.CumDistM[i-1] {
			t.Errorf("cumulative distances must be non-decreasing: %v", line.CumDistM)
		}
	}

	// Final cumulative value equals the summed segment lengths.
	var total float64
	for i := 1; i < len(line.Points); i++ {
		total += Haversine(line.Points[i-1], line.Points[i])
	}
	if math.Abs(line.TotalLengthM()-total) > 1e-6 {
		t.Errorf("expected total %v, got %v", total, line.TotalLengthM())
	}
}

func TestPreprocessLineDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{name: "empty", points: nil},
		{name: "single point", points: []Point{{Lat: 41.38, Lon: 2.10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := PreprocessLine(tt.points)
			if line.IsSnappable() {
				t.Error("degenerate line must not be snappable")
			}
			if snap := SnapToLine(Point{Lat: 41.38, Lon: 2.10}, line, 1000); snap != nil {
				t.Errorf("snapping against degenerate line must return nil, got %+v", snap)
			}
		})
	}
}

func TestInterpolateAtDistance(t *testing.T) {
	line := testLine()
	total := line.TotalLengthM()

	t.Run("clamps below zero", func(t *testing.T) {
		pos, _ := InterpolateAtDistance(line, -50)
		if pos != line.Points[0] {
			t.Errorf("expected start point, got %+v", pos)
		}
	})

	t.Run("clamps beyond total", func(t *testing.T) {
		pos, _ := InterpolateAtDistance(line, total+50)
		if pos != line.Points[len(line.Points)-1] {
			t.Errorf("expected end point, got %+v", pos)
		}
	})

	t.Run("midpoint lies between neighbors", func(t *testing.T) {
		pos, bearing := InterpolateAtDistance(line, total/2)
		if pos.Lon <= line.Points[0].Lon || pos.Lon >= line.Points[3].Lon {
			t.Errorf("midpoint longitude out of range: %+v", pos)
		}
		// The line runs due east.
		if math.Abs(bearing-90) > 1 {
			t.Errorf("expected bearing ~90, got %v", bearing)
		}
	})

	t.Run("distance round trip", func(t *testing.T) {
		target := total * 0.25
		pos, _ := InterpolateAtDistance(line, target)
		snap := SnapToLine(pos, line, 10)
		if snap == nil {
			t.Fatal("interpolated point must snap back onto the line")
		}
		if math.Abs(snap.DistanceM-target) > 1 {
			t.Errorf("expected distance %v, got %v", target, snap.DistanceM)
		}
	})
}
