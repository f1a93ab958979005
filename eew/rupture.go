package eew

import (
	"fmt"
	"math"
	"sort"
)

// Direction controls how activation times radiate from the start source
// along the fault.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
	DirectionBoth     Direction = "both"
)

// DefaultRuptureVelocity is the km/s default used when a scenario does
// not specify one.
const DefaultRuptureVelocity = 2.5

// LatLon is an ordered (lat, lon) vertex, degrees.
type LatLon struct {
	Lat, Lon float64
}

// PolylineFault is the piecewise-linear rupture path. Fewer than two
// vertices is not an error: the scheduler degrades to longitude-sorted
// ordering.
type PolylineFault struct {
	Vertices []LatLon
}

// Valid reports whether the polyline has enough vertices to support
// projection.
func (f PolylineFault) Valid() bool {
	return len(f.Vertices) >= 2
}

// RuptureSource augments a PointSource with scheduling fields.
type RuptureSource struct {
	*PointSource
	DistanceOnFault float64  // km along the polyline, computed
	ActivateAt      *float64 // s since scenario start, nil means "never"
	Active          bool
}

// Scheduler orders a set of RuptureSources along a PolylineFault and
// advances/aggregates their wave fronts.
type Scheduler struct {
	Fault           PolylineFault
	Sources         []*RuptureSource
	Direction       Direction
	RuptureVelocity float64 // km/s
	ScenarioTime    float64

	startIndex int
}

// NewScheduler validates configuration and returns a Scheduler. Sources are
// immediately ordered and given activation times.
func NewScheduler(fault PolylineFault, sources []*RuptureSource, startIndex int, direction Direction, ruptureVelocity float64) (*Scheduler, error) {
	if ruptureVelocity <= 0 {
		return nil, fmt.Errorf("%w: rupture velocity %.3f must be positive", ErrInvalidConfig, ruptureVelocity)
	}
	switch direction {
	case DirectionForward, DirectionBackward, DirectionBoth:
	default:
		return nil, fmt.Errorf("%w: unknown rupture direction %q", ErrInvalidConfig, direction)
	}
	if startIndex < 0 || startIndex >= len(sources) {
		return nil, fmt.Errorf("%w: start index %d out of range for %d sources", ErrInvalidConfig, startIndex, len(sources))
	}
	s := &Scheduler{
		Fault:           fault,
		Sources:         sources,
		Direction:       direction,
		RuptureVelocity: ruptureVelocity,
	}
	s.recomputeActivationTimes(startIndex)
	return s, nil
}

// polylineKm projects the fault's vertices onto the km-plane and returns
// them alongside cumulative arc length from vertex 0.
func (s *Scheduler) polylineKm() (points []struct{ x, y float64 }, cumulative []float64) {
	points = make([]struct{ x, y float64 }, len(s.Fault.Vertices))
	for i, v := range s.Fault.Vertices {
		x, y := LatLonToXYKm(v.Lat, v.Lon)
		points[i] = struct{ x, y float64 }{x, y}
	}
	cumulative = make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		dx := points[i].x - points[i-1].x
		dy := points[i].y - points[i-1].y
		cumulative[i] = cumulative[i-1] + math.Hypot(dx, dy)
	}
	return
}

// projectDistanceOnFault finds the closest point on the piecewise-linear
// fault to (lat, lon) and returns the cumulative arc length to it.
func (s *Scheduler) projectDistanceOnFault(lat, lon float64) float64 {
	if !s.Fault.Valid() {
		return 0
	}
	points, cumulative := s.polylineKm()
	px, py := LatLonToXYKm(lat, lon)

	bestDist := 0.0
	bestD2 := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		x0, y0 := points[i].x, points[i].y
		x1, y1 := points[i+1].x, points[i+1].y
		vx, vy := x1-x0, y1-y0
		segLen2 := vx*vx + vy*vy
		if segLen2 <= 1e-9 {
			continue // degenerate segment
		}
		t := ((px-x0)*vx + (py-y0)*vy) / segLen2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		projX := x0 + t*vx
		projY := y0 + t*vy
		d2 := (projX-px)*(projX-px) + (projY-py)*(projY-py)
		if d2 < bestD2 {
			bestD2 = d2
			bestDist = cumulative[i] + math.Hypot(projX-x0, projY-y0)
		}
	}
	return bestDist
}

// sortSourcesByFault orders Sources by DistanceOnFault (stable, ties broken
// by input index), or by longitude when the fault has fewer than 2
// vertices.
func (s *Scheduler) sortSourcesByFault() {
	if !s.Fault.Valid() {
		for _, src := range s.Sources {
			src.DistanceOnFault = src.Lon
		}
	} else {
		for _, src := range s.Sources {
			src.DistanceOnFault = s.projectDistanceOnFault(src.Lat, src.Lon)
		}
	}
	sort.SliceStable(s.Sources, func(i, j int) bool {
		return s.Sources[i].DistanceOnFault < s.Sources[j].DistanceOnFault
	})
}

// recomputeActivationTimes orders the sources, then assigns each an
// activation time relative to the start source given Direction and
// RuptureVelocity.
func (s *Scheduler) recomputeActivationTimes(startIndexBeforeSort int) {
	if len(s.Sources) == 0 {
		return
	}
	startSrc := s.Sources[startIndexBeforeSort]
	s.sortSourcesByFault()

	startDist := startSrc.DistanceOnFault
	for _, src := range s.Sources {
		src.Active = false
		src.Time = 0
		if src == startSrc {
			zero := 0.0
			src.ActivateAt = &zero
			continue
		}
		dist := src.DistanceOnFault
		switch s.Direction {
		case DirectionForward:
			if dist < startDist {
				src.ActivateAt = nil
			} else {
				t := (dist - startDist) / s.RuptureVelocity
				src.ActivateAt = &t
			}
		case DirectionBackward:
			if dist > startDist {
				src.ActivateAt = nil
			} else {
				t := (startDist - dist) / s.RuptureVelocity
				src.ActivateAt = &t
			}
		default: // both
			t := math.Abs(dist-startDist) / s.RuptureVelocity
			src.ActivateAt = &t
		}
	}
}

// Tick advances scenario time and activates/advances each RuptureSource.
func (s *Scheduler) Tick(dt float64) error {
	if dt < 0 {
		return ErrNegativeDT
	}
	s.ScenarioTime += dt
	for _, src := range s.Sources {
		if src.ActivateAt == nil {
			continue
		}
		if s.ScenarioTime >= *src.ActivateAt {
			if !src.Active {
				src.Active = true
				src.Time = s.ScenarioTime - *src.ActivateAt
			} else {
				src.Time += dt
			}
		}
	}
	return nil
}

// CalcIntensity aggregates the single-source envelope across every
// active source and returns the pointwise maximum plus whether that maximum
// is S-dominant.
func (s *Scheduler) CalcIntensity(lat, lon, amp float64) (value float64, sDominant bool) {
	for _, src := range s.Sources {
		if !src.Active {
			continue
		}
		r := Envelope(src.PointSource, lat, lon, amp)
		if r.Value > value {
			value = r.Value
			sDominant = r.SDominant
		}
	}
	return
}

// ActiveSources returns the RuptureSources currently producing wave fronts.
func (s *Scheduler) ActiveSources() []*RuptureSource {
	active := make([]*RuptureSource, 0, len(s.Sources))
	for _, src := range s.Sources {
		if src.Active {
			active = append(active, src)
		}
	}
	return active
}
