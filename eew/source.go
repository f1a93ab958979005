package eew

import (
	"fmt"
	"math"
)

// Simulation wave speeds (km/s). Every arrival-time and radius
// computation in this package uses these, not the realistic crustal
// values.
const (
	VP = 6.5
	VS = 4.0

	// RealisticVP and RealisticVS are exposed for callers who want to
	// experiment with the config-declared speeds. Neither is wired into
	// PointSource's math.
	RealisticVP = 7.3
	RealisticVS = 4.1
)

const (
	minMagnitude = 1.0
	maxMagnitude = 9.5
)

// PointSource is a single hypocenter: a lat/lon/depth/magnitude plus an
// elapsed time that advances monotonically between resets.
type PointSource struct {
	Lat, Lon  float64
	Depth     float64 // km, >= 0
	Magnitude float64 // 1.0-9.5
	Time      float64 // seconds since this source's own activation
}

// NewPointSource validates and returns a hypocenter. Negative depth is
// clamped to 0; magnitude outside [1.0, 9.5] is rejected.
func NewPointSource(lat, lon, depth, magnitude float64) (*PointSource, error) {
	if depth < 0 {
		depth = 0
	}
	if magnitude < minMagnitude || magnitude > maxMagnitude {
		return nil, fmt.Errorf("%w: magnitude %.2f outside [%.1f, %.1f]", ErrInvalidConfig, magnitude, minMagnitude, maxMagnitude)
	}
	return &PointSource{Lat: lat, Lon: lon, Depth: depth, Magnitude: magnitude}, nil
}

// Advance moves the source's own clock forward by dt seconds.
func (p *PointSource) Advance(dt float64) error {
	if dt < 0 {
		return ErrNegativeDT
	}
	p.Time += dt
	return nil
}

// surfaceRadius returns sqrt((v*t)^2 - h^2), or 0 while the wave is still
// below the surface (v*t <= h).
func surfaceRadius(v, t, h float64) float64 {
	reach := v * t
	if reach <= h {
		return 0
	}
	return math.Sqrt(reach*reach - h*h)
}

// PWaveRadiusKm returns the current P-wave surface radius.
func (p *PointSource) PWaveRadiusKm() float64 {
	return surfaceRadius(VP, p.Time, p.Depth)
}

// SWaveRadiusKm returns the current S-wave surface radius.
func (p *PointSource) SWaveRadiusKm() float64 {
	return surfaceRadius(VS, p.Time, p.Depth)
}

// EpicentralDistanceKm returns the km-plane distance from this source's
// epicenter to the given site.
func (p *PointSource) EpicentralDistanceKm(lat, lon float64) float64 {
	return EpicentralDistanceKm(p.Lat, p.Lon, lat, lon)
}

// HypocentralDistanceKm returns sqrt(epicentral^2 + depth^2) for a site at
// the given epicentral distance.
func (p *PointSource) HypocentralDistanceKm(epicentralKm float64) float64 {
	return math.Hypot(epicentralKm, p.Depth)
}

// PArrivalTime returns the time (seconds, measured from this source's own
// activation, the same clock as Time) at which the P wave reaches the site.
func (p *PointSource) PArrivalTime(lat, lon float64) float64 {
	d := p.EpicentralDistanceKm(lat, lon)
	return p.HypocentralDistanceKm(d) / VP
}

// SArrivalTime is the P-arrival analogue for the S wave.
func (p *PointSource) SArrivalTime(lat, lon float64) float64 {
	d := p.EpicentralDistanceKm(lat, lon)
	return p.HypocentralDistanceKm(d) / VS
}
