package eew

import "math"

// UnobservedIntensity is the sentinel for "no wave has reached this site
// yet".
const UnobservedIntensity = -3.0

const maxObservableIntensity = 7.5

// Station is a fixed observation point with mutable observation state.
// Station never holds a back-reference to a source: updates are pure
// functions of (station, source snapshot, dt, rng).
type Station struct {
	ID   int
	Lat  float64
	Lon  float64
	Name string
	Amp  float64 // site amplification, default 1.0

	Intensity       float64
	TargetIntensity float64
	MaxIntensity    float64
	PArrived        bool
	SArrived        bool
	TimeSincePeak   float64
	PArrivalTime    float64 // scenario-time of first P detection
	HasPArrivalTime bool
	PAmplitude      float64
}

// NewStation returns a Station at rest (untriggered).
func NewStation(id int, lat, lon float64, name string, amp float64) *Station {
	if amp <= 0 {
		amp = 1.0
	}
	return &Station{
		ID:              id,
		Lat:             lat,
		Lon:             lon,
		Name:            name,
		Amp:             amp,
		Intensity:       UnobservedIntensity,
		TargetIntensity: UnobservedIntensity,
		MaxIntensity:    UnobservedIntensity,
	}
}

// SourceSnapshot is the minimal read-only view of a governing source that
// Station.Update needs, so a station update does not hold a PointSource.
// Multi-source scenarios do not use it; they feed stations through
// UpdateWithTarget.
type SourceSnapshot struct {
	Magnitude    float64
	Depth        float64 // km
	DEpi         float64 // epicentral distance, km
	PArrivalTime float64 // scenario-time seconds
	SArrivalTime float64
}

// pointSourceSnapshot builds a SourceSnapshot for a single-source scenario.
func pointSourceSnapshot(src *PointSource, lat, lon float64) SourceSnapshot {
	return SourceSnapshot{
		Magnitude:    src.Magnitude,
		Depth:        src.Depth,
		DEpi:         src.EpicentralDistanceKm(lat, lon),
		PArrivalTime: src.PArrivalTime(lat, lon),
		SArrivalTime: src.SArrivalTime(lat, lon),
	}
}

// Update advances a station's observation state by dt seconds given the
// governing source snapshot and the scenario's current time.
// currentTime is the time at which P/S arrival is evaluated, on the same
// clock as snap's arrival times (for a single PointSource this is
// src.Time).
func (st *Station) Update(snap SourceSnapshot, currentTime, dt float64, rng *RNG) {
	pArrived := currentTime >= snap.PArrivalTime
	sArrived := currentTime >= snap.SArrivalTime
	st.recordArrival(pArrived, sArrived, currentTime, snap.Magnitude, snap.DEpi)

	var target float64
	switch {
	case st.SArrived:
		target = PeakIntensityRaw(snap.Magnitude, snap.Depth, snap.DEpi, st.Amp)
		if target < UnobservedIntensity {
			target = UnobservedIntensity
		}
	case st.PArrived:
		sIntensity := PeakIntensityRaw(snap.Magnitude, snap.Depth, snap.DEpi, st.Amp)
		target = sIntensity/1.5 - 0.5
		if target < UnobservedIntensity {
			target = UnobservedIntensity
		}
	default:
		st.TargetIntensity = UnobservedIntensity
		st.Intensity = UnobservedIntensity
		return
	}
	st.UpdateWithTarget(target, snap.Magnitude, dt, rng)
}

// UpdateWithTarget applies the growth rule toward an already-computed
// target intensity. Multi-source scenarios use this directly after
// aggregating the pointwise-max envelope across active sources,
// since that aggregate already folds in every source's contribution and a
// second per-source recomputation inside Station would be wrong.
func (st *Station) UpdateWithTarget(target, magnitude, dt float64, rng *RNG) {
	st.TargetIntensity = target
	st.grow(magnitude, dt, rng)
	if st.Intensity > st.MaxIntensity {
		st.MaxIntensity = st.Intensity
	}
}

// recordArrival flips PArrived/SArrived monotonically and records the
// one-shot P-arrival bookkeeping.
func (st *Station) recordArrival(pArrived, sArrived bool, currentTime, magnitude, dEpi float64) {
	wasP := st.PArrived
	st.PArrived = st.PArrived || pArrived
	st.SArrived = st.SArrived || sArrived

	if st.PArrived && !wasP {
		st.PArrivalTime = currentTime
		st.HasPArrivalTime = true
		d := dEpi
		if d < 1 {
			d = 1
		}
		st.PAmplitude = math.Pow(10, magnitude-1.5) / d
	}
}

// grow applies the progressive-growth rule: observed
// Intensity approaches TargetIntensity from below, at a rate that shrinks
// as Intensity nears the 7-point ceiling.
func (st *Station) grow(magnitude, dt float64, rng *RNG) {
	iNow := st.Intensity + 3
	if iNow < 0.01 {
		iNow = 0.01
	}
	growthFactor := math.Log(1/iNow)/math.Log(7) + 1

	baseRand := 0.005 + 0.04/math.Log(magnitude+0.2)
	r := rng.Uniform(0.3*baseRand, baseRand)
	if st.PArrived && !st.SArrived {
		r *= 0.5
	}

	increment := growthFactor * r * dt * 60
	minIncrement := 0.5 * dt
	if increment < minIncrement {
		increment = minIncrement
	}

	if st.Intensity+increment < st.TargetIntensity {
		st.Intensity += increment
		st.TimeSincePeak = 0
	} else {
		st.Intensity = st.TargetIntensity
		st.TimeSincePeak += dt
	}

	if st.Intensity > maxObservableIntensity {
		st.Intensity = maxObservableIntensity
	}
}

// Reset returns the station to its untriggered state.
func (st *Station) Reset() {
	st.Intensity = UnobservedIntensity
	st.TargetIntensity = UnobservedIntensity
	st.MaxIntensity = UnobservedIntensity
	st.PArrived = false
	st.SArrived = false
	st.TimeSincePeak = 0
	st.HasPArrivalTime = false
	st.PArrivalTime = 0
	st.PAmplitude = 0
}
