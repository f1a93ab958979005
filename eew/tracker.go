package eew

import "math"

// Initial perturbation bounds.
const (
	initLatLonErrorBound = 0.8
	initDepthErrorBound  = 30.0
	initMagErrorBound    = 0.8
)

// Overthrow thresholds and the smaller re-drawn error bounds used once an
// overthrow fires.
const (
	overthrowMagThreshold   = 1.0
	overthrowDepthThreshold = 30.0

	overthrowLatLonBound = 0.5
	overthrowDepthBound  = 20.0
	overthrowMagBound    = 0.5
)

// Convergence thresholds.
const (
	convergeLatLonThreshold = 0.05
	convergeDepthThreshold  = 5.0
	convergeMagThreshold    = 0.1
)

// minStationsForFirstRevision and stationIncreaseForRevision set the
// station-driven revision cadence.
const (
	minStationsForFirstRevision = 3
	stationIncreaseForRevision  = 5
)

// Tracker emulates JMA's re-published, progressively corrected EEW
// estimates.
type Tracker struct {
	Enabled bool

	TrueLat, TrueLon, TrueDepth, TrueMagnitude float64

	CurrentLat, CurrentLon, CurrentDepth, CurrentMagnitude float64

	latErr, lonErr, depthErr, magErr float64

	RevisionCount            int
	lastDetectedStationCount int

	needsCorrectionAnnouncement bool
	convergedAnnounced          bool
}

// NewTracker builds a tracker for the given truth. When enabled, the
// initial estimate is perturbed using rng; when disabled the estimate
// equals truth and the tracker starts converged.
func NewTracker(trueLat, trueLon, trueDepth, trueMagnitude float64, enabled bool, rng *RNG) *Tracker {
	t := &Tracker{
		Enabled:       enabled,
		TrueLat:       trueLat,
		TrueLon:       trueLon,
		TrueDepth:     trueDepth,
		TrueMagnitude: trueMagnitude,
	}
	if !enabled {
		t.CurrentLat, t.CurrentLon, t.CurrentDepth, t.CurrentMagnitude = trueLat, trueLon, trueDepth, trueMagnitude
		return t
	}

	t.latErr = rng.Uniform(-initLatLonErrorBound, initLatLonErrorBound)
	t.lonErr = rng.Uniform(-initLatLonErrorBound, initLatLonErrorBound)
	t.depthErr = rng.Uniform(-initDepthErrorBound, initDepthErrorBound)
	t.magErr = rng.Uniform(-initMagErrorBound, initMagErrorBound)
	t.applyErrors()
	return t
}

func (t *Tracker) applyErrors() {
	t.CurrentLat = t.TrueLat + t.latErr
	t.CurrentLon = t.TrueLon + t.lonErr
	t.CurrentDepth = math.Max(0, t.TrueDepth+t.depthErr)
	t.CurrentMagnitude = math.Max(minMagnitude, math.Min(maxMagnitude, t.TrueMagnitude+t.magErr))
}

// RevisionEvent describes a single tracker correction.
type RevisionEvent struct {
	Count                      int
	Lat, Lon, Depth, Magnitude float64
	Overthrown                 bool
}

// Update feeds the current count of stations with intensity >= 3 into the
// tracker. It returns a non-nil RevisionEvent exactly when a revision
// fires this call.
func (t *Tracker) Update(detectedStationCount int, rng *RNG) *RevisionEvent {
	if !t.Enabled || t.Converged() {
		return nil
	}
	if detectedStationCount < minStationsForFirstRevision {
		return nil
	}

	stationIncrease := detectedStationCount - t.lastDetectedStationCount
	shouldCorrect := (t.RevisionCount == 0) || stationIncrease >= stationIncreaseForRevision
	if !shouldCorrect {
		return nil
	}

	t.lastDetectedStationCount = detectedStationCount
	t.RevisionCount++

	overthrown := math.Abs(t.magErr) > overthrowMagThreshold || math.Abs(t.depthErr) > overthrowDepthThreshold
	if overthrown {
		t.latErr = rng.Uniform(-overthrowLatLonBound, overthrowLatLonBound)
		t.lonErr = rng.Uniform(-overthrowLatLonBound, overthrowLatLonBound)
		t.depthErr = rng.Uniform(-overthrowDepthBound, overthrowDepthBound)
		t.magErr = rng.Uniform(-overthrowMagBound, overthrowMagBound)
	} else {
		var decayRate float64
		switch {
		case detectedStationCount >= 20:
			decayRate = rng.Uniform(0.4, 0.6)
		case detectedStationCount >= 10:
			decayRate = rng.Uniform(0.3, 0.5)
		default:
			decayRate = rng.Uniform(0.2, 0.4)
		}
		t.latErr *= 1 - decayRate
		t.lonErr *= 1 - decayRate
		t.depthErr *= 1 - decayRate
		t.magErr *= 1 - decayRate
	}

	t.applyErrors()
	t.needsCorrectionAnnouncement = true

	return &RevisionEvent{
		Count:      t.RevisionCount,
		Lat:        t.CurrentLat,
		Lon:        t.CurrentLon,
		Depth:      t.CurrentDepth,
		Magnitude:  t.CurrentMagnitude,
		Overthrown: overthrown,
	}
}

// Converged reports whether all error terms are within their convergence
// thresholds. Monotonic: once true it stays true (errors are never mutated
// again once Update observes convergence).
func (t *Tracker) Converged() bool {
	if !t.Enabled {
		return true
	}
	converged := math.Abs(t.latErr) < convergeLatLonThreshold &&
		math.Abs(t.lonErr) < convergeLatLonThreshold &&
		math.Abs(t.depthErr) < convergeDepthThreshold &&
		math.Abs(t.magErr) < convergeMagThreshold
	if converged {
		t.convergedAnnounced = true
	}
	return converged
}

// ConsumeCorrectionFlag returns true exactly once per fired revision.
func (t *Tracker) ConsumeCorrectionFlag() bool {
	if t.needsCorrectionAnnouncement {
		t.needsCorrectionAnnouncement = false
		return true
	}
	return false
}

// ConvergedAnnounced reports whether convergence has been observed at
// least once.
func (t *Tracker) ConvergedAnnounced() bool {
	return t.convergedAnnounced
}
