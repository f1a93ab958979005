package eew

import "math"

// Envelope time constants.
const (
	tauPRise  = 0.5 // s
	tauPDecay = 8.0 // s
	tauSRise  = 0.8 // s

	minTauS = 2.0  // s
	maxTauS = 40.0 // s
)

// peakAcceleration is a Si & Midorikawa (1999)-style distance/magnitude
// attenuation returning peak ground acceleration in gal (cm/s^2). The PGA
// is converted to the instrumental JMA scale as 2*log10(PGA) + 0.94.
func peakAcceleration(magnitude, hypocentralDistanceKm float64) float64 {
	r := hypocentralDistanceKm
	if r < 1 {
		r = 1
	}
	logPGA := 0.50*magnitude - math.Log10(r+0.0055*math.Pow(10, 0.5*magnitude)) - 0.0033*r + 0.61
	return math.Pow(10, logPGA)
}

// bai converts a site amplification factor into the multiplicative site
// term used by the peak-intensity formula.
func bai(amp float64) float64 {
	if amp <= 0 {
		amp = 0.01
	}
	return (amp*4 + amp*amp) / 5
}

// PeakIntensityRaw returns the peak JMA intensity for a site at the given
// magnitude/depth/epicentral distance/site amplification. The result is NOT
// clamped; callers that feed it into the envelope clamp to >= 0
// themselves; Station keeps the raw (possibly negative) value, floored at
// UnobservedIntensity, as its target so a weak signal is representable
// without a separate flag.
func PeakIntensityRaw(magnitude, depth, epicentralKm, amp float64) float64 {
	r := math.Hypot(epicentralKm, depth)
	pga := peakAcceleration(magnitude, r) * bai(amp)
	if pga <= 0 {
		pga = 1e-6
	}
	return 2*math.Log10(pga) + 0.94
}

// PeakIntensity clamps PeakIntensityRaw to >= 0, the form consumed by the
// envelope and multi-source aggregation.
func PeakIntensity(magnitude, depth, epicentralKm, amp float64) float64 {
	v := PeakIntensityRaw(magnitude, depth, epicentralKm, amp)
	if v < 0 {
		return 0
	}
	return v
}

// PPeakFromSPeak is the envelope's P-peak formula: I_S - 1.5, clamped to
// >= 0. A second form, I_S/1.5 - 0.5, belongs to the station target path
// (Station.Update); each call site keeps its own.
func PPeakFromSPeak(sPeak float64) float64 {
	v := sPeak - 1.5
	if v < 0 {
		return 0
	}
	return v
}

// attack is 1 - e^(-x/tau) for x > 0, else 0.
func attack(x, tau float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 - math.Exp(-x/tau)
}

// decay is e^(-x/tau) for x > 0, else 0.
func decay(x, tau float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Exp(-x / tau)
}

// plateauDuration returns how long (seconds after S arrival) the S envelope
// stays at its attack peak before decaying.
func plateauDuration(magnitude float64) float64 {
	return 2.0 * math.Pow(2, magnitude-6)
}

// vs30FromAmp derives a nominal Vs30 (m/s) from a station's site
// amplification factor.
func vs30FromAmp(amp float64) float64 {
	if amp < 0.1 {
		amp = 0.1
	}
	return 400 / amp
}

// siteFactorFromVs30 buckets Vs30 into the three site-class multipliers the
// S-wave decay duration uses.
func siteFactorFromVs30(vs30 float64) float64 {
	switch {
	case vs30 >= 400:
		return 1.0
	case vs30 >= 200:
		return 1.3
	default:
		return 1.8
	}
}

// sWaveDecayTau computes tau_S: the D5-95-derived
// time constant controlling how fast the S envelope decays after the
// plateau, clamped to [2, 40] seconds.
func sWaveDecayTau(magnitude, epicentralKm, amp float64) float64 {
	magBase := 4.0 * math.Pow(2, magnitude-5)
	distFactor := 1 + 0.1*math.Log10((epicentralKm+10)/10)
	siteFactor := siteFactorFromVs30(vs30FromAmp(amp))
	d595 := magBase * distFactor * siteFactor
	tau := d595 / 3.5
	if tau < minTauS {
		tau = minTauS
	}
	if tau > maxTauS {
		tau = maxTauS
	}
	return tau
}

// EnvelopeResult is the instantaneous intensity a single source contributes
// at a site, plus which branch (P or S) is driving the current value.
type EnvelopeResult struct {
	Value     float64
	SDominant bool
}

// Envelope evaluates the single-source attack/plateau/decay model at site
// (lat, lon) at the source's current elapsed time.
func Envelope(source *PointSource, lat, lon, amp float64) EnvelopeResult {
	epi := source.EpicentralDistanceKm(lat, lon)
	sPeak := PeakIntensity(source.Magnitude, source.Depth, epi, amp)
	pPeak := PPeakFromSPeak(sPeak)

	tP := source.PArrivalTime(lat, lon)
	tS := source.SArrivalTime(lat, lon)
	dtP := source.Time - tP
	dtS := source.Time - tS

	iPEnv := pPeak * attack(dtP, tauPRise) * decay(dtP, tauPDecay)

	plateau := plateauDuration(source.Magnitude)
	var iSEnv float64
	switch {
	case dtS <= 0:
		iSEnv = 0
	case dtS <= plateau:
		iSEnv = sPeak * attack(dtS, tauSRise)
	default:
		tauS := sWaveDecayTau(source.Magnitude, epi, amp)
		iSEnv = sPeak * decay(dtS-plateau, tauS)
	}

	if iSEnv >= iPEnv {
		return EnvelopeResult{Value: iSEnv, SDominant: true}
	}
	return EnvelopeResult{Value: iPEnv, SDominant: false}
}

// ScaleLabel maps a floating-point JMA intensity to its display label, e.g.
// "5-", "5+", "7". Returns "" below the 0.5 display threshold.
func ScaleLabel(intensity float64) string {
	switch {
	case intensity < 0.5:
		return ""
	case intensity < 1.5:
		return "1"
	case intensity < 2.5:
		return "2"
	case intensity < 3.5:
		return "3"
	case intensity < 4.5:
		return "4"
	case intensity < 5.0:
		return "5-"
	case intensity < 5.5:
		return "5+"
	case intensity < 6.0:
		return "6-"
	case intensity < 6.5:
		return "6+"
	default:
		return "7"
	}
}

// ScaleLevel maps a floating-point JMA intensity to its integer "crossed
// level" bucket used by FrameReport.NewIntensityLevels: the integer part
// of the intensity, capped at 7. These buckets are integer thresholds, not
// the ScaleLabel cutpoints (4.7 is labelled "5-" but is level 4).
func ScaleLevel(intensity float64) (level int, ok bool) {
	switch {
	case intensity < 0:
		return 0, false
	case intensity < 1:
		return 0, true
	case intensity < 2:
		return 1, true
	case intensity < 3:
		return 2, true
	case intensity < 4:
		return 3, true
	case intensity < 5:
		return 4, true
	case intensity < 6:
		return 5, true
	case intensity < 7:
		return 6, true
	default:
		return 7, true
	}
}
