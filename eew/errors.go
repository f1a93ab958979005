package eew

import "errors"

// Sentinel errors: setup-time rejections and the two
// runtime conditions that must be surfaced rather than silently absorbed.
// Numerical edge cases (zero-length segments, d_epi == 0, amp <= 0) are
// never surfaced; they are clamped or skipped at the call site.
var (
	// ErrInvalidConfig is returned by scenario/source constructors when a
	// setup-time parameter is out of range (magnitude, rupture velocity,
	// direction, start index). Negative depth is clamped to 0 and a
	// polyline with fewer than two vertices is accepted, so neither is
	// rejected.
	ErrInvalidConfig = errors.New("eew: invalid configuration")

	// ErrStaleHandle is returned when an operation is attempted against a
	// ScenarioHandle whose Scenario has been reset. Scenario state is
	// never silently recreated.
	ErrStaleHandle = errors.New("eew: stale scenario handle")

	// ErrNegativeDT is returned by Tick when dt is negative. The clock
	// never moves backward.
	ErrNegativeDT = errors.New("eew: negative time step")
)
