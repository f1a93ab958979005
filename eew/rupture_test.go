package eew

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuptureSourceAt(t *testing.T, lat, lon, depth, magnitude float64) *RuptureSource {
	t.Helper()
	src, err := NewPointSource(lat, lon, depth, magnitude)
	require.NoError(t, err)
	return &RuptureSource{PointSource: src}
}

func TestNewSchedulerRejectsBadConfig(t *testing.T) {
	fault := PolylineFault{Vertices: []LatLon{{Lat: 35.0, Lon: 139.0}, {Lat: 35.5, Lon: 139.5}}}
	sources := []*RuptureSource{newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0)}

	_, err := NewScheduler(fault, sources, 0, DirectionForward, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewScheduler(fault, sources, 0, "sideways", 2.5)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewScheduler(fault, sources, 5, DirectionForward, 2.5)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestForwardRuptureActivatesInFaultOrder(t *testing.T) {
	fault := PolylineFault{Vertices: []LatLon{{Lat: 35.0, Lon: 139.0}, {Lat: 36.0, Lon: 140.0}}}
	sources := []*RuptureSource{
		newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0), // start, distance 0
		newRuptureSourceAt(t, 35.5, 139.5, 10, 6.0), // mid fault
		newRuptureSourceAt(t, 35.9, 139.9, 10, 6.0), // far along fault
	}

	sched, err := NewScheduler(fault, sources, 0, DirectionForward, 2.5)
	require.NoError(t, err)

	require.NoError(t, sched.Tick(0))
	assert.True(t, sched.Sources[0].Active)
	assert.False(t, sched.Sources[1].Active)
	assert.False(t, sched.Sources[2].Active)

	require.NoError(t, sched.Tick(1000))
	assert.True(t, sched.Sources[0].Active)
	assert.True(t, sched.Sources[1].Active)
	assert.True(t, sched.Sources[2].Active)
}

func TestBackwardDirectionNeverActivatesSourcesAheadOfStart(t *testing.T) {
	fault := PolylineFault{Vertices: []LatLon{{Lat: 35.0, Lon: 139.0}, {Lat: 36.0, Lon: 140.0}}}
	sources := []*RuptureSource{
		newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0),
		newRuptureSourceAt(t, 35.9, 139.9, 10, 6.0),
	}
	sched, err := NewScheduler(fault, sources, 0, DirectionBackward, 2.5)
	require.NoError(t, err)

	require.NoError(t, sched.Tick(100000))
	assert.True(t, sched.Sources[0].Active)
	assert.False(t, sched.Sources[1].Active)
}

func TestBothDirectionActivatesByAbsoluteDistanceFromStart(t *testing.T) {
	fault := PolylineFault{Vertices: []LatLon{{Lat: 35.0, Lon: 139.0}, {Lat: 36.0, Lon: 140.0}}}
	sources := []*RuptureSource{
		newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0),
		newRuptureSourceAt(t, 35.5, 139.5, 10, 6.0), // start, mid fault
		newRuptureSourceAt(t, 35.9, 139.9, 10, 6.0),
	}
	sched, err := NewScheduler(fault, sources, 1, DirectionBoth, 2.5)
	require.NoError(t, err)

	for _, src := range sched.Sources {
		require.NotNil(t, src.ActivateAt)
	}
	// The start source activates at 0; every other source at |dist|/v from it.
	start := sched.Sources[1]
	assert.Equal(t, 0.0, *start.ActivateAt)
	for _, src := range []*RuptureSource{sched.Sources[0], sched.Sources[2]} {
		want := math.Abs(src.DistanceOnFault-start.DistanceOnFault) / 2.5
		assert.InDelta(t, want, *src.ActivateAt, 1e-9)
	}
}

func TestFewerThanTwoVerticesDegradesToLongitudeSort(t *testing.T) {
	fault := PolylineFault{} // no vertices
	sources := []*RuptureSource{
		newRuptureSourceAt(t, 35.0, 140.0, 10, 6.0),
		newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0),
	}
	sched, err := NewScheduler(fault, sources, 1, DirectionForward, 2.5)
	require.NoError(t, err)
	assert.Less(t, sched.Sources[0].DistanceOnFault, sched.Sources[1].DistanceOnFault)
}

func TestCalcIntensityIsZeroUntilSomeSourceActivates(t *testing.T) {
	fault := PolylineFault{Vertices: []LatLon{{Lat: 35.0, Lon: 139.0}, {Lat: 36.0, Lon: 140.0}}}
	sources := []*RuptureSource{newRuptureSourceAt(t, 35.0, 139.0, 10, 6.0)}
	sched, err := NewScheduler(fault, sources, 0, DirectionForward, 2.5)
	require.NoError(t, err)

	v, _ := sched.CalcIntensity(35.5, 139.5, 1.0)
	assert.Equal(t, 0.0, v)

	require.NoError(t, sched.Tick(200))
	v, _ = sched.CalcIntensity(35.0, 139.0, 1.0)
	assert.Greater(t, v, 0.0)
}
