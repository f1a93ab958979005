package eew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStationStartsUnobserved(t *testing.T) {
	st := NewStation(1, 35.0, 139.0, "test", 1.0)
	assert.Equal(t, UnobservedIntensity, st.Intensity)
	assert.False(t, st.PArrived)
	assert.False(t, st.SArrived)
}

func TestStationStaysUnobservedBeforePArrival(t *testing.T) {
	st := NewStation(1, 40.0, 145.0, "far", 1.0)
	src, err := NewPointSource(35.7, 139.7, 10, 6.0)
	require.NoError(t, err)
	rng := NewRNG(1)

	snap := pointSourceSnapshot(src, st.Lat, st.Lon)
	st.Update(snap, src.Time, 1.0, rng)
	assert.Equal(t, UnobservedIntensity, st.Intensity)
}

func TestStationGrowsTowardTargetAfterSArrival(t *testing.T) {
	st := NewStation(1, 35.72, 139.72, "near", 1.0)
	src, err := NewPointSource(35.7, 139.7, 10, 7.0)
	require.NoError(t, err)
	rng := NewRNG(42)

	tS := src.SArrivalTime(st.Lat, st.Lon)
	require.NoError(t, src.Advance(tS+0.1))

	prev := st.Intensity
	for i := 0; i < 50; i++ {
		snap := pointSourceSnapshot(src, st.Lat, st.Lon)
		st.Update(snap, src.Time, 1.0, rng)
		require.NoError(t, src.Advance(1.0))
		assert.GreaterOrEqual(t, st.Intensity, prev)
		prev = st.Intensity
	}
	assert.True(t, st.SArrived)
	assert.Greater(t, st.Intensity, UnobservedIntensity)
}

func TestStationIntensityNeverExceedsCeiling(t *testing.T) {
	st := NewStation(1, 35.701, 139.701, "epicentral", 1.0)
	src, err := NewPointSource(35.7, 139.7, 2, 9.5)
	require.NoError(t, err)
	rng := NewRNG(7)

	require.NoError(t, src.Advance(5.0))
	for i := 0; i < 2000; i++ {
		snap := pointSourceSnapshot(src, st.Lat, st.Lon)
		st.Update(snap, src.Time, 1.0, rng)
		require.NoError(t, src.Advance(1.0))
		assert.LessOrEqual(t, st.Intensity, maxObservableIntensity)
	}
}

func TestStationResetReturnsToUnobserved(t *testing.T) {
	st := NewStation(1, 35.72, 139.72, "near", 1.0)
	st.Intensity = 5.0
	st.PArrived = true
	st.SArrived = true
	st.Reset()
	assert.Equal(t, UnobservedIntensity, st.Intensity)
	assert.False(t, st.PArrived)
	assert.False(t, st.SArrived)
}
