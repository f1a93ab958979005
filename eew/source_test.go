package eew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestNewPointSourceRejectsOutOfRangeMagnitude(t *testing.T) {
	_, err := NewPointSource(35.0, 139.0, 10, 0.5)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPointSource(35.0, 139.0, 10, 10.0)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewPointSourceClampsNegativeDepth(t *testing.T) {
	src, err := NewPointSource(35.0, 139.0, -5, 6.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, src.Depth)
}

func TestAdvanceRejectsNegativeDT(t *testing.T) {
	src, err := NewPointSource(35.0, 139.0, 10, 6.0)
	require.NoError(t, err)
	require.ErrorIs(t, src.Advance(-1), ErrNegativeDT)
}

func TestWaveRadiusGrowsWithTimeAndStartsAtDepthReach(t *testing.T) {
	src, err := NewPointSource(35.0, 139.0, 10, 6.0)
	require.NoError(t, err)

	// Before the P wave has traveled past the depth, surface radius is 0.
	require.NoError(t, src.Advance(1.0))
	assert.Equal(t, 0.0, src.PWaveRadiusKm())

	// Once VP*t exceeds depth, radius grows monotonically.
	require.NoError(t, src.Advance(5.0))
	r1 := src.PWaveRadiusKm()
	require.NoError(t, src.Advance(5.0))
	r2 := src.PWaveRadiusKm()
	assert.Greater(t, r2, r1)
}

func TestArrivalTimeAtEpicenterIsDepthOverVelocity(t *testing.T) {
	src, err := NewPointSource(35.7, 139.7, 13, 6.0)
	require.NoError(t, err)

	// d_epi = 0, so the wave arrives straight up: h/v.
	assert.True(t, scalar.EqualWithinAbs(13.0/VP, src.PArrivalTime(35.7, 139.7), 1e-12))
	assert.True(t, scalar.EqualWithinAbs(13.0/VS, src.SArrivalTime(35.7, 139.7), 1e-12))
}

func TestSurfaceRadiusAtZeroDepthIsVelocityTimesTime(t *testing.T) {
	src, err := NewPointSource(35.7, 139.7, 0, 6.0)
	require.NoError(t, err)
	require.NoError(t, src.Advance(10))
	assert.True(t, scalar.EqualWithinAbs(VP*10, src.PWaveRadiusKm(), 1e-9))
	assert.True(t, scalar.EqualWithinAbs(VS*10, src.SWaveRadiusKm(), 1e-9))
}

func TestSArrivesAfterPAtTheSameSite(t *testing.T) {
	src, err := NewPointSource(35.7, 139.7, 10, 6.0)
	require.NoError(t, err)

	tP := src.PArrivalTime(35.8, 139.8)
	tS := src.SArrivalTime(35.8, 139.8)
	assert.Greater(t, tS, tP)
}

func TestRealisticWaveSpeedsAreExposedButUnused(t *testing.T) {
	assert.Equal(t, 7.3, RealisticVP)
	assert.Equal(t, 4.1, RealisticVS)
	assert.NotEqual(t, VP, RealisticVP)
	assert.NotEqual(t, VS, RealisticVS)
}
