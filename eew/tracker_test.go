package eew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerDisabledStartsConverged(t *testing.T) {
	tr := NewTracker(35.0, 139.0, 10, 6.0, false, NewRNG(1))
	assert.True(t, tr.Converged())
	assert.Equal(t, 35.0, tr.CurrentLat)
}

func TestTrackerPerturbsInitialEstimateWhenEnabled(t *testing.T) {
	tr := NewTracker(35.0, 139.0, 10, 6.0, true, NewRNG(1))
	// With a fixed seed the perturbation is some nonzero draw from
	// [-0.8, 0.8]; it need not equal truth.
	assert.NotEqual(t, 0.0, tr.latErr)
}

// TestRevisionCadenceMatchesStationDrivenSchedule reproduces the literal
// end-to-end station-driven schedule: detected-station counts
// 0,1,2,3,5,8,13,20,30,50 fed one per call. A revision fires the first time
// count crosses 3, then every time it climbs by >= 5 more stations,
// unless the estimate has already converged, in which case revisions stop
// for good. The eligible counts are exactly 3, 8, 13, 20, 30, 50, so the
// fired revisions must be a prefix of that schedule regardless of how fast
// the seeded decay happens to shrink the errors.
func TestRevisionCadenceMatchesStationDrivenSchedule(t *testing.T) {
	tr := NewTracker(35.0, 139.0, 10, 6.0, true, NewRNG(99))
	rng := NewRNG(100)

	counts := []int{0, 1, 2, 3, 5, 8, 13, 20, 30, 50}
	eligible := []int{3, 8, 13, 20, 30, 50}
	var revisionsAt []int
	for _, c := range counts {
		wasConverged := tr.Converged()
		ev := tr.Update(c, rng)
		if wasConverged {
			assert.Nil(t, ev, "no revision may fire after convergence (count=%d)", c)
		}
		if ev != nil {
			revisionsAt = append(revisionsAt, c)
		}
	}

	require.NotEmpty(t, revisionsAt)
	assert.Equal(t, 3, revisionsAt[0], "first revision fires when the count first reaches 3")
	assert.Equal(t, eligible[:len(revisionsAt)], revisionsAt)
	assert.LessOrEqual(t, tr.RevisionCount, 6)
	if tr.RevisionCount < len(eligible) {
		assert.True(t, tr.Converged(), "revisions may only stop early because the estimate converged")
	}
}

func TestConsumeCorrectionFlagFiresOncePerRevision(t *testing.T) {
	tr := NewTracker(35.0, 139.0, 10, 6.0, true, NewRNG(3))
	rng := NewRNG(4)

	assert.False(t, tr.ConsumeCorrectionFlag())
	tr.Update(3, rng)
	assert.True(t, tr.ConsumeCorrectionFlag())
	assert.False(t, tr.ConsumeCorrectionFlag())
}

func TestOverthrowFiresWhenErrorExceedsThreshold(t *testing.T) {
	tr := NewTracker(35.0, 139.0, 10, 6.0, true, NewRNG(1))
	tr.magErr = 2.0 // force an overthrow-triggering error
	rng := NewRNG(1)

	ev := tr.Update(3, rng)
	require.NotNil(t, ev)
	assert.True(t, ev.Overthrown)
	assert.LessOrEqual(t, tr.magErr, overthrowMagBound)
	assert.GreaterOrEqual(t, tr.magErr, -overthrowMagBound)
}
