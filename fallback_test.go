package feels_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	feels "github.com/FeelsDEX/feels-sub005"
	"github.com/FeelsDEX/feels-sub005/types"
)

func TestFallbackLifecycle(t *testing.T) {
	c := feels.FallbackController{MinDwellSec: 120}
	var st types.FallbackState

	assert.False(t, c.Active(&st, 1_000))

	c.ReportFailure(&st, 1_000)
	assert.True(t, c.Active(&st, 1_000))

	// A valid update alone is not enough before the dwell elapses.
	c.ReportValidUpdate(&st, 1_050)
	assert.True(t, c.Active(&st, 1_050))

	// Dwell elapsed with a valid update on record: clears.
	assert.False(t, c.Active(&st, 1_120))
	assert.False(t, st.Active)
}

func TestFallbackDwellWithoutUpdateHolds(t *testing.T) {
	c := feels.FallbackController{MinDwellSec: 120}
	var st types.FallbackState

	c.ReportFailure(&st, 1_000)
	// Dwell long past, but nothing valid ever arrived.
	assert.True(t, c.Active(&st, 5_000))
}

func TestFallbackRepeatFailureInvalidatesUpdate(t *testing.T) {
	c := feels.FallbackController{MinDwellSec: 120}
	var st types.FallbackState

	c.ReportFailure(&st, 1_000)
	c.ReportValidUpdate(&st, 1_050)
	c.ReportFailure(&st, 1_060)

	// The flap wiped the valid update; the controller holds.
	assert.True(t, c.Active(&st, 1_500))

	c.ReportValidUpdate(&st, 1_600)
	assert.False(t, c.Active(&st, 1_600))
}
