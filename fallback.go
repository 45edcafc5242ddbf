package feels

import (
	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// FallbackController degrades pricing to base-fee-only while
// commitments are stale or bound checks fail. Exit requires both a
// fresh valid update and the minimum dwell, so a flapping oracle
// cannot oscillate the controller.
type FallbackController struct {
	// MinDwellSec overrides the policy default when positive.
	MinDwellSec int64
}

func (c FallbackController) dwell() int64 {
	if c.MinDwellSec > 0 {
		return c.MinDwellSec
	}
	return constants.FallbackMinDwellSec
}

// ReportFailure enters the degraded state. Re-entry refreshes nothing:
// the dwell clock keeps counting from the first failure until a valid
// update arrives.
func (c FallbackController) ReportFailure(st *types.FallbackState, now int64) {
	if st.Active {
		// A repeat failure invalidates any update seen so far.
		st.LastValidUpdate = 0
		return
	}
	st.Active = true
	st.Since = now
	st.LastValidUpdate = 0
}

// ReportValidUpdate records that a fresh commitment verified cleanly.
func (c FallbackController) ReportValidUpdate(st *types.FallbackState, now int64) {
	st.LastValidUpdate = now
}

// Active reports (and lazily clears) the degraded state. Dynamic
// surcharge and rebates stay off while this returns true.
func (c FallbackController) Active(st *types.FallbackState, now int64) bool {
	if !st.Active {
		return false
	}
	if st.LastValidUpdate > st.Since && now-st.Since >= c.dwell() {
		st.Active = false
		return false
	}
	return true
}
