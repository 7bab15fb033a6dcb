package registry

import (
	"fmt"
	"time"

	"github.com/trustgate/trustgate/internal/types"
)

// DistinctPassingHashes returns the number of distinct input hashes with at
// least one passing run in the history. This is the coverage count the
// state machine and the health evaluator are built on.
func DistinctPassingHashes(runs []types.TestRun) int {
	seen := make(map[string]bool)
	for _, run := range runs {
		if run.Passed {
			seen[run.InputHash] = true
		}
	}
	return len(seen)
}

// DeriveStatus is the pure status state machine, recomputed from the full
// run history. Precedence order:
//
//  1. Distinct passing hashes >= requiredNovelRuns -> healthy
//  2. Any failing run in history -> failing
//  3. Any distinct passing hash -> testing
//  4. Otherwise -> untested
//
// Staleness is not part of this derivation; it is an out-of-band override
// applied by recomputeStatus and MarkEntityStale.
func DeriveStatus(runs []types.TestRun, requiredNovelRuns int) types.EntityStatus {
	distinctPassing := DistinctPassingHashes(runs)

	switch {
	case distinctPassing >= requiredNovelRuns:
		return types.StatusHealthy
	case hasFailedRun(runs):
		return types.StatusFailing
	case distinctPassing > 0:
		return types.StatusTesting
	default:
		return types.StatusUntested
	}
}

func hasFailedRun(runs []types.TestRun) bool {
	for _, run := range runs {
		if !run.Passed {
			return true
		}
	}
	return false
}

// recomputeStatus applies the state machine to an entity after a run is
// appended. coverageGrew reports whether the triggering run increased the
// distinct passing coverage: a stale entity stays stale until a
// recomputation that meets the healthy threshold with fresh coverage, so
// replaying an already-seen input never clears staleness.
func recomputeStatus(entity *types.EntityRecord, requiredNovelRuns int, coverageGrew bool) {
	derived := DeriveStatus(entity.TestRuns, requiredNovelRuns)

	if entity.Status == types.StatusStale && !(coverageGrew && derived == types.StatusHealthy) {
		return
	}

	entity.Status = derived
	if derived == types.StatusHealthy && entity.HealthyAt == nil {
		now := time.Now().UTC()
		entity.HealthyAt = &now
	}
}

// MarkEntityStale forces an entity into the stale state, signaling that its
// underlying definition changed and accumulated coverage can no longer be
// trusted. HealthyAt is cleared; the entity returns to healthy only after a
// recomputation re-crosses the coverage threshold with fresh novel input.
func MarkEntityStale(reg *types.Registry, entityID string) error {
	entity, ok := reg.Entities[entityID]
	if !ok {
		return fmt.Errorf("entity %s not found", entityID)
	}

	entity.Status = types.StatusStale
	entity.HealthyAt = nil
	now := time.Now().UTC()
	entity.LastModifiedAt = &now
	reg.LastUpdated = now

	return nil
}
