package registry

import (
	"fmt"
	"strings"

	"github.com/trustgate/trustgate/internal/types"
)

// HealthCheckResult is the gating decision for one entity. A negative
// result (IsHealthy=false) is a normal, data-carrying outcome, not an
// error: "never tested" and "not enough coverage" are expected states that
// gating collaborators interpret as "block this action."
type HealthCheckResult struct {
	EntityID          string             `json:"entity_id"`
	IsHealthy         bool               `json:"is_healthy"`
	Status            types.EntityStatus `json:"status"`
	NovelRunCount     int                `json:"novel_run_count"`
	RequiredRuns      int                `json:"required_runs"`
	MissingRuns       int                `json:"missing_runs"`
	ChildrenHealthy   bool               `json:"children_healthy"`
	UnhealthyChildren []string           `json:"unhealthy_children,omitempty"`
	BlockReason       string             `json:"block_reason,omitempty"`
}

// CheckEntityHealth computes whether an entity and, when checkChildren is
// set, its full descendant closure are release-safe. Health of a composite
// requires health of itself and of every descendant, transitively: one
// unhealthy leaf anywhere below the root blocks the whole subtree.
//
// The entity's own health is recomputed from its run history rather than
// trusting the cached status, tolerating registries mutated out of band.
// Each child's unhealthy descendants are flattened into this result's
// UnhealthyChildren, so a single top-level call surfaces the entire failing
// leaf set.
func CheckEntityHealth(reg *types.Registry, entityID string, checkChildren bool) *HealthCheckResult {
	visited := make(map[string]bool)
	return checkHealth(reg, entityID, checkChildren, visited)
}

func checkHealth(reg *types.Registry, entityID string, checkChildren bool, visited map[string]bool) *HealthCheckResult {
	required := reg.Config.RequiredNovelRuns

	entity, ok := reg.Entities[entityID]
	if !ok {
		return &HealthCheckResult{
			EntityID:        entityID,
			IsHealthy:       false,
			Status:          types.StatusUntested,
			RequiredRuns:    required,
			MissingRuns:     required,
			ChildrenHealthy: true,
			BlockReason:     fmt.Sprintf("entity %s never tested", entityID),
		}
	}

	// The schema does not structurally forbid a child pointing back at an
	// ancestor. A revisit is a data-integrity fault, not a recursion case.
	if visited[entityID] {
		return &HealthCheckResult{
			EntityID:        entityID,
			IsHealthy:       false,
			Status:          entity.Status,
			RequiredRuns:    required,
			ChildrenHealthy: true,
			BlockReason:     fmt.Sprintf("hierarchy cycle detected at entity %s", entityID),
		}
	}
	visited[entityID] = true

	distinctPassing := DistinctPassingHashes(entity.TestRuns)
	missingRuns := required - distinctPassing
	if missingRuns < 0 {
		missingRuns = 0
	}

	// Derive status from the run history instead of trusting the cached
	// value; only the stale override survives, checked first.
	status := DeriveStatus(entity.TestRuns, required)
	if entity.Status == types.StatusStale {
		status = types.StatusStale
	}
	entityHealthy := status == types.StatusHealthy && distinctPassing >= required

	result := &HealthCheckResult{
		EntityID:        entityID,
		Status:          status,
		NovelRunCount:   distinctPassing,
		RequiredRuns:    required,
		MissingRuns:     missingRuns,
		ChildrenHealthy: true,
	}

	var reasons []string
	if status == types.StatusStale {
		reasons = append(reasons, "code modified - needs re-testing")
	}
	if status == types.StatusFailing {
		reasons = append(reasons, "has failing test runs")
	}
	if !entityHealthy && distinctPassing < required {
		reasons = append(reasons, fmt.Sprintf("only %d/%d novel runs", distinctPassing, required))
	}

	if checkChildren {
		for _, childID := range entity.Children {
			childResult := checkHealth(reg, childID, true, visited)
			if !childResult.IsHealthy {
				result.ChildrenHealthy = false
				result.UnhealthyChildren = append(result.UnhealthyChildren, childID)
				// Flatten transitively so the caller sees every failing
				// leaf without re-traversal.
				result.UnhealthyChildren = append(result.UnhealthyChildren, childResult.UnhealthyChildren...)
			}
		}
		if !result.ChildrenHealthy {
			reasons = append(reasons, fmt.Sprintf("%d child entities not healthy: %s",
				len(result.UnhealthyChildren), strings.Join(result.UnhealthyChildren, ", ")))
		}
	}

	result.IsHealthy = entityHealthy && result.ChildrenHealthy
	if !result.IsHealthy {
		result.BlockReason = strings.Join(reasons, "; ")
	}

	return result
}
