package registry

import (
	"sort"

	"github.com/trustgate/trustgate/internal/types"
)

// TestingSummary aggregates entity counts per status. Registries hold at
// most a few hundred entities, so this is recomputed on every call.
type TestingSummary struct {
	TotalEntities int                        `json:"total_entities"`
	ByStatus      map[types.EntityStatus]int `json:"by_status"`
	TotalRuns     int                        `json:"total_runs"`
}

// GetTestingSummary returns per-status entity counts and the total number
// of recorded runs.
func GetTestingSummary(reg *types.Registry) TestingSummary {
	summary := TestingSummary{
		ByStatus: make(map[types.EntityStatus]int),
	}
	for _, entity := range reg.Entities {
		summary.TotalEntities++
		summary.ByStatus[entity.Status]++
		summary.TotalRuns += len(entity.TestRuns)
	}
	return summary
}

// GetUnhealthyEntities returns every entity whose own (non-recursive)
// health check fails, ordered by path for stable output.
func GetUnhealthyEntities(reg *types.Registry) []*types.EntityRecord {
	var unhealthy []*types.EntityRecord
	for id, entity := range reg.Entities {
		if check := CheckEntityHealth(reg, id, false); !check.IsHealthy {
			unhealthy = append(unhealthy, entity)
		}
	}
	sort.Slice(unhealthy, func(i, j int) bool {
		return unhealthy[i].EntityPath < unhealthy[j].EntityPath
	})
	return unhealthy
}
