package registry

import (
	"fmt"
	"time"

	"github.com/trustgate/trustgate/internal/types"
)

// BuildHierarchy walks the subtree rooted at rootEntityID depth-first,
// collecting every descendant id and the maximum depth, then evaluates the
// root and each descendant independently (non-recursive per-node checks,
// since the full set is already enumerated) to assemble the unhealthy set.
//
// The result is cached in the registry's hierarchies map for dashboards and
// status reporting, but the cache is advisory only: CheckEntityHealth never
// reads it, so gating decisions are never based on stale hierarchy data.
func BuildHierarchy(reg *types.Registry, rootEntityID string) (*types.HierarchyRecord, error) {
	root, ok := reg.Entities[rootEntityID]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", rootEntityID)
	}

	visited := map[string]bool{rootEntityID: true}
	var descendants []string
	maxDepth := 0

	var walk func(entity *types.EntityRecord, depth int)
	walk = func(entity *types.EntityRecord, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
		for _, childID := range entity.Children {
			if visited[childID] {
				continue // cycle or duplicate link; count each node once
			}
			visited[childID] = true
			descendants = append(descendants, childID)
			if child, ok := reg.Entities[childID]; ok {
				walk(child, depth+1)
			}
		}
	}
	walk(root, 0)

	var unhealthy []string
	for _, id := range append([]string{rootEntityID}, descendants...) {
		if check := CheckEntityHealth(reg, id, false); !check.IsHealthy {
			unhealthy = append(unhealthy, id)
		}
	}

	record := &types.HierarchyRecord{
		RootEntityID:      rootEntityID,
		AllDescendants:    descendants,
		Depth:             maxDepth,
		TotalEntities:     len(descendants) + 1,
		AllHealthy:        len(unhealthy) == 0,
		UnhealthyEntities: unhealthy,
		BuiltAt:           time.Now().UTC(),
	}
	reg.Hierarchies[rootEntityID] = record

	return record, nil
}
