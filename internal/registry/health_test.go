package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgate/trustgate/internal/types"
)

// makeHealthy records enough distinct passing runs to cross the threshold.
func makeHealthy(t *testing.T, reg *types.Registry, path string) *types.EntityRecord {
	t.Helper()
	var entity *types.EntityRecord
	for i := 0; i < reg.Config.RequiredNovelRuns; i++ {
		result := record(t, reg, path, map[string]any{"case": i}, true)
		entity = result.Entity
	}
	require.Equal(t, types.StatusHealthy, entity.Status)
	return entity
}

func TestCheckEntityHealth_MissingEntity(t *testing.T) {
	reg := types.NewRegistry()

	result := CheckEntityHealth(reg, "deadbeefdeadbeef", true)

	assert.False(t, result.IsHealthy)
	assert.Equal(t, types.StatusUntested, result.Status)
	assert.Equal(t, 3, result.MissingRuns)
	assert.Contains(t, result.BlockReason, "never tested")
}

func TestCheckEntityHealth_UnderThreshold(t *testing.T) {
	reg := types.NewRegistry()

	result := record(t, reg, "/foo", map[string]any{"a": 1}, true)
	check := CheckEntityHealth(reg, result.Entity.EntityID, true)

	assert.False(t, check.IsHealthy)
	assert.Equal(t, types.StatusTesting, check.Status)
	assert.Equal(t, 1, check.NovelRunCount)
	assert.Equal(t, 2, check.MissingRuns)
	assert.Contains(t, check.BlockReason, "only 1/3 novel runs")
}

func TestCheckEntityHealth_FailingEntity(t *testing.T) {
	reg := types.NewRegistry()

	record(t, reg, "/foo", map[string]any{"a": 1}, true)
	result := record(t, reg, "/foo", map[string]any{"b": 1}, false)
	check := CheckEntityHealth(reg, result.Entity.EntityID, true)

	assert.False(t, check.IsHealthy)
	assert.Contains(t, check.BlockReason, "has failing test runs")
}

func TestCheckEntityHealth_StaleEntity(t *testing.T) {
	reg := types.NewRegistry()

	entity := makeHealthy(t, reg, "/foo")
	require.NoError(t, MarkEntityStale(reg, entity.EntityID))

	check := CheckEntityHealth(reg, entity.EntityID, true)
	assert.False(t, check.IsHealthy)
	assert.Contains(t, check.BlockReason, "code modified - needs re-testing")
}

func TestCheckEntityHealth_HierarchicalBlocking(t *testing.T) {
	reg := types.NewRegistry()

	root := makeHealthy(t, reg, "/root")
	child := makeHealthy(t, reg, "/root/child")
	RegisterChild(reg, root.EntityID, child.EntityID)

	// The grandchild exists but was never tested.
	grandchild, err := GetOrCreateEntity(reg, types.TypeCodeNode, "/root/child/leaf", "leaf", child.EntityID)
	require.NoError(t, err)

	check := CheckEntityHealth(reg, root.EntityID, true)

	assert.False(t, check.IsHealthy, "one untested leaf blocks the whole subtree")
	assert.False(t, check.ChildrenHealthy)
	assert.Contains(t, check.UnhealthyChildren, grandchild.EntityID,
		"transitive failures are flattened into the top-level result")
	assert.Contains(t, check.UnhealthyChildren, child.EntityID,
		"a node with unhealthy descendants is itself reported")
	assert.Contains(t, check.BlockReason, "child entities not healthy")
}

func TestCheckEntityHealth_SkipChildren(t *testing.T) {
	reg := types.NewRegistry()

	root := makeHealthy(t, reg, "/root")
	_, err := GetOrCreateEntity(reg, types.TypeCodeNode, "/root/leaf", "leaf", root.EntityID)
	require.NoError(t, err)

	check := CheckEntityHealth(reg, root.EntityID, false)
	assert.True(t, check.IsHealthy, "entity-only check ignores descendants")
	assert.Empty(t, check.UnhealthyChildren)
}

func TestCheckEntityHealth_RecomputesIgnoringCachedStatus(t *testing.T) {
	reg := types.NewRegistry()

	result := record(t, reg, "/foo", map[string]any{"a": 1}, true)
	// A registry mutated out of band may carry a status its history does
	// not support; the evaluator must not trust it.
	result.Entity.Status = types.StatusHealthy

	check := CheckEntityHealth(reg, result.Entity.EntityID, true)
	assert.False(t, check.IsHealthy)
	assert.Equal(t, types.StatusTesting, check.Status)
	assert.Equal(t, 1, check.NovelRunCount)
}

func TestCheckEntityHealth_CycleGuard(t *testing.T) {
	reg := types.NewRegistry()

	a := makeHealthy(t, reg, "/a")
	b := makeHealthy(t, reg, "/b")

	// The schema does not forbid a cycle; build one by hand.
	a.Children = append(a.Children, b.EntityID)
	b.Children = append(b.Children, a.EntityID)

	check := CheckEntityHealth(reg, a.EntityID, true)
	assert.False(t, check.IsHealthy, "a cycle is a data-integrity fault")
	assert.Contains(t, check.BlockReason, "child entities not healthy")
}

func TestCheckEntityHealth_MultipleReasonsCoOccur(t *testing.T) {
	reg := types.NewRegistry()

	result := record(t, reg, "/foo", map[string]any{"a": 1}, false)
	check := CheckEntityHealth(reg, result.Entity.EntityID, true)

	assert.Contains(t, check.BlockReason, "has failing test runs")
	assert.Contains(t, check.BlockReason, "only 0/3 novel runs")
	assert.Contains(t, check.BlockReason, ";")
}

func TestCheckEntityHealth_ThresholdChangeRetroactive(t *testing.T) {
	reg := types.NewRegistry()
	entity := makeHealthy(t, reg, "/foo")

	// Raising the bar retroactively demotes entities on their next check.
	reg.Config.RequiredNovelRuns = 5

	check := CheckEntityHealth(reg, entity.EntityID, true)
	assert.False(t, check.IsHealthy)
	assert.Equal(t, 2, check.MissingRuns)
	assert.Contains(t, check.BlockReason, fmt.Sprintf("only %d/%d novel runs", 3, 5))
}
