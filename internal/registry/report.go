package registry

import (
	"fmt"
	"strings"

	"github.com/trustgate/trustgate/internal/types"
)

// FormatHealthReport renders a health check result as human-readable text
// for logs and CLI output. Purely presentational; never parse this.
func FormatHealthReport(entity *types.EntityRecord, result *HealthCheckResult) string {
	var b strings.Builder

	name := result.EntityID
	if entity != nil {
		name = fmt.Sprintf("%s (%s %s)", entity.EntityName, entity.EntityType, entity.EntityPath)
	}

	verdict := "BLOCKED"
	if result.IsHealthy {
		verdict = "HEALTHY"
	}

	fmt.Fprintf(&b, "%s: %s\n", verdict, name)
	fmt.Fprintf(&b, "  status: %s\n", result.Status)
	fmt.Fprintf(&b, "  coverage: %s\n", progress(result.NovelRunCount, result.RequiredRuns))

	if len(result.UnhealthyChildren) > 0 {
		fmt.Fprintf(&b, "  unhealthy descendants (%d):\n", len(result.UnhealthyChildren))
		for _, id := range result.UnhealthyChildren {
			fmt.Fprintf(&b, "    - %s\n", id)
		}
	}
	if result.BlockReason != "" {
		fmt.Fprintf(&b, "  blocked: %s\n", result.BlockReason)
	}

	return b.String()
}

// FormatEntityProgress renders one entity's coverage progress as a single
// line, e.g. for listing many entities in a status view.
func FormatEntityProgress(entity *types.EntityRecord, requiredRuns int) string {
	distinctPassing := DistinctPassingHashes(entity.TestRuns)
	return fmt.Sprintf("[%-8s] %s %s (%s, %d runs)",
		entity.Status, progress(distinctPassing, requiredRuns),
		entity.EntityName, entity.EntityPath, len(entity.TestRuns))
}

func progress(have, want int) string {
	return fmt.Sprintf("%d/%d novel runs", have, want)
}
