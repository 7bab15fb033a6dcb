package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustgate/trustgate/internal/fingerprint"
	"github.com/trustgate/trustgate/internal/types"
)

// RecordParams describes one test execution to record.
type RecordParams struct {
	EntityType       types.EntityType
	EntityPath       string
	EntityName       string
	ParentEntityID   string
	Input            any
	InputDescription string
	Passed           bool
	Output           any            // optional; fingerprinted when present
	Duration         *time.Duration // optional
	Error            string         // optional failure detail
}

// RecordResult reports the outcome of recording a run.
type RecordResult struct {
	Entity     *types.EntityRecord `json:"entity"`
	Run        types.TestRun       `json:"run"`
	WasNovel   bool                `json:"was_novel"`
	NovelCount int                 `json:"novel_count"`
}

// RecordTestRun is the sole mutation path for test history. It resolves or
// creates the entity, fingerprints the input, appends an immutable run
// record, grows the novel-input set when the input has not been seen
// before, and recomputes the entity's status from the full history.
//
// Replaying a byte-identical input never increases coverage: the novel set
// only grows on first sight of a hash and hashes are never removed, even
// when a later run with the same hash fails, so coverage counts cannot
// oscillate.
func RecordTestRun(reg *types.Registry, params RecordParams) (*RecordResult, error) {
	entity, err := GetOrCreateEntity(reg, params.EntityType, params.EntityPath, params.EntityName, params.ParentEntityID)
	if err != nil {
		return nil, fmt.Errorf("resolving entity: %w", err)
	}

	inputHash, err := fingerprint.Fingerprint(params.Input)
	if err != nil {
		return nil, fmt.Errorf("hashing test input: %w", err)
	}

	wasNovel := !entity.HasNovelHash(inputHash)

	now := time.Now().UTC()
	run := types.TestRun{
		ID:               uuid.New().String(),
		Timestamp:        now,
		InputHash:        inputHash,
		InputDescription: params.InputDescription,
		Passed:           params.Passed,
		Error:            params.Error,
	}

	if params.Output != nil {
		outputHash, err := fingerprint.Fingerprint(params.Output)
		if err != nil {
			return nil, fmt.Errorf("hashing test output: %w", err)
		}
		run.OutputHash = outputHash
	}

	if params.Duration != nil {
		ms := params.Duration.Milliseconds()
		run.DurationMs = &ms
	}

	passingBefore := DistinctPassingHashes(entity.TestRuns)

	entity.TestRuns = append(entity.TestRuns, run)
	if wasNovel {
		entity.NovelInputHashes = append(entity.NovelInputHashes, inputHash)
	}
	entity.LastTestedAt = &now

	// Staleness clears only when this run grew the distinct passing
	// coverage, not merely because history already satisfied the threshold.
	coverageGrew := DistinctPassingHashes(entity.TestRuns) > passingBefore
	recomputeStatus(entity, reg.Config.RequiredNovelRuns, coverageGrew)
	reg.LastUpdated = now

	return &RecordResult{
		Entity:     entity,
		Run:        run,
		WasNovel:   wasNovel,
		NovelCount: len(entity.NovelInputHashes),
	}, nil
}
