package types

import (
	"fmt"
	"time"
)

// EntityType categorizes the kind of governed work-unit
type EntityType string

const (
	TypeCodeNode       EntityType = "code-node"
	TypeNode           EntityType = "node"
	TypeSubworkflow    EntityType = "subworkflow"
	TypeParentWorkflow EntityType = "parent-workflow"
	TypeAgent          EntityType = "agent"
	TypePrompt         EntityType = "prompt"
	TypeOrchestrator   EntityType = "orchestrator"
)

// IsValid checks if the entity type value is valid
func (t EntityType) IsValid() bool {
	switch t {
	case TypeCodeNode, TypeNode, TypeSubworkflow, TypeParentWorkflow,
		TypeAgent, TypePrompt, TypeOrchestrator:
		return true
	}
	return false
}

// EntityStatus represents the test-coverage state of an entity.
//
// Status is derived from the run history on every write: healthy when the
// count of distinct input hashes with at least one passing run crosses the
// configured threshold, failing when any run in history failed, testing when
// some coverage exists but the threshold has not been reached, untested when
// no coverage exists at all. Stale is the one out-of-band override: it is
// forced externally when an entity's underlying definition changes, and is
// cleared only by re-crossing the healthy threshold.
type EntityStatus string

const (
	StatusUntested EntityStatus = "untested"
	StatusTesting  EntityStatus = "testing"
	StatusHealthy  EntityStatus = "healthy"
	StatusFailing  EntityStatus = "failing"
	StatusStale    EntityStatus = "stale"
)

// IsValid checks if the status value is valid
func (s EntityStatus) IsValid() bool {
	switch s {
	case StatusUntested, StatusTesting, StatusHealthy, StatusFailing, StatusStale:
		return true
	}
	return false
}

// TestRun is a single recorded test execution. Runs are append-only: once
// recorded they are never mutated or removed.
type TestRun struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	InputHash        string    `json:"input_hash"`
	InputDescription string    `json:"input_description,omitempty"`
	Passed           bool      `json:"passed"`
	OutputHash       string    `json:"output_hash,omitempty"`
	DurationMs       *int64    `json:"duration_ms,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// Validate checks if the test run has valid field values
func (r *TestRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.InputHash == "" {
		return fmt.Errorf("input_hash is required")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if r.DurationMs != nil && *r.DurationMs < 0 {
		return fmt.Errorf("duration_ms cannot be negative (got %d)", *r.DurationMs)
	}
	return nil
}

// EntityRecord tracks the test coverage and hierarchy position of one
// governed work-unit. EntityID is a pure function of (type, path), so the
// same logical entity always resolves to the same record across restarts.
type EntityRecord struct {
	EntityID         string       `json:"entity_id"`
	EntityType       EntityType   `json:"entity_type"`
	EntityPath       string       `json:"entity_path"`
	EntityName       string       `json:"entity_name"`
	ParentEntityID   string       `json:"parent_entity_id,omitempty"`
	Children         []string     `json:"children"`
	TestRuns         []TestRun    `json:"test_runs"`
	NovelInputHashes []string     `json:"novel_input_hashes"`
	Status           EntityStatus `json:"status"`
	HealthyAt        *time.Time   `json:"healthy_at,omitempty"`
	LastTestedAt     *time.Time   `json:"last_tested_at,omitempty"`
	LastModifiedAt   *time.Time   `json:"last_modified_at,omitempty"`
	CodeHash         string       `json:"code_hash,omitempty"`
}

// Validate checks if the entity record has valid field values
func (e *EntityRecord) Validate() error {
	if e.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if !e.EntityType.IsValid() {
		return fmt.Errorf("invalid entity type: %s", e.EntityType)
	}
	if e.EntityPath == "" {
		return fmt.Errorf("entity_path is required")
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return nil
}

// HasNovelHash reports whether the given input hash has already been
// counted toward this entity's coverage.
func (e *EntityRecord) HasNovelHash(hash string) bool {
	for _, h := range e.NovelInputHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// HasChild reports whether childID is already linked as a direct child.
func (e *EntityRecord) HasChild(childID string) bool {
	for _, id := range e.Children {
		if id == childID {
			return true
		}
	}
	return false
}

// HierarchyRecord is a cached summary of an entire subtree. It is derived
// data and advisory only: gating decisions always recompute health live and
// never read this cache.
type HierarchyRecord struct {
	RootEntityID      string    `json:"root_entity_id"`
	AllDescendants    []string  `json:"all_descendants"`
	Depth             int       `json:"depth"`
	TotalEntities     int       `json:"total_entities"`
	AllHealthy        bool      `json:"all_healthy"`
	UnhealthyEntities []string  `json:"unhealthy_entities"`
	BuiltAt           time.Time `json:"built_at"`
}

// HashAlgorithmSHA256Prefix16 identifies the canonical-JSON, SHA-256,
// 16-hex-character-prefix fingerprint scheme.
const HashAlgorithmSHA256Prefix16 = "sha256-prefix-16"

// DefaultRequiredNovelRuns is the minimum number of functionally distinct
// passing test executions required before an entity is considered healthy.
const DefaultRequiredNovelRuns = 3

// RegistryConfig holds the coverage policy persisted inside the registry
// document. Changing RequiredNovelRuns retroactively re-evaluates every
// entity's health on its next check, since checks recompute from history.
type RegistryConfig struct {
	RequiredNovelRuns  int    `json:"required_novel_runs"`
	InputHashAlgorithm string `json:"input_hash_algorithm"`
}

// Validate checks if the registry config has valid field values
func (c *RegistryConfig) Validate() error {
	if c.RequiredNovelRuns < 1 {
		return fmt.Errorf("required_novel_runs must be positive (got %d)", c.RequiredNovelRuns)
	}
	if c.InputHashAlgorithm == "" {
		return fmt.Errorf("input_hash_algorithm is required")
	}
	return nil
}

// Registry is the aggregate root: the whole document loaded and saved as a
// unit by the persistence gateway. Entities are never deleted; the registry
// is an append-only audit trail.
type Registry struct {
	Entities    map[string]*EntityRecord    `json:"entities"`
	Hierarchies map[string]*HierarchyRecord `json:"hierarchies"`
	Config      RegistryConfig              `json:"config"`
	LastUpdated time.Time                   `json:"last_updated"`
}

// NewRegistry creates an empty registry with default configuration.
func NewRegistry() *Registry {
	return &Registry{
		Entities:    make(map[string]*EntityRecord),
		Hierarchies: make(map[string]*HierarchyRecord),
		Config: RegistryConfig{
			RequiredNovelRuns:  DefaultRequiredNovelRuns,
			InputHashAlgorithm: HashAlgorithmSHA256Prefix16,
		},
	}
}

// Normalize defaults missing fields after loading a persisted document.
// Older documents may predate some fields; unknown fields are already
// dropped by JSON decoding, so this is the forward/backward compatibility
// point for the on-disk format.
func (r *Registry) Normalize() {
	if r.Entities == nil {
		r.Entities = make(map[string]*EntityRecord)
	}
	if r.Hierarchies == nil {
		r.Hierarchies = make(map[string]*HierarchyRecord)
	}
	if r.Config.RequiredNovelRuns <= 0 {
		r.Config.RequiredNovelRuns = DefaultRequiredNovelRuns
	}
	if r.Config.InputHashAlgorithm == "" {
		r.Config.InputHashAlgorithm = HashAlgorithmSHA256Prefix16
	}
	for _, e := range r.Entities {
		if e.Children == nil {
			e.Children = []string{}
		}
		if e.TestRuns == nil {
			e.TestRuns = []TestRun{}
		}
		if e.NovelInputHashes == nil {
			e.NovelInputHashes = []string{}
		}
		if e.Status == "" {
			e.Status = StatusUntested
		}
	}
}
