package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityTypeIsValid(t *testing.T) {
	valid := []EntityType{
		TypeCodeNode, TypeNode, TypeSubworkflow, TypeParentWorkflow,
		TypeAgent, TypePrompt, TypeOrchestrator,
	}
	for _, et := range valid {
		assert.True(t, et.IsValid(), "expected %s to be valid", et)
	}

	assert.False(t, EntityType("widget").IsValid())
	assert.False(t, EntityType("").IsValid())
}

func TestEntityStatusIsValid(t *testing.T) {
	valid := []EntityStatus{
		StatusUntested, StatusTesting, StatusHealthy, StatusFailing, StatusStale,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, EntityStatus("unknown").IsValid())
}

func TestTestRunValidate(t *testing.T) {
	run := TestRun{
		ID:        "run-1",
		Timestamp: time.Now(),
		InputHash: "abc123",
		Passed:    true,
	}
	assert.NoError(t, run.Validate())

	missing := run
	missing.ID = ""
	assert.Error(t, missing.Validate())

	noHash := run
	noHash.InputHash = ""
	assert.Error(t, noHash.Validate())

	negative := run
	bad := int64(-1)
	negative.DurationMs = &bad
	assert.Error(t, negative.Validate())
}

func TestEntityRecordValidate(t *testing.T) {
	entity := EntityRecord{
		EntityID:   "abc",
		EntityType: TypeCodeNode,
		EntityPath: "/foo",
		Status:     StatusUntested,
	}
	assert.NoError(t, entity.Validate())

	badType := entity
	badType.EntityType = "widget"
	assert.Error(t, badType.Validate())

	badStatus := entity
	badStatus.Status = "confused"
	assert.Error(t, badStatus.Validate())
}

func TestRegistryConfigValidate(t *testing.T) {
	cfg := RegistryConfig{RequiredNovelRuns: 3, InputHashAlgorithm: HashAlgorithmSHA256Prefix16}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&RegistryConfig{RequiredNovelRuns: 0, InputHashAlgorithm: "x"}).Validate())
	assert.Error(t, (&RegistryConfig{RequiredNovelRuns: 3}).Validate())
}

func TestNewRegistryDefaults(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, DefaultRequiredNovelRuns, reg.Config.RequiredNovelRuns)
	assert.Equal(t, HashAlgorithmSHA256Prefix16, reg.Config.InputHashAlgorithm)
	assert.NotNil(t, reg.Entities)
	assert.NotNil(t, reg.Hierarchies)
}

func TestRegistryNormalize_DefaultsMissingFields(t *testing.T) {
	// Simulate a minimal document written by an older tool version.
	doc := `{
		"entities": {
			"abc": {"entity_id": "abc", "entity_type": "code-node", "entity_path": "/foo", "entity_name": "foo"}
		}
	}`

	var reg Registry
	require.NoError(t, json.Unmarshal([]byte(doc), &reg))
	reg.Normalize()

	assert.Equal(t, DefaultRequiredNovelRuns, reg.Config.RequiredNovelRuns)
	assert.Equal(t, HashAlgorithmSHA256Prefix16, reg.Config.InputHashAlgorithm)
	assert.NotNil(t, reg.Hierarchies)

	entity := reg.Entities["abc"]
	require.NotNil(t, entity)
	assert.Equal(t, StatusUntested, entity.Status)
	assert.NotNil(t, entity.Children)
	assert.NotNil(t, entity.TestRuns)
	assert.NotNil(t, entity.NovelInputHashes)
}

func TestRegistryNormalize_ToleratesUnknownFields(t *testing.T) {
	doc := `{"entities": {}, "config": {"required_novel_runs": 5}, "future_field": true}`

	var reg Registry
	require.NoError(t, json.Unmarshal([]byte(doc), &reg))
	reg.Normalize()

	assert.Equal(t, 5, reg.Config.RequiredNovelRuns)
}
