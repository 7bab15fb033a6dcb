package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/trustgate/trustgate/internal/types"
)

func tempGateway(t *testing.T) *FileGateway {
	t.Helper()
	gw, err := NewFileGateway(filepath.Join(t.TempDir(), ".trustgate", "registry.json"))
	if err != nil {
		t.Fatalf("creating gateway: %v", err)
	}
	return gw
}

func TestFileGateway_LoadMissingDocument(t *testing.T) {
	gw := tempGateway(t)

	reg, err := gw.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(reg.Entities) != 0 {
		t.Errorf("expected empty registry, got %d entities", len(reg.Entities))
	}
	if reg.Config.RequiredNovelRuns != types.DefaultRequiredNovelRuns {
		t.Errorf("expected default config, got %d", reg.Config.RequiredNovelRuns)
	}
}

func TestFileGateway_SaveLoadRoundTrip(t *testing.T) {
	gw := tempGateway(t)
	ctx := context.Background()

	reg := types.NewRegistry()
	reg.Config.RequiredNovelRuns = 5
	reg.Entities["abc"] = &types.EntityRecord{
		EntityID:         "abc",
		EntityType:       types.TypeCodeNode,
		EntityPath:       "/foo",
		EntityName:       "foo",
		Children:         []string{},
		TestRuns:         []types.TestRun{},
		NovelInputHashes: []string{"h1", "h2"},
		Status:           types.StatusTesting,
	}

	if err := gw.Save(ctx, reg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := gw.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Config.RequiredNovelRuns != 5 {
		t.Errorf("expected required runs 5, got %d", loaded.Config.RequiredNovelRuns)
	}
	entity, ok := loaded.Entities["abc"]
	if !ok {
		t.Fatal("expected entity abc to survive the round trip")
	}
	if entity.Status != types.StatusTesting {
		t.Errorf("expected status testing, got %s", entity.Status)
	}
	if len(entity.NovelInputHashes) != 2 {
		t.Errorf("expected 2 novel hashes, got %d", len(entity.NovelInputHashes))
	}
}

func TestFileGateway_MalformedDocumentFallsBack(t *testing.T) {
	gw := tempGateway(t)

	if err := os.WriteFile(gw.Path(), []byte("{not valid json"), 0644); err != nil {
		t.Fatalf("writing corrupt document: %v", err)
	}

	reg, err := gw.Load(context.Background())
	if err != nil {
		t.Fatalf("Load must degrade gracefully, got error: %v", err)
	}
	if len(reg.Entities) != 0 {
		t.Errorf("expected fresh registry after corruption, got %d entities", len(reg.Entities))
	}
}

func TestFileGateway_UpdateLocked(t *testing.T) {
	gw := tempGateway(t)
	ctx := context.Background()

	err := gw.UpdateLocked(ctx, func(reg *types.Registry) error {
		reg.Config.RequiredNovelRuns = 7
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateLocked failed: %v", err)
	}

	// Lock must be released after the cycle.
	if _, err := os.Stat(gw.Path() + ".lock"); !os.IsNotExist(err) {
		t.Error("expected lock file to be removed")
	}

	loaded, err := gw.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Config.RequiredNovelRuns != 7 {
		t.Errorf("expected persisted mutation, got %d", loaded.Config.RequiredNovelRuns)
	}
}

func TestUpdate_UsesGatewayLocking(t *testing.T) {
	gw := tempGateway(t)

	err := Update(context.Background(), gw, func(reg *types.Registry) error {
		reg.Config.RequiredNovelRuns = 9
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := gw.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Config.RequiredNovelRuns != 9 {
		t.Errorf("expected persisted mutation, got %d", loaded.Config.RequiredNovelRuns)
	}
}

func TestAcquireLock_StaleUnparseableLock(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "registry.json")
	lockPath := registryPath + ".lock"

	if err := os.WriteFile(lockPath, []byte("garbage"), 0644); err != nil {
		t.Fatalf("writing stale lock: %v", err)
	}

	got, err := AcquireLock(context.Background(), registryPath)
	if err != nil {
		t.Fatalf("expected stale lock to be overwritten, got: %v", err)
	}
	if got != lockPath {
		t.Errorf("expected lock path %s, got %s", lockPath, got)
	}

	if err := ReleaseLock(got); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
}

func TestReleaseLock_Idempotent(t *testing.T) {
	if err := ReleaseLock(""); err != nil {
		t.Errorf("empty path should be a no-op, got: %v", err)
	}
	if err := ReleaseLock(filepath.Join(t.TempDir(), "missing.lock")); err != nil {
		t.Errorf("missing lock should be a no-op, got: %v", err)
	}
}
