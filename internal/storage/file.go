package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trustgate/trustgate/internal/types"
)

// DefaultRegistryPath is the well-known location of the registry document,
// relative to the project root.
const DefaultRegistryPath = ".trustgate/registry.json"

// FileGateway persists the registry as a single JSON document on disk.
type FileGateway struct {
	path string
}

// NewFileGateway creates a gateway for the registry document at path,
// creating the parent directory if needed.
func NewFileGateway(path string) (*FileGateway, error) {
	if path == "" {
		path = DefaultRegistryPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}
	return &FileGateway{path: path}, nil
}

// Path returns the location of the registry document.
func (g *FileGateway) Path() string {
	return g.path
}

// Load reads and parses the registry document. A missing file or one that
// fails to parse falls back to a fresh empty registry.
func (g *FileGateway) Load(ctx context.Context) (*types.Registry, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewRegistry(), nil
		}
		return nil, fmt.Errorf("reading registry document: %w", err)
	}

	var reg types.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		// Corrupt ledger. Degrade to a fresh registry rather than blocking
		// every caller; the corrupt document stays on disk until the next
		// save overwrites it.
		fmt.Fprintf(os.Stderr, "warning: registry document %s is malformed (%v), starting fresh\n", g.path, err)
		return types.NewRegistry(), nil
	}

	reg.Normalize()
	return &reg, nil
}

// Save writes the registry document atomically via temp file + rename.
func (g *FileGateway) Save(ctx context.Context, reg *types.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing registry: %w", err)
	}

	tmpPath := g.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing registry document: %w", err)
	}

	if err := os.Rename(tmpPath, g.path); err != nil {
		_ = os.Remove(tmpPath) // Clean up on error (best effort)
		return fmt.Errorf("committing registry document: %w", err)
	}

	return nil
}

// UpdateLocked holds the advisory lock for a full load-mutate-save cycle.
// This is how concurrent writers avoid the last-writer-wins overwrite that
// whole-document persistence is otherwise prone to.
func (g *FileGateway) UpdateLocked(ctx context.Context, fn func(reg *types.Registry) error) error {
	lockPath, err := AcquireLock(ctx, g.path)
	if err != nil {
		return err
	}
	defer func() {
		if err := ReleaseLock(lockPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: releasing registry lock: %v\n", err)
		}
	}()

	reg, err := g.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return g.Save(ctx, reg)
}
