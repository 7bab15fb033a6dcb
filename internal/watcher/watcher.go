// Package watcher is the change-detection collaborator: it watches entity
// definition files and marks the corresponding registry entities stale when
// their content actually changes, invalidating accumulated coverage until
// the entity is retested.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/trustgate/trustgate/internal/fingerprint"
	"github.com/trustgate/trustgate/internal/registry"
	"github.com/trustgate/trustgate/internal/storage"
	"github.com/trustgate/trustgate/internal/types"
)

// Watcher marks entities stale when their definition files change.
type Watcher struct {
	gateway storage.Gateway
	config  *Config
	limiter *rate.Limiter

	// Stale marks observed, for logging and tests.
	Marked chan string
}

// New creates a watcher over the given gateway and config.
func New(gateway storage.Gateway, config *Config) (*Watcher, error) {
	if gateway == nil {
		return nil, fmt.Errorf("storage gateway is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Watcher{
		gateway: gateway,
		config:  config,
		// Editor save storms produce bursts of write events for the same
		// file; cap registry churn at a handful of updates per second.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		Marked:  make(chan string, 64),
	}, nil
}

// Run watches the configured roots until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range w.config.Roots {
		if err := addRecursive(fsw, root); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-fsw.Events:
				if !ok {
					return nil
				}
				if err := w.handleEvent(ctx, fsw, event); err != nil {
					return err
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "warning: watch error: %v\n", err)
			}
		}
	})

	return g.Wait()
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) error {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return nil // deleted between event and stat
	}

	// New directories need watching too.
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			return addRecursive(fsw, event.Name)
		}
		return nil
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	return w.ProcessChange(ctx, event.Name)
}

// ProcessChange fingerprints one file and marks the matching entity stale
// when its content hash changed since the last observation. A first
// observation records the baseline hash without invalidating anything.
func (w *Watcher) ProcessChange(ctx context.Context, path string) error {
	entityType, ok := w.config.EntityTypeFor(filepath.ToSlash(path))
	if !ok {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil // transient; the next event retries
	}

	codeHash, err := fingerprint.Fingerprint(string(data))
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	var marked string
	err = storage.Update(ctx, w.gateway, func(reg *types.Registry) error {
		entity, ok := registry.GetEntityByPath(reg, entityType, filepath.ToSlash(path))
		if !ok {
			return nil // not a governed entity; nothing to invalidate
		}

		if entity.CodeHash == codeHash {
			return nil
		}

		changed := entity.CodeHash != ""
		entity.CodeHash = codeHash
		if !changed {
			return nil
		}

		if err := registry.MarkEntityStale(reg, entity.EntityID); err != nil {
			return err
		}
		marked = entity.EntityID
		return nil
	})
	if err != nil {
		return err
	}

	if marked != "" {
		select {
		case w.Marked <- marked:
		default:
		}
	}
	return nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", root, err)
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}
