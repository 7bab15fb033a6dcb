// Package storage is the persistence gateway for the registry document.
//
// The registry follows a whole-document load -> mutate -> save pattern:
// collaborators load the document, perform in-memory mutations through the
// registry package, and save the result. The file gateway guards that
// window with an advisory lock so two processes cannot silently overwrite
// each other's writes (last-writer-wins is the classic failure mode of
// whole-document persistence).
package storage

import (
	"context"

	"github.com/trustgate/trustgate/internal/types"
)

// Gateway loads and saves the registry document as a unit.
type Gateway interface {
	// Load reads the registry document. A missing or malformed document
	// yields a freshly-initialized empty registry, never an error:
	// governance tooling must degrade gracefully rather than block all
	// work on ledger corruption.
	Load(ctx context.Context) (*types.Registry, error)

	// Save persists the registry document.
	Save(ctx context.Context, reg *types.Registry) error
}

// Update runs fn against a freshly loaded registry and saves the result,
// holding the gateway's advisory lock (when it has one) for the whole
// load-mutate-save window.
func Update(ctx context.Context, gw Gateway, fn func(reg *types.Registry) error) error {
	if lg, ok := gw.(interface {
		UpdateLocked(ctx context.Context, fn func(reg *types.Registry) error) error
	}); ok {
		return lg.UpdateLocked(ctx, fn)
	}

	reg, err := gw.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return gw.Save(ctx, reg)
}
