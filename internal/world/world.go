// Package world defines the snapshot capability the runner drives and an
// in-memory implementation of it.
//
// A World is the shared, long-lived environment a scenario mutates. The
// runner never inspects it; it only captures and restores it:
//
//	h, _ := w.Snapshot(ctx)            // capture
//	h, _ = w.RevertAndSnapshot(ctx, h) // restore, then capture again
//
// Reverting to a handle consumes that handle and every handle taken after
// it, the way snapshot-capable development chains behave. That is why the
// restore operation always hands back a fresh handle.
package world

import (
	"context"
	"errors"
)

// Handle identifies a captured world state. Handles are opaque.
type Handle string

// ErrUnknownHandle is returned when reverting to a handle the world does not
// hold, either because it never existed or because an earlier revert
// consumed it.
var ErrUnknownHandle = errors.New("unknown snapshot handle")

// World captures and restores environment state.
type World interface {
	// Snapshot captures the current state.
	Snapshot(ctx context.Context) (Handle, error)

	// RevertAndSnapshot restores the state captured by h and captures it
	// again, returning the replacement handle.
	RevertAndSnapshot(ctx context.Context, h Handle) (Handle, error)
}

// State is a World whose contents are addressable integer slots.
// Unset slots read as zero.
type State interface {
	World
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value int64) error
}
