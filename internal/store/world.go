package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gauntlet/internal/world"
)

var _ world.State = (*Store)(nil)

// Get returns the value stored under key, or zero.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Keys returns the set keys in byte order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM state ORDER BY key COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// Depth returns the number of live snapshots.
func (s *Store) Depth(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Snapshot implements world.World.
func (s *Store) Snapshot(ctx context.Context) (world.Handle, error) {
	var h world.Handle
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		h, err = s.capture(ctx, tx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return h, nil
}

// RevertAndSnapshot implements world.World.
func (s *Store) RevertAndSnapshot(ctx context.Context, h world.Handle) (world.Handle, error) {
	var next world.Handle
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.restore(ctx, tx, h); err != nil {
			return err
		}
		var err error
		next, err = s.capture(ctx, tx)
		return err
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Revert restores the state captured by h and drops h together with every
// later snapshot. No new snapshot is taken.
func (s *Store) Revert(ctx context.Context, h world.Handle) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.restore(ctx, tx, h)
	})
}

// restore replaces state with the entries of h and consumes h and every
// later snapshot.
func (s *Store) restore(ctx context.Context, tx *sql.Tx, h world.Handle) error {
	var seq int64
	err := tx.QueryRowContext(ctx, `SELECT seq FROM snapshots WHERE handle = ?`, string(h)).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("revert to %q: %w", h, world.ErrUnknownHandle)
	}
	if err != nil {
		return fmt.Errorf("lookup snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO state (key, value)
		SELECT key, value FROM snapshot_entries WHERE snapshot_seq = ?
	`, seq); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	// Entries cascade with their snapshot.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE seq >= ?`, seq); err != nil {
		return fmt.Errorf("drop snapshots: %w", err)
	}
	return nil
}

// capture copies state into a new snapshot.
func (s *Store) capture(ctx context.Context, tx *sql.Tx) (world.Handle, error) {
	h := world.Handle(s.ids.Generate())

	res, err := tx.ExecContext(ctx, `INSERT INTO snapshots (handle) VALUES (?)`, string(h))
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("snapshot seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_entries (snapshot_seq, key, value)
		SELECT ?, key, value FROM state
	`, seq); err != nil {
		return "", fmt.Errorf("copy state: %w", err)
	}
	return h, nil
}
