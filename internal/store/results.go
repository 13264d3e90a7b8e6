package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/gauntlet/internal/report"
	"github.com/roach88/gauntlet/internal/runner"
)

// ResultRecord is a stored runner result.
type ResultRecord struct {
	ID       string
	Seq      int64
	Base     string
	Scenario string
	Passed   bool

	// Record is the canonical JSON encoding of the result.
	Record json.RawMessage
}

// WriteResult appends res to the result log and returns its ID.
func (s *Store) WriteResult(ctx context.Context, res runner.Result) (string, error) {
	record, err := report.Canonical(res)
	if err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}

	id := s.ids.Generate()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, base, scenario, passed, record)
		VALUES (?, ?, ?, ?, ?)
	`, id, res.Base, res.Scenario, res.Passed(), string(record))
	if err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return id, nil
}

// ReadResults returns stored results in insertion order. An empty scenario
// returns every result.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadResults(ctx context.Context, scenario string) ([]ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, base, scenario, passed, record
		FROM results
		WHERE ? = '' OR scenario = ?
		ORDER BY seq ASC
	`, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	records := []ResultRecord{}
	for rows.Next() {
		var (
			r      ResultRecord
			record string
		)
		if err := rows.Scan(&r.Seq, &r.ID, &r.Base, &r.Scenario, &r.Passed, &record); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Record = json.RawMessage(record)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}
