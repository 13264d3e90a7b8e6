// Package suite loads the YAML files that name which scenarios to run and
// where.
//
// A suite file looks like:
//
//	base: local
//	database: gauntlet.db
//	metrics_file: gauntlet.prom
//	scenarios:
//	  - name: transfer
//	  - name: transfer_from
//	    amount: 250
//
// Decoding is strict: unknown keys are rejected. The decoded suite is then
// checked against an embedded CUE schema.
package suite

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Defaults applied to omitted fields.
const (
	DefaultBase     = "local"
	DefaultDatabase = ":memory:"
)

// ErrInvalidSuite wraps every validation failure.
var ErrInvalidSuite = errors.New("invalid suite")

// Suite is a parsed suite file.
type Suite struct {
	// Base names the fork results are attributed to.
	Base string `yaml:"base" json:"base"`

	// Database is the SQLite world. Relative paths resolve against the
	// suite file's directory.
	Database string `yaml:"database" json:"database"`

	// MetricsFile, if set, receives Prometheus metrics after the run.
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`

	Scenarios []Entry `yaml:"scenarios" json:"scenarios"`
}

// Entry selects one registered scenario.
type Entry struct {
	Name string `yaml:"name" json:"name"`

	// Amount overrides the scenario's default transfer amount.
	Amount int64 `yaml:"amount,omitempty" json:"amount,omitempty"`
}

// Load reads and validates a suite file, resolving relative paths against
// its directory.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	s.Database = resolve(dir, s.Database)
	s.MetricsFile = resolve(dir, s.MetricsFile)
	return s, nil
}

// Parse decodes and validates suite YAML.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Base == "" {
		s.Base = DefaultBase
	}
	if s.Database == "" {
		s.Database = DefaultDatabase
	}

	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuite, err)
	}
	return &s, nil
}

// Names returns the scenario names in file order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.Scenarios))
	for i, e := range s.Scenarios {
		names[i] = e.Name
	}
	return names
}

func validate(s *Suite) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Suite")).Unify(ctx.Encode(s))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for _, e := range s.Scenarios {
		if seen[e.Name] {
			return fmt.Errorf("scenario %q listed twice", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

func resolve(dir, path string) string {
	if path == "" || path == DefaultDatabase || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
