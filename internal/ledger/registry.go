package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/gauntlet/internal/runner"
)

// Factory builds a fresh scenario for req.
type Factory func(req Requirements) runner.Runnable

var (
	ErrUnknownScenario   = errors.New("unknown scenario")
	ErrDuplicateScenario = errors.New("scenario already registered")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"transfer":      func(req Requirements) runner.Runnable { return TransferScenario(req) },
		"transfer_from": func(req Requirements) runner.Runnable { return TransferFromScenario(req) },
		"self_transfer": func(req Requirements) runner.Runnable { return SelfTransferScenario(req) },
	}
)

// Register adds a named scenario factory.
func Register(name string, f Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateScenario)
	}
	registry[name] = f
	return nil
}

// Unregister removes a named scenario factory.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Lookup builds the scenario registered under name with req. A zero
// Amount falls back to DefaultRequirements.
func Lookup(name string, req Requirements) (runner.Runnable, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScenario)
	}
	if req.Amount == 0 {
		req.Amount = DefaultRequirements.Amount
	}
	return f(req), nil
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}
