package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/runner"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"self_transfer", "transfer", "transfer_from"}, Names())
}

func TestLookup(t *testing.T) {
	sc, err := Lookup("transfer", Requirements{})
	require.NoError(t, err)
	require.IsType(t, runner.Scenario[*Transfer, Requirements, Call]{}, sc)
	assert.Equal(t, DefaultRequirements, sc.(runner.Scenario[*Transfer, Requirements, Call]).Requirements)

	sc, err = Lookup("transfer", Requirements{Amount: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), sc.(runner.Scenario[*Transfer, Requirements, Call]).Requirements.Amount)

	_, err = Lookup("nope", Requirements{})
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestRegister(t *testing.T) {
	f := func(req Requirements) runner.Runnable { return SelfTransferScenario(req) }

	require.NoError(t, Register("tiny_self_transfer", f))
	t.Cleanup(func() { Unregister("tiny_self_transfer") })

	assert.Contains(t, Names(), "tiny_self_transfer")
	assert.ErrorIs(t, Register("tiny_self_transfer", f), ErrDuplicateScenario)
	assert.ErrorIs(t, Register("transfer", f), ErrDuplicateScenario)
}
