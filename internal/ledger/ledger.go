// Package ledger is a token ledger kept in a world.State, together with the
// reference scenarios that exercise it.
//
// Balances, allowances and freeze flags are integer slots:
//
//	balance:<account>
//	allowance:<owner>:<spender>
//	frozen:<account>
//	supply
//
// Transfers return a receipt charging GasBase plus GasPerWrite for every
// slot written, so scenarios report a gas figure that tracks the work done.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/gauntlet/internal/runner"
	"github.com/roach88/gauntlet/internal/world"
)

// Gas schedule.
const (
	GasBase     = 21000
	GasPerWrite = 5000
)

// Unlimited is the allowance that is never decremented.
const Unlimited = math.MaxInt64

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrFrozen                = errors.New("account is frozen")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrOverflow              = errors.New("supply would overflow")
	ErrNotState              = errors.New("world does not expose state slots")
)

// Ledger reads and writes token state.
type Ledger struct {
	st world.State
}

// New returns a ledger over st.
func New(st world.State) *Ledger {
	return &Ledger{st: st}
}

// FromWorld returns a ledger over w, which must be a world.State.
func FromWorld(w world.World) (*Ledger, error) {
	st, ok := w.(world.State)
	if !ok {
		return nil, fmt.Errorf("%T: %w", w, ErrNotState)
	}
	return New(st), nil
}

func balanceKey(account string) string          { return "balance:" + account }
func allowanceKey(owner, spender string) string { return "allowance:" + owner + ":" + spender }
func frozenKey(account string) string           { return "frozen:" + account }

const supplyKey = "supply"

// Balance returns the account's balance.
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	return l.st.Get(ctx, balanceKey(account))
}

// Allowance returns what spender may move on owner's behalf.
func (l *Ledger) Allowance(ctx context.Context, owner, spender string) (int64, error) {
	return l.st.Get(ctx, allowanceKey(owner, spender))
}

// Supply returns the total minted amount.
func (l *Ledger) Supply(ctx context.Context) (int64, error) {
	return l.st.Get(ctx, supplyKey)
}

// Frozen reports whether account may not receive tokens.
func (l *Ledger) Frozen(ctx context.Context, account string) (bool, error) {
	v, err := l.st.Get(ctx, frozenKey(account))
	return v != 0, err
}

// Mint credits amount to account and grows the supply.
func (l *Ledger) Mint(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	bal, err := l.Balance(ctx, account)
	if err != nil {
		return err
	}
	supply, err := l.Supply(ctx)
	if err != nil {
		return err
	}
	if supply > math.MaxInt64-amount || bal > math.MaxInt64-amount {
		return fmt.Errorf("mint %d to %s: %w", amount, account, ErrOverflow)
	}
	if err := l.st.Set(ctx, balanceKey(account), bal+amount); err != nil {
		return err
	}
	return l.st.Set(ctx, supplyKey, supply+amount)
}

// SetFrozen sets or clears account's freeze flag.
func (l *Ledger) SetFrozen(ctx context.Context, account string, frozen bool) error {
	var v int64
	if frozen {
		v = 1
	}
	return l.st.Set(ctx, frozenKey(account), v)
}

// Approve sets spender's allowance over owner's tokens.
func (l *Ledger) Approve(ctx context.Context, owner, spender string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return l.st.Set(ctx, allowanceKey(owner, spender), amount)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64) (runner.Receipt, error) {
	writes, err := l.move(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}
	return gas(writes), nil
}

// TransferFrom moves amount out of owner's account using spender's
// allowance.
func (l *Ledger) TransferFrom(ctx context.Context, spender, owner, to string, amount int64) (runner.Receipt, error) {
	allowance, err := l.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, err
	}
	if allowance < amount {
		return nil, fmt.Errorf("%s spending %d of %s: %w", spender, amount, owner, ErrInsufficientAllowance)
	}

	writes, err := l.move(ctx, owner, to, amount)
	if err != nil {
		return nil, err
	}

	if allowance != Unlimited {
		if err := l.st.Set(ctx, allowanceKey(owner, spender), allowance-amount); err != nil {
			return nil, err
		}
		writes++
	}
	return gas(writes), nil
}

// move validates and applies a balance transfer, returning the number of
// slots written.
func (l *Ledger) move(ctx context.Context, from, to string, amount int64) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	frozen, err := l.Frozen(ctx, to)
	if err != nil {
		return 0, err
	}
	if frozen {
		return 0, fmt.Errorf("recipient %s: %w", to, ErrFrozen)
	}

	fromBal, err := l.Balance(ctx, from)
	if err != nil {
		return 0, err
	}
	if fromBal < amount {
		return 0, fmt.Errorf("%s has %d, needs %d: %w", from, fromBal, amount, ErrInsufficientBalance)
	}

	if from == to {
		return 0, nil
	}

	toBal, err := l.Balance(ctx, to)
	if err != nil {
		return 0, err
	}
	if err := l.st.Set(ctx, balanceKey(from), fromBal-amount); err != nil {
		return 0, err
	}
	if err := l.st.Set(ctx, balanceKey(to), toBal+amount); err != nil {
		return 0, err
	}
	return 2, nil
}

func gas(writes int) runner.Gas {
	return runner.Gas(GasBase + GasPerWrite*writes)
}
