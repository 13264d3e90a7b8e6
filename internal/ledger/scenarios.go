package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/gauntlet/internal/runner"
	"github.com/roach88/gauntlet/internal/world"
)

// Transfer is the scenario context: the transfer about to be made.
// Spender is empty for a direct transfer.
type Transfer struct {
	Spender string
	From    string
	To      string
	Amount  int64
}

func (t *Transfer) fork() *Transfer {
	cp := *t
	return &cp
}

// Call is the property input derived from a Transfer.
type Call struct {
	Spender string
	From    string
	To      string
	Amount  int64
}

func toCall(t *Transfer) Call {
	return Call(*t)
}

// Requirements parameterise the constraints of a transfer scenario.
type Requirements struct {
	// Amount is the value every combo transfers.
	Amount int64
}

// DefaultRequirements are used by the registered scenarios.
var DefaultRequirements = Requirements{Amount: 100}

// Balances is the ledger state a transfer property compares.
type Balances struct {
	From      int64
	To        int64
	Supply    int64
	Allowance int64
}

type (
	transferScenario   = runner.Scenario[*Transfer, Requirements, Call]
	transferConstraint = runner.Constraint[*Transfer, Requirements]
	transferSolutions  = runner.Solutions[*Transfer]
)

// SenderFunded requires the paying account to hold at least the
// transfer amount. An underfunded sender is topped up either exactly or
// with a surplus of one more transfer, when that surplus fits in an int64.
func SenderFunded() transferConstraint {
	return runner.ConstraintFuncs[*Transfer, Requirements]{
		Name: "sender_funded",
		SolveFunc: func(ctx context.Context, req Requirements, c *Transfer, w world.World) (transferSolutions, error) {
			l, err := FromWorld(w)
			if err != nil {
				return transferSolutions{}, err
			}
			bal, err := l.Balance(ctx, c.From)
			if err != nil {
				return transferSolutions{}, err
			}
			if bal >= req.Amount {
				return runner.NoSolution[*Transfer](), nil
			}
			short := req.Amount - bal
			if short > Unlimited-req.Amount {
				return runner.Single(mintToSender(short)), nil
			}
			return runner.Choices(mintToSender(short), mintToSender(short+req.Amount)), nil
		},
		CheckFunc: func(ctx context.Context, req Requirements, c *Transfer, w world.World) error {
			l, err := FromWorld(w)
			if err != nil {
				return err
			}
			bal, err := l.Balance(ctx, c.From)
			if err != nil {
				return err
			}
			if bal < req.Amount {
				return fmt.Errorf("%s holds %d of %d: %w", c.From, bal, req.Amount, ErrInsufficientBalance)
			}
			return nil
		},
	}
}

func mintToSender(amount int64) runner.Solution[*Transfer] {
	return runner.Mutate(func(ctx context.Context, c *Transfer, w world.World) error {
		l, err := FromWorld(w)
		if err != nil {
			return err
		}
		return l.Mint(ctx, c.From, amount)
	})
}

// RecipientOpen requires the receiving account to be unfrozen. A frozen
// recipient is either unfrozen or swapped for a fresh account.
func RecipientOpen() transferConstraint {
	return runner.ConstraintFuncs[*Transfer, Requirements]{
		Name: "recipient_open",
		SolveFunc: func(ctx context.Context, _ Requirements, c *Transfer, w world.World) (transferSolutions, error) {
			l, err := FromWorld(w)
			if err != nil {
				return transferSolutions{}, err
			}
			frozen, err := l.Frozen(ctx, c.To)
			if err != nil {
				return transferSolutions{}, err
			}
			if !frozen {
				return runner.NoSolution[*Transfer](), nil
			}
			unfreeze := runner.Mutate(func(ctx context.Context, c *Transfer, w world.World) error {
				l, err := FromWorld(w)
				if err != nil {
					return err
				}
				return l.SetFrozen(ctx, c.To, false)
			})
			redirect := runner.Replace(func(_ context.Context, c *Transfer, _ world.World) (*Transfer, error) {
				next := c.fork()
				next.To = c.To + "-fresh"
				return next, nil
			})
			return runner.Choices(unfreeze, redirect), nil
		},
		CheckFunc: func(ctx context.Context, _ Requirements, c *Transfer, w world.World) error {
			l, err := FromWorld(w)
			if err != nil {
				return err
			}
			frozen, err := l.Frozen(ctx, c.To)
			if err != nil {
				return err
			}
			if frozen {
				return fmt.Errorf("recipient %s: %w", c.To, ErrFrozen)
			}
			return nil
		},
	}
}

// AllowanceCovers requires the spender's allowance to cover the transfer.
// A short allowance is raised to exactly the amount or to Unlimited.
func AllowanceCovers() transferConstraint {
	return runner.ConstraintFuncs[*Transfer, Requirements]{
		Name: "allowance_covers",
		SolveFunc: func(ctx context.Context, req Requirements, c *Transfer, w world.World) (transferSolutions, error) {
			l, err := FromWorld(w)
			if err != nil {
				return transferSolutions{}, err
			}
			allowance, err := l.Allowance(ctx, c.From, c.Spender)
			if err != nil {
				return transferSolutions{}, err
			}
			if allowance >= req.Amount {
				return runner.NoSolution[*Transfer](), nil
			}
			return runner.Choices(approve(req.Amount), approve(Unlimited)), nil
		},
		CheckFunc: func(ctx context.Context, req Requirements, c *Transfer, w world.World) error {
			l, err := FromWorld(w)
			if err != nil {
				return err
			}
			allowance, err := l.Allowance(ctx, c.From, c.Spender)
			if err != nil {
				return err
			}
			if allowance < req.Amount {
				return fmt.Errorf("%s may spend %d of %d: %w", c.Spender, allowance, req.Amount, ErrInsufficientAllowance)
			}
			return nil
		},
	}
}

func approve(amount int64) runner.Solution[*Transfer] {
	return runner.Mutate(func(ctx context.Context, c *Transfer, w world.World) error {
		l, err := FromWorld(w)
		if err != nil {
			return err
		}
		return l.Approve(ctx, c.From, c.Spender, amount)
	})
}

// read captures the balances a call touches.
func (l *Ledger) read(ctx context.Context, call Call) (Balances, error) {
	var (
		b   Balances
		err error
	)
	if b.From, err = l.Balance(ctx, call.From); err != nil {
		return b, err
	}
	if b.To, err = l.Balance(ctx, call.To); err != nil {
		return b, err
	}
	if b.Supply, err = l.Supply(ctx); err != nil {
		return b, err
	}
	if call.Spender != "" {
		if b.Allowance, err = l.Allowance(ctx, call.From, call.Spender); err != nil {
			return b, err
		}
	}
	return b, nil
}

// expect returns the balances a correct ledger holds after call.
func expect(before Balances, call Call) Balances {
	want := before
	if call.From != call.To {
		want.From -= call.Amount
		want.To += call.Amount
	}
	if call.Spender != "" && before.Allowance != Unlimited {
		want.Allowance -= call.Amount
	}
	return want
}

// transferProperty executes call and checks that value moved from sender to
// recipient with the supply unchanged.
func transferProperty(ctx context.Context, call Call, w world.World, _ *Transfer) (runner.Receipt, error) {
	l, err := FromWorld(w)
	if err != nil {
		return nil, err
	}

	before, err := l.read(ctx, call)
	if err != nil {
		return nil, err
	}

	var rcpt runner.Receipt
	if call.Spender == "" {
		rcpt, err = l.Transfer(ctx, call.From, call.To, call.Amount)
	} else {
		rcpt, err = l.TransferFrom(ctx, call.Spender, call.From, call.To, call.Amount)
	}
	if err != nil {
		return nil, fmt.Errorf("execute transfer: %w", err)
	}

	after, err := l.read(ctx, call)
	if err != nil {
		return rcpt, err
	}
	return rcpt, runner.AssertEqual(after, expect(before, call), "balances after transfer")
}

// mintSome mints amount when it is positive.
func mintSome(ctx context.Context, l *Ledger, account string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	return l.Mint(ctx, account, amount)
}

// TransferScenario moves tokens from an underfunded sender to a frozen
// recipient, so every combination of funding and unfreezing runs.
func TransferScenario(req Requirements) runner.Scenario[*Transfer, Requirements, Call] {
	return transferScenario{
		Name:         "transfer",
		File:         "ledger/transfer",
		Requirements: req,
		Initializer: func(ctx context.Context, w world.World) (*Transfer, error) {
			l, err := FromWorld(w)
			if err != nil {
				return nil, err
			}
			if err := mintSome(ctx, l, "alice", req.Amount/2); err != nil {
				return nil, err
			}
			if err := l.SetFrozen(ctx, "bob", true); err != nil {
				return nil, err
			}
			return &Transfer{From: "alice", To: "bob", Amount: req.Amount}, nil
		},
		Forker:      (*Transfer).fork,
		Transformer: toCall,
		Property:    transferProperty,
		Constraints: []transferConstraint{SenderFunded(), RecipientOpen()},
	}
}

// TransferFromScenario spends an owner's tokens through a spender whose
// allowance is short.
func TransferFromScenario(req Requirements) runner.Scenario[*Transfer, Requirements, Call] {
	return transferScenario{
		Name:         "transfer_from",
		File:         "ledger/transfer_from",
		Requirements: req,
		Initializer: func(ctx context.Context, w world.World) (*Transfer, error) {
			l, err := FromWorld(w)
			if err != nil {
				return nil, err
			}
			if err := mintSome(ctx, l, "carol", req.Amount/4); err != nil {
				return nil, err
			}
			if err := l.Approve(ctx, "carol", "dave", req.Amount/10); err != nil {
				return nil, err
			}
			return &Transfer{Spender: "dave", From: "carol", To: "erin", Amount: req.Amount}, nil
		},
		Forker:      (*Transfer).fork,
		Transformer: toCall,
		Property:    transferProperty,
		Constraints: []transferConstraint{SenderFunded(), AllowanceCovers(), RecipientOpen()},
	}
}

// SelfTransferScenario sends tokens to the sender's own account, which must
// leave every balance unchanged.
func SelfTransferScenario(req Requirements) runner.Scenario[*Transfer, Requirements, Call] {
	return transferScenario{
		Name:         "self_transfer",
		File:         "ledger/self_transfer",
		Requirements: req,
		Initializer: func(context.Context, world.World) (*Transfer, error) {
			return &Transfer{From: "frank", To: "frank", Amount: req.Amount}, nil
		},
		Forker:      (*Transfer).fork,
		Transformer: toCall,
		Property:    transferProperty,
		Constraints: []transferConstraint{SenderFunded()},
	}
}
