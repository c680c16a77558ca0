package airdrop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
)

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// ConfirmTimeout bounds the wait for each batch's confirmation.
	// Default: 90s.
	ConfirmTimeout time.Duration

	Logger *slog.Logger
}

func (c *ExecutorConfig) defaults() {
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 90 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Executor submits a Plan as a sequence of batched transactions.
type Executor struct {
	cfg       ExecutorConfig
	endpoints *Endpoints
	signer    Signer
}

// NewExecutor creates an Executor. The endpoint list is probed fresh
// on every Execute call.
func NewExecutor(cfg ExecutorConfig, endpoints *Endpoints, signer Signer) *Executor {
	cfg.defaults()
	return &Executor{cfg: cfg, endpoints: endpoints, signer: signer}
}

// Execute runs a distribution plan against the given token mint.
//
// The RPC endpoint is chosen once, by running the preliminary reads
// (token balance, lamports, rent minimum) against each candidate in
// priority order; the winner carries
// the entire run. The sender balance must cover the plan total before
// any transfer is built. Batches then submit independently: one
// recipient or one batch failing never stops the rest. The run
// succeeds when at least one batch confirms; otherwise the collected
// results come back with ErrNoBatchConfirmed.
func (x *Executor) Execute(ctx context.Context, mint string, plan *Plan) ([]Result, error) {
	log := x.cfg.Logger

	mintPK, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMint, mint)
	}

	sender := x.signer.Address()
	senderATA, _, err := solana.FindAssociatedTokenAddress(sender, mintPK)
	if err != nil {
		return nil, fmt.Errorf("airdrop: sender token account: %w", err)
	}

	var balance, lamports, rentExempt uint64
	chain, err := x.endpoints.Select(ctx, func(c Chain) error {
		b, err := c.TokenBalance(ctx, senderATA)
		if err != nil {
			return err
		}
		l, err := c.Balance(ctx, sender)
		if err != nil {
			return err
		}
		r, err := c.RentExemptMinimum(ctx)
		if err != nil {
			return err
		}
		balance, lamports, rentExempt = b, l, r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if balance < plan.TotalRequired {
		return nil, fmt.Errorf("%w: have %d, need %d (base units)",
			ErrInsufficientFunds, balance, plan.TotalRequired)
	}
	if lamports < rentExempt {
		// Fees and account creation come out of the sender's lamports;
		// batches needing a new token account will fail on chain.
		log.Warn("airdrop: sender lamports below rent-exempt minimum",
			"lamports", lamports, "rentExempt", rentExempt)
	}

	log.Info("airdrop: executing plan",
		"endpoint", chain.Name(),
		"recipients", len(plan.Transfers),
		"total", plan.TotalRequired,
		"balance", balance)

	batches := partition(plan.Transfers)
	results := make([]Result, 0, len(batches))
	confirmed := 0

	for bi, batch := range batches {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res := x.runBatch(ctx, chain, mintPK, sender, senderATA, bi, batch)
		if res.Confirmed {
			confirmed++
		}
		results = append(results, res)
	}

	log.Info("airdrop: run complete",
		"batches", len(batches), "confirmed", confirmed)

	if confirmed == 0 {
		return results, ErrNoBatchConfirmed
	}
	return results, nil
}

func (x *Executor) runBatch(ctx context.Context, chain Chain, mint, sender, senderATA solana.PublicKey, bi int, batch []Transfer) Result {
	log := x.cfg.Logger

	res := Result{Batch: bi, Recipients: make([]string, 0, len(batch))}
	for _, t := range batch {
		res.Recipients = append(res.Recipients, t.Address.String())
	}

	var instructions []solana.Instruction
	for _, t := range batch {
		recipATA, _, err := solana.FindAssociatedTokenAddress(t.Address, mint)
		if err != nil {
			log.Warn("airdrop: recipient skipped",
				"batch", bi, "recipient", t.Address.String(), "error", err)
			continue
		}

		// The existence check is advisory: when it errors the
		// transfer stays in and account creation is skipped, letting
		// the chain arbitrate.
		exists, err := chain.AccountExists(ctx, recipATA)
		if err != nil {
			log.Warn("airdrop: token account lookup failed, assuming it exists",
				"batch", bi, "recipient", t.Address.String(), "error", err)
			exists = true
		}
		if !exists {
			instructions = append(instructions,
				associatedtokenaccount.NewCreateInstruction(sender, t.Address, mint).Build())
		}

		instructions = append(instructions,
			token.NewTransferInstruction(t.Amount, senderATA, recipATA, sender,
				[]solana.PublicKey{}).Build())
	}

	if len(instructions) == 0 {
		res.Error = "no buildable transfers"
		return res
	}

	blockhash, err := chain.LatestBlockhash(ctx)
	if err != nil {
		res.Error = fmt.Sprintf("blockhash: %v", err)
		return res
	}

	tx, err := solana.NewTransaction(instructions, blockhash,
		solana.TransactionPayer(sender))
	if err != nil {
		res.Error = fmt.Sprintf("build transaction: %v", err)
		return res
	}

	if err := x.signer.Sign(tx); err != nil {
		res.Error = err.Error()
		return res
	}

	sig, err := chain.Submit(ctx, tx)
	if err != nil {
		log.Warn("airdrop: batch submit failed", "batch", bi, "error", err)
		res.Error = err.Error()
		return res
	}
	res.Signature = sig.String()
	log.Info("airdrop: batch submitted",
		"batch", bi, "signature", res.Signature, "recipients", len(res.Recipients))

	confirmCtx, cancel := context.WithTimeout(ctx, x.cfg.ConfirmTimeout)
	defer cancel()

	if err := chain.WaitConfirmed(confirmCtx, sig); err != nil {
		log.Warn("airdrop: batch not confirmed",
			"batch", bi, "signature", res.Signature, "error", err)
		res.Error = err.Error()
		return res
	}

	res.Confirmed = true
	log.Info("airdrop: batch confirmed", "batch", bi, "signature", res.Signature)
	return res
}
