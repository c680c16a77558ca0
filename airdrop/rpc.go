package airdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Chain is the slice of Solana RPC the executor needs. Implementations
// wrap one endpoint.
type Chain interface {
	// Name identifies the endpoint in logs and results.
	Name() string
	// TokenBalance returns the base-unit balance of a token account.
	TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// Balance returns an account's lamport balance.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// RentExemptMinimum returns the lamports needed to keep a token
	// account rent exempt.
	RentExemptMinimum(ctx context.Context) (uint64, error)
	// AccountExists reports whether an account is on chain.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	// LatestBlockhash fetches a recent blockhash for transaction assembly.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// Submit sends a signed transaction.
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// WaitConfirmed blocks until the signature reaches confirmed
	// commitment or ctx expires.
	WaitConfirmed(ctx context.Context, sig solana.Signature) error
}

// Client is a Chain backed by one JSON-RPC endpoint. Transient
// failures are retried with jittered backoff.
type Client struct {
	name string
	rpc  *rpc.Client
	log  *slog.Logger
}

// NewClient wraps one RPC endpoint. name is a short label for logs.
func NewClient(name, url string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{name: name, rpc: rpc.New(url), log: log}
}

func (c *Client) Name() string { return c.name }

func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := retryRPC(ctx, c, "getTokenAccountBalance", func() (*rpc.GetTokenAccountBalanceResult, error) {
		return c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return 0, fmt.Errorf("airdrop: token balance %s: %w", account, err)
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("airdrop: token balance %s: parse %q: %w", account, res.Value.Amount, err)
	}
	return amount, nil
}

func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := retryRPC(ctx, c, "getBalance", func() (*rpc.GetBalanceResult, error) {
		return c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return 0, fmt.Errorf("airdrop: balance %s: %w", account, err)
	}
	return res.Value, nil
}

// tokenAccountSize is the byte size of an SPL token account.
const tokenAccountSize = 165

func (c *Client) RentExemptMinimum(ctx context.Context) (uint64, error) {
	min, err := retryRPC(ctx, c, "getMinimumBalanceForRentExemption", func() (uint64, error) {
		return c.rpc.GetMinimumBalanceForRentExemption(ctx, tokenAccountSize, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return 0, fmt.Errorf("airdrop: rent exempt minimum: %w", err)
	}
	return min, nil
}

func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	_, err := retryRPC(ctx, c, "getAccountInfo", func() (*rpc.GetAccountInfoResult, error) {
		return c.rpc.GetAccountInfo(ctx, account)
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("airdrop: account info %s: %w", account, err)
	}
	return true, nil
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := retryRPC(ctx, c, "getLatestBlockhash", func() (*rpc.GetLatestBlockhashResult, error) {
		return c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return solana.Hash{}, fmt.Errorf("airdrop: latest blockhash: %w", err)
	}
	return res.Value.Blockhash, nil
}

func (c *Client) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := retryRPC(ctx, c, "sendTransaction", func() (solana.Signature, error) {
		return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		})
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("airdrop: send transaction: %w", err)
	}
	return sig, nil
}

func (c *Client) WaitConfirmed(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("airdrop: confirm %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}

		res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			c.log.Debug("airdrop: signature status poll failed",
				"endpoint", c.name, "signature", sig.String(), "error", err)
			continue
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}

		st := res.Value[0]
		if st.Err != nil {
			return fmt.Errorf("airdrop: transaction %s failed on chain: %v", sig, st.Err)
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}

// retryRPC applies the standard transient-failure policy to one call.
func retryRPC[T any](ctx context.Context, c *Client, op string, call func() (T, error)) (T, error) {
	return retry.DoWithData(
		call,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, rpc.ErrNotFound) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("airdrop: rpc retry",
				"endpoint", c.name, "op", op, "attempt", n+1, "error", err)
		}),
	)
}

// Endpoints is an ordered RPC failover list. Selection happens once
// per run: the first endpoint that passes the probe carries the whole
// run, later failures do not re-trigger failover.
type Endpoints struct {
	chains []Chain
	log    *slog.Logger
}

// NewEndpoints builds a failover list from URLs, ordered by priority.
func NewEndpoints(urls []string, log *slog.Logger) *Endpoints {
	if log == nil {
		log = slog.Default()
	}
	chains := make([]Chain, 0, len(urls))
	for i, u := range urls {
		chains = append(chains, NewClient(fmt.Sprintf("rpc-%d", i+1), u, log))
	}
	return &Endpoints{chains: chains, log: log}
}

// NewEndpointsFrom builds a failover list from pre-built chains,
// mainly for tests.
func NewEndpointsFrom(chains []Chain, log *slog.Logger) *Endpoints {
	if log == nil {
		log = slog.Default()
	}
	return &Endpoints{chains: chains, log: log}
}

// Select probes endpoints in order and returns the first that passes.
// The probe performs the run's preliminary reads so its results are
// already bound to the endpoint that will carry the run.
func (e *Endpoints) Select(ctx context.Context, probe func(Chain) error) (Chain, error) {
	if len(e.chains) == 0 {
		return nil, ErrNoEndpoint
	}

	var lastErr error
	for _, c := range e.chains {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := probe(c); err != nil {
			e.log.Warn("airdrop: endpoint rejected",
				"endpoint", c.Name(), "error", err)
			lastErr = err
			continue
		}
		e.log.Info("airdrop: endpoint selected", "endpoint", c.Name())
		return c, nil
	}

	return nil, fmt.Errorf("%w: last error: %v", ErrNoEndpoint, lastErr)
}
