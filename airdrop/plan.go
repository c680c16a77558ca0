// Package airdrop plans and executes batched SPL token distributions
// to scraped commenter wallets.
package airdrop

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/hazyhaar/commentdrop/wallet"
)

// Recipient is one candidate payout target as it comes out of a
// scrape: an address string plus how many comments its author left.
type Recipient struct {
	Address  string `json:"address"`
	Comments int    `json:"comments,omitempty"`
}

// Transfer is one planned payout in base token units.
type Transfer struct {
	Address  solana.PublicKey
	Amount   uint64
	Comments int
}

// Plan is a validated distribution ready for execution.
type Plan struct {
	Transfers []Transfer
	// TotalRequired is the sum of all transfer amounts in base units.
	TotalRequired uint64
	Decimals      uint8
}

// PlanOptions tunes amount computation.
type PlanOptions struct {
	// Base is the per-recipient amount in whole tokens.
	Base float64
	// Decimals is the mint's decimal count.
	Decimals uint8
	// Multiplier, when enabled, scales each payout by the recipient's
	// comment count times this factor.
	Multiplier        float64
	MultiplierEnabled bool
}

// amountFor computes one recipient's payout in base units, flooring
// after scaling so partial units are never minted.
func (o PlanOptions) amountFor(comments int) uint64 {
	scale := math.Pow10(int(o.Decimals))
	if !o.MultiplierEnabled {
		return uint64(math.Floor(o.Base * scale))
	}
	if comments < 1 {
		comments = 1
	}
	return uint64(math.Floor(o.Base * o.Multiplier * float64(comments) * scale))
}

// BuildPlan validates recipients and computes per-recipient amounts.
//
// Addresses that do not decode are rejected with their index; a
// repeated address fails the whole plan rather than double-paying.
// The caller filters unresolved wallets before planning.
func BuildPlan(recipients []Recipient, opts PlanOptions) (*Plan, error) {
	if opts.Base <= 0 || math.IsNaN(opts.Base) || math.IsInf(opts.Base, 0) {
		return nil, fmt.Errorf("%w: base %v", ErrInvalidAmount, opts.Base)
	}
	if opts.MultiplierEnabled &&
		(opts.Multiplier <= 0 || math.IsNaN(opts.Multiplier) || math.IsInf(opts.Multiplier, 0)) {
		return nil, fmt.Errorf("%w: multiplier %v", ErrInvalidAmount, opts.Multiplier)
	}

	seen := make(map[string]bool, len(recipients))
	transfers := make([]Transfer, 0, len(recipients))
	var total uint64

	for i, r := range recipients {
		if !wallet.IsValid(r.Address) {
			return nil, fmt.Errorf("airdrop: recipient %d: invalid address %q", i, r.Address)
		}
		if seen[r.Address] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecipient, r.Address)
		}
		seen[r.Address] = true

		pk, err := solana.PublicKeyFromBase58(r.Address)
		if err != nil {
			return nil, fmt.Errorf("airdrop: recipient %d: %w", i, err)
		}

		amount := opts.amountFor(r.Comments)
		if amount == 0 {
			return nil, fmt.Errorf("%w: recipient %d rounds to zero", ErrInvalidAmount, i)
		}

		transfers = append(transfers, Transfer{
			Address:  pk,
			Amount:   amount,
			Comments: r.Comments,
		})
		total += amount
	}

	if len(transfers) == 0 {
		return nil, ErrNoRecipients
	}

	return &Plan{
		Transfers:     transfers,
		TotalRequired: total,
		Decimals:      opts.Decimals,
	}, nil
}

// Validate splits addresses into valid and invalid without building a
// plan. Duplicates within the valid set are kept once.
func Validate(addrs []string) (valid, invalid []string) {
	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if !wallet.IsValid(a) {
			invalid = append(invalid, a)
			continue
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		valid = append(valid, a)
	}
	return valid, invalid
}
