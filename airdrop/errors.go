package airdrop

import "errors"

var (
	// ErrInvalidMint means the token mint address does not decode.
	ErrInvalidMint = errors.New("airdrop: invalid token mint")

	// ErrNoRecipients means the plan has nothing to send to.
	ErrNoRecipients = errors.New("airdrop: no valid recipients")

	// ErrDuplicateRecipient means the recipient list contains the same
	// address twice; plans refuse to double-pay.
	ErrDuplicateRecipient = errors.New("airdrop: duplicate recipient")

	// ErrInvalidAmount means the per-recipient base amount is not a
	// positive finite number.
	ErrInvalidAmount = errors.New("airdrop: invalid amount")

	// ErrNoEndpoint means every configured RPC endpoint failed the
	// preliminary reads; nothing was submitted.
	ErrNoEndpoint = errors.New("airdrop: no usable rpc endpoint")

	// ErrInsufficientFunds means the sender's token balance does not
	// cover the plan total; nothing was submitted.
	ErrInsufficientFunds = errors.New("airdrop: insufficient token balance")

	// ErrNoBatchConfirmed means every batch failed to submit or
	// confirm. Partial results are still returned alongside.
	ErrNoBatchConfirmed = errors.New("airdrop: no batch confirmed")
)
