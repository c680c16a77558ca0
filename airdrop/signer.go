package airdrop

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer authorises transactions on behalf of the funding wallet.
type Signer interface {
	// Address is the funding wallet's public key.
	Address() solana.PublicKey
	// Sign signs the transaction in place.
	Sign(tx *solana.Transaction) error
}

// KeypairSigner signs with a locally held private key.
type KeypairSigner struct {
	key solana.PrivateKey
}

// NewKeypairSigner wraps a private key.
func NewKeypairSigner(key solana.PrivateKey) *KeypairSigner {
	return &KeypairSigner{key: key}
}

// KeypairFromBase58 parses a base58-encoded private key.
func KeypairFromBase58(s string) (*KeypairSigner, error) {
	key, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("airdrop: parse private key: %w", err)
	}
	return &KeypairSigner{key: key}, nil
}

// KeypairFromFile loads a solana-keygen JSON keyfile.
func KeypairFromFile(path string) (*KeypairSigner, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("airdrop: load keyfile %s: %w", path, err)
	}
	return &KeypairSigner{key: key}, nil
}

func (s *KeypairSigner) Address() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *KeypairSigner) Sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if s.key.PublicKey().Equals(key) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("airdrop: sign: %w", err)
	}
	return nil
}
