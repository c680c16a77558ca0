// Package wallet validates Solana wallet addresses and finds address
// candidates in free text.
//
// Validation is a full base-58 decode to 32 bytes, not a pattern match.
// The lenient base-58 pattern (32–44 chars) only produces candidates for
// text scans; every candidate is decode-checked before it is accepted.
package wallet

import (
	"regexp"

	"github.com/gagliardetto/solana-go"
)

// Pattern matches base-58 runs of plausible address length. It is a
// candidate scanner: a match is not necessarily a valid address.
var Pattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// IsValid reports whether s decodes as a base-58 Solana public key.
func IsValid(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// Scan returns every decodable address in text, in order of appearance.
func Scan(text string) []string {
	var out []string
	for _, m := range Pattern.FindAllString(text, -1) {
		if IsValid(m) {
			out = append(out, m)
		}
	}
	return out
}

// First returns the first decodable address in text.
func First(text string) (string, bool) {
	for _, m := range Pattern.FindAllString(text, -1) {
		if IsValid(m) {
			return m, true
		}
	}
	return "", false
}
