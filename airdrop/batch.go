package airdrop

// BatchSize caps transfers per transaction. Five ATA-create plus
// transfer pairs is what reliably fits a transaction's size and
// compute limits.
const BatchSize = 5

// partition splits transfers into consecutive batches of at most
// BatchSize, preserving order. Every transfer lands in exactly one
// batch.
func partition(transfers []Transfer) [][]Transfer {
	if len(transfers) == 0 {
		return nil
	}
	batches := make([][]Transfer, 0, (len(transfers)+BatchSize-1)/BatchSize)
	for start := 0; start < len(transfers); start += BatchSize {
		end := start + BatchSize
		if end > len(transfers) {
			end = len(transfers)
		}
		batches = append(batches, transfers[start:end])
	}
	return batches
}

// Result is the outcome of one submitted batch.
type Result struct {
	Batch      int      `json:"batch"`
	Recipients []string `json:"recipients"`
	Signature  string   `json:"signature,omitempty"`
	Confirmed  bool     `json:"confirmed"`
	Error      string   `json:"error,omitempty"`
}
