package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"wallet-analytics/internal/domain"
)

// ComputeDisposalID computes a deterministic disposal_id using SHA256.
// Formula: SHA256(tx_id|asset|kind|seq|disposed_at)
// The same transaction replayed under the same ordering yields the same id,
// which lets the disposal store upsert instead of duplicating rows.
func ComputeDisposalID(
	txID string,
	asset string,
	kind domain.Kind,
	seq int,
	disposedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		txID,
		asset,
		string(kind),
		seq,
		disposedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
