package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeLotID computes a deterministic lot_id using SHA256.
// Formula: SHA256(asset|source_tx_id|seq|acquired_at)
// Returns hex-encoded hash (64 characters).
func ComputeLotID(
	asset string,
	sourceTxID string,
	seq int,
	acquiredAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		asset,
		sourceTxID,
		seq,
		acquiredAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
