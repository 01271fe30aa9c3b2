package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Use full SHA-256 hash (64 hex chars / 256 bits) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ProblemHash hashes the canonical text form of p: the header line and one
// "<value> <weight>" line per item. Formatting differences in the source
// file (tabs, trailing blank lines) do not change the hash.
func ProblemHash(p *knapsack.Problem) string {
	h := sha256.New()
	buf := make([]byte, 0, 64)
	buf = strconv.AppendInt(buf, int64(len(p.Items)), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, p.Capacity, 10)
	buf = append(buf, '\n')
	h.Write(buf)
	for _, it := range p.Items {
		buf = strconv.AppendInt(buf[:0], it.Value, 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, it.Weight, 10)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
