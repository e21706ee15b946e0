package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint derives the deterministic identity of a vulnerability from its
// file, normalized line range and defect category. It is stable across runs
// on unchanged source, which is what makes dedup and verdict caching work.
func Fingerprint(file string, startLine, endLine int, category Category) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d-%d|%s", file, startLine, endLine, category)))
	return hex.EncodeToString(h[:])
}
