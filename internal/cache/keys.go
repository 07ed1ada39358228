package cache

import (
	"crypto/sha256"
	"fmt"
)

// AnalysisKey derives the analysis cache key from the product identity and
// the profile fingerprint. Any profile edit changes the fingerprint, so a
// stale (product, profile) combination can never be addressed again.
func AnalysisKey(barcode, profileFingerprint string) string {
	sum := sha256.Sum256([]byte(barcode + "\n" + profileFingerprint))
	return fmt.Sprintf("analysis:%x", sum)
}

// ProductKey derives the product cache key from the normalized barcode.
func ProductKey(barcode string) string {
	return "product:" + barcode
}
