// Package model defines the core value types shared across the engine.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ProductSource records where product data came from.
type ProductSource string

const (
	// SourceAPI marks products fetched from the external lookup API.
	SourceAPI ProductSource = "api"
	// SourceCache marks products served from the product cache.
	SourceCache ProductSource = "cache"
	// SourceManual marks products entered by hand.
	SourceManual ProductSource = "manual"
)

// Product represents a scanned food product. Immutable once constructed.
type Product struct {
	Barcode           string
	Name              string
	Ingredients       []string
	DeclaredAllergens []string
	Source            ProductSource
	RetrievedAt       time.Time
}

const maxBarcodeDigits = 18

// NormalizeBarcode strips everything but digits from a scanned code and
// returns the canonical barcode string. EAN-13, UPC-A and shorter codes all
// normalize to their digit sequence.
func NormalizeBarcode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", fmt.Errorf("barcode %q contains no digits", raw)
	}
	if len(digits) > maxBarcodeDigits {
		return "", fmt.Errorf("barcode %q has %d digits, max %d", raw, len(digits), maxBarcodeDigits)
	}
	return digits, nil
}
