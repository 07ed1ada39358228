package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain UPC-A", raw: "036000291452", want: "036000291452"},
		{name: "EAN-13 with spaces", raw: "4 006381 333931", want: "4006381333931"},
		{name: "hyphenated", raw: "0-36000-29145-2", want: "036000291452"},
		{name: "letters stripped", raw: "UPC036000291452", want: "036000291452"},
		{name: "no digits", raw: "not-a-barcode", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "too long", raw: "1234567890123456789", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBarcode(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityIrritation, SeveritySevere, SeverityAnaphylactic} {
		parsed, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityIrritation, SeveritySevere)
	assert.Less(t, SeveritySevere, SeverityAnaphylactic)
}

func TestProfileFingerprint(t *testing.T) {
	base := UserProfile{
		ID: "u1",
		Restrictions: []Restriction{
			{Category: CategoryAllergen, Key: "milk", Severity: SeveritySevere},
			{Category: CategoryAllergen, Key: "peanuts", Severity: SeverityAnaphylactic},
		},
	}

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, base.Fingerprint(), base.Fingerprint())
	})

	t.Run("order independent", func(t *testing.T) {
		reordered := UserProfile{
			ID: "u1",
			Restrictions: []Restriction{
				{Category: CategoryAllergen, Key: "peanuts", Severity: SeverityAnaphylactic},
				{Category: CategoryAllergen, Key: "milk", Severity: SeveritySevere},
			},
		}
		assert.Equal(t, base.Fingerprint(), reordered.Fingerprint())
	})

	t.Run("severity change changes fingerprint", func(t *testing.T) {
		edited := UserProfile{
			ID: "u1",
			Restrictions: []Restriction{
				{Category: CategoryAllergen, Key: "milk", Severity: SeverityAnaphylactic},
				{Category: CategoryAllergen, Key: "peanuts", Severity: SeverityAnaphylactic},
			},
		}
		assert.NotEqual(t, base.Fingerprint(), edited.Fingerprint())
	})

	t.Run("key case insensitive", func(t *testing.T) {
		upper := UserProfile{
			ID: "u1",
			Restrictions: []Restriction{
				{Category: CategoryAllergen, Key: "Milk", Severity: SeveritySevere},
				{Category: CategoryAllergen, Key: "Peanuts", Severity: SeverityAnaphylactic},
			},
		}
		assert.Equal(t, base.Fingerprint(), upper.Fingerprint())
	})
}

func TestMaxCompliance(t *testing.T) {
	assert.Equal(t, ComplianceViolation, MaxCompliance(ComplianceSafe, ComplianceViolation))
	assert.Equal(t, ComplianceViolation, MaxCompliance(ComplianceViolation, ComplianceCaution))
	assert.Equal(t, ComplianceCaution, MaxCompliance(ComplianceSafe, ComplianceCaution))
	assert.Equal(t, ComplianceSafe, MaxCompliance(ComplianceSafe, ComplianceSafe))
}

func TestParseOperationKind(t *testing.T) {
	for _, k := range []OperationKind{OpCacheProduct, OpSaveProfile, OpSaveScanHistory} {
		got, err := ParseOperationKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseOperationKind("delete_everything")
	assert.Error(t, err)
}
