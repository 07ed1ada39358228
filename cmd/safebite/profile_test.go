package main

import (
	"testing"

	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRestriction(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    model.Restriction
		wantErr bool
	}{
		{
			name: "allergen",
			spec: "allergen:milk:severe",
			want: model.Restriction{Category: model.CategoryAllergen, Key: "milk", Severity: model.SeveritySevere},
		},
		{
			name: "case and whitespace normalized",
			spec: " Allergen : Peanuts : anaphylactic ",
			want: model.Restriction{Category: model.CategoryAllergen, Key: "peanuts", Severity: model.SeverityAnaphylactic},
		},
		{
			name: "religious",
			spec: "religious:pork:severe",
			want: model.Restriction{Category: model.CategoryReligious, Key: "pork", Severity: model.SeveritySevere},
		},
		{
			name:    "missing severity",
			spec:    "allergen:milk",
			wantErr: true,
		},
		{
			name:    "unknown category",
			spec:    "mood:milk:severe",
			wantErr: true,
		},
		{
			name:    "unknown severity",
			spec:    "allergen:milk:fatal",
			wantErr: true,
		},
		{
			name:    "empty key",
			spec:    "allergen::severe",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRestriction(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildProfile(t *testing.T) {
	profile, err := buildProfile("family", []string{
		"allergen:milk:severe",
		"allergen:peanuts:anaphylactic",
	})
	require.NoError(t, err)
	assert.Equal(t, "family", profile.ID)
	require.Len(t, profile.Restrictions, 2)

	t.Run("rejects duplicate category and key", func(t *testing.T) {
		_, err := buildProfile("u1", []string{
			"allergen:milk:severe",
			"allergen:milk:irritation",
		})
		assert.ErrorContains(t, err, "duplicate restriction")
	})

	t.Run("same key in another category allowed", func(t *testing.T) {
		profile, err := buildProfile("u1", []string{
			"allergen:pork:severe",
			"religious:pork:severe",
		})
		require.NoError(t, err)
		assert.Len(t, profile.Restrictions, 2)
	})
}

func TestVerdictBadge(t *testing.T) {
	assert.Contains(t, verdictBadge(model.ComplianceSafe), "SAFE")
	assert.Contains(t, verdictBadge(model.ComplianceCaution), "CAUTION")
	assert.Contains(t, verdictBadge(model.ComplianceViolation), "VIOLATION")
}
