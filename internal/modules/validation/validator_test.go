package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(nil, zerolog.Nop())
}

func TestDetectProductType(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Levi's 501 Big E", "jeans"},
		{"Selvedge Denim", "jeans"},
		{"Box Logo Hoodie", "hoodie"},
		{"Type III Trucker", "jacket"},
		{"Work Jacket", "jacket"},
		{"Tour Tee", "tshirt"},
		{"Graphic T-Shirt", "tshirt"},
		{"Western Shirt", "shirt"},
		{"Bucket Hat", "tshirt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectProductType(tt.name))
		})
	}
}

func TestValidate_BelowMinimum(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "jeans", 5, 80, "")

	assert.True(t, res.WasAdjusted)
	assert.Equal(t, 20.0, res.AdjustedPrice)
	assert.Equal(t, 5.0, res.OriginalPrice)
	assert.Equal(t, 60, res.Confidence)
	assert.Less(t, res.Confidence, 80)
	assert.Contains(t, res.Reason, "too low")
}

func TestValidate_BelowMinimumConfidenceFloor(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "jeans", 5, 40, "")

	assert.Equal(t, 30, res.Confidence)
}

func TestValidate_AboveMaximumNonVintage(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "501 jeans", 701, 80, "")

	assert.True(t, res.WasAdjusted)
	assert.Equal(t, 300.0, res.AdjustedPrice)
	// non-vintage rule fires last and decides the confidence
	assert.Equal(t, 70, res.Confidence)
	assert.Contains(t, res.Reason, "non-vintage")
}

func TestValidate_AboveMaximumVintage(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "501 jeans", 701, 80, "1960s Big E")

	assert.True(t, res.WasAdjusted)
	assert.Equal(t, 300.0, res.AdjustedPrice)
	assert.Equal(t, 65, res.Confidence)
	assert.Contains(t, res.Reason, "too high")
}

func TestValidate_HighVintageKept(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "501 jeans", 420, 80, "1980s")

	assert.False(t, res.WasAdjusted)
	assert.Equal(t, 420.0, res.AdjustedPrice)
	assert.Equal(t, 80, res.Confidence)
	assert.Empty(t, res.Reason)
}

func TestValidate_RoundNumber(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "501 jeans", 250, 80, "")

	assert.False(t, res.WasAdjusted)
	assert.Equal(t, 250.0, res.AdjustedPrice)
	assert.Equal(t, 75, res.Confidence)
	assert.Contains(t, res.Reason, "round")
}

func TestValidate_RoundNumberKeepsEarlierReason(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("levis", "501 jeans", 700, 80, "")

	assert.Equal(t, 300.0, res.AdjustedPrice)
	assert.Equal(t, 75, res.Confidence)
	assert.Contains(t, res.Reason, "non-vintage")
}

func TestValidate_WithinRange(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("Levi's", "501 jeans", 180, 72, "")

	assert.False(t, res.WasAdjusted)
	assert.Equal(t, 180.0, res.AdjustedPrice)
	assert.Equal(t, 72, res.Confidence)
}

func TestValidate_UnknownBrandPassesThrough(t *testing.T) {
	v := newTestValidator()

	res := v.Validate("carhartt", "jacket", 5000, 80, "")

	assert.False(t, res.WasAdjusted)
	assert.Equal(t, 5000.0, res.AdjustedPrice)
	assert.Equal(t, 80, res.Confidence)
}

func TestValidate_UnknownProductTypePassesThrough(t *testing.T) {
	v := newTestValidator()

	// supreme has no "shirt" row
	res := v.Validate("supreme", "flannel shirt", 1, 80, "")

	assert.False(t, res.WasAdjusted)
	assert.Equal(t, 1.0, res.AdjustedPrice)
}

func TestCheckConsistency(t *testing.T) {
	ok := CheckConsistency(100, 133000, 1330)
	assert.True(t, ok.Consistent)
	assert.Zero(t, ok.SuggestedLocal)

	within := CheckConsistency(100, 140000, 1330)
	assert.True(t, within.Consistent)

	off := CheckConsistency(100, 200000, 1330)
	assert.False(t, off.Consistent)
	assert.Equal(t, 133000.0, off.SuggestedLocal)
}

func TestAdjustConfidenceByQuality(t *testing.T) {
	tests := []struct {
		name       string
		rationale  string
		confidence int
		expected   int
	}{
		{"specific detail with justification", "Big E tab and care label intact, price reflects condition", 70, 75},
		{"korean detail", "박스로고 확인, 가격은 컨디션 기준", 70, 75},
		{"no justification", "nice jeans", 70, 65},
		{"vague and unjustified", "appears to be old, seems fine, probably real, looks like denim", 70, 55},
		{"two vague phrases tolerated", "seems old, probably real, price ok", 70, 70},
		{"ceiling", "valencia made, price high", 95, 95},
		{"floor", "seems, seems, seems", 35, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AdjustConfidenceByQuality(tt.rationale, tt.confidence))
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	content := `brands:
  "Levi's":
    jeans:
      min: 30
      max: 900
      typical_max: 450
  carhartt:
    jacket:
      min: 40
      max: 700
      typical_max: 350
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	l, ok := table.Lookup("levis", "jeans")
	require.True(t, ok)
	assert.Equal(t, Limits{Min: 30, Max: 900, TypicalMax: 450}, l)

	v := NewValidator(table, zerolog.Nop())
	res := v.Validate("Carhartt", "detroit jacket", 10, 80, "")
	assert.Equal(t, 40.0, res.AdjustedPrice)
}

func TestLoadTable_RejectsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	content := `brands:
  levis:
    jeans:
      min: 500
      max: 600
      typical_max: 300
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadTable(path)
	assert.Error(t, err)
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultTableIsValid(t *testing.T) {
	assert.NoError(t, DefaultTable().Validate())
}
