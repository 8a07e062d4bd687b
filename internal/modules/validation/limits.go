package validation

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/vintagescan/pricer/internal/domain"
)

// Limits is the plausible USD price band for a brand and product type.
// Max is the absolute ceiling used to detect invalid input; TypicalMax is the
// realistic ceiling prices are clamped to.
type Limits struct {
	Min        float64 `mapstructure:"min" json:"min"`
	Max        float64 `mapstructure:"max" json:"max"`
	TypicalMax float64 `mapstructure:"typical_max" json:"typical_max"`
}

// Table maps normalized brand -> product type -> limits.
type Table map[string]map[string]Limits

// DefaultTable returns the built-in bounds.
func DefaultTable() Table {
	return Table{
		"levis": {
			"jeans":  {Min: 20, Max: 600, TypicalMax: 300},
			"jacket": {Min: 40, Max: 800, TypicalMax: 400},
			"shirt":  {Min: 15, Max: 200, TypicalMax: 100},
		},
		"supreme": {
			"tshirt": {Min: 25, Max: 2000, TypicalMax: 600},
			"hoodie": {Min: 50, Max: 3000, TypicalMax: 1000},
			"jacket": {Min: 100, Max: 5000, TypicalMax: 2000},
		},
		"stussy": {
			"tshirt": {Min: 15, Max: 400, TypicalMax: 200},
			"hoodie": {Min: 30, Max: 500, TypicalMax: 250},
			"jacket": {Min: 40, Max: 600, TypicalMax: 300},
		},
	}
}

// Lookup returns the limits for a brand/product type pair.
func (t Table) Lookup(brand, productType string) (Limits, bool) {
	byType, ok := t[domain.NormalizeBrand(brand)]
	if !ok {
		return Limits{}, false
	}
	l, ok := byType[productType]
	return l, ok
}

// Validate checks 0 < min <= typical_max <= max for every row.
func (t Table) Validate() error {
	for brand, byType := range t {
		for productType, l := range byType {
			if l.Min <= 0 || l.Min > l.TypicalMax || l.TypicalMax > l.Max {
				return fmt.Errorf("invalid limits for %s/%s: min=%v typical_max=%v max=%v",
					brand, productType, l.Min, l.TypicalMax, l.Max)
			}
		}
	}
	return nil
}

// LoadTable reads a bounds table from a YAML, JSON or TOML file:
//
//	brands:
//	  levis:
//	    jeans: {min: 20, max: 600, typical_max: 300}
func LoadTable(path string) (Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read price limits %s: %w", path, err)
	}

	var raw struct {
		Brands map[string]map[string]Limits `mapstructure:"brands"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse price limits %s: %w", path, err)
	}
	if len(raw.Brands) == 0 {
		return nil, fmt.Errorf("price limits %s defines no brands", path)
	}

	table := make(Table, len(raw.Brands))
	for brand, byType := range raw.Brands {
		table[domain.NormalizeBrand(brand)] = byType
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
