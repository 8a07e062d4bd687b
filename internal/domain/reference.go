package domain

import (
	"fmt"
	"time"
)

// ConditionGrade is a garment condition on a five step scale.
type ConditionGrade string

const (
	ConditionDeadstock ConditionGrade = "deadstock"
	ConditionExcellent ConditionGrade = "excellent"
	ConditionGood      ConditionGrade = "good"
	ConditionFair      ConditionGrade = "fair"
	ConditionPoor      ConditionGrade = "poor"
)

// ConditionGrades lists every grade from best to worst.
var ConditionGrades = []ConditionGrade{
	ConditionDeadstock,
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}

// Valid reports whether g is a known grade.
func (g ConditionGrade) Valid() bool {
	for _, c := range ConditionGrades {
		if c == g {
			return true
		}
	}
	return false
}

// Rarity classifies how often an item shows up for sale.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityRare     Rarity = "rare"
	RarityVeryRare Rarity = "very_rare"
	RarityGrail    Rarity = "grail"
)

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityVeryRare, RarityGrail:
		return true
	}
	return false
}

// ReferencePriceRecord is a curated price band for a brand, product type,
// production era and condition. Prices are in the origin currency.
type ReferencePriceRecord struct {
	UpdatedAt   time.Time      `json:"updated_at"`
	Brand       string         `json:"brand"`
	ProductType string         `json:"product_type"`
	Condition   ConditionGrade `json:"condition"`
	Rarity      Rarity         `json:"rarity"`
	Notes       string         `json:"notes,omitempty"`
	ID          int64          `json:"id"`
	EraStart    int            `json:"era_start"`
	EraEnd      int            `json:"era_end"`
	MinPrice    float64        `json:"min_price"`
	AvgPrice    float64        `json:"avg_price"`
	MaxPrice    float64        `json:"max_price"`
	SampleCount int            `json:"sample_count"`
}

// Validate checks the record invariants.
func (r ReferencePriceRecord) Validate() error {
	if r.Brand == "" || r.ProductType == "" {
		return fmt.Errorf("brand and product type are required")
	}
	if r.EraStart > r.EraEnd {
		return fmt.Errorf("era start %d is after era end %d", r.EraStart, r.EraEnd)
	}
	if r.MinPrice > r.AvgPrice || r.AvgPrice > r.MaxPrice {
		return fmt.Errorf("prices out of order: min=%.0f avg=%.0f max=%.0f", r.MinPrice, r.AvgPrice, r.MaxPrice)
	}
	if !r.Condition.Valid() {
		return fmt.Errorf("unknown condition %q", r.Condition)
	}
	if r.Rarity != "" && !r.Rarity.Valid() {
		return fmt.Errorf("unknown rarity %q", r.Rarity)
	}
	return nil
}

// ReferenceRange aggregates every record overlapping an era window.
type ReferenceRange struct {
	Min     float64 `json:"min"`
	Avg     float64 `json:"avg"`
	Max     float64 `json:"max"`
	Records int     `json:"records"`
}

// ConditionAnalysis is the outcome of classifying a condition description.
type ConditionAnalysis struct {
	Grade           ConditionGrade `json:"grade"`
	Factors         []string       `json:"factors"`
	Confidence      int            `json:"confidence"`
	PriceMultiplier float64        `json:"price_multiplier"`
}

// FeedbackType is the user's verdict on an estimate.
type FeedbackType string

const (
	FeedbackAccurate FeedbackType = "accurate"
	FeedbackTooHigh  FeedbackType = "too_high"
	FeedbackTooLow   FeedbackType = "too_low"
	FeedbackSold     FeedbackType = "sold"
)

// Valid reports whether f is a known feedback type.
func (f FeedbackType) Valid() bool {
	switch f {
	case FeedbackAccurate, FeedbackTooHigh, FeedbackTooLow, FeedbackSold:
		return true
	}
	return false
}

// PriceFeedback is one entry of the append-only feedback log.
type PriceFeedback struct {
	CreatedAt      time.Time    `json:"created_at"`
	ActualSold     *float64     `json:"actual_sold,omitempty"`
	ID             string       `json:"id"`
	Brand          string       `json:"brand"`
	ProductName    string       `json:"product_name"`
	FeedbackType   FeedbackType `json:"feedback_type,omitempty"`
	Marketplace    string       `json:"marketplace,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	AIEstimated    float64      `json:"ai_estimated"`
}

// AccuracyStats summarises feedback for a brand (or all brands).
type AccuracyStats struct {
	MeanAbsErrorPct *float64 `json:"mean_abs_error_pct,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Total           int      `json:"total"`
	Accurate        int      `json:"accurate"`
	TooHigh         int      `json:"too_high"`
	TooLow          int      `json:"too_low"`
	Sold            int      `json:"sold"`
}
