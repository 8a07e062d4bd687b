package reference

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vintagescan/pricer/internal/domain"
)

const (
	minGroupItems     = 3
	minConditionItems = 2
)

// ScrapedItem is one sold listing collected offline for the reference table.
type ScrapedItem struct {
	Brand       string  `json:"brand"`
	ProductType string  `json:"productType"`
	Title       string  `json:"title"`
	Currency    string  `json:"currency"`
	SoldDate    string  `json:"soldDate,omitempty"`
	Condition   string  `json:"condition,omitempty"`
	URL         string  `json:"url"`
	Marketplace string  `json:"marketplace"`
	Era         string  `json:"era,omitempty"`
	Price       float64 `json:"price"`
}

var eraPattern = regexp.MustCompile(`(\d{4})(s?)`)

// ParseEra maps an era description to a year interval: "1980s" spans the
// decade, any other four-digit year is a single-year interval, "vintage"
// means the 1990s and anything else is treated as modern (2010-2024).
func ParseEra(era string) (int, int) {
	if m := eraPattern.FindStringSubmatch(era); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			if m[2] == "s" && y%10 == 0 {
				return y, y + 9
			}
			return y, y
		}
	}

	if strings.Contains(strings.ToLower(era), "vintage") {
		return 1990, 1999
	}
	return 2010, 2024
}

func conditionFromItem(item ScrapedItem, groupAvg float64) domain.ConditionGrade {
	title := strings.ToLower(item.Title)
	switch {
	case strings.Contains(title, "nwt"), strings.Contains(title, "new"), strings.Contains(title, "deadstock"):
		return domain.ConditionDeadstock
	case strings.Contains(title, "excellent"), strings.Contains(title, "mint"):
		return domain.ConditionExcellent
	case strings.Contains(title, "poor"), strings.Contains(title, "damaged"), strings.Contains(title, "repair"):
		return domain.ConditionPoor
	case strings.Contains(title, "fair"), strings.Contains(title, "worn"):
		return domain.ConditionFair
	case item.Price > groupAvg*1.3:
		return domain.ConditionExcellent
	case item.Price < groupAvg*0.6:
		return domain.ConditionFair
	default:
		return domain.ConditionGood
	}
}

func rarityFromItem(title string, priceVsAvg float64) domain.Rarity {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "big e"),
		strings.Contains(lower, "box logo") && strings.Contains(lower, "1994"):
		return domain.RarityGrail
	case strings.Contains(lower, "rare"), strings.Contains(lower, "limited"), strings.Contains(lower, "valencia"):
		return domain.RarityVeryRare
	case priceVsAvg > 1.5:
		return domain.RarityRare
	default:
		return domain.RarityCommon
	}
}

type groupKey struct {
	brand       string
	productType string
	eraStart    int
	eraEnd      int
}

// BuildRecords groups scraped items by brand, product type and era, then
// by derived condition, and emits one record per condition sub-group.
// Groups need at least three items and condition sub-groups at least two.
// Items with an unknown brand or type, a non-positive price, or a currency
// other than USD are ignored.
func BuildRecords(items []ScrapedItem, now time.Time) []domain.ReferencePriceRecord {
	groups := make(map[groupKey][]ScrapedItem)
	for _, item := range items {
		brand := domain.NormalizeBrand(item.Brand)
		productType := strings.ToLower(strings.TrimSpace(item.ProductType))
		if brand == "" || brand == "unknown" || productType == "" || productType == "unknown" {
			continue
		}
		if item.Price <= 0 || (item.Currency != "" && !strings.EqualFold(item.Currency, domain.CurrencyUSD)) {
			continue
		}
		era := item.Era
		if era == "" {
			era = "unknown"
		}
		start, end := ParseEra(era)
		key := groupKey{brand: brand, productType: productType, eraStart: start, eraEnd: end}
		groups[key] = append(groups[key], item)
	}

	var records []domain.ReferencePriceRecord
	for key, group := range groups {
		if len(group) < minGroupItems {
			continue
		}

		groupAvg := meanPrice(group)
		byCondition := make(map[domain.ConditionGrade][]ScrapedItem)
		for _, item := range group {
			c := conditionFromItem(item, groupAvg)
			byCondition[c] = append(byCondition[c], item)
		}

		for condition, sub := range byCondition {
			if len(sub) < minConditionItems {
				continue
			}

			lo, hi := math.Inf(1), math.Inf(-1)
			for _, item := range sub {
				lo = math.Min(lo, item.Price)
				hi = math.Max(hi, item.Price)
			}
			avg := math.Round(meanPrice(sub))

			records = append(records, domain.ReferencePriceRecord{
				Brand:       key.brand,
				ProductType: key.productType,
				EraStart:    key.eraStart,
				EraEnd:      key.eraEnd,
				Condition:   condition,
				MinPrice:    math.Round(lo),
				AvgPrice:    avg,
				MaxPrice:    math.Round(hi),
				Rarity:      rarityFromItem(sub[0].Title, avg/groupAvg),
				Notes:       fmt.Sprintf("Scraped from %s, %d samples", sub[0].Marketplace, len(sub)),
				SampleCount: len(sub),
				UpdatedAt:   now,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		if a.ProductType != b.ProductType {
			return a.ProductType < b.ProductType
		}
		if a.EraStart != b.EraStart {
			return a.EraStart < b.EraStart
		}
		return gradeIndex(a.Condition) < gradeIndex(b.Condition)
	})
	return records
}

func meanPrice(items []ScrapedItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Price
	}
	return sum / float64(len(items))
}

func gradeIndex(g domain.ConditionGrade) int {
	for i, c := range domain.ConditionGrades {
		if c == g {
			return i
		}
	}
	return len(domain.ConditionGrades)
}

// ReadJSON decodes a JSON array of scraped items.
func ReadJSON(r io.Reader) ([]ScrapedItem, error) {
	var items []ScrapedItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode scraped items: %w", err)
	}
	return items, nil
}

// ReadXLSX reads scraped items from a spreadsheet. The first row is a
// header naming the columns (brand, product_type, title, price, currency,
// sold_date, condition, url, marketplace, era); unknown columns are ignored.
// An empty sheet name reads the first sheet.
func ReadXLSX(path, sheet string) ([]ScrapedItem, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"brand", "product_type", "price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("sheet %q is missing column %q", sheet, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]ScrapedItem, 0, len(rows)-1)
	for n, row := range rows[1:] {
		raw := cell(row, "price")
		if raw == "" {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimPrefix(strings.ReplaceAll(raw, ",", ""), "$"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q", n+2, raw)
		}
		items = append(items, ScrapedItem{
			Brand:       cell(row, "brand"),
			ProductType: cell(row, "product_type"),
			Title:       cell(row, "title"),
			Price:       price,
			Currency:    cell(row, "currency"),
			SoldDate:    cell(row, "sold_date"),
			Condition:   cell(row, "condition"),
			URL:         cell(row, "url"),
			Marketplace: cell(row, "marketplace"),
			Era:         cell(row, "era"),
		})
	}
	return items, nil
}
