package reference

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vintagescan/pricer/internal/domain"
)

func TestParseEra(t *testing.T) {
	tests := []struct {
		era        string
		start, end int
	}{
		{"1985", 1985, 1985},
		{"1980s", 1980, 1989},
		{"1994s", 1994, 1994},
		{"vintage", 1990, 1999},
		{"Vintage 80s", 1990, 1999},
		{"unknown", 2010, 2024},
	}
	for _, tt := range tests {
		start, end := ParseEra(tt.era)
		assert.Equal(t, tt.start, start, tt.era)
		assert.Equal(t, tt.end, end, tt.era)
	}
}

func TestBuildRecords(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	items := []ScrapedItem{
		{Brand: "Levi's", ProductType: "jeans", Title: "Levi's 501 jeans", Price: 100, Currency: "USD", Marketplace: "ebay", Era: "1980s"},
		{Brand: "levis", ProductType: "jeans", Title: "Levi's 501 jeans", Price: 110, Currency: "USD", Marketplace: "ebay", Era: "1980s"},
		{Brand: "levis", ProductType: "jeans", Title: "Levi's 501 jeans", Price: 120, Currency: "USD", Marketplace: "ebay", Era: "1980s"},
		{Brand: "levis", ProductType: "jeans", Title: "Levi's 501 Big E", Price: 300, Currency: "USD", Marketplace: "ebay", Era: "1980s"},
		{Brand: "supreme", ProductType: "tshirt", Title: "Supreme box logo tee 1994 NWT", Price: 500, Marketplace: "grailed"},
		{Brand: "supreme", ProductType: "tshirt", Title: "Supreme box logo tee deadstock", Price: 450, Marketplace: "grailed"},
		{Brand: "supreme", ProductType: "tshirt", Title: "Supreme tee", Price: 100, Marketplace: "grailed"},
		// too few items for a group
		{Brand: "stussy", ProductType: "hoodie", Title: "Stussy hoodie", Price: 80, Era: "1990s"},
		{Brand: "stussy", ProductType: "hoodie", Title: "Stussy hoodie", Price: 90, Era: "1990s"},
		// ignored
		{Brand: "unknown", ProductType: "jeans", Title: "jeans", Price: 50},
		{Brand: "levis", ProductType: "jeans", Title: "jeans", Price: 50000, Currency: "KRW", Era: "1980s"},
		{Brand: "levis", ProductType: "jeans", Title: "jeans", Price: 0, Era: "1980s"},
	}

	records := BuildRecords(items, now)
	require.Len(t, records, 2)

	levis := records[0]
	assert.Equal(t, "levis", levis.Brand)
	assert.Equal(t, "jeans", levis.ProductType)
	assert.Equal(t, 1980, levis.EraStart)
	assert.Equal(t, 1989, levis.EraEnd)
	assert.Equal(t, domain.ConditionGood, levis.Condition)
	assert.Equal(t, 100.0, levis.MinPrice)
	assert.Equal(t, 110.0, levis.AvgPrice)
	assert.Equal(t, 120.0, levis.MaxPrice)
	assert.Equal(t, domain.RarityCommon, levis.Rarity)
	assert.Equal(t, 3, levis.SampleCount)
	assert.Equal(t, "Scraped from ebay, 3 samples", levis.Notes)
	assert.Equal(t, now, levis.UpdatedAt)
	assert.NoError(t, levis.Validate())

	supreme := records[1]
	assert.Equal(t, "supreme", supreme.Brand)
	assert.Equal(t, 2010, supreme.EraStart)
	assert.Equal(t, 2024, supreme.EraEnd)
	assert.Equal(t, domain.ConditionDeadstock, supreme.Condition)
	assert.Equal(t, 475.0, supreme.AvgPrice)
	assert.Equal(t, domain.RarityGrail, supreme.Rarity)
	assert.Equal(t, 2, supreme.SampleCount)
}

func TestConditionFromItem(t *testing.T) {
	assert.Equal(t, domain.ConditionDeadstock, conditionFromItem(ScrapedItem{Title: "Brand New tee"}, 100))
	assert.Equal(t, domain.ConditionExcellent, conditionFromItem(ScrapedItem{Title: "mint jacket"}, 100))
	assert.Equal(t, domain.ConditionPoor, conditionFromItem(ScrapedItem{Title: "needs repair"}, 100))
	assert.Equal(t, domain.ConditionFair, conditionFromItem(ScrapedItem{Title: "well worn"}, 100))
	assert.Equal(t, domain.ConditionExcellent, conditionFromItem(ScrapedItem{Title: "jacket", Price: 140}, 100))
	assert.Equal(t, domain.ConditionFair, conditionFromItem(ScrapedItem{Title: "jacket", Price: 50}, 100))
	assert.Equal(t, domain.ConditionGood, conditionFromItem(ScrapedItem{Title: "jacket", Price: 100}, 100))
}

func TestRarityFromItem(t *testing.T) {
	assert.Equal(t, domain.RarityGrail, rarityFromItem("Levi's Big E trucker", 1))
	assert.Equal(t, domain.RarityCommon, rarityFromItem("Supreme box logo", 1))
	assert.Equal(t, domain.RarityVeryRare, rarityFromItem("Valencia 501", 1))
	assert.Equal(t, domain.RarityRare, rarityFromItem("plain tee", 1.6))
}

func TestReadJSON(t *testing.T) {
	items, err := ReadJSON(strings.NewReader(`[
		{"brand":"levis","productType":"jeans","title":"501","price":120,"currency":"USD","url":"u","marketplace":"ebay","era":"1980s"}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "jeans", items[0].ProductType)
	assert.Equal(t, 120.0, items[0].Price)

	_, err = ReadJSON(strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Brand", "Product_Type", "Title", "Price", "Era", "Marketplace"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"levis", "jeans", "501", 120, "1980s", "ebay"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"levis", "jeans", "501 xx", "$1,200", "1960s", "ebay"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	items, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "levis", items[0].Brand)
	assert.Equal(t, 120.0, items[0].Price)
	assert.Equal(t, "1980s", items[0].Era)
	assert.Equal(t, 1200.0, items[1].Price)
	assert.Empty(t, items[1].URL)
}

func TestReadXLSX_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"brand", "title"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadXLSX(path, "Sheet1")
	assert.Error(t, err)
}
