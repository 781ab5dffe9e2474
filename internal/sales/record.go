// Package sales holds the grocery sales record model, the fat-content
// normalizer, and the aggregation views computed over a normalized dataset.
package sales

import "github.com/shopspring/decimal"

// Canonical item_fat_content labels
const (
	LowFat  = "Low Fat"
	Regular = "Regular"
)

// Record is one item-outlet row of the sales table
type Record struct {
	ItemFatContent          string              `json:"item_fat_content" yaml:"item_fat_content"`
	ItemIdentifier          string              `json:"item_identifier" yaml:"item_identifier"`
	ItemType                string              `json:"item_type" yaml:"item_type"`
	OutletEstablishmentYear int                 `json:"outlet_establishment_year" yaml:"outlet_establishment_year"`
	OutletIdentifier        string              `json:"outlet_identifier" yaml:"outlet_identifier"`
	OutletLocationType      string              `json:"outlet_location_type" yaml:"outlet_location_type"`
	OutletSize              string              `json:"outlet_size" yaml:"outlet_size"` // empty when absent
	OutletType              string              `json:"outlet_type" yaml:"outlet_type"`
	ItemVisibility          decimal.Decimal     `json:"item_visibility" yaml:"item_visibility"`
	ItemWeight              decimal.NullDecimal `json:"item_weight" yaml:"item_weight"`
	TotalSales              decimal.Decimal     `json:"total_sales" yaml:"total_sales"`
	Rating                  decimal.Decimal     `json:"rating" yaml:"rating"`
}
