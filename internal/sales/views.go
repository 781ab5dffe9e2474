package sales

import (
	"github.com/shopspring/decimal"
)

var (
	million = decimal.NewFromInt(1_000_000)
	hundred = decimal.NewFromInt(100)
)

// SalesTotal is the ungrouped sales sum
type SalesTotal struct {
	TotalSales decimal.Decimal `json:"total_sales"`
	Millions   decimal.Decimal `json:"total_sales_millions"`
}

// GroupTotal is a sales sum for one categorical group
type GroupTotal struct {
	Key        string          `json:"key"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// YearTotal is a sales sum for one establishment year
type YearTotal struct {
	Year       int             `json:"outlet_establishment_year"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// TierFatContent is one row of the fat content by location tier pivot
type TierFatContent struct {
	Tier    string          `json:"outlet_location_type"`
	LowFat  decimal.Decimal `json:"low_fat"`
	Regular decimal.Decimal `json:"regular"`
}

// SizeShare is one outlet size with its share of all sales
type SizeShare struct {
	OutletSize string          `json:"outlet_size"`
	TotalSales decimal.Decimal `json:"total_sales"`
	Percentage decimal.Decimal `json:"sales_percentage"`
}

// OutletTypeScore is one row of the outlet-type scorecard
type OutletTypeScore struct {
	OutletType        string          `json:"outlet_type"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	AverageSales      decimal.Decimal `json:"average_sales"`
	ItemCount         int64           `json:"item_count"`
	AverageRating     decimal.Decimal `json:"average_rating"`
	AverageVisibility decimal.Decimal `json:"average_visibility"`
}

func (d Dataset) salesSum() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range d.records {
		sum = sum.Add(r.TotalSales)
	}
	return sum
}

// TotalSales sums total_sales over every record
func (d Dataset) TotalSales() SalesTotal {
	sum := d.salesSum()
	return SalesTotal{
		TotalSales: sum,
		Millions:   sum.Div(million).Round(2),
	}
}

// AverageSales is mean(total_sales) rounded to 2 places; absent when empty
func (d Dataset) AverageSales() decimal.NullDecimal {
	return roundNull(mean(d.salesSum(), int64(len(d.records))), 2)
}

// RecordCount counts the records
func (d Dataset) RecordCount() int {
	return len(d.records)
}

// AverageRating is mean(rating) rounded to 0 places; absent when empty
func (d Dataset) AverageRating() decimal.NullDecimal {
	sum := decimal.Zero
	for _, r := range d.records {
		sum = sum.Add(r.Rating)
	}
	return roundNull(mean(sum, int64(len(d.records))), 0)
}

// SalesByFatContent sums sales per fat-content label, ordered by label
func (d Dataset) SalesByFatContent() []GroupTotal {
	keys, groups := groupSum(d.records, func(r Record) string { return r.ItemFatContent })
	return groupTotals(sortedKeys(keys), groups)
}

// SalesByItemType sums sales per item type, largest first
func (d Dataset) SalesByItemType() []GroupTotal {
	keys, groups := groupSum(d.records, func(r Record) string { return r.ItemType })
	return groupTotals(keysBySalesDesc(keys, groups), groups)
}

// FatContentByTier pivots Low Fat and Regular sales per location tier.
// Every tier present in the data gets both columns, zero when absent.
func (d Dataset) FatContentByTier() []TierFatContent {
	tiers, pivot := pivotSum(d.records,
		func(r Record) string { return r.OutletLocationType },
		func(r Record) string { return r.ItemFatContent },
		[]string{LowFat, Regular},
		func(r Record) decimal.Decimal { return r.TotalSales },
	)

	rows := make([]TierFatContent, 0, len(tiers))
	for _, tier := range sortedKeys(tiers) {
		rows = append(rows, TierFatContent{
			Tier:    tier,
			LowFat:  pivot[tier][LowFat].Round(2),
			Regular: pivot[tier][Regular].Round(2),
		})
	}
	return rows
}

// SalesByEstablishmentYear sums sales per outlet establishment year, oldest first
func (d Dataset) SalesByEstablishmentYear() []YearTotal {
	keys, groups := groupSum(d.records, func(r Record) int { return r.OutletEstablishmentYear })

	rows := make([]YearTotal, 0, len(keys))
	for _, year := range sortedKeys(keys) {
		rows = append(rows, YearTotal{Year: year, TotalSales: groups[year].sales.Round(2)})
	}
	return rows
}

// SalesShareByOutletSize sums sales per outlet size and the share of the
// grand total each size holds. An empty dataset yields no rows.
func (d Dataset) SalesShareByOutletSize() []SizeShare {
	keys, groups := groupSum(d.records, func(r Record) string { return r.OutletSize })

	// first pass: grand total over every group of this view
	grand := decimal.Zero
	for _, k := range keys {
		grand = grand.Add(groups[k].sales)
	}

	rows := make([]SizeShare, 0, len(keys))
	for _, size := range keysBySalesDesc(keys, groups) {
		// a zero grand total with rows present reports 0% rather than dividing
		share := decimal.Zero
		if !grand.IsZero() {
			share = groups[size].sales.Mul(hundred).Div(grand)
		}
		rows = append(rows, SizeShare{
			OutletSize: size,
			TotalSales: groups[size].sales.Round(2),
			Percentage: share.Round(2),
		})
	}
	return rows
}

// SalesByLocationTier sums sales per location tier, largest first
func (d Dataset) SalesByLocationTier() []GroupTotal {
	keys, groups := groupSum(d.records, func(r Record) string { return r.OutletLocationType })
	return groupTotals(keysBySalesDesc(keys, groups), groups)
}

// OutletTypeScorecard summarises each outlet type, largest sales first
func (d Dataset) OutletTypeScorecard() []OutletTypeScore {
	keys, groups := groupSum(d.records, func(r Record) string { return r.OutletType })

	rows := make([]OutletTypeScore, 0, len(keys))
	for _, outletType := range keysBySalesDesc(keys, groups) {
		m := groups[outletType]
		rows = append(rows, OutletTypeScore{
			OutletType:        outletType,
			TotalSales:        m.sales.Round(2),
			AverageSales:      mean(m.sales, m.count).Decimal.Round(0),
			ItemCount:         m.count,
			AverageRating:     mean(m.rating, m.count).Decimal.Round(2),
			AverageVisibility: mean(m.visibility, m.count).Decimal.Round(2),
		})
	}
	return rows
}

func groupTotals(keys []string, groups map[string]*measures) []GroupTotal {
	rows := make([]GroupTotal, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, GroupTotal{Key: k, TotalSales: groups[k].sales.Round(2)})
	}
	return rows
}
