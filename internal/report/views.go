package report

import (
	"fmt"
	"strconv"

	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"

	"github.com/shopspring/decimal"
)

// Absent is how missing values and the empty outlet_size group are shown
const Absent = "(absent)"

// ViewInfo describes one entry of the view catalogue
type ViewInfo struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Table is one view flattened to display strings. Data keeps the typed rows
// for JSON output.
type Table struct {
	ViewInfo
	Columns []string    `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Data    interface{} `json:"-"`
}

type view struct {
	ViewInfo
	compute func(d sales.Dataset, r *Report)
	table   func(r *Report) ([]string, [][]string, interface{})
}

var catalogue = []view{
	{
		ViewInfo: ViewInfo{"total-sales", "Total Sales", "Sum of sales over all records, also in millions"},
		compute:  func(d sales.Dataset, r *Report) { r.TotalSales = d.TotalSales() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Total Sales", "Total Sales (M)"},
				[][]string{{r.TotalSales.TotalSales.String(), r.TotalSales.Millions.StringFixed(2)}},
				r.TotalSales
		},
	},
	{
		ViewInfo: ViewInfo{"average-sales", "Average Sales", "Mean sales per record"},
		compute:  func(d sales.Dataset, r *Report) { r.AverageSales = d.AverageSales() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Average Sales"}, [][]string{{nullCell(r.AverageSales, 2)}}, r.AverageSales
		},
	},
	{
		ViewInfo: ViewInfo{"record-count", "Number of Items", "Count of sales records"},
		compute:  func(d sales.Dataset, r *Report) { r.RecordCount = d.RecordCount() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Records"}, [][]string{{strconv.Itoa(r.RecordCount)}}, r.RecordCount
		},
	},
	{
		ViewInfo: ViewInfo{"average-rating", "Average Rating", "Mean customer rating, whole number"},
		compute:  func(d sales.Dataset, r *Report) { r.AverageRating = d.AverageRating() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Average Rating"}, [][]string{{nullCell(r.AverageRating, 0)}}, r.AverageRating
		},
	},
	{
		ViewInfo: ViewInfo{"sales-by-fat-content", "Sales by Fat Content", "Total sales per normalized fat-content label"},
		compute:  func(d sales.Dataset, r *Report) { r.SalesByFatContent = d.SalesByFatContent() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Item Fat Content", "Total Sales"}, groupRows(r.SalesByFatContent), r.SalesByFatContent
		},
	},
	{
		ViewInfo: ViewInfo{"sales-by-item-type", "Sales by Item Type", "Total sales per item category, highest first"},
		compute:  func(d sales.Dataset, r *Report) { r.SalesByItemType = d.SalesByItemType() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Item Type", "Total Sales"}, groupRows(r.SalesByItemType), r.SalesByItemType
		},
	},
	{
		ViewInfo: ViewInfo{"fat-content-by-tier", "Fat Content by Outlet Tier", "Low Fat and Regular sales per location tier"},
		compute:  func(d sales.Dataset, r *Report) { r.FatContentByTier = d.FatContentByTier() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			rows := make([][]string, 0, len(r.FatContentByTier))
			for _, t := range r.FatContentByTier {
				rows = append(rows, []string{keyCell(t.Tier), t.LowFat.StringFixed(2), t.Regular.StringFixed(2)})
			}
			return []string{"Outlet Location Type", sales.LowFat, sales.Regular}, rows, r.FatContentByTier
		},
	},
	{
		ViewInfo: ViewInfo{"sales-by-year", "Sales by Establishment Year", "Total sales per outlet establishment year"},
		compute:  func(d sales.Dataset, r *Report) { r.SalesByEstablishmentYear = d.SalesByEstablishmentYear() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			rows := make([][]string, 0, len(r.SalesByEstablishmentYear))
			for _, y := range r.SalesByEstablishmentYear {
				rows = append(rows, []string{strconv.Itoa(y.Year), y.TotalSales.StringFixed(2)})
			}
			return []string{"Outlet Establishment Year", "Total Sales"}, rows, r.SalesByEstablishmentYear
		},
	},
	{
		ViewInfo: ViewInfo{"sales-by-outlet-size", "Sales Share by Outlet Size", "Total sales and percentage of all sales per outlet size"},
		compute:  func(d sales.Dataset, r *Report) { r.SalesShareByOutletSize = d.SalesShareByOutletSize() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			rows := make([][]string, 0, len(r.SalesShareByOutletSize))
			for _, s := range r.SalesShareByOutletSize {
				rows = append(rows, []string{keyCell(s.OutletSize), s.TotalSales.StringFixed(2), s.Percentage.StringFixed(2)})
			}
			return []string{"Outlet Size", "Total Sales", "Sales %"}, rows, r.SalesShareByOutletSize
		},
	},
	{
		ViewInfo: ViewInfo{"sales-by-location", "Sales by Outlet Location", "Total sales per location tier, highest first"},
		compute:  func(d sales.Dataset, r *Report) { r.SalesByLocationTier = d.SalesByLocationTier() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			return []string{"Outlet Location Type", "Total Sales"}, groupRows(r.SalesByLocationTier), r.SalesByLocationTier
		},
	},
	{
		ViewInfo: ViewInfo{"outlet-type-scorecard", "Outlet Type Scorecard", "Sales, item count, rating and visibility per outlet type"},
		compute:  func(d sales.Dataset, r *Report) { r.OutletTypeScorecard = d.OutletTypeScorecard() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			rows := make([][]string, 0, len(r.OutletTypeScorecard))
			for _, s := range r.OutletTypeScorecard {
				rows = append(rows, []string{
					keyCell(s.OutletType),
					s.TotalSales.StringFixed(2),
					s.AverageSales.StringFixed(0),
					strconv.FormatInt(s.ItemCount, 10),
					s.AverageRating.StringFixed(2),
					s.AverageVisibility.StringFixed(2),
				})
			}
			return []string{"Outlet Type", "Total Sales", "Average Sales", "Items", "Average Rating", "Item Visibility"}, rows, r.OutletTypeScorecard
		},
	},
	{
		ViewInfo: ViewInfo{"profile", "Dataset Profile", "Record, item and outlet counts with absent-value statistics"},
		compute:  func(d sales.Dataset, r *Report) { r.Profile = d.Profile() },
		table: func(r *Report) ([]string, [][]string, interface{}) {
			p := r.Profile
			return []string{"Measure", "Value"}, [][]string{
				{"Records", strconv.Itoa(p.Records)},
				{"Distinct items", strconv.Itoa(p.DistinctItems)},
				{"Distinct outlets", strconv.Itoa(p.DistinctOutlets)},
				{"Fat content labels", fmt.Sprint(p.FatContentLabels)},
				{"Absent item weight", strconv.Itoa(p.AbsentItemWeight)},
				{"Mean item weight", nullCell(p.MeanItemWeight, 2)},
				{"Absent outlet size", strconv.Itoa(p.AbsentOutletSize)},
			}, p
		},
	},
}

// Views lists the catalogue in presentation order
func Views() []ViewInfo {
	infos := make([]ViewInfo, len(catalogue))
	for i, v := range catalogue {
		infos[i] = v.ViewInfo
	}
	return infos
}

// ViewNames lists catalogue names in presentation order
func ViewNames() []string {
	names := make([]string, len(catalogue))
	for i, v := range catalogue {
		names[i] = v.Name
	}
	return names
}

// View returns one view of the report as a table
func (r *Report) View(name string) (Table, error) {
	for _, v := range catalogue {
		if v.Name == name {
			return r.table(v), nil
		}
	}
	return Table{}, errors.ViewNotFound(name, ViewNames())
}

// Tables returns every view in catalogue order
func (r *Report) Tables() []Table {
	tables := make([]Table, len(catalogue))
	for i, v := range catalogue {
		tables[i] = r.table(v)
	}
	return tables
}

func (r *Report) table(v view) Table {
	cols, rows, data := v.table(r)
	return Table{ViewInfo: v.ViewInfo, Columns: cols, Rows: rows, Data: data}
}

func groupRows(groups []sales.GroupTotal) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{keyCell(g.Key), g.TotalSales.StringFixed(2)})
	}
	return rows
}

func keyCell(key string) string {
	if key == "" {
		return Absent
	}
	return key
}

func nullCell(v decimal.NullDecimal, places int32) string {
	if !v.Valid {
		return Absent
	}
	return v.Decimal.StringFixed(places)
}
