package sales

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Profile describes the shape and completeness of a dataset
type Profile struct {
	Records          int                 `json:"records"`
	DistinctItems    int                 `json:"distinct_items"`
	DistinctOutlets  int                 `json:"distinct_outlets"`
	FatContentLabels []string            `json:"fat_content_labels"`
	AbsentItemWeight int                 `json:"absent_item_weight"`
	MeanItemWeight   decimal.NullDecimal `json:"mean_item_weight"`
	AbsentOutletSize int                 `json:"absent_outlet_size"`
}

func (d Dataset) Profile() Profile {
	items := make(map[string]struct{})
	outlets := make(map[string]struct{})
	labels := make(map[string]struct{})
	weights := make([]decimal.NullDecimal, 0, len(d.records))

	p := Profile{Records: len(d.records)}
	for _, r := range d.records {
		items[r.ItemIdentifier] = struct{}{}
		outlets[r.OutletIdentifier] = struct{}{}
		labels[r.ItemFatContent] = struct{}{}
		weights = append(weights, r.ItemWeight)

		if !r.ItemWeight.Valid {
			p.AbsentItemWeight++
		}
		if r.OutletSize == "" {
			p.AbsentOutletSize++
		}
	}

	p.DistinctItems = len(items)
	p.DistinctOutlets = len(outlets)
	p.MeanItemWeight = roundNull(meanNullable(weights), 2)

	p.FatContentLabels = make([]string, 0, len(labels))
	for l := range labels {
		p.FatContentLabels = append(p.FatContentLabels, l)
	}
	sort.Strings(p.FatContentLabels)

	return p
}
