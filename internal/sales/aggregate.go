package sales

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// measures accumulates the per-group sums used by the views
type measures struct {
	count      int64
	sales      decimal.Decimal
	rating     decimal.Decimal
	visibility decimal.Decimal
}

func (m *measures) add(r Record) {
	m.count++
	m.sales = m.sales.Add(r.TotalSales)
	m.rating = m.rating.Add(r.Rating)
	m.visibility = m.visibility.Add(r.ItemVisibility)
}

// groupSum folds records by key. Keys are returned in first-seen order.
func groupSum[K comparable](records []Record, key func(Record) K) ([]K, map[K]*measures) {
	keys := make([]K, 0)
	groups := make(map[K]*measures)

	for _, r := range records {
		k := key(r)
		m, ok := groups[k]
		if !ok {
			m = &measures{}
			groups[k] = m
			keys = append(keys, k)
		}
		m.add(r)
	}

	return keys, groups
}

// pivotSum groups by row key and sub-aggregates measure by column key.
// Every row carries every listed column, zero when no record matched.
// Column values outside cols are ignored.
func pivotSum[R, C comparable](records []Record, rowKey func(Record) R, colKey func(Record) C, cols []C, measure func(Record) decimal.Decimal) ([]R, map[R]map[C]decimal.Decimal) {
	rows := make([]R, 0)
	out := make(map[R]map[C]decimal.Decimal)

	for _, r := range records {
		rk := rowKey(r)
		row, ok := out[rk]
		if !ok {
			row = make(map[C]decimal.Decimal, len(cols))
			for _, c := range cols {
				row[c] = decimal.Zero
			}
			out[rk] = row
			rows = append(rows, rk)
		}

		ck := colKey(r)
		if v, ok := row[ck]; ok {
			row[ck] = v.Add(measure(r))
		}
	}

	return rows, out
}

// mean divides sum by n; no rows yields an absent value, like SQL AVG
func mean(sum decimal.Decimal, n int64) decimal.NullDecimal {
	if n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(n)))
}

// meanNullable skips absent values in both the sum and the denominator
func meanNullable(values []decimal.NullDecimal) decimal.NullDecimal {
	sum := decimal.Zero
	var n int64
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum = sum.Add(v.Decimal)
		n++
	}
	return mean(sum, n)
}

// roundNull rounds a present value and leaves an absent one absent
func roundNull(v decimal.NullDecimal, places int32) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return decimal.NewNullDecimal(v.Decimal.Round(places))
}

// keysBySalesDesc orders keys by unrounded sales sum descending, breaking
// ties on the key ascending
func keysBySalesDesc[K cmp.Ordered](keys []K, groups map[K]*measures) []K {
	out := slices.Clone(keys)
	slices.SortFunc(out, func(a, b K) int {
		if c := groups[b].sales.Cmp(groups[a].sales); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out
}

// sortedKeys returns keys in ascending order
func sortedKeys[K cmp.Ordered](keys []K) []K {
	out := slices.Clone(keys)
	slices.Sort(out)
	return out
}
