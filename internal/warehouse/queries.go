package warehouse

import (
	"fmt"
	"strings"
)

// columns is the sales table column order used by every statement
var columns = []string{
	"item_fat_content",
	"item_identifier",
	"item_type",
	"outlet_establishment_year",
	"outlet_identifier",
	"outlet_location_type",
	"outlet_size",
	"outlet_type",
	"item_visibility",
	"item_weight",
	"total_sales",
	"rating",
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    item_fat_content VARCHAR(32) NOT NULL,
    item_identifier VARCHAR(16) NOT NULL,
    item_type VARCHAR(64) NOT NULL,
    outlet_establishment_year INTEGER NOT NULL,
    outlet_identifier VARCHAR(16) NOT NULL,
    outlet_location_type VARCHAR(16) NOT NULL,
    outlet_size VARCHAR(16),
    outlet_type VARCHAR(32) NOT NULL,
    item_visibility %s NOT NULL,
    item_weight %s,
    total_sales %s NOT NULL,
    rating %s NOT NULL
)`

const selectRecordsSQL = `SELECT %s FROM %s`

const countRecordsSQL = `SELECT COUNT(*) FROM %s`

const deleteRecordsSQL = `DELETE FROM %s`

func (s *Service) createTableQuery() string {
	num := s.dialect.NumericType
	return fmt.Sprintf(createTableSQL, s.config.Table,
		num(12, 9), num(10, 3), num(14, 4), num(4, 2))
}

func (s *Service) selectQuery() string {
	return fmt.Sprintf(selectRecordsSQL, strings.Join(columns, ", "), s.config.Table)
}

// insertQuery builds a multi-row INSERT for rows records
func (s *Service) insertQuery(rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", s.config.Table, strings.Join(columns, ", "))

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.dialect.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}
