// Package dataset reads and writes the grocery sales CSV export.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"grocerybi/internal/common"
	"grocerybi/internal/observability"
	"grocerybi/internal/sales"
	apperrors "grocerybi/pkg/errors"

	"github.com/shopspring/decimal"
)

// column identifies one SalesRecord field
type column int

const (
	colFatContent column = iota
	colItemIdentifier
	colItemType
	colEstablishmentYear
	colOutletIdentifier
	colLocationType
	colOutletSize
	colOutletType
	colVisibility
	colItemWeight
	colSales
	colRating
	numColumns
)

// Headers is the column order written by WriteCSV
var Headers = []string{
	"Item Fat Content",
	"Item Identifier",
	"Item Type",
	"Outlet Establishment Year",
	"Outlet Identifier",
	"Outlet Location Type",
	"Outlet Size",
	"Outlet Type",
	"Item Visibility",
	"Item Weight",
	"Sales",
	"Rating",
}

var headerAliases = map[string]column{
	"total sales":       colSales,
	"item outlet sales": colSales,
}

// optional columns may be missing from the header; their cells read as absent
var optional = map[column]bool{
	colOutletSize: true,
	colItemWeight: true,
}

// headerKey folds case and treats spaces, underscores and dashes alike
func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func lookupColumn(h string) (column, bool) {
	key := headerKey(h)
	for i, name := range Headers {
		if headerKey(name) == key {
			return column(i), true
		}
	}
	c, ok := headerAliases[key]
	return c, ok
}

// ReadCSV parses a CSV export with a header row. Unknown columns are ignored.
// A malformed numeric cell stops the read with ErrCodeDatasetMalformed.
func ReadCSV(r io.Reader, source string) ([]sales.Record, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetMalformed, "Dataset is empty", source, nil)
	}
	if err != nil {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetMalformed, "Failed to read CSV headers", source, err)
	}

	index := make([]int, numColumns)
	for i := range index {
		index[i] = -1
	}
	for i, h := range headers {
		if c, ok := lookupColumn(h); ok && index[c] < 0 {
			index[c] = i
		}
	}

	var missing []string
	for c := column(0); c < numColumns; c++ {
		if index[c] < 0 && !optional[c] {
			missing = append(missing, Headers[c])
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetMissingCols,
			fmt.Sprintf("Dataset is missing columns: %s", strings.Join(missing, ", ")), source, nil).
			WithContext("missing", missing)
	}

	records := make([]sales.Record, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetMalformed, "Failed to read CSV row", source, err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, appErr.WithContext("path", source).WithContext("line", line)
			}
			return nil, err
		}
		records = append(records, rec)
	}

	observability.RecordsLoaded.Add(float64(len(records)))
	return records, nil
}

func parseRow(row []string, index []int) (sales.Record, error) {
	raw := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	cell := func(c column) string {
		return strings.TrimSpace(raw(c))
	}

	rec := sales.Record{
		// labels are kept verbatim; the alias mapping matches exact values
		ItemFatContent:     raw(colFatContent),
		ItemIdentifier:     cell(colItemIdentifier),
		ItemType:           cell(colItemType),
		OutletIdentifier:   cell(colOutletIdentifier),
		OutletLocationType: cell(colLocationType),
		OutletSize:         cell(colOutletSize),
		OutletType:         cell(colOutletType),
	}

	year, err := strconv.Atoi(cell(colEstablishmentYear))
	if err != nil {
		return rec, malformed(colEstablishmentYear, cell(colEstablishmentYear), err)
	}
	rec.OutletEstablishmentYear = year

	for _, f := range []struct {
		col column
		dst *decimal.Decimal
	}{
		{colVisibility, &rec.ItemVisibility},
		{colSales, &rec.TotalSales},
		{colRating, &rec.Rating},
	} {
		v, err := decimal.NewFromString(cell(f.col))
		if err != nil {
			return rec, malformed(f.col, cell(f.col), err)
		}
		*f.dst = v
	}

	if weight := cell(colItemWeight); weight != "" {
		w, err := decimal.NewFromString(weight)
		if err != nil {
			return rec, malformed(colItemWeight, weight, err)
		}
		rec.ItemWeight = decimal.NewNullDecimal(w)
	}

	return rec, nil
}

func malformed(c column, value string, cause error) error {
	return apperrors.Wrap(cause, apperrors.ErrCodeDatasetMalformed,
		fmt.Sprintf("Malformed value %q in column %s", value, Headers[c])).
		WithContext("column", Headers[c])
}

// LoadFile reads a CSV export from disk
func LoadFile(path string) ([]sales.Record, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetUnreadable, "Invalid dataset path", path, err)
	}

	f, err := os.Open(cleaned) // #nosec G304 - path is validated
	if os.IsNotExist(err) {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetNotFound, "Dataset file not found", cleaned, err)
	}
	if err != nil {
		return nil, apperrors.DatasetError(apperrors.ErrCodeDatasetUnreadable, "Failed to open dataset", cleaned, err)
	}
	defer f.Close()

	return ReadCSV(f, cleaned)
}

// WriteCSV writes records with the Headers column order. Absent item weights
// are written as empty cells.
func WriteCSV(w io.Writer, records []sales.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}

	for _, r := range records {
		weight := ""
		if r.ItemWeight.Valid {
			weight = r.ItemWeight.Decimal.String()
		}
		row := []string{
			r.ItemFatContent,
			r.ItemIdentifier,
			r.ItemType,
			strconv.Itoa(r.OutletEstablishmentYear),
			r.OutletIdentifier,
			r.OutletLocationType,
			r.OutletSize,
			r.OutletType,
			r.ItemVisibility.String(),
			weight,
			r.TotalSales.String(),
			r.Rating.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveFile writes records to path, creating or truncating it
func SaveFile(path string, records []sales.Record) error {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(cleaned, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, common.FilePermissionNormal) // #nosec G304 - path is validated
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cleaned, err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", cleaned, err)
	}
	return f.Close()
}
