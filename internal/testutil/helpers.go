package testutil

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"grocerybi/internal/common"
	"grocerybi/internal/sales"

	"github.com/shopspring/decimal"
)

// SampleCSV is a three-record export with raw fat content labels, a missing
// outlet size and a missing item weight. Total sales 350.75.
const SampleCSV = `Item Fat Content,Item Identifier,Item Type,Outlet Establishment Year,Outlet Identifier,Outlet Location Type,Outlet Size,Outlet Type,Item Visibility,Item Weight,Sales,Rating
LF,FDA15,Dairy,1999,OUT049,Tier 1,Medium,Supermarket Type1,0.02,9.3,100.25,4
reg,DRC01,Snack Foods,2009,OUT018,Tier 2,,Grocery Store,0.05,,200.50,5
Low Fat,FDN15,Dairy,1999,OUT049,Tier 1,Small,Supermarket Type1,0.01,12.1,50.00,3
`

// SampleRecords returns the records of SampleCSV
func SampleRecords() []sales.Record {
	d := decimal.RequireFromString
	return []sales.Record{
		{ItemFatContent: "LF", ItemIdentifier: "FDA15", ItemType: "Dairy", OutletEstablishmentYear: 1999, OutletIdentifier: "OUT049", OutletLocationType: "Tier 1", OutletSize: "Medium", OutletType: "Supermarket Type1", ItemVisibility: d("0.02"), ItemWeight: decimal.NewNullDecimal(d("9.3")), TotalSales: d("100.25"), Rating: d("4")},
		{ItemFatContent: "reg", ItemIdentifier: "DRC01", ItemType: "Snack Foods", OutletEstablishmentYear: 2009, OutletIdentifier: "OUT018", OutletLocationType: "Tier 2", OutletType: "Grocery Store", ItemVisibility: d("0.05"), TotalSales: d("200.50"), Rating: d("5")},
		{ItemFatContent: "Low Fat", ItemIdentifier: "FDN15", ItemType: "Dairy", OutletEstablishmentYear: 1999, OutletIdentifier: "OUT049", OutletLocationType: "Tier 1", OutletSize: "Small", OutletType: "Supermarket Type1", ItemVisibility: d("0.01"), ItemWeight: decimal.NewNullDecimal(d("12.1")), TotalSales: d("50.00"), Rating: d("3")},
	}
}

// WriteFile writes content to a file in the given directory
func WriteFile(t testing.TB, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), common.FilePermissionSecure); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

var (
	fatLabels     = []string{"Low Fat", "Regular", "LF", "low fat", "reg"}
	itemTypes     = []string{"Dairy", "Snack Foods", "Fruits and Vegetables", "Household", "Frozen Foods", "Soft Drinks", "Baking Goods"}
	locationTiers = []string{"Tier 1", "Tier 2", "Tier 3"}
	outletSizes   = []string{"Small", "Medium", "High", ""}
	outletTypes   = []string{"Grocery Store", "Supermarket Type1", "Supermarket Type2", "Supermarket Type3"}
	years         = []int{1985, 1987, 1997, 1998, 1999, 2002, 2004, 2007, 2009, 2011}
)

// RecordGenerator produces deterministic pseudo-random sales records with
// every raw fat content spelling and some absent sizes and weights
type RecordGenerator struct {
	rng  *rand.Rand
	next int
}

// NewRecordGenerator creates a generator; equal seeds give equal records
func NewRecordGenerator(seed uint64) *RecordGenerator {
	return &RecordGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Records generates n records
func (g *RecordGenerator) Records(n int) []sales.Record {
	out := make([]sales.Record, n)
	for i := range out {
		out[i] = g.Record()
	}
	return out
}

// Record generates one record
func (g *RecordGenerator) Record() sales.Record {
	g.next++
	outlet := g.rng.IntN(10)

	weight := decimal.NullDecimal{}
	if g.rng.IntN(5) > 0 {
		weight = decimal.NewNullDecimal(decimal.New(int64(450+g.rng.IntN(1700)), -2))
	}

	return sales.Record{
		ItemFatContent:          fatLabels[g.rng.IntN(len(fatLabels))],
		ItemIdentifier:          fmt.Sprintf("FD%04d", g.next),
		ItemType:                itemTypes[g.rng.IntN(len(itemTypes))],
		OutletEstablishmentYear: years[outlet],
		OutletIdentifier:        fmt.Sprintf("OUT%03d", outlet*5+10),
		OutletLocationType:      locationTiers[outlet%len(locationTiers)],
		OutletSize:              outletSizes[outlet%len(outletSizes)],
		OutletType:              outletTypes[outlet%len(outletTypes)],
		ItemVisibility:          decimal.New(int64(g.rng.IntN(300000)), -6),
		ItemWeight:              weight,
		TotalSales:              decimal.New(int64(3000+g.rng.IntN(2600000)), -4),
		Rating:                  decimal.New(int64(10+g.rng.IntN(41)), -1),
	}
}
