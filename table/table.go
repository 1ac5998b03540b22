// Package table is the tabular view of scraped listings: CSV in and out,
// filtering, summary statistics and terminal rendering.
package table

import (
	"errors"
	"fmt"
	"time"

	"tcgscrape"
)

const (
	ColName        = "name"
	ColPrice       = "price"
	ColCondition   = "condition"
	ColDateScraped = "date_scraped"
)

// ListingHeader is the fixed column set of scraped rows.
var ListingHeader = []string{ColName, ColPrice, ColCondition, ColDateScraped}

var ErrNoPriceColumn = errors.New("table has no price column")

// PriceError reports a non numeric price cell.
type PriceError struct {
	Line  int
	Value string
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("line %d: price %q is not numeric", e.Line, e.Value)
}

// Record is one table line. Price is always numeric, every other column is
// kept as opaque text.
type Record struct {
	Price  float64
	Fields map[string]string
}

func (r Record) Get(col string) string {
	return r.Fields[col]
}

type Table struct {
	Header  []string
	Records []Record
}

func (t *Table) HasColumn(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}

	return false
}

func (t *Table) Len() int {
	return len(t.Records)
}

func FromListings(rows []tcgscrape.ListingRow) *Table {
	t := &Table{
		Header:  append([]string(nil), ListingHeader...),
		Records: make([]Record, 0, len(rows)),
	}

	for _, r := range rows {
		t.Records = append(t.Records, Record{
			Price: r.Price,
			Fields: map[string]string{
				ColName:        r.Name,
				ColCondition:   r.Condition,
				ColDateScraped: r.DateString(),
			},
		})
	}

	return t
}

// ToListings converts back to rows, the table must carry the listing columns.
func (t *Table) ToListings() ([]tcgscrape.ListingRow, error) {
	for _, col := range ListingHeader {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	rows := make([]tcgscrape.ListingRow, 0, len(t.Records))

	for i, r := range t.Records {
		d, err := time.Parse(tcgscrape.DateLayout, r.Get(ColDateScraped))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}

		rows = append(rows, tcgscrape.ListingRow{
			Name:        r.Get(ColName),
			Price:       r.Price,
			Condition:   r.Get(ColCondition),
			DateScraped: d,
		})
	}

	return rows, nil
}
