package tcgscrape

import (
	"encoding/json"
	"time"
)

// DateLayout is the stable on-disk format of DateScraped.
const DateLayout = "2006-01-02"

const (
	DefaultName      = "Unknown"
	DefaultCondition = "Near Mint"
	// defaultRawPrice normalizes to zero
	defaultRawPrice = "0"
)

// ListingRow is one extracted card listing. Every field is always set,
// missing data is replaced by the documented defaults.
type ListingRow struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Condition string  `json:"condition"`
	// DateScraped is the day the page was fetched, not the listing's own date
	DateScraped time.Time `json:"-"`
}

type listingRowJSON struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Condition   string  `json:"condition"`
	DateScraped string  `json:"date_scraped"`
}

// MarshalJSON writes DateScraped with DateLayout, as the CSV export does.
func (r ListingRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(listingRowJSON{
		Name:        r.Name,
		Price:       r.Price,
		Condition:   r.Condition,
		DateScraped: r.DateString(),
	})
}

func (r *ListingRow) UnmarshalJSON(data []byte) error {
	var raw listingRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	day, err := time.Parse(DateLayout, raw.DateScraped)
	if err != nil {
		return err
	}

	*r = ListingRow{
		Name:        raw.Name,
		Price:       raw.Price,
		Condition:   raw.Condition,
		DateScraped: day,
	}

	return nil
}

func (r ListingRow) DateString() string {
	return r.DateScraped.Format(DateLayout)
}

// truncateDay drops the clock part, keeping the location.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
