package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tcgscrape"

	"github.com/spf13/cast"
)

// WriteCSV writes rows with the fixed listing header.
func WriteCSV(w io.Writer, rows []tcgscrape.ListingRow) error {
	return FromListings(rows).WriteCSV(w)
}

func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header); err != nil {
		return err
	}

	line := make([]string, len(t.Header))

	for _, r := range t.Records {
		for i, col := range t.Header {
			if col == ColPrice {
				line[i] = strconv.FormatFloat(r.Price, 'f', -1, 64)
				continue
			}

			line[i] = r.Fields[col]
		}

		if err := writer.Write(line); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// SaveCSV writes rows to path, creating the directory if needed.
func SaveCSV(path string, rows []tcgscrape.ListingRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	return f.Close()
}

// ReadCSV reads a table with any column set. The price column is required
// and must be numeric, the others are kept as text.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Header: header}
	if !t.HasColumn(ColPrice) {
		return nil, ErrNoPriceColumn
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		r := Record{Fields: make(map[string]string, len(header))}

		for i, col := range header {
			if col != ColPrice {
				r.Fields[col] = rec[i]
				continue
			}

			v, err := cast.ToFloat64E(strings.TrimSpace(rec[i]))
			if err != nil {
				return nil, &PriceError{Line: line, Value: rec[i]}
			}

			r.Price = v
		}

		t.Records = append(t.Records, r)
	}

	return t, nil
}

func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}
