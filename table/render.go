package table

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
)

// Render prints the table, prices with two decimals.
func (t *Table) Render(w io.Writer) error {
	data := pterm.TableData{t.Header}

	for _, r := range t.Records {
		line := make([]string, len(t.Header))

		for i, col := range t.Header {
			if col == ColPrice {
				line[i] = strconv.FormatFloat(r.Price, 'f', 2, 64)
				continue
			}

			line[i] = r.Get(col)
		}

		data = append(data, line)
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, out)

	return err
}

func (st Stats) Render(w io.Writer) error {
	data := pterm.TableData{{"condition", "count"}}
	for _, cond := range sortedKeys(st.ByCondition) {
		data = append(data, []string{cond, strconv.Itoa(st.ByCondition[cond])})
	}

	fmt.Fprintf(w, "listings: %d  min: %.2f  max: %.2f  mean: %.2f\n", st.Count, st.Min, st.Max, st.Mean)

	if len(st.ByCondition) == 0 {
		return nil
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, out)

	return err
}
