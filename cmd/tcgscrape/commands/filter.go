package commands

import (
	"os"

	"tcgscrape/table"

	"github.com/spf13/cobra"
)

type filterFlags struct {
	name       string
	minPrice   float64
	maxPrice   float64
	conditions []string
	stats      bool
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "keep rows whose name contains this text")
	cmd.Flags().Float64Var(&f.minPrice, "min-price", 0, "lowest price kept")
	cmd.Flags().Float64Var(&f.maxPrice, "max-price", 0, "highest price kept, 0 means no bound")
	cmd.Flags().StringSliceVar(&f.conditions, "condition", nil, "keep only these conditions")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "print price statistics")
}

func (f *filterFlags) filter() table.Filter {
	return table.Filter{
		Name:       f.name,
		MinPrice:   f.minPrice,
		MaxPrice:   f.maxPrice,
		Conditions: f.conditions,
	}
}

// show prints the filtered table, and its statistics when asked.
func (f *filterFlags) show(t *table.Table) error {
	t = t.Apply(f.filter())

	if err := t.Render(os.Stdout); err != nil {
		return err
	}

	if !f.stats {
		return nil
	}

	return t.Summarize().Render(os.Stdout)
}
