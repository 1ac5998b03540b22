package commands

import (
	"tcgscrape/table"

	"github.com/spf13/cobra"
)

var showOpts filterFlags

var showCmd = &cobra.Command{
	Use:   "show <file.csv>",
	Short: "Prints a saved listing csv, optionally filtered.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := table.LoadCSV(args[0])
		if err != nil {
			return err
		}

		return showOpts.show(t)
	},
}

func init() {
	showOpts.bind(showCmd)
	rootCmd.AddCommand(showCmd)
}
