package commands

import (
	"context"
	"fmt"
	"os"

	"tcgscrape/config"

	"github.com/coghost/xlog"
	"github.com/coghost/xpretty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "tcgscrape",
	Short: "tcgscrape collects card listings (name, price, condition) from search result pages.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			xlog.InitLogDebug(xlog.WithCaller(true))
		} else {
			xlog.InitLog(xlog.WithLevel(zerolog.InfoLevel), xlog.WithNoColor(false))
		}

		xpretty.Initialize(xpretty.WithNoColor(false))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
