package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"tcgscrape"
	"tcgscrape/config"
	"tcgscrape/queue"
	"tcgscrape/table"

	"github.com/coghost/xdtm"
	"github.com/coghost/xpretty"
	"github.com/gocolly/redisstorage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/ungerik/go-dry"
)

var errNoQuery = errors.New("no query given, pass one as argument or set queries in the config")

type scrapeFlags struct {
	pages   int
	workers int
	render  bool
	redis   string
	csv     string
	json    string
	outDir  string

	filterFlags
}

var scrapeOpts scrapeFlags

var scrapeCmd = &cobra.Command{
	Use:   "scrape [query...]",
	Short: "Scrapes listing pages of one or more queries and prints the rows.",
	Example: `  tcgscrape scrape "https://shop.example.com/search?q=dark+magician" --pages 3
  tcgscrape scrape blue-eyes jinzo --workers 2 --csv listings.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		scrapeOpts.apply(cmd, cfg)

		queries := args
		if len(queries) == 0 {
			queries = cfg.Queries
		}

		if len(queries) == 0 {
			return errNoQuery
		}

		c := tcgscrape.NewCollector(cfg.Options()...)
		defer c.Close()

		c.OnRequest(func(r *tcgscrape.Request) {
			log.Debug().Str("id", r.IDString()).Msg(r.String())
		})

		sp := startSpinner("scraping %d queries, up to %d pages each ...", len(queries), cfg.MaxPages)
		start := time.Now()

		sessions, runErr := runQueries(cmd.Context(), c, cfg, queries)
		if runErr != nil && len(sessions) == 0 {
			sp.done(false, runErr.Error())
			return runErr
		}

		rows, hints := gatherRows(sessions)
		if runErr != nil {
			hints = append([]string{fmt.Sprintf("run interrupted (%v), keeping %d rows", runErr, len(rows))}, hints...)
		}

		sp.done(runErr == nil && len(rows) > 0, fmt.Sprintf("%d rows in %s", len(rows), time.Since(start).Round(time.Millisecond)))

		for _, h := range hints {
			xpretty.YellowPrintf("%s\n", h)
		}

		if err := saveRows(cfg, queries[0], rows); err != nil {
			return err
		}

		return scrapeOpts.show(table.FromListings(rows))
	},
}

func init() {
	f := scrapeCmd.Flags()
	f.IntVarP(&scrapeOpts.pages, "pages", "p", 0, "max pages per query")
	f.IntVarP(&scrapeOpts.workers, "workers", "w", 0, "queries scraped at the same time")
	f.BoolVar(&scrapeOpts.render, "render", false, "render pages in a browser before extraction")
	f.StringVar(&scrapeOpts.redis, "redis", "", "redis address used as queue storage")
	f.StringVar(&scrapeOpts.csv, "csv", "", "write rows to this csv file")
	f.StringVar(&scrapeOpts.json, "json", "", "write rows to this json file")
	f.StringVar(&scrapeOpts.outDir, "out-dir", "", "write <site>_<time>.csv into this directory")
	scrapeOpts.filterFlags.bind(scrapeCmd)

	rootCmd.AddCommand(scrapeCmd)
}

// apply lets explicit flags win over the config.
func (o *scrapeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("pages") && o.pages > 0 {
		cfg.MaxPages = o.pages
	}

	if changed("workers") && o.workers > 0 {
		cfg.Workers = o.workers
	}

	if changed("render") {
		cfg.Fetch.Render = o.render
	}

	if changed("redis") {
		cfg.Redis.Address = o.redis
	}

	if changed("csv") {
		cfg.Output.CSV = o.csv
	}

	if changed("json") {
		cfg.Output.JSON = o.json
	}

	if changed("out-dir") {
		cfg.Output.Dir = o.outDir
	}
}

// runQueries runs a single query in place, several go through the queue.
// Sessions finished before an error are returned along with it.
func runQueries(ctx context.Context, c *tcgscrape.Collector, cfg *config.Config, queries []string) ([]*tcgscrape.Session, error) {
	if len(queries) == 1 && cfg.Redis.Address == "" {
		return []*tcgscrape.Session{c.Run(ctx, queries[0], cfg.MaxPages)}, nil
	}

	var storage queue.Storage

	if cfg.Redis.Address != "" {
		rs := &redisstorage.Storage{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}

		if err := rs.Init(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Address, err)
		}
		defer rs.Client.Close()

		storage = rs
	}

	q, err := queue.New(cfg.Workers, storage)
	if err != nil {
		return nil, err
	}

	for _, query := range queries {
		if err := q.AddQuery(query, cfg.MaxPages); err != nil {
			return nil, err
		}
	}

	results, err := q.Run(ctx, c)

	sessions := make([]*tcgscrape.Session, 0, len(results))
	for _, r := range results {
		sessions = append(sessions, r.Session)
	}

	return sessions, err
}

// gatherRows joins the rows of all sessions and lists what the user should
// be told about them.
func gatherRows(sessions []*tcgscrape.Session) ([]tcgscrape.ListingRow, []string) {
	rows := make([]tcgscrape.ListingRow, 0)
	hints := make([]string, 0)

	for _, s := range sessions {
		rows = append(rows, s.Rows...)

		if s.Err != nil {
			hints = append(hints, fmt.Sprintf("%s stopped on page %d: %v", s.BaseQuery, s.CurrentPage, s.Err))
		}
	}

	if len(rows) == 0 {
		hints = append(hints, "No data was scraped. Check the URL, the listing selectors, or try --render.")
	}

	return rows, hints
}

func saveRows(cfg *config.Config, firstQuery string, rows []tcgscrape.ListingRow) error {
	csvPath := cfg.Output.CSV

	if csvPath == "" && cfg.Output.Dir != "" {
		name, err := tcgscrape.FilenameFromURL(firstQuery)
		if err != nil {
			name = "listings"
		}

		csvPath = filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_%s.csv", name, xdtm.Now().ToShortDateTimeString()))
	}

	if csvPath != "" {
		if err := table.SaveCSV(csvPath, rows); err != nil {
			return err
		}

		xpretty.YellowPrintf("saved %d rows to %s\n", len(rows), csvPath)
	}

	if cfg.Output.JSON != "" {
		if err := dry.FileSetJSON(cfg.Output.JSON, rows); err != nil {
			return err
		}

		xpretty.YellowPrintf("saved %d rows to %s\n", len(rows), cfg.Output.JSON)
	}

	return nil
}
