package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tcgscrape"
	"tcgscrape/config"

	"github.com/stretchr/testify/suite"
)

type ScrapeSuite struct {
	suite.Suite
	ts *httptest.Server
}

func TestScrape(t *testing.T) {
	suite.Run(t, new(ScrapeSuite))
}

func (s *ScrapeSuite) SetupSuite() {
	s.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		fmt.Fprintf(w, `<html><body><div class="productListing">
<div class="productDetailTitle"><a>%s page %s</a></div>
<span class="pricePoint">$3.50</span><span class="condition">Played</span>
</div></body></html>`, name, r.URL.Query().Get("page"))
	}))
}

func (s *ScrapeSuite) TearDownSuite() {
	s.ts.Close()
}

func (s *ScrapeSuite) config(workers, pages int) *config.Config {
	cfg := config.Default()
	cfg.Workers = workers
	cfg.MaxPages = pages

	return cfg
}

func (s *ScrapeSuite) Test_00_SingleQuery() {
	c := tcgscrape.NewCollector(tcgscrape.PageDelay(0))

	sessions, err := runQueries(context.Background(), c, s.config(1, 5), []string{s.ts.URL + "/a"})
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Len(sessions[0].Rows, 5)
	s.Equal(tcgscrape.ReasonPageLimit, sessions[0].Reason)
}

func (s *ScrapeSuite) Test_10_CancelKeepsRows() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := tcgscrape.NewCollector(tcgscrape.PageDelay(0))
	c.OnResponse(func(r *tcgscrape.Response) {
		if r.Request.URL.Path == "/a" {
			cancel()
		}
	})

	queries := []string{s.ts.URL + "/a", s.ts.URL + "/b"}

	sessions, err := runQueries(ctx, c, s.config(1, 3), queries)
	s.True(errors.Is(err, context.Canceled), "%v", err)
	s.Require().NotEmpty(sessions)

	first := sessions[0]
	s.Equal(queries[0], first.BaseQuery)
	s.Equal(tcgscrape.ReasonError, first.Reason)
	s.Require().Len(first.Rows, 1)
	s.Equal("a page 1", first.Rows[0].Name)

	rows, hints := gatherRows(sessions)
	s.Len(rows, 1)
	s.NotEmpty(hints)
	s.Contains(hints[0], "stopped on page 2")
}

func (s *ScrapeSuite) Test_20_NoRowsHint() {
	rows, hints := gatherRows([]*tcgscrape.Session{{BaseQuery: "https://shop.example.com/search", Reason: tcgscrape.ReasonEmptyPage}})
	s.Empty(rows)
	s.Require().Len(hints, 1)
	s.Contains(hints[0], "No data was scraped")

	rows, hints = gatherRows([]*tcgscrape.Session{{Rows: []tcgscrape.ListingRow{{Name: "Jinzo"}}}})
	s.Len(rows, 1)
	s.Empty(hints)
}
