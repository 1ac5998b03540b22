package tcgscrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/coghost/xlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type CollectorSuite struct {
	suite.Suite
	ts *httptest.Server
}

func TestCollector(t *testing.T) {
	suite.Run(t, new(CollectorSuite))
}

func (s *CollectorSuite) SetupSuite() {
	xlog.InitLog(xlog.WithNoColor(false), xlog.WithLevel(zerolog.InfoLevel))
	s.ts = newTestServer()
}

func (s *CollectorSuite) TearDownSuite() {
	s.ts.Close()
}

var fixedNow = time.Date(2024, 3, 9, 17, 45, 12, 0, time.UTC)

func (s *CollectorSuite) newCollector(options ...CollectorOption) *Collector {
	base := []CollectorOption{
		PageDelay(0),
		Clock(func() time.Time { return fixedNow }),
	}

	return NewCollector(append(base, options...)...)
}

var newCollectorTests = map[string]func(*CollectorSuite){
	"UserAgent": func(s *CollectorSuite) {
		for _, ua := range []string{
			"foo",
			"bar",
		} {
			c := NewCollector(UserAgent(ua))
			s.Equal(ua, c.userAgent, "want "+ua)
		}
	},
	"UserAgents": func(s *CollectorSuite) {
		uas := []string{"foo", "bar"}
		c := NewCollector(UserAgents(uas...))
		s.Contains(uas, c.userAgent)
	},
	"MaxPages": func(s *CollectorSuite) {
		for _, n := range []int{
			12,
			34,
			1,
		} {
			c := NewCollector(MaxPages(n))
			s.Equal(n, c.maxPages)
		}
	},
	"Render": func(s *CollectorSuite) {
		for _, b := range []bool{
			false,
			true,
		} {
			c := NewCollector(Render(b))
			s.Equal(b, c.render)
			s.Equal(b, c.fetcher.(*pageFetcher).render)
		}
	},
	"Defaults": func(s *CollectorSuite) {
		c := NewCollector()
		s.Equal(_defaultMaxPages, c.maxPages)
		s.Equal("page", c.pageParam)
		s.Equal(2*time.Second, c.pageDelay)
		s.Equal(DefaultListingSelectors(), c.listingSelectors)
		s.NotEmpty(c.userAgent)
	},
	"AllowedDomains": func(s *CollectorSuite) {
		for _, domains := range [][]string{
			{"example.com", "example.net"},
			{"example.net"},
			{},
			nil,
		} {
			c := NewCollector(AllowedDomains(domains...))
			s.Equal(domains, c.allowedDomains)
		}
	},
	"URLFilters": func(s *CollectorSuite) {
		for _, filters := range [][]*regexp.Regexp{
			{regexp.MustCompile(`\w+`)},
			{regexp.MustCompile(`\d+`)},
			{},
			nil,
		} {
			c := NewCollector(URLFilters(filters...))
			s.Equal(filters, c.urlFilters)
		}
	},
}

func (s *CollectorSuite) Test_00_NewCollector() {
	for _, tt := range newCollectorTests {
		tt(s)
	}
}

func (s *CollectorSuite) Test_10_PageLimit() {
	c := s.newCollector()

	var pages []int

	c.OnRequest(func(r *Request) {
		pages = append(pages, r.Page)
	})

	sess := c.Run(context.Background(), s.ts.URL+"/cards?q=yugioh", 4)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Nil(sess.Err)
	s.Equal([]int{1, 2, 3, 4}, pages)
	s.Len(sess.Rows, 4*_listingsPerPage)
	s.Equal(5, sess.CurrentPage)

	for i, row := range sess.Rows {
		page, idx := i/_listingsPerPage+1, i%_listingsPerPage
		s.Equal(listingName(page, idx), row.Name)
		s.InDelta(listingPrice(page, idx), row.Price, 1e-9)
		s.Equal("Lightly Played", row.Condition)
		s.Equal("2024-03-09", row.DateString())
	}
}

func (s *CollectorSuite) Test_11_DefaultMaxPages() {
	c := s.newCollector(MaxPages(2))

	sess := c.Run(context.Background(), s.ts.URL+"/cards", 0)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Equal(2, sess.MaxPages)
	s.Len(sess.Rows, 2*_listingsPerPage)
}

func (s *CollectorSuite) Test_12_EmptyPage() {
	c := s.newCollector()

	sess := c.Run(context.Background(), s.ts.URL+"/short", 5)

	s.Equal(ReasonEmptyPage, sess.Reason)
	s.Nil(sess.Err)
	s.Equal(3, sess.CurrentPage)
	s.Len(sess.Rows, 2*_listingsPerPage)
	s.Equal(listingName(2, 1), sess.Rows[len(sess.Rows)-1].Name)
}

func (s *CollectorSuite) Test_13_FetchErrorKeepsRows() {
	c := s.newCollector()

	var gotErr error

	c.OnError(func(r *Request, err error) {
		s.Equal(2, r.Page)
		gotErr = err
	})

	sess := c.Run(context.Background(), s.ts.URL+"/flaky", 5)

	s.Equal(ReasonError, sess.Reason)
	s.Len(sess.Rows, _listingsPerPage, "rows of page 1 are kept")
	s.Equal(listingName(1, 0), sess.Rows[0].Name)

	var fe *FetchError
	s.True(errors.As(sess.Err, &fe))
	s.Equal(500, fe.StatusCode)
	s.Equal(2, fe.Page)
	s.Equal(sess.Err, gotErr)
}

func (s *CollectorSuite) Test_14_FallbackLayout() {
	c := s.newCollector()

	sess := c.Run(context.Background(), s.ts.URL+"/legacy", 1)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Require().Len(sess.Rows, 2)
	s.Equal("Jinzo", sess.Rows[0].Name)
	s.InDelta(7.25, sess.Rows[0].Price, 1e-9)
	s.Equal(DefaultCondition, sess.Rows[0].Condition)
	s.Equal("Mirror Force", sess.Rows[1].Name)
	s.Zero(sess.Rows[1].Price)
}

func (s *CollectorSuite) Test_15_FirstGroupWins() {
	c := s.newCollector()

	sess := c.Run(context.Background(), s.ts.URL+"/both", 1)

	s.Require().Len(sess.Rows, 1, "later groups are not merged")
	s.Equal(listingName(1, 0), sess.Rows[0].Name)
}

func (s *CollectorSuite) Test_16_Defaults() {
	c := s.newCollector()

	sess := c.Run(context.Background(), s.ts.URL+"/partial", 1)

	s.Require().Len(sess.Rows, 2)
	s.Equal(ListingRow{Name: DefaultName, Price: 0, Condition: DefaultCondition, DateScraped: truncateDay(fixedNow)}, sess.Rows[0])
	s.Equal("Kuriboh", sess.Rows[1].Name)
	s.Equal("Damaged", sess.Rows[1].Condition)
}

func (s *CollectorSuite) Test_17_ListingErrorSkipsNode() {
	c := s.newCollector()

	c.OnListing(func(e *ListingElement, row *ListingRow) error {
		if e.Index == 0 {
			return errors.New("rejected")
		}

		row.Condition = "Checked " + row.Condition

		return nil
	})

	c.OnListing(func(e *ListingElement, row *ListingRow) error {
		if e.Request.Page == 2 && e.Index == 1 {
			panic("broken node")
		}

		return nil
	})

	sess := c.Run(context.Background(), s.ts.URL+"/cards", 3)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Equal(4, sess.Skipped)
	s.Require().Len(sess.Rows, 2)
	s.Equal(listingName(1, 1), sess.Rows[0].Name)
	s.Equal(listingName(3, 1), sess.Rows[1].Name)
	s.Equal("Checked Lightly Played", sess.Rows[0].Condition)
}

func (s *CollectorSuite) Test_18_Query() {
	c := s.newCollector()

	sess := c.Run(context.Background(), "blue-eyes", 1)
	s.Equal(ReasonError, sess.Reason)
	s.ErrorIs(sess.Err, ErrInvalidQuery)
	s.Empty(sess.Rows)

	c = s.newCollector(SearchEndpoint(s.ts.URL+"/cards", "q"))

	var got string

	c.OnRequest(func(r *Request) {
		got = r.URL.Query().Get("q")
	})

	sess = c.Run(context.Background(), "blue-eyes white dragon", 1)
	s.Equal(ReasonPageLimit, sess.Reason)
	s.Equal("blue-eyes white dragon", got)
	s.Len(sess.Rows, _listingsPerPage)
}

func (s *CollectorSuite) Test_19_Filters() {
	c := s.newCollector(DisallowedURLFilters(regexp.MustCompile(`/flaky`)))
	sess := c.Run(context.Background(), s.ts.URL+"/flaky", 1)
	s.ErrorIs(sess.Err, ErrForbiddenURL)

	c = s.newCollector(URLFilters(regexp.MustCompile(`/cards`)))
	sess = c.Run(context.Background(), s.ts.URL+"/short", 1)
	s.ErrorIs(sess.Err, ErrNoURLFiltersMatch)

	c = s.newCollector(AllowedDomains("example.com"))
	sess = c.Run(context.Background(), s.ts.URL+"/cards", 1)
	s.ErrorIs(sess.Err, ErrForbiddenDomain)

	c = s.newCollector(DisallowedDomains("127.0.0.1"))
	sess = c.Run(context.Background(), s.ts.URL+"/cards", 1)
	s.ErrorIs(sess.Err, ErrForbiddenDomain)
}

func (s *CollectorSuite) Test_20_Cancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := s.newCollector().Run(ctx, s.ts.URL+"/cards", 3)
	s.Equal(ReasonError, sess.Reason)
	s.ErrorIs(sess.Err, context.Canceled)
	s.Empty(sess.Rows)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	c := s.newCollector(PageDelay(time.Hour))
	c.OnResponse(func(r *Response) {
		cancel()
	})

	sess = c.Run(ctx, s.ts.URL+"/cards", 3)
	s.Equal(ReasonError, sess.Reason)
	s.ErrorIs(sess.Err, context.Canceled)
	s.Len(sess.Rows, _listingsPerPage)
}

func (s *CollectorSuite) Test_21_UserAgent() {
	c := s.newCollector(UserAgent("tcgscrape-test/1.0"))

	sess := c.Run(context.Background(), s.ts.URL+"/user_agent", 1)

	s.Require().Len(sess.Rows, 1)
	s.Equal("tcgscrape-test/1.0", sess.Rows[0].Name)
}

func (s *CollectorSuite) Test_22_Timeout() {
	c := s.newCollector(RequestTimeout(100 * time.Millisecond))

	sess := c.Run(context.Background(), s.ts.URL+"/slow", 1)

	s.Equal(ReasonError, sess.Reason)

	var fe *FetchError
	s.True(errors.As(sess.Err, &fe))
	s.Zero(fe.StatusCode)
}

func (s *CollectorSuite) Test_23_NoDelayAfterLastPage() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := s.newCollector(PageDelay(time.Hour))

	start := time.Now()
	sess := c.Run(ctx, s.ts.URL+"/cards", 1)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Nil(sess.Err)
	s.Len(sess.Rows, _listingsPerPage)
	s.Less(time.Since(start), time.Second)
}

func (s *CollectorSuite) Test_24_DelayBetweenPages() {
	c := s.newCollector(PageDelay(50 * time.Millisecond))

	start := time.Now()
	sess := c.Run(context.Background(), s.ts.URL+"/cards", 2)

	s.Equal(ReasonPageLimit, sess.Reason)
	s.Len(sess.Rows, 2*_listingsPerPage)
	s.GreaterOrEqual(time.Since(start), 50*time.Millisecond)
}

func (s *CollectorSuite) Test_25_CancelDuringFetch() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := s.newCollector(RequestTimeout(time.Minute))
	c.OnRequest(func(r *Request) {
		time.AfterFunc(100*time.Millisecond, cancel)
	})

	start := time.Now()
	sess := c.Run(ctx, s.ts.URL+"/slow", 1)

	s.Equal(ReasonError, sess.Reason)
	s.ErrorIs(sess.Err, context.Canceled)
	s.Less(time.Since(start), time.Second, "slow page answers after 2s")

	var fe *FetchError
	s.True(errors.As(sess.Err, &fe))
	s.Equal(1, fe.Page)
}

type staticFetcher struct {
	bodies map[int]string
}

func (f *staticFetcher) Fetch(_ context.Context, req *Request) (*Response, error) {
	body, ok := f.bodies[req.Page]
	if !ok {
		return nil, &FetchError{URL: req.URL.String(), Page: req.Page, Err: errors.New("gone")}
	}

	return &Response{StatusCode: 200, Body: []byte(body)}, nil
}

func (s *CollectorSuite) Test_30_CustomFetcher() {
	f := &staticFetcher{bodies: map[int]string{
		1: `<ul><li class="card"><b>Exodia</b><i>$99</i></li></ul>`,
		2: `<ul><li class="card"><b>Obelisk</b><i>$1,200</i></li></ul>`,
	}}

	c := s.newCollector(
		WithFetcher(f),
		ListingSelectors("li.item", "li.card"),
		WithFields(Fields{
			Name:  []Locator{Text("b")},
			Price: []Locator{Text("i")},
		}),
	)

	sess := c.Run(context.Background(), "https://cards.example.com/search?q=god", 5)

	s.Equal(ReasonError, sess.Reason)
	s.Equal(3, sess.CurrentPage)
	s.Require().Len(sess.Rows, 2)
	s.Equal("Exodia", sess.Rows[0].Name)
	s.InDelta(1200.0, sess.Rows[1].Price, 1e-9)
	s.Equal(DefaultCondition, sess.Rows[1].Condition)
}

func (s *CollectorSuite) Test_40_Render() {
	if testing.Short() || !browserEnabled() {
		s.T().Skip("set TCGSCRAPE_BROWSER=1 to run browser tests")
	}

	c := s.newCollector(Render(true), RenderTimeout(30*time.Second))
	defer c.Close()

	sess := c.Run(context.Background(), s.ts.URL+"/short", 5)

	s.Equal(ReasonEmptyPage, sess.Reason)
	s.Len(sess.Rows, 2*_listingsPerPage)

	sess = c.Run(context.Background(), s.ts.URL+"/flaky", 5)
	s.Equal(ReasonError, sess.Reason)
	s.Len(sess.Rows, _listingsPerPage)

	var fe *FetchError
	s.Require().True(errors.As(sess.Err, &fe))
	s.Equal(http.StatusInternalServerError, fe.StatusCode)
}
