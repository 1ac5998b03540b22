package tcgscrape

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/coghost/xbot"
	"github.com/rs/zerolog/log"
)

const (
	_capacity = 4

	_defaultMaxPages       = 5
	_defaultPageParam      = "page"
	_defaultPageDelay      = 2 * time.Second
	_defaultRequestTimeout = 30 * time.Second
	_defaultRenderTimeout  = 20 * time.Second
)

func (c *Collector) Init() {
	c.userAgent = xbot.UA
	c.headless = true
	c.parallelism = 1

	c.maxPages = _defaultMaxPages
	c.pageParam = _defaultPageParam
	c.pageDelay = _defaultPageDelay
	c.requestTimeout = _defaultRequestTimeout
	c.renderTimeout = _defaultRenderTimeout
	c.searchParam = "q"

	c.listingSelectors = DefaultListingSelectors()
	c.fields = DefaultFields()

	c.now = time.Now
	c.lock = &sync.RWMutex{}
}

// Run scrapes baseQuery page by page, from 1 up to maxPages (the collector
// default when maxPages < 1). It stops early on the first empty page or the
// first fetch failure. Rows gathered before the stop are always returned.
//
// Run never returns an error, see Session.Reason and Session.Err.
func (c *Collector) Run(ctx context.Context, baseQuery string, maxPages int) *Session {
	if maxPages < 1 {
		maxPages = c.maxPages
	}

	s := newSession(baseQuery, maxPages)

	query, err := c.resolveQuery(baseQuery)
	if err != nil {
		return c.done(s, ReasonError, err)
	}

	for {
		resp, err := c.fetchPage(ctx, query, s.CurrentPage)
		if err != nil {
			return c.done(s, ReasonError, err)
		}

		nodes := Locate(resp.Doc.Selection, c.listingSelectors)
		if nodes == nil {
			log.Debug().Int("page", s.CurrentPage).Msg("no listings found")
			return c.done(s, ReasonEmptyPage, nil)
		}

		c.extractPage(s, resp, nodes)

		s.CurrentPage++
		if err := s.checkPageLimit(); err != nil {
			return c.done(s, ReasonPageLimit, nil)
		}

		if err := c.pause(ctx); err != nil {
			return c.done(s, ReasonError, err)
		}
	}
}

func (c *Collector) done(s *Session, reason StopReason, err error) *Session {
	s.finish(reason, err)

	evt := log.Info()
	if err != nil {
		evt = log.Error().Err(err)
	}

	evt.Str("query", s.BaseQuery).
		Int("rows", len(s.Rows)).
		Int("skipped", s.Skipped).
		Int("page", s.CurrentPage).
		Str("reason", reason.String()).
		Msg("scrape finished")

	return s
}

func (c *Collector) fetchPage(ctx context.Context, query string, page int) (*Response, error) {
	pageURL, err := PageURL(query, c.pageParam, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	parsedURL, err := str2URL(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	req := &Request{
		ID:        atomic.AddUint32(&c.requestCount, 1),
		URL:       parsedURL,
		Page:      page,
		BaseQuery: query,
	}

	if err := c.checkFilters(parsedURL); err != nil {
		c.handleOnError(req, err)
		return nil, err
	}

	c.handleOnRequest(req)

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		c.handleOnError(req, err)
		return nil, err
	}

	if resp.Request == nil {
		resp.Request = req
	}

	if resp.Doc == nil {
		doc, err := parseDocument(resp.Body)
		if err != nil {
			err = &FetchError{URL: parsedURL.String(), Page: page, StatusCode: resp.StatusCode, Err: err}
			c.handleOnError(req, err)

			return nil, err
		}

		resp.Doc = doc
	}

	c.handleOnResponse(resp)

	return resp, nil
}

// nodeResult is the outcome of one listing node.
type nodeResult struct {
	row ListingRow
	err error
}

func (c *Collector) extractPage(s *Session, resp *Response, nodes *goquery.Selection) {
	scraped := truncateDay(c.now())
	page := resp.Request.Page

	results := make([]nodeResult, 0, nodes.Length())

	nodes.Each(func(i int, sel *goquery.Selection) {
		results = append(results, c.extractNode(NewListingElement(resp, sel, i), scraped))
	})

	for _, r := range results {
		if r.err != nil {
			s.Skipped++
			log.Warn().Err(r.err).Int("page", page).Msg("skip listing")

			continue
		}

		s.Rows = append(s.Rows, r.row)
	}

	log.Debug().Int("page", page).Int("nodes", len(results)).Int("rows", len(s.Rows)).Msg("page extracted")
}

func (c *Collector) extractNode(e *ListingElement, scraped time.Time) (res nodeResult) {
	wrap := func(err error) nodeResult {
		return nodeResult{err: &ExtractionError{Page: e.Request.Page, Index: e.Index, Err: err}}
	}

	defer func() {
		if r := recover(); r != nil {
			res = wrap(fmt.Errorf("panic: %v", r))
		}
	}()

	name, err := e.Extract(c.fields.Name, DefaultName)
	if err != nil {
		return wrap(err)
	}

	rawPrice, err := e.Extract(c.fields.Price, defaultRawPrice)
	if err != nil {
		return wrap(err)
	}

	condition, err := e.Extract(c.fields.Condition, DefaultCondition)
	if err != nil {
		return wrap(err)
	}

	row := ListingRow{
		Name:        name,
		Price:       NormalizePrice(rawPrice),
		Condition:   condition,
		DateScraped: scraped,
	}

	if err := c.handleOnListing(e, &row); err != nil {
		return wrap(err)
	}

	return nodeResult{row: row}
}

// pause waits pageDelay between two pages.
func (c *Collector) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(c.pageDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

/** Callbacks **/

/**
- OnRequest
OnError
OnResponse
- OnListing
**/

// OnRequest registers a function called before every page fetch.
func (c *Collector) OnRequest(f RequestCallback) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.requestCallbacks == nil {
		c.requestCallbacks = make([]RequestCallback, 0, _capacity)
	}

	c.requestCallbacks = append(c.requestCallbacks, f)
}

// OnResponse handle on response.
func (c *Collector) OnResponse(f ResponseCallback) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.responseCallbacks == nil {
		c.responseCallbacks = make([]ResponseCallback, 0, _capacity)
	}

	c.responseCallbacks = append(c.responseCallbacks, f)
}

// OnListing registers a function called with each extracted row.
// Returning an error drops the row, the page goes on.
func (c *Collector) OnListing(f ListingCallback) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.listingCallbacks == nil {
		c.listingCallbacks = make([]ListingCallback, 0, _capacity)
	}

	c.listingCallbacks = append(c.listingCallbacks, f)
}

// OnError registers a function. Function will be executed if an error
// occurs while fetching a page.
func (c *Collector) OnError(f ErrorCallback) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.errorCallbacks == nil {
		c.errorCallbacks = make([]ErrorCallback, 0, _capacity)
	}

	c.errorCallbacks = append(c.errorCallbacks, f)
}

func (c *Collector) handleOnRequest(r *Request) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, f := range c.requestCallbacks {
		f(r)
	}
}

func (c *Collector) handleOnResponse(r *Response) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, f := range c.responseCallbacks {
		f(r)
	}
}

func (c *Collector) handleOnListing(e *ListingElement, row *ListingRow) error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, f := range c.listingCallbacks {
		if err := f(e, row); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) handleOnError(r *Request, err error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, f := range c.errorCallbacks {
		f(r, err)
	}
}
