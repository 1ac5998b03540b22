package tcgscrape

import (
	"bytes"
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/coghost/xbot"
	"github.com/gocolly/colly"
	"github.com/gookit/goutil/arrutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Fetcher retrieves and parses one page. The collector builds the request
// URL; implementations only have to get the document behind it.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// pageFetcher is the built-in Fetcher. It uses a plain colly GET, or a rod
// browser page when render is set.
type pageFetcher struct {
	render   bool
	headless bool

	userAgent string
	proxy     string

	renderTimeout time.Duration
	// settle is how long the DOM has to stay unchanged after load
	settle time.Duration

	http *colly.Collector
	bots BotPool
}

const _renderSettle = time.Second

func (f *pageFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, f.fail(req, 0, err)
	}

	var (
		resp *Response
		err  error
	)

	if f.render {
		resp, err = f.renderPage(ctx, req)
	} else {
		resp, err = f.getContext(ctx, req)
	}

	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(resp.Body)
	if err != nil {
		return nil, f.fail(req, resp.StatusCode, err)
	}

	resp.Doc = doc

	return resp, nil
}

type fetchResult struct {
	resp *Response
	err  error
}

// getContext runs get and gives up when ctx is done. colly v1 takes no
// context, so an abandoned request still runs until requestTimeout in the
// background and its result is dropped.
func (f *pageFetcher) getContext(ctx context.Context, req *Request) (*Response, error) {
	done := make(chan fetchResult, 1)

	go func() {
		resp, err := f.get(req)
		done <- fetchResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, f.fail(req, 0, ctx.Err())
	}
}

func (f *pageFetcher) get(req *Request) (*Response, error) {
	c := f.http.Clone()

	var (
		resp     *Response
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	c.OnResponse(func(r *colly.Response) {
		resp = &Response{
			Request:    req,
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}

		fetchErr = f.fail(req, status, err)
	})

	log.Debug().Str("url", req.URL.String()).Int("page", req.Page).Msg("fetching")

	err := c.Visit(req.URL.String())
	if fetchErr != nil {
		return nil, fetchErr
	}

	if err != nil {
		return nil, f.fail(req, 0, err)
	}

	if resp == nil {
		return nil, f.fail(req, 0, errNoResponse)
	}

	return resp, nil
}

func (f *pageFetcher) fail(req *Request, status int, err error) *FetchError {
	return &FetchError{
		URL:        req.URL.String(),
		Page:       req.Page,
		StatusCode: status,
		Err:        err,
	}
}

func parseDocument(body []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return goquery.NewDocumentFromNode(root), nil
}

func (c *Collector) initFetcher() {
	if c.fetcher != nil {
		return
	}

	if len(c.userAgents) > 0 {
		c.userAgent = arrutil.RandomOne(c.userAgents)
	}

	proxy := ""
	if len(c.proxies) > 0 {
		proxy = arrutil.RandomOne(c.proxies)
	}

	hc := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
	)
	hc.SetRequestTimeout(c.requestTimeout)

	if proxy != "" {
		if err := hc.SetProxy(proxy); err != nil {
			log.Warn().Err(err).Str("proxy", proxy).Msg("cannot set proxy, going direct")
		}
	}

	c.fetcher = &pageFetcher{
		render:        c.render,
		headless:      c.headless,
		userAgent:     c.userAgent,
		proxy:         proxy,
		renderTimeout: c.renderTimeout,
		settle:        _renderSettle,
		http:          hc,
		bots:          NewBotPool(c.parallelism),
	}
}

// Close releases the browsers spawned in render mode. The collector must not
// be used afterwards.
func (c *Collector) Close() {
	f, ok := c.fetcher.(*pageFetcher)
	if !ok {
		return
	}

	f.bots.Cleanup(func(bot *xbot.Bot) {
		if err := bot.Brw.Close(); err != nil {
			log.Warn().Err(err).Msg("cannot close browser")
		}
	})
}
