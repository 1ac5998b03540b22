package tcgscrape

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
)

type Collector struct {
	// userAgent is the User-Agent string sent by both fetch modes
	userAgent string
	// userAgents, when set, replaces userAgent by a random pick per collector
	userAgents []string
	// proxies is a list of proxy servers, one is picked per collector
	proxies []string
	// headless is whether the render browser shows a window or not
	headless bool
	// render waits for client-side scripts before the document is parsed.
	// It is a collector setting, not a per page decision.
	render bool
	// parallelism is the number of browser bots kept in the pool,
	// it only matters when several sessions run at the same time.
	parallelism int

	// maxPages is the default upper bound of pages attempted by Run.
	maxPages int
	// pageParam is the query parameter carrying the page number
	pageParam string
	// pageDelay is the fixed pause between two pages of the same session
	pageDelay time.Duration

	requestTimeout time.Duration
	renderTimeout  time.Duration

	// searchEndpoint resolves free-form queries, searchParam carries the query
	searchEndpoint string
	searchParam    string

	// listingSelectors is tried strictly in order, the first group
	// matching anything wins.
	listingSelectors []string
	fields           Fields

	// allowedDomains limits the shops a query may point to, empty allows all
	allowedDomains []string
	disallowedDomains []string
	// page URLs matching any disallowedURLFilters are refused, checked
	// before urlFilters which, when set, must match
	disallowedURLFilters []*regexp.Regexp
	urlFilters           []*regexp.Regexp

	now     func() time.Time
	fetcher Fetcher

	requestCallbacks  []RequestCallback
	responseCallbacks []ResponseCallback
	listingCallbacks  []ListingCallback
	errorCallbacks    []ErrorCallback

	requestCount uint32

	lock *sync.RWMutex
}

// FetchError is returned when a page cannot be retrieved: transport failure,
// timeout or a non-success status. It ends the session.
type FetchError struct {
	URL  string
	Page int
	// StatusCode is zero when no response was received
	StatusCode int
	Err        error
}

// Error implements error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (%s): status %d: %v", e.Page, e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError describes a single listing node that could not be turned
// into a row. The node is skipped, the page goes on.
type ExtractionError struct {
	Page  int
	Index int
	Err   error
}

// Error implements error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("listing %d on page %d: %v", e.Index, e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var (
	// ErrEmptyNode is returned by Extract when there is no node to read from
	ErrEmptyNode = errors.New("empty listing node")
	// ErrInvalidQuery is returned when a query is neither an http(s) URL
	// nor resolvable through a search endpoint
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrForbiddenDomain rejects a page whose host is outside AllowedDomains
	// or inside DisallowedDomains
	ErrForbiddenDomain = errors.New("forbidden domain")
	// ErrForbiddenURL rejects a page URL matching a DisallowedURLFilters rule
	ErrForbiddenURL = errors.New("forbidden URL")
	// ErrNoURLFiltersMatch rejects a page URL no URLFilters rule accepts
	ErrNoURLFiltersMatch = errors.New("no URLFilters match")
	// ErrPageLimit marks the end of a session by max pages
	ErrPageLimit = errors.New("max pages reached")
)

func NewCollector(options ...CollectorOption) *Collector {
	c := &Collector{}
	// default settings
	c.Init()
	// bind options from args in
	bindOptions(c, options...)
	// finally setup fetcher
	c.initFetcher()

	return c
}

type CollectorOption func(*Collector)

func bindOptions(c *Collector, options ...CollectorOption) {
	for _, f := range options {
		f(c)
	}
}

func UserAgent(ua string) CollectorOption {
	return func(c *Collector) {
		c.userAgent = ua
	}
}

// UserAgents sets a pool of identities, one of them is used by the collector.
func UserAgents(uas ...string) CollectorOption {
	return func(c *Collector) {
		c.userAgents = uas
	}
}

func Proxies(proxies ...string) CollectorOption {
	return func(c *Collector) {
		c.proxies = proxies
	}
}

func Headless(b bool) CollectorOption {
	return func(c *Collector) {
		c.headless = b
	}
}

// Render enables the browser backed fetch mode.
func Render(b bool) CollectorOption {
	return func(c *Collector) {
		c.render = b
	}
}

func Parallelism(n int) CollectorOption {
	return func(c *Collector) {
		c.parallelism = n
	}
}

// MaxPages sets the default page bound used when Run gets no positive bound.
func MaxPages(n int) CollectorOption {
	return func(c *Collector) {
		c.maxPages = n
	}
}

func PageParam(name string) CollectorOption {
	return func(c *Collector) {
		c.pageParam = name
	}
}

func PageDelay(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.pageDelay = d
	}
}

func RequestTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.requestTimeout = d
	}
}

func RenderTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.renderTimeout = d
	}
}

// SearchEndpoint sets the URL used for queries that are plain search terms,
// the term is sent in param ("q" when empty).
func SearchEndpoint(endpoint, param string) CollectorOption {
	return func(c *Collector) {
		c.searchEndpoint = endpoint
		if param != "" {
			c.searchParam = param
		}
	}
}

// ListingSelectors sets the ordered selector groups of the Listing Locator.
func ListingSelectors(groups ...string) CollectorOption {
	return func(c *Collector) {
		c.listingSelectors = groups
	}
}

// WithFields sets the ordered locators of every row field.
func WithFields(f Fields) CollectorOption {
	return func(c *Collector) {
		c.fields = f
	}
}

// AllowedDomains restricts queries to these hosts.
func AllowedDomains(domains ...string) CollectorOption {
	return func(c *Collector) {
		c.allowedDomains = domains
	}
}

// DisallowedDomains sets the domain blacklist used by the Collector.
func DisallowedDomains(domains ...string) CollectorOption {
	return func(c *Collector) {
		c.disallowedDomains = domains
	}
}

// DisallowedURLFilters refuses page URLs matching any of filters.
func DisallowedURLFilters(filters ...*regexp.Regexp) CollectorOption {
	return func(c *Collector) {
		c.disallowedURLFilters = filters
	}
}

// URLFilters only lets through page URLs matching one of filters.
func URLFilters(filters ...*regexp.Regexp) CollectorOption {
	return func(c *Collector) {
		c.urlFilters = filters
	}
}

// Clock replaces time.Now, it stamps DateScraped.
func Clock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

// WithFetcher replaces the built-in colly/rod fetcher.
func WithFetcher(f Fetcher) CollectorOption {
	return func(c *Collector) {
		c.fetcher = f
	}
}
