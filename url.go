package tcgscrape

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

func str2URL(u string) (*url.URL, error) {
	parsedWhatwgURL, err := urlParser.Parse(u)
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(parsedWhatwgURL.Href(false))
	if err != nil {
		return nil, err
	}

	return parsedURL, nil
}

// PageURL appends param=page to base. Pairs of base are kept verbatim and in
// order, only an existing param pair is removed first.
func PageURL(base, param string, page int) (string, error) {
	u, err := str2URL(base)
	if err != nil {
		return "", err
	}

	u.RawQuery = setRawParam(u.RawQuery, param, strconv.Itoa(page))

	return u.String(), nil
}

// setRawParam drops the "&" separated pairs named key from raw and appends
// key=value. Other pairs, including ones url.ParseQuery would reject, are
// left untouched.
func setRawParam(raw, key, value string) string {
	kept := make([]string, 0)

	if raw != "" {
		for _, pair := range strings.Split(raw, "&") {
			if rawParamName(pair) == key {
				continue
			}

			kept = append(kept, pair)
		}
	}

	kept = append(kept, url.QueryEscape(key)+"="+url.QueryEscape(value))

	return strings.Join(kept, "&")
}

func rawParamName(pair string) string {
	name, _, _ := strings.Cut(pair, "=")
	if v, err := url.QueryUnescape(name); err == nil {
		return v
	}

	return name
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveQuery returns the search URL pages are built from.
func (c *Collector) resolveQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrInvalidQuery
	}

	if isHTTPURL(query) {
		if _, err := str2URL(query); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}

		return query, nil
	}

	if c.searchEndpoint == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidQuery, query)
	}

	u, err := str2URL(c.searchEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: search endpoint: %v", ErrInvalidQuery, err)
	}

	u.RawQuery = setRawParam(u.RawQuery, c.searchParam, query)

	return u.String(), nil
}

func (c *Collector) checkFilters(parsedURL *url.URL) error {
	u := parsedURL.String()

	if len(c.disallowedURLFilters) > 0 {
		if isMatchingFilter(c.disallowedURLFilters, []byte(u)) {
			return ErrForbiddenURL
		}
	}

	if len(c.urlFilters) > 0 {
		if !isMatchingFilter(c.urlFilters, []byte(u)) {
			return ErrNoURLFiltersMatch
		}
	}

	if !c.isDomainAllowed(parsedURL.Hostname()) {
		return ErrForbiddenDomain
	}

	return nil
}

func (c *Collector) isDomainAllowed(domain string) bool {
	for _, d2 := range c.disallowedDomains {
		if d2 == domain {
			return false
		}
	}

	if len(c.allowedDomains) == 0 {
		return true
	}

	for _, d2 := range c.allowedDomains {
		if d2 == domain {
			return true
		}
	}

	return false
}
