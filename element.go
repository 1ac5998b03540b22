package tcgscrape

import "github.com/PuerkitoBio/goquery"

// ListingElement is one node returned by the Listing Locator.
type ListingElement struct {
	DOM *goquery.Selection

	Request  *Request
	Response *Response

	// Index is the position of the node on its page
	Index int
}

func NewListingElement(resp *Response, s *goquery.Selection, index int) *ListingElement {
	return &ListingElement{
		DOM:      s,
		Request:  resp.Request,
		Response: resp,
		Index:    index,
	}
}

// Extract runs the Field Extractor on this node.
func (e *ListingElement) Extract(locators []Locator, def string) (string, error) {
	return Extract(e.DOM, locators, def)
}

func (e *ListingElement) Attr(k string) string {
	v, _ := e.DOM.Attr(k)
	return v
}

func (e *ListingElement) Text() string {
	return collapseSpace(e.DOM.Text())
}
