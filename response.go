package tcgscrape

import "github.com/PuerkitoBio/goquery"

type Response struct {
	Request *Request

	StatusCode int
	Body       []byte
	// Rendered is true when the body was taken from a browser after scripts ran
	Rendered bool

	Doc *goquery.Document
}
