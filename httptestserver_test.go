package tcgscrape

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"
)

const _listingsPerPage = 2

// listingPrice is the price shown by the test server for a listing.
func listingPrice(page, i int) float64 {
	return 1000 + float64(page*10+i) + 0.5
}

func listingName(page, i int) string {
	return fmt.Sprintf("Dark Magician %d-%d", page, i)
}

func productListing(page, i int) string {
	return fmt.Sprintf(`<div class="productListing">
  <div class="productDetailTitle"><a href="/product/%d-%d">
    %s
  </a></div>
  <span class="pricePoint">$1,%03d.50</span>
  <span class="condition">Lightly Played</span>
</div>`, page, i, listingName(page, i), page*10+i)
}

func writePage(w http.ResponseWriter, listings ...string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Search</title></head>
<body>
<section class="results">
%s
</section>
</body>
</html>`, strings.Join(listings, "\n"))
}

func pageOf(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 0
	}

	return p
}

func fullPage(page int) []string {
	listings := make([]string, 0, _listingsPerPage)
	for i := 0; i < _listingsPerPage; i++ {
		listings = append(listings, productListing(page, i))
	}

	return listings
}

func newUnstartedTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("hello world\n"))
	})

	// every page has listings
	mux.HandleFunc("/cards", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fullPage(pageOf(r))...)
	})

	// pages from 3 on are empty
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		p := pageOf(r)
		if p >= 3 {
			writePage(w, `<p class="no-results">No results</p>`)
			return
		}

		writePage(w, fullPage(p)...)
	})

	// page 2 fails
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		p := pageOf(r)
		if p == 2 {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(500)
			w.Write([]byte("<p>error</p>"))

			return
		}

		writePage(w, fullPage(p)...)
	})

	// older grid layout, no condition shown
	mux.HandleFunc("/legacy", func(w http.ResponseWriter, r *http.Request) {
		writePage(w,
			`<div class="product-card"><h3 class="product-title">Jinzo</h3><span class="product-price">$7.25</span></div>`,
			`<div class="product-card"><h3 class="product-title">Mirror Force</h3><span class="product-price">N/A</span></div>`,
		)
	})

	// two layouts on the same document
	mux.HandleFunc("/both", func(w http.ResponseWriter, r *http.Request) {
		writePage(w,
			productListing(pageOf(r), 0),
			`<div class="product-card"><h3 class="product-title">Jinzo</h3></div>`,
			`<div class="product-card"><h3 class="product-title">Mirror Force</h3></div>`,
		)
	})

	// listings with missing or odd fields
	mux.HandleFunc("/partial", func(w http.ResponseWriter, r *http.Request) {
		writePage(w,
			`<div class="productListing"><span class="pricePoint">call us</span></div>`,
			`<div class="productListing"><div class="productDetailTitle"><a>   </a></div><span class="search-result__title">Kuriboh</span><span class="condition">Damaged</span></div>`,
		)
	})

	mux.HandleFunc("/user_agent", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, fmt.Sprintf(`<div class="productListing"><div class="productDetailTitle"><a>%s</a></div></div>`, r.Header.Get("User-Agent")))
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}

		writePage(w, fullPage(pageOf(r))...)
	})

	return httptest.NewUnstartedServer(mux)
}

func newTestServer() *httptest.Server {
	srv := newUnstartedTestServer()
	srv.Start()

	return srv
}
