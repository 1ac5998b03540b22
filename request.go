package tcgscrape

import (
	"fmt"
	"net/url"
)

type Request struct {
	// ID is the Unique identifier of the request
	ID uint32

	URL *url.URL
	// Page is the 1-based page number of the session
	Page int
	// BaseQuery is the query the session was started with
	BaseQuery string
}

func (r *Request) IDString() string {
	return fmt.Sprintf("R-%d#%d", r.ID, r.Page)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s | %s", r.IDString(), r.URL.String())
}
