package tcgscrape

// RequestCallback is a type alias for OnRequest callback functions
type RequestCallback func(*Request)

// ResponseCallback is a type alias for OnResponse callback functions
type ResponseCallback func(*Response)

// ErrorCallback is a type alias for OnError callback functions
type ErrorCallback func(*Request, error)

// ListingCallback is called for every extracted row before it is appended,
// returning an error drops the row.
type ListingCallback func(e *ListingElement, row *ListingRow) error
