package tcgscrape

import "fmt"

// StopReason tells why a session ended.
type StopReason int

const (
	// ReasonNone is the reason of a session still running
	ReasonNone StopReason = iota
	ReasonPageLimit
	ReasonEmptyPage
	ReasonError
)

func (r StopReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPageLimit:
		return "page_limit"
	case ReasonEmptyPage:
		return "empty_page"
	case ReasonError:
		return "error"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Session is the state of one Run. It is owned by the collector while the
// run goes and handed to the caller once it is done.
type Session struct {
	BaseQuery string
	MaxPages  int
	// CurrentPage starts at 1 and moves after each processed page
	CurrentPage int

	// Rows only grows during a run, and is kept whatever the stop reason
	Rows []ListingRow

	Reason StopReason
	// Err is set when Reason is ReasonError
	Err error
	// Skipped counts listing nodes dropped by extraction errors
	Skipped int
}

func newSession(query string, maxPages int) *Session {
	return &Session{
		BaseQuery:   query,
		MaxPages:    maxPages,
		CurrentPage: 1,
		Rows:        make([]ListingRow, 0),
	}
}

// checkPageLimit verify if max page number reached or not.
func (s *Session) checkPageLimit() error {
	if s.CurrentPage <= s.MaxPages {
		return nil
	}

	return ErrPageLimit
}

func (s *Session) finish(reason StopReason, err error) *Session {
	s.Reason = reason
	s.Err = err

	return s
}
