package commands

import (
	"github.com/coghost/xpretty"
	"github.com/pterm/pterm"
)

type spinner struct {
	sp *pterm.SpinnerPrinter
}

func startSpinner(format string, args ...interface{}) *spinner {
	sp, err := pterm.DefaultSpinner.Start(xpretty.Yellowf(format, args...))
	if err != nil {
		return &spinner{}
	}

	return &spinner{sp: sp}
}

func (s *spinner) done(ok bool, msg string) {
	if s.sp == nil {
		return
	}

	if ok {
		s.sp.Success(msg)
		return
	}

	s.sp.Fail(msg)
}
