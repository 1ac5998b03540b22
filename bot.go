package tcgscrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coghost/xbot"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

var errNoResponse = errors.New("no response received")

// renderPage loads req in a browser tab and returns the HTML once the page
// is stable, so listings filled in by scripts are part of the body.
func (f *pageFetcher) renderPage(ctx context.Context, req *Request) (*Response, error) {
	bot := f.bots.Get(f.newBot)
	defer f.bots.Put(bot)

	page := bot.Pg.Context(ctx).Timeout(f.renderTimeout)
	defer page.CancelTimeout()

	statusCh := make(chan int, 1)
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}

		statusCh <- e.Response.Status

		return true
	})

	// ends with the event or when the page context is released
	go wait()

	log.Debug().Str("url", req.URL.String()).Int("page", req.Page).Msg("rendering")

	if err := page.Navigate(req.URL.String()); err != nil {
		return nil, f.fail(req, 0, err)
	}

	// the document response precedes the load event
	if err := page.WaitLoad(); err != nil {
		return nil, f.fail(req, 0, err)
	}

	status := 0
	select {
	case status = <-statusCh:
	default:
	}

	if err := checkDocumentStatus(status); err != nil {
		return nil, f.fail(req, status, err)
	}

	if err := page.WaitStable(f.settle); err != nil {
		return nil, f.fail(req, status, err)
	}

	body, err := page.HTML()
	if err != nil {
		return nil, f.fail(req, status, err)
	}

	return &Response{
		Request:    req,
		StatusCode: status,
		Body:       []byte(body),
		Rendered:   true,
	}, nil
}

// checkDocumentStatus accepts 2xx, and 0 when the browser reported no
// document response (served from cache or a script driven navigation).
func checkDocumentStatus(status int) error {
	if status == 0 || (status >= http.StatusOK && status < http.StatusMultipleChoices) {
		return nil
	}

	return fmt.Errorf("%s", http.StatusText(status))
}

func (f *pageFetcher) newBot() *xbot.Bot {
	bof := []xbot.BotOptFunc{
		xbot.BotSpawn(false),
		xbot.BotScreen(0),
		xbot.BotHeadless(f.headless),
		xbot.BotUserAgent(f.userAgent),
		xbot.BotProxyServer(f.proxy),
	}

	bot := xbot.NewBot(bof...)
	xbot.Spawn(bot)

	log.Debug().Str("botId", bot.UniqueID).Msg("spawned bot")

	return bot
}
