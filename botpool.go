package tcgscrape

import "github.com/coghost/xbot"

// BotPool keeps spawned browser bots for reuse between render fetches.
type BotPool chan *xbot.Bot

// NewBotPool instance, limit below 1 means a single bot
func NewBotPool(limit int) BotPool {
	if limit < 1 {
		limit = 1
	}

	pp := make(chan *xbot.Bot, limit)
	for i := 0; i < limit; i++ {
		pp <- nil
	}

	return pp
}

// Get a bot from the pool. Use the BotPool.Put to make it reusable later.
func (bp BotPool) Get(create func() *xbot.Bot) *xbot.Bot {
	p := <-bp
	if p == nil {
		p = create()
	}

	return p
}

// Put a xbot.Bot back to the pool
func (bp BotPool) Put(p *xbot.Bot) {
	bp <- p
}

// Cleanup helper
func (bp BotPool) Cleanup(iteratee func(*xbot.Bot)) {
	for i := 0; i < cap(bp); i++ {
		p := <-bp
		if p != nil {
			iteratee(p)
		}
	}
}
