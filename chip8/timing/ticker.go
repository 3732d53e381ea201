package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent cycle timing.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
	ch     <-chan time.Time
}

// NewTickerLimiter creates a limiter that paces cycles at the given rate
// in Hz.
func NewTickerLimiter(rate int) *TickerLimiter {
	period := CyclePeriod(rate)
	ticker := time.NewTicker(period)
	return &TickerLimiter{
		period: period,
		ticker: ticker,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextCycle() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
