package studio

import "time"

// Ticker abstracts the poll timer so tests can step it deterministically.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker is the production TickerFactory backed by time.Ticker.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}
