package courierpool

import "time"

// SetNow replaces the clock used for staleness checks.
func (p *Pool) SetNow(fn func() time.Time) { p.now = fn }
