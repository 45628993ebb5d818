package core

import "time"

// Interval reports when a wall-clock period has elapsed. It drives periodic
// side effects such as image snapshots independently of the tick rate.
type Interval struct {
	period time.Duration
	next   time.Time
	now    func() time.Time
}

// NewInterval constructs an Interval firing every period. A non-positive
// period yields an Interval that never fires.
func NewInterval(period time.Duration) *Interval {
	return &Interval{period: period, now: time.Now}
}

// Enabled reports whether the interval has a positive period.
func (i *Interval) Enabled() bool { return i != nil && i.period > 0 }

// Due reports whether the period has elapsed since the previous firing. The
// first call arms the interval and returns false.
func (i *Interval) Due() bool {
	if !i.Enabled() {
		return false
	}
	now := i.now()
	if i.next.IsZero() {
		i.next = now.Add(i.period)
		return false
	}
	if now.Before(i.next) {
		return false
	}
	// Skip missed periods rather than firing in a burst.
	for !now.Before(i.next) {
		i.next = i.next.Add(i.period)
	}
	return true
}
