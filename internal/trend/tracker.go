package trend

import (
	"sync"

	"market-map/internal/logger"
	"market-map/internal/metrics"
)

// Ticket tags one trend request with its order and key.
type Ticket struct {
	Seq uint64
	Key string
}

// Tracker: only the most recently begun request may publish a series. Earlier requests that
// complete later are discarded; a failed latest request leaves the previous series in place.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	latest  Ticket
	current Series
	has     bool
	lastErr error
}

func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.latest = Ticket{Seq: t.seq, Key: key}
	return t.latest
}

func (t *Tracker) isLatest(tk Ticket) bool {
	return tk.Seq == t.latest.Seq && tk.Key == t.latest.Key
}

// Complete publishes s if tk is still the latest request.
func (t *Tracker) Complete(tk Ticket, s Series) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isLatest(tk) {
		metrics.TrendStaleDiscardedTotal.Inc()
		logger.L().Debug("trend_stale_discarded", "key", tk.Key, "seq", tk.Seq, "latest", t.latest.Seq)
		return false
	}
	t.current, t.has, t.lastErr = s, true, nil
	return true
}

// Fail records err for the latest request; the published series is kept.
func (t *Tracker) Fail(tk Ticket, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isLatest(tk) {
		metrics.TrendStaleDiscardedTotal.Inc()
		return false
	}
	t.lastErr = err
	logger.L().Warn("trend_request_failed", "key", tk.Key, "err", err)
	return true
}

// Current: last published series, if any.
func (t *Tracker) Current() (Series, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.has
}

// Err: error of the latest request, nil once it succeeded.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}
