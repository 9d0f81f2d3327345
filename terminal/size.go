package terminal

import (
	"time"
)

// Fallback dimensions when no controlling terminal answers
const (
	FallbackCols = 80
	FallbackRows = 24
)

// DefaultSizeTTL bounds how often the probe issues the underlying
// query in a tight render loop
const DefaultSizeTTL = 500 * time.Millisecond

// SizeProbe caches the terminal's dimensions with a short TTL so a
// render loop can call Size every frame without a syscall per call.
// Query failure is not an error: the last known (or fallback) size is
// returned, and reality is reflected within one TTL.
type SizeProbe struct {
	ttl   time.Duration
	query func() (cols, rows int, err error)
	now   func() time.Time

	last time.Time
	cols int
	rows int
}

// SizeProbeOption configures a SizeProbe
type SizeProbeOption func(*SizeProbe)

// WithSizeTTL overrides the cache TTL
func WithSizeTTL(d time.Duration) SizeProbeOption {
	return func(p *SizeProbe) {
		if d > 0 {
			p.ttl = d
		}
	}
}

// WithSizeQuery injects the size query, for tests or exotic hosts
func WithSizeQuery(q func() (cols, rows int, err error)) SizeProbeOption {
	return func(p *SizeProbe) { p.query = q }
}

// WithSizeClock injects the clock, for tests
func WithSizeClock(now func() time.Time) SizeProbeOption {
	return func(p *SizeProbe) { p.now = now }
}

// NewSizeProbe creates a probe over the controlling terminal
func NewSizeProbe(opts ...SizeProbeOption) *SizeProbe {
	p := &SizeProbe{
		ttl:   DefaultSizeTTL,
		query: queryTerminalSize,
		now:   time.Now,
		cols:  FallbackCols,
		rows:  FallbackRows,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns (cols, rows), querying at most once per TTL
func (p *SizeProbe) Size() (cols, rows int) {
	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < p.ttl {
		return p.cols, p.rows
	}
	p.last = now
	c, r, err := p.query()
	if err != nil || c <= 0 || r <= 0 {
		return p.cols, p.rows
	}
	p.cols, p.rows = c, r
	return p.cols, p.rows
}

// Refresh drops the cache so the next Size call queries immediately,
// used from a SIGWINCH handler
func (p *SizeProbe) Refresh() {
	p.last = time.Time{}
}
