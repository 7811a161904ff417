package monitor

import (
	"time"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// interface check: interf.RangeFetcher
var _ interf.RangeFetcher = (*_MonitoredFetcher)(nil)

// Fetcher wraps a file handle with the instrumented decorator.
// While the session is active, every FetchRange call on the returned handle is
// timed and logged; outside a session the wrapper is a transparent
// pass-through. Wrapping an already wrapped handle records every call twice;
// single-session-at-a-time is the caller's responsibility.
func (m *Monitor) Fetcher(f interf.RangeFetcher) interf.RangeFetcher {
	return &_MonitoredFetcher{
		inner: f,
		mon:   m,
	}
}

// @see interf.RangeFetcher
//
// _MonitoredFetcher delegates all calls to the wrapped handle and reports
// completed FetchRange calls to the Monitor.
type _MonitoredFetcher struct {
	inner interf.RangeFetcher
	mon   *Monitor
}

// @see interf.RangeFetcher
//
// FetchRange delegates to the wrapped handle with all arguments unchanged.
// The call is timed with a monotonic clock. Failures propagate unchanged and
// leave no record; only a successful fetch is logged.
func (f *_MonitoredFetcher) FetchRange(start, end int64) ([]byte, error) {
	if !f.mon.isActive() {
		// no session: behave exactly like the bare handle
		return f.inner.FetchRange(start, end)
	}

	timeStart := time.Now()
	b, err := f.inner.FetchRange(start, end)
	elapsed := time.Since(timeStart)

	if err != nil {
		return nil, err
	}

	f.mon.record(f.inner, start, end, elapsed)
	return b, nil
}

// @see interf.RangeFetcher
func (f *_MonitoredFetcher) Path() string {
	return f.inner.Path()
}

// @see interf.RangeFetcher
func (f *_MonitoredFetcher) Size() int64 {
	return f.inner.Size()
}

// @see interf.RangeFetcher
func (f *_MonitoredFetcher) Close() error {
	return f.inner.Close()
}

// @see interf.RangeFetcher
func (f *_MonitoredFetcher) Stat() map[string]uint64 {
	return f.inner.Stat()
}
