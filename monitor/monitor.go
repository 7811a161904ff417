// Package monitor measures the byte-range fetch behavior of storage file handles.
//
// A Monitor wraps interf.RangeFetcher handles (or whole services) with an
// instrumented decorator. While a session is active (between Enter and Exit),
// every FetchRange call on a wrapped handle is timed and logged as a
// FetchRecord; aggregate statistics (bytes, seconds, request count, MB/s) can
// be queried at any time, including mid-session. After Exit the wrappers are
// transparent again: calls pass through untimed, unlogged and unprinted.
//
// Example
//
//	mon := monitor.NewMonitor(true).Enter()
//	defer mon.Exit()
//
//	fh, _ := mon.Service(service).Open(file)
//	_, _ = fh.FetchRange(100, 180)
//	_ = fh.Close()
//
//	mon.Summary()
package monitor

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// console colors for the verbose output (bold red, like the summary lines)
const colorBold = "\u001b[1m\u001b[31;1m"
const colorReset = "\u001b[0m"

// Monitor collects statistics on the byte-range fetch requests executed by
// wrapped file handles. Create with NewMonitor or NewMonitorWriter, wrap the
// subjects with Fetcher() or Service(), and activate the session with Enter().
//
// At most one session should drive a given set of wrapped handles at a time.
// The record log itself is safe for concurrent appends.
type Monitor struct {
	mux     *sync.Mutex
	out     io.Writer
	verbose bool
	active  bool
	records []FetchRecord
}

// NewMonitor returns a new inactive Monitor that prints to os.Stdout.
// verbose enables the live per-fetch console output.
func NewMonitor(verbose bool) *Monitor {
	return NewMonitorWriter(verbose, os.Stdout)
}

// NewMonitorWriter returns a new inactive Monitor that prints to out.
// A nil out falls back to os.Stdout.
func NewMonitorWriter(verbose bool, out io.Writer) *Monitor {
	if out == nil {
		out = os.Stdout
	}
	return &Monitor{
		mux:     new(sync.Mutex),
		out:     out,
		verbose: verbose,
	}
}

// Enter begins a monitoring session: the record log is cleared and all wrapped
// handles start recording. Returns the Monitor for use within the scope.
func (m *Monitor) Enter() *Monitor {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	m.records = nil
	m.active = true
	return m
}

// Exit ends the monitoring session: all wrapped handles become transparent
// pass-throughs again. The collected records stay available for the aggregate
// queries. Exit is idempotent.
func (m *Monitor) Exit() {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	m.active = false
}

// Reset clears the record log without touching the session state.
func (m *Monitor) Reset() {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	m.records = nil
}

// Records returns a copy of the current record log.
// The list is created with every call and can be changed safely.
func (m *Monitor) Records() []FetchRecord {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	// return clone, not the inner list!
	list := make([]FetchRecord, len(m.records))
	copy(list, m.records)
	return list
}

//-----------  AGGREGATE QUERIES  ------------------------------------------------------------------------------------//

// BytesTransferred returns the total number of bytes fetched (sum of the
// requested range lengths). An empty log returns 0.
func (m *Monitor) BytesTransferred() int64 {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	var sum int64
	for _, r := range m.records {
		sum += r.Bytes()
	}
	return sum
}

// TimeElapsed returns the total time in seconds spent in intercepted fetches.
// An empty log returns 0.
func (m *Monitor) TimeElapsed() float64 {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	var sum float64
	for _, r := range m.records {
		sum += r.Elapsed.Seconds()
	}
	return sum
}

// Requests returns the total number of byte-range fetch requests made.
func (m *Monitor) Requests() int {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	return len(m.records)
}

// Throughput returns the throughput in MB/s.
// A total elapsed time of zero returns positive infinity.
func (m *Monitor) Throughput() float64 {
	return computeThroughput(m.BytesTransferred(), m.TimeElapsed())
}

// Summary prints a single line combining all aggregates.
func (m *Monitor) Summary() {
	m.printf("Summary: fetched %d bytes (%.2f MB) in %.2f s (%.2f MB/s) using %d requests.",
		m.BytesTransferred(),
		float64(m.BytesTransferred())/interf.MiB,
		m.TimeElapsed(),
		m.Throughput(),
		m.Requests())
}

//--------  HELPER  --------------------------------------------------------------------------------------------------//

// isActive reports whether a session is currently running.
func (m *Monitor) isActive() bool {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	return m.active
}

// record registers one successfully completed byte-range fetch and, if
// verbose, prints the live console lines for it. The first record of a session
// is preceded by a line identifying the fetched object.
func (m *Monitor) record(f interf.RangeFetcher, start, end int64, elapsed time.Duration) {
	m.mux.Lock() // LOCK
	defer m.mux.Unlock()

	if !m.active {
		return
	}

	if m.verbose {
		if len(m.records) == 0 {
			m.printf("Reading %s (%.2f MB)", f.Path(), float64(f.Size())/interf.MiB)
		}
		m.printf("FETCH bytes %d-%d (%.2f MB/s)", start, end, computeThroughput(end-start, elapsed.Seconds()))
	}

	m.records = append(m.records, FetchRecord{Start: start, End: end, Elapsed: elapsed})
}

// printf writes one bold colored line to the output stream.
func (m *Monitor) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(m.out, colorBold+format+colorReset+"\n", a...)
}

// computeThroughput converts a byte count and a duration in seconds to MB/s.
// An elapsed time of zero (or less) yields positive infinity.
func computeThroughput(bytesTransferred int64, timeElapsed float64) float64 {
	if timeElapsed <= 0 {
		return math.Inf(1)
	}
	return float64(bytesTransferred) / (timeElapsed * interf.MiB)
}
