package monitor

import "time"

// FetchRecord is one logged observation of a single intercepted range fetch.
// FetchRecord is an immutable object: it is created exactly once, at the moment
// the intercepted call returns successfully, and never changed after that.
type FetchRecord struct {
	Start   int64         // first byte offset of the requested range
	End     int64         // end of the requested range (exclusive), End >= Start
	Elapsed time.Duration // time the underlying fetch took, >= 0
}

// Bytes returns the length of the requested range (End - Start).
// The requested range is counted, not the returned payload: a fetch clamped at
// EOF still counts with its full requested length.
func (r FetchRecord) Bytes() int64 {
	return r.End - r.Start
}
