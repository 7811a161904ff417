package interf

import "io"

// RangeFetcher is the read model of an open file handle: all data access goes
// through a single method that downloads one byte range. Every backend of this
// module (local, ram, http, s3, gdrive) expresses its file objects as a
// RangeFetcher, which makes the fetch behavior of a backend observable by
// wrapping this one method (@see package monitor).
//
// FetchRange returns the payload for the half-open byte range [start, end).
// The range is clamped at the end of the file: a request beyond EOF returns a
// shorter (possibly empty) payload and NO error. A request with start < 0 or
// end < start is invalid and returns an error.
//
// Clients of FetchRange can execute parallel calls on the same handle.
type RangeFetcher interface {
	io.Closer // Close() error

	// FetchRange downloads the byte range [start, end) from the underlying storage.
	// The returned slice is owned by the caller.
	// This method is thread-safe.
	FetchRange(start, end int64) ([]byte, error)

	// Path identifies the underlying object for humans (file path, URL or object key).
	// This method is thread-safe.
	Path() string

	// Size returns the total size of the underlying object in bytes.
	// This method is thread-safe.
	Size() int64

	// Stat returns the number of times internal processes have been run since initialization.
	// This method is relevant for testing and debugging purposes.
	// The KEY is the internal process, the VALUE is the count.
	Stat() map[string]uint64
}
