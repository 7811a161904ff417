package interf

import (
	"io"
)

// Service is the central interface to access the storage.
type Service interface {
	ReaderService

	// Update the internal file index, which can be accessed with Files().
	// Only files in the configured root directory are processed.
	// Folders and sub-folders are ignored. This method can be very slow at the first call!
	// This method is thread-safe.
	Update() error

	// Files returns all available files.
	// This method is offline and does not trigger a connection to the storage.
	// The internal file index must be updated separately with Update().
	// This method is thread-safe.
	Files() Files

	// Save reads bytes from the io.Reader r and saves them in the storage.
	// The file name can exist multiple times and existing files with the same name are not overwritten.
	// The param max limits the read bytes (see io.LimitedReader). max=0 means read until EOF.
	// Return the new file id of the saved file (if successful).
	// Don't forget to call Update().
	// This method is thread-safe.
	Save(name string, r io.Reader, max int64) (file File, err error)

	// Trash moves a file (identified via the file id) to the trash.
	// Don't forget to call Update().
	// This method is thread-safe.
	Trash(file File) error

	// LimitedReader enables read access to a file identified by the file id,
	// but stops with EOF after n bytes. This method behaves like io.LimitedReader.
	// The connection must be closed manually with Close() after use.
	// This method is thread-safe.
	LimitedReader(file File, off int64, n int64) (io.ReadCloser, error)

	// Open returns a file handle for byte-range read access to the file.
	// The handle must be closed manually with Close() after use.
	// This method is thread-safe.
	Open(file File) (RangeFetcher, error)
}

// ReaderService is the sub-set of Service that opens sequential readers.
// It is the backbone interface for fetcher implementations that build random
// read access on top of sequential connections (@see impl.NewStreamFetcher).
type ReaderService interface {

	// Reader enables read access to a file identified by the file id.
	// The connection must be closed manually with Close() after use.
	// This method is thread-safe.
	Reader(file File, off int64) (io.ReadCloser, error)
}
