package monitor

import (
	"io"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// interface check: interf.Service
var _ interf.Service = (*_MonitoredService)(nil)

// Service wraps a whole storage service: every file handle returned by Open is
// wrapped with the instrumented decorator (@see Monitor.Fetcher). All other
// service operations are delegated unchanged. This is the comfortable way to
// put an entire backend under observation.
func (m *Monitor) Service(s interf.Service) interf.Service {
	return &_MonitoredService{
		inner: s,
		mon:   m,
	}
}

// @see interf.Service
type _MonitoredService struct {
	inner interf.Service
	mon   *Monitor
}

func (s *_MonitoredService) Update() error {
	return s.inner.Update()
}

func (s *_MonitoredService) Files() interf.Files {
	return s.inner.Files()
}

func (s *_MonitoredService) Save(name string, r io.Reader, max int64) (interf.File, error) {
	return s.inner.Save(name, r, max)
}

func (s *_MonitoredService) Trash(file interf.File) error {
	return s.inner.Trash(file)
}

func (s *_MonitoredService) Reader(file interf.File, off int64) (io.ReadCloser, error) {
	return s.inner.Reader(file, off)
}

func (s *_MonitoredService) LimitedReader(file interf.File, off int64, n int64) (io.ReadCloser, error) {
	return s.inner.LimitedReader(file, off, n)
}

// Open returns the wrapped file handle.
func (s *_MonitoredService) Open(file interf.File) (interf.RangeFetcher, error) {
	f, err := s.inner.Open(file)
	if err != nil {
		return nil, err
	}
	return s.mon.Fetcher(f), nil
}
