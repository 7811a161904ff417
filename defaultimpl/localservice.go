package impl

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// interface check: interf.Service
var _ interf.Service = (*_LocalService)(nil)

// @see interf.Service
//
// LocalService provides the files of a local directory.
// Folders and sub-folders are ignored.
type _LocalService struct {
	root     string
	debugLvl uint8
	mux      *sync.RWMutex
	files    interf.Files
}

// NewLocalService return the local filesystem implementation of interf.Service.
// The root directory must exist. The file id is the file name relative to root.
func NewLocalService(root string, debugLvl uint8) interf.Service {
	return &_LocalService{
		root:     root,
		debugLvl: debugLvl,
		mux:      new(sync.RWMutex),
		files:    NewFiles(nil), // empty list, set by Update()
	}
}

//-----------  IMPLEMENTATION:  @see interf.Service  -----------------------------------------------------------------//

func (s *_LocalService) Update() error {
	// read the root dir (files only)
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}

	byId := make(map[string]interf.File)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // file vanished between ReadDir and Info
		}
		byId[e.Name()] = NewFile(e.Name(), e.Name(), info.ModTime().Unix(), info.Size())
	}

	s.mux.Lock() // WRITE Lock
	defer s.mux.Unlock()

	s.files = NewFiles(byId)
	return nil
}

func (s *_LocalService) Files() interf.Files {
	s.mux.RLock() // READ Lock
	defer s.mux.RUnlock()

	return s.files
}

func (s *_LocalService) Save(name string, r io.Reader, max int64) (file interf.File, err error) {
	// check input
	name = strings.TrimSpace(filepath.Base(name))
	if len(name) == 0 || name == "." || name == string(filepath.Separator) {
		return nil, errors.New("invalid name")
	}
	if r == nil {
		return nil, errors.New("nil reader")
	}

	// limit reader
	if max > 0 {
		r = io.LimitReader(r, max)
	}

	// write file (a local filesystem can't hold duplicate names: existing files are replaced)
	path := filepath.Join(s.root, name)
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	_, err = io.Copy(fh, r)
	if errClose := fh.Close(); err == nil {
		err = errClose
	}
	if err != nil {
		return nil, err
	}

	// read back the final attributes
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return NewFile(name, name, info.ModTime().Unix(), info.Size()), nil
}

func (s *_LocalService) Trash(file interf.File) error {
	if file == nil {
		return errors.New("nil file")
	}
	return os.Remove(filepath.Join(s.root, file.Id()))
}

func (s *_LocalService) Reader(file interf.File, off int64) (io.ReadCloser, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}

	fh, err := os.Open(filepath.Join(s.root, file.Id()))
	if err != nil {
		return nil, err
	}

	if off > 0 {
		if _, err := fh.Seek(off, io.SeekStart); err != nil {
			_ = fh.Close()
			return nil, err
		}
	}
	return fh, nil
}

func (s *_LocalService) LimitedReader(file interf.File, off int64, n int64) (io.ReadCloser, error) {
	r, err := s.Reader(file, off)
	if err != nil {
		return nil, err
	}

	if n > 0 {
		r = &_LimitedReadCloser{Reader: io.LimitReader(r, n), inner: r}
	}
	return r, nil
}

func (s *_LocalService) Open(file interf.File) (interf.RangeFetcher, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}

	path := filepath.Join(s.root, file.Id())
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &_LocalFetcher{
		f:    fh,
		path: path,
		size: file.Size(),
	}, nil
}

// ------------------------------------------------------------------------------------------------------------------ //

// interface check: interf.RangeFetcher
var _ interf.RangeFetcher = (*_LocalFetcher)(nil)

// @see interf.RangeFetcher
//
// LocalFetcher provides byte-range access to a local file via os.File.ReadAt.
// Local files allow real random access, so no cache and no connection reuse is needed.
type _LocalFetcher struct {
	f    *os.File
	path string
	size int64

	_ReadAt    uint64
	_ReadAtErr uint64
}

func (r *_LocalFetcher) FetchRange(start, end int64) ([]byte, error) {
	// check range
	if start < 0 || end < start {
		return nil, errors.New("invalid byte range")
	}

	// clamp at EOF (a request beyond EOF returns a shorter payload)
	if end > r.size {
		end = r.size
	}
	if start >= end {
		return []byte{}, nil // read nothing -> return nothing
	}

	// read
	buf := make([]byte, end-start)
	n, err := r.f.ReadAt(buf, start)

	atomic.AddUint64(&r._ReadAt, 1)
	if err == io.EOF {
		err = nil // the range is clamped: a short payload is a valid result
	}
	if err != nil {
		atomic.AddUint64(&r._ReadAtErr, 1)
		return nil, err
	}
	return buf[:n], nil
}

func (r *_LocalFetcher) Path() string {
	return r.path
}

func (r *_LocalFetcher) Size() int64 {
	return r.size
}

func (r *_LocalFetcher) Close() error {
	return r.f.Close()
}

func (r *_LocalFetcher) Stat() map[string]uint64 {
	ret := map[string]uint64{
		"ReadAt":    atomic.LoadUint64(&r._ReadAt),
		"ReadAtErr": atomic.LoadUint64(&r._ReadAtErr),
	}

	// ignore zero values
	for k, v := range ret {
		if v == 0 {
			delete(ret, k)
		}
	}
	return ret
}

// ------------------------------------------------------------------------------------------------------------------ //

// _LimitedReadCloser behaves like io.LimitedReader but closes the inner file.
type _LimitedReadCloser struct {
	io.Reader
	inner io.Closer
}

func (l *_LimitedReadCloser) Close() error {
	return l.inner.Close()
}
