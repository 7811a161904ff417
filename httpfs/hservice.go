package httpfs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
)

// packageName is the text for debug logging
const packageName = "httpfs"

// interface check: interf.Service
var _ interf.Service = (*_HTTPService)(nil)

// @see interf.Service
//
// HTTPService provides web resources as a read-only storage. The file id is
// the URL. Byte-range access uses HTTP Range requests, so the web server must
// support them (most static file servers and CDNs do).
type _HTTPService struct {
	client   *http.Client
	urls     []string
	debugLvl uint8
	mux      *sync.RWMutex
	files    interf.Files
}

// NewHTTPService return the HTTP implementation of interf.Service.
// The given URLs form the file index and are resolved (size, modification
// time) by Update(). A nil client falls back to http.DefaultClient.
func NewHTTPService(client *http.Client, urls []string, debugLvl uint8) interf.Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &_HTTPService{
		client:   client,
		urls:     urls,
		debugLvl: debugLvl,
		mux:      new(sync.RWMutex),
		files:    impl.NewFiles(nil), // empty list, set by Update()
	}
}

//-----------  IMPLEMENTATION:  @see interf.Service  -----------------------------------------------------------------//

func (s *_HTTPService) Update() error {
	byId := make(map[string]interf.File)

	for _, u := range s.urls {
		size, modTime, err := s.resolve(u)
		if err != nil {
			log.Printf("ERROR: %s/Update: can't resolve '%s': %v", packageName, u, err)
			return err
		}
		byId[u] = impl.NewFile(u, urlBase(u), modTime, size)
	}

	s.mux.Lock() // WRITE Lock
	defer s.mux.Unlock()

	s.files = impl.NewFiles(byId)
	return nil
}

func (s *_HTTPService) Files() interf.Files {
	s.mux.RLock() // READ Lock
	defer s.mux.RUnlock()

	return s.files
}

func (s *_HTTPService) Save(_ string, _ io.Reader, _ int64) (interf.File, error) {
	return nil, errors.New("httpfs is a read-only storage")
}

func (s *_HTTPService) Trash(_ interf.File) error {
	return errors.New("httpfs is a read-only storage")
}

func (s *_HTTPService) Reader(file interf.File, off int64) (io.ReadCloser, error) {
	return s.LimitedReader(file, off, interf.MaxFileSize)
}

func (s *_HTTPService) LimitedReader(file interf.File, off int64, n int64) (io.ReadCloser, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}
	if n < 1 {
		// n = 0 -> no data requested -> return nothing
		return io.NopCloser(strings.NewReader("")), nil
	}

	body, status, err := s.get(file.Id(), off, off+n-1)
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK && off > 0 {
		// the server ignored the Range header and sent the whole resource
		if _, err := io.CopyN(io.Discard, body, off); err != nil {
			_ = body.Close()
			return nil, err
		}
	}
	return &_LimitedBody{Reader: io.LimitReader(body, n), inner: body}, nil
}

func (s *_HTTPService) Open(file interf.File) (interf.RangeFetcher, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}
	return &_HTTPFetcher{
		service: s,
		url:     file.Id(),
		size:    file.Size(),
	}, nil
}

//--------  HELPER  --------------------------------------------------------------------------------------------------//

// get issues a GET with 'Range: bytes=start-end' (both inclusive) and returns
// the open body. The caller must close the body. Accepted status codes are
// 206 (ranged) and 200 (server ignored the Range header).
func (s *_HTTPService) get(url string, start, end int64) (io.ReadCloser, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("httpfs/get: '%s' returned status %d", url, resp.StatusCode)
	}

	if s.debugLvl >= impl.DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/get: url=%s, start=%d, end=%d, status=%d", packageName, url, start, end, resp.StatusCode)
	}
	return resp.Body, resp.StatusCode, nil
}

// resolve determines size and modification time of a web resource.
// It tries a HEAD request first and falls back to a one-byte ranged GET
// (parsing the Content-Range header) for servers that reject HEAD.
func (s *_HTTPService) resolve(url string) (size int64, modTime int64, err error) {
	// try HEAD
	resp, err := s.client.Head(url)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusOK && resp.ContentLength >= 0 {
			return resp.ContentLength, parseLastModified(resp.Header), nil
		}
	}

	// fallback: one-byte ranged GET
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err = s.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Content-Range: bytes 0-0/12345
		cr := resp.Header.Get("Content-Range")
		i := strings.LastIndex(cr, "/")
		if i < 0 {
			return 0, 0, fmt.Errorf("httpfs/resolve: invalid Content-Range '%s'", cr)
		}
		size, err = strconv.ParseInt(cr[i+1:], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("httpfs/resolve: invalid Content-Range '%s': %v", cr, err)
		}
		return size, parseLastModified(resp.Header), nil

	case http.StatusOK:
		// the server ignored the Range header: the content length is the size
		if resp.ContentLength < 0 {
			return 0, 0, fmt.Errorf("httpfs/resolve: '%s' has no known size", url)
		}
		return resp.ContentLength, parseLastModified(resp.Header), nil

	default:
		return 0, 0, fmt.Errorf("httpfs/resolve: '%s' returned status %d", url, resp.StatusCode)
	}
}

// parseLastModified returns the Last-Modified header as unix time (0 if absent or invalid).
func parseLastModified(h http.Header) int64 {
	lm := h.Get("Last-Modified")
	if lm == "" {
		return 0
	}
	t, err := http.ParseTime(lm)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// urlBase returns the last path element of a URL for the file name.
func urlBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return raw
	}
	return path.Base(u.Path)
}

// ------------------------------------------------------------------------------------------------------------------ //

// _LimitedBody behaves like io.LimitedReader but closes the inner body.
type _LimitedBody struct {
	io.Reader
	inner io.Closer
}

func (l *_LimitedBody) Close() error {
	return l.inner.Close()
}
