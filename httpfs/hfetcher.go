package httpfs

import (
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// interface check: interf.RangeFetcher
var _ interf.RangeFetcher = (*_HTTPFetcher)(nil)

// @see interf.RangeFetcher
//
// HTTPFetcher provides byte-range access to a web resource. Every FetchRange
// call issues one HTTP GET with a Range header; there is no connection state
// to keep beyond the client's own keep-alive pool.
type _HTTPFetcher struct {
	service *_HTTPService
	url     string
	size    int64

	_HTTPGet    uint64
	_HTTPGetErr uint64
}

func (r *_HTTPFetcher) FetchRange(start, end int64) ([]byte, error) {
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

	// one ranged GET per fetch (Range header bounds are inclusive)
	atomic.AddUint64(&r._HTTPGet, 1)
	body, status, err := r.service.get(r.url, start, end-1)
	if err != nil {
		atomic.AddUint64(&r._HTTPGetErr, 1)
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}()

	if status == http.StatusOK && start > 0 {
		// the server ignored the Range header and sent the whole resource
		if _, err := io.CopyN(io.Discard, body, start); err != nil {
			atomic.AddUint64(&r._HTTPGetErr, 1)
			return nil, err
		}
	}

	// read the payload
	buf := make([]byte, end-start)
	n, err := io.ReadFull(body, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil // the range is clamped: a short payload is a valid result
	}
	if err != nil {
		atomic.AddUint64(&r._HTTPGetErr, 1)
		return nil, err
	}
	return buf[:n], nil
}

func (r *_HTTPFetcher) Path() string {
	return r.url
}

func (r *_HTTPFetcher) Size() int64 {
	return r.size
}

func (r *_HTTPFetcher) Close() error {
	return nil // nothing to release, connections belong to the http.Client
}

func (r *_HTTPFetcher) Stat() map[string]uint64 {
	ret := map[string]uint64{
		"HTTPGet":    atomic.LoadUint64(&r._HTTPGet),
		"HTTPGetErr": atomic.LoadUint64(&r._HTTPGetErr),
	}

	// ignore zero values
	for k, v := range ret {
		if v == 0 {
			delete(ret, k)
		}
	}
	return ret
}
