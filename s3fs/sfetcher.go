package s3fs

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
	"github.com/minio/minio-go/v7"
)

// interface check: interf.RangeFetcher
var _ interf.RangeFetcher = (*_S3Fetcher)(nil)

// @see interf.RangeFetcher
//
// S3Fetcher provides byte-range access to one object. Every FetchRange call
// issues one ranged GetObject request.
type _S3Fetcher struct {
	service *_S3Service
	key     string
	size    int64

	_S3Get    uint64
	_S3GetErr uint64
}

func (r *_S3Fetcher) FetchRange(start, end int64) ([]byte, error) {
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

	// one ranged GET per fetch (SetRange bounds are inclusive)
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end-1); err != nil {
		return nil, err
	}

	atomic.AddUint64(&r._S3Get, 1)
	obj, err := r.service.client.GetObject(context.Background(), r.service.bucket, r.key, opts)
	if err != nil {
		atomic.AddUint64(&r._S3GetErr, 1)
		return nil, err
	}
	defer func() {
		_ = obj.Close()
	}()

	if r.service.debugLvl >= impl.DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/FetchRange: key=%s, start=%d, end=%d", packageName, r.key, start, end)
	}

	// read the payload
	buf := make([]byte, end-start)
	n, err := io.ReadFull(obj, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil // the range is clamped: a short payload is a valid result
	}
	if err != nil {
		atomic.AddUint64(&r._S3GetErr, 1)
		return nil, err
	}
	return buf[:n], nil
}

func (r *_S3Fetcher) Path() string {
	return r.service.bucket + "/" + r.key
}

func (r *_S3Fetcher) Size() int64 {
	return r.size
}

func (r *_S3Fetcher) Close() error {
	return nil // nothing to release, connections belong to the minio.Client
}

func (r *_S3Fetcher) Stat() map[string]uint64 {
	ret := map[string]uint64{
		"S3Get":    atomic.LoadUint64(&r._S3Get),
		"S3GetErr": atomic.LoadUint64(&r._S3GetErr),
	}

	// ignore zero values
	for k, v := range ret {
		if v == 0 {
			delete(ret, k)
		}
	}
	return ret
}
