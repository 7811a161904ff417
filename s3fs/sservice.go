package s3fs

import (
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
	"github.com/minio/minio-go/v7"
)

// packageName is the text for debug logging
const packageName = "s3fs"

// interface check: interf.Service
var _ interf.Service = (*_S3Service)(nil)

// @see interf.Service
//
// S3Service provides the objects of a S3 compatible bucket (AWS S3, MinIO,
// Ceph, ...) as storage. The file id is the object key. Byte-range access
// uses ranged GetObject requests.
type _S3Service struct {
	client   *minio.Client
	bucket   string
	prefix   string
	debugLvl uint8
	mux      *sync.RWMutex
	files    interf.Files
}

// NewS3Service return the S3 implementation of interf.Service.
// bucket is the bucket name, prefix is prepended to all keys (can be empty).
func NewS3Service(client *minio.Client, bucket, prefix string, debugLvl uint8) interf.Service {
	return &_S3Service{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		debugLvl: debugLvl,
		mux:      new(sync.RWMutex),
		files:    impl.NewFiles(nil), // empty list, set by Update()
	}
}

//-----------  IMPLEMENTATION:  @see interf.Service  -----------------------------------------------------------------//

func (s *_S3Service) Update() error {
	ctx := context.Background()
	byId := make(map[string]interf.File)

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			log.Printf("ERROR: %s/Update: can't list bucket '%s': %v", packageName, s.bucket, obj.Err)
			return obj.Err
		}
		byId[obj.Key] = impl.NewFile(obj.Key, path.Base(obj.Key), obj.LastModified.Unix(), obj.Size)
	}

	s.mux.Lock() // WRITE Lock
	defer s.mux.Unlock()

	s.files = impl.NewFiles(byId)
	return nil
}

func (s *_S3Service) Files() interf.Files {
	s.mux.RLock() // READ Lock
	defer s.mux.RUnlock()

	return s.files
}

func (s *_S3Service) Save(name string, r io.Reader, max int64) (interf.File, error) {
	// check input
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return nil, errors.New("empty name")
	}
	if r == nil {
		return nil, errors.New("nil reader")
	}

	// limit reader
	size := int64(-1) // stream with unknown size
	if max > 0 {
		r = io.LimitReader(r, max)
	}

	// upload (an existing object with the same key is replaced)
	key := s.key(name)
	info, err := s.client.PutObject(context.Background(), s.bucket, key, r, size, minio.PutObjectOptions{})
	if err != nil {
		return nil, err
	}

	return impl.NewFile(info.Key, name, time.Now().Unix(), info.Size), nil
}

func (s *_S3Service) Trash(file interf.File) error {
	if file == nil {
		return errors.New("nil file")
	}
	return s.client.RemoveObject(context.Background(), s.bucket, file.Id(), minio.RemoveObjectOptions{})
}

func (s *_S3Service) Reader(file interf.File, off int64) (io.ReadCloser, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}

	opts := minio.GetObjectOptions{}
	if off > 0 {
		if err := opts.SetRange(off, 0); err != nil { // bytes=off- (open end)
			return nil, err
		}
	}

	obj, err := s.client.GetObject(context.Background(), s.bucket, file.Id(), opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *_S3Service) LimitedReader(file interf.File, off int64, n int64) (io.ReadCloser, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}
	if n < 1 {
		// n = 0 -> no data requested -> return nothing
		return io.NopCloser(strings.NewReader("")), nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+n-1); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(context.Background(), s.bucket, file.Id(), opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *_S3Service) Open(file interf.File) (interf.RangeFetcher, error) {
	if file == nil {
		return nil, errors.New("nil file")
	}
	return &_S3Fetcher{
		service: s,
		key:     file.Id(),
		size:    file.Size(),
	}, nil
}

//--------  HELPER  --------------------------------------------------------------------------------------------------//

// key converts a file name into an object key with the configured prefix.
func (s *_S3Service) key(name string) string {
	return path.Join(s.prefix, name)
}
