package s3fs_test

import (
	"io"
	"strings"
	"testing"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
	"github.com/barentsen/fetchmon/s3fs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// initTestS3Service creates a service without a reachable endpoint.
// Only the offline code paths can be tested here, everything else
// needs a S3 account (or a local MinIO server).
func initTestS3Service(t *testing.T) interf.Service {
	client, err := minio.New("s3.amazonaws.com", &minio.Options{
		Creds:  credentials.NewStaticV4("test", "test", ""),
		Secure: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s3fs.NewS3Service(client, "test-bucket", "prefix", impl.DebugOff)
}

func TestNewS3Service(t *testing.T) {
	s := initTestS3Service(t)

	// no Update() -> empty file index
	if len(s.Files().All()) != 0 {
		t.Errorf("wrong Files()")
	}

	// test invalid input
	if _, err := s.Save("", strings.NewReader("x"), 0); err == nil {
		t.Errorf("no error")
	}
	if _, err := s.Save("x.dat", nil, 0); err == nil {
		t.Errorf("no error")
	}
	if err := s.Trash(nil); err == nil {
		t.Errorf("no error")
	}
	if _, err := s.Reader(nil, 0); err == nil {
		t.Errorf("no error")
	}
	if _, err := s.LimitedReader(nil, 0, 1); err == nil {
		t.Errorf("no error")
	}
	if _, err := s.Open(nil); err == nil {
		t.Errorf("no error")
	}

	// test LimitedReader() with n=0 (= zero data request, no connection)
	f := impl.NewFile("prefix/test.dat", "test.dat", 12345, 100)
	r, err := s.LimitedReader(f, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil || len(b) != 0 {
		t.Fatalf("ERROR: %v (len=%d)", err, len(b))
	}
}

func TestS3Fetcher(t *testing.T) {
	s := initTestS3Service(t)
	f := impl.NewFile("prefix/test.dat", "test.dat", 12345, 100)

	fh, err := s.Open(f)
	if err != nil {
		t.Fatal(err)
	}

	// test Path() and Size()
	if fh.Path() != "test-bucket/prefix/test.dat" || fh.Size() != 100 {
		t.Fatalf("wrong Path() or Size(): %s, %d", fh.Path(), fh.Size())
	}

	// test FETCH: invalid ranges (no connection)
	if b, err := fh.FetchRange(-1, 10); b != nil || err == nil {
		t.Fatalf("no error: %v (b=%v)", err, b)
	}
	if b, err := fh.FetchRange(10, 5); b != nil || err == nil {
		t.Fatalf("no error: %v (b=%v)", err, b)
	}

	// test FETCH: empty range and range behind EOF (no connection)
	if b, err := fh.FetchRange(7, 7); len(b) != 0 || err != nil {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}
	if b, err := fh.FetchRange(110, 120); len(b) != 0 || err != nil {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// no request was made
	if st := fh.Stat(); len(st) != 0 {
		t.Fatalf("wrong Stat(): %v", st)
	}

	// test Close()
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}
}
