package impl_test

import (
	"bytes"
	"io"
	"log"
	"sync"
	"testing"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
)

func TestNewStreamFetcher(t *testing.T) {
	f, s, _ := initTestFileAndTestService(t)

	// test with invalid file and invalid service
	if _, err := impl.NewStreamFetcher(nil, s, nil, impl.DebugHigh); err == nil {
		t.Fatal("no error with invalid file")
	}
	if _, err := impl.NewStreamFetcher(f, nil, nil, impl.DebugHigh); err == nil {
		t.Fatal("no error with invalid service")
	}

	// test without cache
	_, err := impl.NewStreamFetcher(f, s, nil, impl.DebugOff)
	if err != nil {
		t.Fatal(err)
	}

	// test with cache
	c := impl.NewCache(1)
	_, err = impl.NewStreamFetcher(f, s, c, impl.DebugOff)
	if err != nil {
		t.Fatal(err)
	}
}

func Test_StreamFetcher_FetchRange__without_cache(t *testing.T) {
	f, s, _ := initTestFileAndTestService(t)
	ref := readWholeFile(t, s, f)

	// ----------------- test without cache (for more internal tests) ---------------------------
	r, err := impl.NewStreamFetcher(f, s, nil, impl.DebugOff)
	if err != nil {
		t.Fatal(err)
	}
	ts := &testStat{t: t, fh: r}

	// test Path() and Size()
	if r.Path() != f.Name() || r.Size() != f.Size() {
		t.Fatalf("wrong Path() or Size(): %s, %d", r.Path(), r.Size())
	}

	// test FETCH: invalid ranges ---------------------------------------------------------------
	if b, err := r.FetchRange(-1, 10); b != nil || err == nil {
		t.Fatalf("no error: %v (b=%v)", err, b)
	}
	if b, err := r.FetchRange(10, 5); b != nil || err == nil {
		t.Fatalf("no error: %v (b=%v)", err, b)
	}

	// test FETCH: empty range (= zero data request)
	if b, err := r.FetchRange(7, 7); len(b) != 0 || err != nil {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchNew++ // NewStreamFetcher() is called    !!!  invalid or empty ranges don't count !!!
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: request 1 byte
	if b, err := r.FetchRange(0, 1); err != nil || !bytes.Equal(b, ref[0:1]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // one request: FetchRange()
	ts.ConnAdd++  // no open connection (add one new)
	ts.BlockRet++ // req in one new block
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: request next byte (same block; no cache!)
	if b, err := r.FetchRange(1, 2); err != nil || !bytes.Equal(b, ref[1:2]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.ConnAdd++  // the open connection can't read the old block again
	ts.BlockRet++ // we have no cache -> we have to read the block again
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: request next BLOCK (use open connection)
	if b, err := r.FetchRange(interf.BlockSize, interf.BlockSize+1); err != nil || !bytes.Equal(b, ref[interf.BlockSize:interf.BlockSize+1]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.ConnBest++ // reuse open connection for next block
	ts.BlockRet++ // read next block
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: skip block 2 and block 3 and read block 4  (reuse open connection)
	if b, err := r.FetchRange(4*interf.BlockSize, 4*interf.BlockSize+1); err != nil || !bytes.Equal(b, ref[4*interf.BlockSize:4*interf.BlockSize+1]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++  // request: FetchRange()
	ts.ConnBest++  // reuse open connection for block
	ts.BlockSkip++ // skip block 2
	ts.BlockSkip++ // skip block 3
	ts.BlockRet++  // read block 4
	ts.Check()     //--------------------------------------------------------------------------------

	// test FETCH: read bytes from two blocks
	start := int64(interf.BlockSize / 2)
	end := start + interf.BlockSize
	if b, err := r.FetchRange(start, end); err != nil || !bytes.Equal(b, ref[start:end]) {
		t.Fatalf("ERROR: %v (b=%d bytes)", err, len(b))
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.ConnAdd++  // no connection can read block 0 again
	ts.BlockRet++ // read first block
	ts.ConnBest++ // reuse the new connection for the next block
	ts.BlockRet++ // read second block
	ts.Check()    //--------------------------------------------------------------------------------

	// test Close()
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	// CHECK internal activities
	ts.FetchClosing++ // Close() is called
	ts.FetchClose++   // close connection 1
	ts.FetchClose++   // close connection 2
	ts.FetchClose++   // close connection 3
	ts.Check()        //--------------------------------------------------------------------------------

	// PRINT STATS
	log.Printf("%#v", r.Stat())
}

func Test_StreamFetcher_FetchRange__with_cache(t *testing.T) {
	f, s, _ := initTestFileAndTestService(t)
	ref := readWholeFile(t, s, f)
	c := impl.NewCache(1)

	r, err := impl.NewStreamFetcher(f, s, c, impl.DebugOff)
	if err != nil {
		t.Fatal(err)
	}
	ts := &testStat{t: t, fh: r}

	// FETCH: request second byte (block 0) -----------------------------------------------------
	if b, err := r.FetchRange(1, 2); err != nil || !bytes.Equal(b, ref[1:2]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchNew++ // init
	ts.FetchReq++ // one request: FetchRange()
	ts.CacheMis++ // ask cache first
	ts.ConnAdd++  // no open connection (add one new)
	ts.BlockRet++ // req in one new block
	ts.CacheSet++ // save block
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: request the same byte (same block; = read back)
	if b, err := r.FetchRange(1, 2); err != nil || !bytes.Equal(b, ref[1:2]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.CacheHit++ // use block from cache
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: read back within the cached block
	if b, err := r.FetchRange(0, 1); err != nil || !bytes.Equal(b, ref[0:1]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.CacheHit++ // use block from cache
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: jump (and save skip-blocks)
	if b, err := r.FetchRange(3*interf.BlockSize, 3*interf.BlockSize+1); err != nil || !bytes.Equal(b, ref[3*interf.BlockSize:3*interf.BlockSize+1]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++  // request: FetchRange()
	ts.CacheMis++  // new block
	ts.ConnBest++  // reuse open connection
	ts.BlockSkip++ // skip block 1
	ts.CacheSet++  // but save the block in the cache
	ts.BlockSkip++ // skip block 2
	ts.CacheSet++  // but save the block in the cache
	ts.BlockRet++  // read block 3
	ts.CacheSet++  // and save the block in the cache
	ts.Check()     //--------------------------------------------------------------------------------

	// test FETCH: a skip-saved block is a cache hit now
	if b, err := r.FetchRange(interf.BlockSize, interf.BlockSize+2); err != nil || !bytes.Equal(b, ref[interf.BlockSize:interf.BlockSize+2]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchReq++ // request: FetchRange()
	ts.CacheHit++ // block 1 was saved while skipping
	ts.Check()    //--------------------------------------------------------------------------------

	// PRINT STATS
	log.Printf("%#v", r.Stat())
}

func Test_StreamFetcher_FetchRange__eof(t *testing.T) {
	f, s, _ := initTestFileAndTestService(t)
	ref := readWholeFile(t, s, f)
	size := f.Size()

	r, err := impl.NewStreamFetcher(f, s, nil, impl.DebugOff)
	if err != nil {
		t.Fatal(err)
	}
	ts := &testStat{t: t, fh: r}

	// test FETCH: request over EOF (clamped: short payload, no error)
	if b, err := r.FetchRange(size-1, size+100); err != nil || !bytes.Equal(b, ref[size-1:]) {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities
	ts.FetchNew++ // init
	ts.FetchReq++ // request: FetchRange()
	ts.ConnAdd++  // no open connection (add one new)
	ts.BlockRet++ // read the last (partial) block
	ts.Check()    //--------------------------------------------------------------------------------

	// test FETCH: request behind EOF (= zero data request)
	if b, err := r.FetchRange(size, size+10); len(b) != 0 || err != nil {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}
	if b, err := r.FetchRange(size+5, size+7); len(b) != 0 || err != nil {
		t.Fatalf("ERROR: %v (b=%v)", err, b)
	}

	// CHECK internal activities (nothing happened)
	ts.Check() //--------------------------------------------------------------------------------

	// test FETCH: the whole file in one request
	b, err := r.FetchRange(0, size)
	if err != nil || !bytes.Equal(b, ref) {
		t.Fatalf("ERROR: %v (b=%d bytes)", err, len(b))
	}

	// CHECK internal activities
	blocks := uint64(size/interf.BlockSize) + 1
	ts.FetchReq++         // request: FetchRange()
	ts.ConnAdd++          // the open connection can't read back
	ts.BlockRet += blocks // all blocks incl. the last partial one
	ts.Check()            //--------------------------------------------------------------------------------

	// PRINT STATS
	log.Printf("%#v", r.Stat())
}

//--------------------------------------------------------------------------------------------------------------------//

func TestRace_StreamFetcher(t *testing.T) {
	f, s, _ := initTestFileAndTestService(t)

	r, err := impl.NewStreamFetcher(f, s, nil, impl.DebugOff) // test without cache for more inner code tests
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for n := 0; n < 5; n++ {
		go func() {
			//------------------------------
			for i := 0; i < 1000; i++ {
				b, err1 := r.FetchRange(int64(i), int64(i+1))
				err2 := r.Close()
				r.Stat()
				if err1 != nil || err2 != nil || len(b) != 1 {
					t.Fail()
				}
			}
			//------------------------------
			wg.Done()
		}()
	}
	wg.Wait()
}

//--------  HELPER  --------------------------------------------------------------------------------------------------//

func initTestFileAndTestService(t *testing.T) (interf.File, interf.Service, []interf.File) {
	s := impl.NewRamService(nil, impl.DebugOff)
	if err := impl.InitDemo(s); err != nil {
		t.Fatal(err)
	}
	f, err := s.Files().ByName("big-test-file-4.dat")
	if err != nil {
		t.Fatal(err)
	}
	f2, err := s.Files().ByName("small-test-file-2.dat")
	if err != nil {
		t.Fatal(err)
	}
	return f, s, []interf.File{f, f2}
}

// readWholeFile reads the full file content over the sequential reader.
// The returned bytes are the reference data for all range checks.
func readWholeFile(t *testing.T, s interf.Service, f interf.File) []byte {
	r, err := s.Reader(f, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	ref, err := io.ReadAll(r)
	if err != nil || int64(len(ref)) != f.Size() {
		t.Fatalf("ERROR: %v (len=%d)", err, len(ref))
	}
	return ref
}

type testStat struct {
	t  *testing.T
	fh interf.RangeFetcher

	CacheHit     uint64
	CacheMis     uint64
	CacheSet     uint64
	FetchNew     uint64
	FetchClosing uint64
	FetchClose   uint64
	FetchReq     uint64
	FetchRetErr  uint64
	BlockSkip    uint64
	BlockRet     uint64
	ConnBest     uint64
	ConnAdd      uint64
	ConnAddErr   uint64
}

func (ts *testStat) Check() {
	m := ts.fh.Stat()

	if m["CacheHit"] != ts.CacheHit {
		ts.t.Errorf("CacheHit: should=%d, is=%d", ts.CacheHit, m["CacheHit"])
	}
	if m["CacheMis"] != ts.CacheMis {
		ts.t.Errorf("CacheMis: should=%d, is=%d", ts.CacheMis, m["CacheMis"])
	}
	if m["CacheSet"] != ts.CacheSet {
		ts.t.Errorf("CacheSet: should=%d, is=%d", ts.CacheSet, m["CacheSet"])
	}
	if m["FetchNew"] != ts.FetchNew {
		ts.t.Errorf("FetchNew: should=%d, is=%d", ts.FetchNew, m["FetchNew"])
	}
	if m["FetchClosing"] != ts.FetchClosing {
		ts.t.Errorf("FetchClosing: should=%d, is=%d", ts.FetchClosing, m["FetchClosing"])
	}
	if m["FetchClose"] != ts.FetchClose {
		ts.t.Errorf("FetchClose: should=%d, is=%d", ts.FetchClose, m["FetchClose"])
	}
	if m["FetchReq"] != ts.FetchReq {
		ts.t.Errorf("FetchReq: should=%d, is=%d", ts.FetchReq, m["FetchReq"])
	}
	if m["FetchRetErr"] != ts.FetchRetErr {
		ts.t.Errorf("FetchRetErr: should=%d, is=%d", ts.FetchRetErr, m["FetchRetErr"])
	}
	if m["BlockSkip"] != ts.BlockSkip {
		ts.t.Errorf("BlockSkip: should=%d, is=%d", ts.BlockSkip, m["BlockSkip"])
	}
	if m["BlockRet"] != ts.BlockRet {
		ts.t.Errorf("BlockRet: should=%d, is=%d", ts.BlockRet, m["BlockRet"])
	}
	if m["ConnBest"] != ts.ConnBest {
		ts.t.Errorf("ConnBest: should=%d, is=%d", ts.ConnBest, m["ConnBest"])
	}
	if m["ConnAdd"] != ts.ConnAdd {
		ts.t.Errorf("ConnAdd: should=%d, is=%d", ts.ConnAdd, m["ConnAdd"])
	}
	if m["ConnAddErr"] != ts.ConnAddErr {
		ts.t.Errorf("ConnAddErr: should=%d, is=%d", ts.ConnAddErr, m["ConnAddErr"])
	}
}
