package impl

import (
	"errors"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	interf "github.com/barentsen/fetchmon/interfaces"
	"github.com/oxtoacart/bpool"
)

// interface check: interf.RangeFetcher
var _ interf.RangeFetcher = (*_StreamFetcher)(nil)

// @see interf.RangeFetcher
//
// StreamFetcher provides byte-range access to a file whose storage only offers
// sequential readers. A cache can be used internally for random read access.
// It may also be necessary to open several internal connections to the storage.
type _StreamFetcher struct {
	mux   *sync.Mutex   // protect 'inner'
	inner []*_Conn      // open connections to the file (backbone)
	stat  *_FetcherStat // collects statistical data about internal processes

	file    interf.File          // for new connections
	service interf.ReaderService // storage Service (for new connections)
	cache   interf.Cache         // for caching blocks, can be nil !
	pool    *bpool.BytePool      // the byte pool avoids allocating memory
}

// NewStreamFetcher creates a new interf.RangeFetcher object for byte-range read access to the file.
// No connections are made before the first call of FetchRange().
// Is cache = nil, the cache is disabled.
func NewStreamFetcher(file interf.File, service interf.ReaderService, cache interf.Cache, debugLvl uint8) (interf.RangeFetcher, error) {
	// check input
	// the cache can be nil!
	if file == nil || service == nil {
		return nil, errors.New("can't create new StreamFetcher with file=nil or service=nil")
	}

	// fetcher statistic
	stat := &_FetcherStat{
		debugLvl:    debugLvl, // enable debug logging
		packageName: "impl",   // text for debug logging
	}

	// use byte pool from cache
	// or create a small pool (cache == nil)
	var pool *bpool.BytePool
	if cache != nil {
		pool = cache.Pool()
	} else {
		pool = bpool.NewBytePool(25, interf.BlockSize)
	}

	// return new StreamFetcher
	stat.FetchNew(file.Id(), cache != nil) // DEBUG
	return &_StreamFetcher{
		mux:   new(sync.Mutex),
		inner: make([]*_Conn, interf.MaxReadersPerFile),
		stat:  stat,

		file:    file,
		service: service,
		cache:   cache,
		pool:    pool,
	}, nil
}

// @see interf.RangeFetcher
func (r *_StreamFetcher) Close() error {
	r.mux.Lock() // LOCK
	defer r.mux.Unlock()

	r.stat.FetchClosing(r.file.Id()) // DEBUG
	if r.inner != nil {
		for i, v := range r.inner {
			if v != nil {
				r.stat.FetchClose(r.file.Id(), i, v.c != nil) // DEBUG
				_ = v.Close()
				r.inner[i] = nil
			}
		}
	}

	r.stat.PrintStatAfterClose(r.file.Id()) // DEBUG
	return nil
}

// @see interf.RangeFetcher
func (r *_StreamFetcher) FetchRange(start, end int64) ([]byte, error) {
	// check range
	if start < 0 || end < start {
		return nil, errors.New("invalid byte range")
	}

	// clamp at EOF (a request beyond EOF returns a shorter payload)
	if size := r.file.Size(); end > size {
		end = size
	}
	if start >= end {
		return []byte{}, nil // read nothing -> return nothing
	}

	// buffer from pool
	buf := r.pool.Get()
	defer r.pool.Put(buf)

	// read blocks
	block, innerOff := r.calcBlock(start)
	out := make([]byte, 0, end-start)

	r.stat.FetchReq(r.file.Id(), start, end, block, innerOff) // DEBUG
	for {
		// read block
		b, err := r.getBlock(buf, block) // thread-safe

		// cut inner offset
		if len(b) < innerOff {
			b = b[len(b):] // nothing left (data are not in this slice! inner offset is to high)
		} else {
			b = b[innerOff:]
		}

		// cap at the requested range and collect
		if want := int(end-start) - len(out); len(b) > want {
			b = b[:want]
		}
		out = append(out, b...)

		// update vars
		block++      // next block
		innerOff = 0 // innerOff is 0 after first read

		// exit
		if len(b) == 0 || err != nil || len(out) == int(end-start) {
			// exit loop, but ...
			// ... the range is clamped at EOF: a short payload is a valid result
			if err == io.EOF {
				err = nil
			}
			// write debug and return
			r.stat.FetchRet(r.file.Id(), start, end, len(out), err) // DEBUG
			if err != nil {
				return nil, err
			}
			return out, nil
		}
	}
}

// @see interf.RangeFetcher
//
// Path identifies the underlying object for humans.
func (r *_StreamFetcher) Path() string {
	return r.file.Name()
}

// @see interf.RangeFetcher
//
// Size returns the total size of the underlying object in bytes.
func (r *_StreamFetcher) Size() int64 {
	return r.file.Size()
}

// @see interf.RangeFetcher
//
// Stat returns the number of times internal processes have been run since initialization.
// This method is relevant for testing and debugging purposes.
// The KEY is the internal process, the VALUE is the count.
func (r *_StreamFetcher) Stat() map[string]uint64 {
	return r.stat.Stat()
}

//--------  HELPER  --------------------------------------------------------------------------------------------------//

// getBlock returns the requested block.
// This method doesn't allocate memory when the capacity of buf is greater or equal to value (see BlockSize).
func (r *_StreamFetcher) getBlock(buf []byte, block uint64) ([]byte, error) {
	r.mux.Lock() // LOCK
	defer r.mux.Unlock()

	// ask cache
	if r.cache != nil {
		b, err := r.cache.Get(r.file.Id(), block, buf)
		r.stat.CacheGet(r.file.Id(), block, len(buf), len(b), err) // DEBUG
		if err == nil {
			return b, nil
		}
	}

	// Get best connection
	c := r.bestConn(block)
	if c == nil {
		// no reader found, create new one
		var err error
		c, err = r.addConn(block)
		if err != nil {
			// only if service.Reader() fail
			return buf[:0], err
		}
	}

	// check reader distance (block == reqBlock?)
	for c.block < block {
		logBlock := c.block
		n, err := c.Read(buf)
		r.stat.BlockSkip(r.file.Id(), logBlock, n, err) // DEBUG

		if r.cache != nil && n > 0 && (err == nil || err == io.EOF) {
			errSet := r.cache.Set(r.file.Id(), c.block-1, buf[:n])        // don't waste VALID data
			r.stat.CacheSet(r.file.Id(), c.block-1, len(buf[:n]), errSet) // DEBUG
		}

		if err != nil {
			// ERROR but
			// we are not where we wanted to be!
			_ = c.Close()       // error -> close connection
			return buf[:0], err // return zero data! we are not at reqBlock!
		}
	}

	// read
	n, err := c.Read(buf)
	if err != nil {
		_ = c.Close() // error -> close connection
	}
	r.stat.BlockRet(r.file.Id(), block, n, err) // DEBUG

	// cache
	if r.cache != nil && n > 0 && (err == nil || err == io.EOF) {
		errSet := r.cache.Set(r.file.Id(), c.block-1, buf[:n])
		r.stat.CacheSet(r.file.Id(), c.block-1, len(buf[:n]), errSet) // DEBUG
	}

	return buf[:n], err
}

// bestConn looks for an open connection that can be reused. Returns nil if no valid connection was found.
// Attention: The returned connection does not have to exactly match the desired block.
func (r *_StreamFetcher) bestConn(block uint64) *_Conn {
	var bestDist uint64 = math.MaxUint64
	var index = -1 // default: -1 (no connection found)

	// search index of the best connection
	for k, v := range r.inner {
		// skip: no valid connection
		if v == nil || v.c == nil {
			continue
		}
		// skip: reqBlock is before the position (can't read back) or too far away
		if block < v.block || block > v.block+interf.MaxBlockJump {
			continue
		}
		// calc distance
		dist := block - v.block
		if dist < bestDist {
			// better connection found
			bestDist = dist
			index = k
		}
		// FAST FIN: there is nothing better than 0!
		if bestDist == 0 {
			break
		}
	}

	// return best connection
	if index >= 0 {
		c := r.inner[index]
		r.stat.ConnBest(r.file.Id(), index, c.block) // DEBUG
		return c
	} else {
		r.stat.ConnBest(r.file.Id(), index, math.MaxUint64) // DEBUG
		return nil                                          // no connection found
	}
}

// sortByAge sort connection by age.
func (r *_StreamFetcher) sortByAge() {

	sort.Slice(r.inner, func(p, q int) bool {
		var rP = r.inner[p]            // connection p
		var rQ = r.inner[q]            // connection q
		var ageP int64 = math.MinInt64 // age for invalid connection p
		var ageQ int64 = math.MinInt64 // age for invalid connection q

		// Set age (only valid connection)
		if rP != nil && rP.c != nil {
			ageP = rP.age
		}
		if rQ != nil && rQ.c != nil {
			ageQ = rQ.age
		}

		return ageP > ageQ
	})
}

// addConn opens a new reader/connection and places it first in the internal list.
// The oldest connection is closed.
func (r *_StreamFetcher) addConn(block uint64) (*_Conn, error) {

	// sort
	r.sortByAge()

	// close last position
	last := len(r.inner) - 1
	if r.inner[last] != nil {
		_ = r.inner[last].Close()
	}

	// clear position one
	for i := len(r.inner) - 1; i > 0; i-- {
		r.inner[i] = r.inner[i-1]
	}
	r.inner[0] = nil

	// create new connection
	inner, err := r.service.Reader(r.file, int64(block*interf.BlockSize))
	r.stat.ConnAdd(r.file.Id(), block, err) // DEBUG

	if err != nil {
		// service.Reader() error
		return nil, err

	} else {
		// OK! Set connection and return
		r.inner[0] = newInnerConn(inner, block)
		return r.inner[0], err
	}
}

// calcBlock calculates in which block the first byte begins with a inner offset.
// A file is divided into blocks that are addressed with the block number.
// The first block starts at 0.
func (r *_StreamFetcher) calcBlock(offset int64) (block uint64, innerOff int) {
	if offset >= 0 {
		// valid offset -> calc stuff
		innerOff = int(offset % interf.BlockSize)
		block = uint64(offset-int64(innerOff)) / interf.BlockSize
		return

	} else {
		// invalid offset -> return 0
		return 0, 0
	}
}

// ------------------------------------------------------------------------------------------------------------------ //

// interface check: io.ReadCloser
var _ io.ReadCloser = (*_Conn)(nil)

// _Conn is a ReadCloser that stores the current position and time of the last access.
type _Conn struct {
	c     io.ReadCloser // connection to the storage (can be nil)
	block uint64        // position (block number) for next read
	age   int64         // time of last use (unix nano)
}

// newInnerConn initialized a new _Conn. block is the start block (offset)
func newInnerConn(c io.ReadCloser, block uint64) *_Conn {
	return &_Conn{
		c:     c,
		block: block,
		age:   time.Now().UnixNano(),
	}
}

// Close the connection. Has no effect after the first call.
// It also invalidates the inner connection with nil.
func (r *_Conn) Close() error {
	if r.c != nil {
		_ = r.c.Close()
		r.c = nil
	}
	return nil
}

// Read reads exactly len(buf) bytes from r into buf. If the given buffer is not exactly the
// block size, an error is returned. When Read encounters an error or end-of-file condition
// after successfully reading n > 0 bytes, it returns the number of bytes read AND the
// (non-nil) error from the same call. Callers should always process the n > 0 bytes returned
// before considering the error err.
func (r *_Conn) Read(buf []byte) (n int, err error) {
	// check connection
	if r.c == nil {
		return 0, io.ErrClosedPipe
	}
	// check buffer size
	if len(buf) != interf.BlockSize {
		return 0, errors.New("wrong buffer size for reading a block")
	}

	// read all: leave the loop with full buffer or an error
	for n < interf.BlockSize && err == nil {
		var nn int
		nn, err = r.c.Read(buf[n:])
		n += nn
	}

	// update attributes
	if n > 0 {
		r.age = time.Now().UnixNano()
		r.block += 1
	}

	// buffer is full, everything is fine
	if n >= interf.BlockSize {
		return n, nil // ignore any errors that may have occurred
	}

	// The buffer is not full AND there must be an error. Otherwise the read loop would not
	// have been left. return error and what we read, this connection is done.
	return
}
