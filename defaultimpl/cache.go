package impl

import (
	"encoding/binary"
	"runtime/debug"

	interf "github.com/barentsen/fetchmon/interfaces"
	"github.com/coocood/freecache"
	"github.com/oxtoacart/bpool"
)

// interface check: interf.Cache
var _ interf.Cache = (*_Cache)(nil)

// @see interf.Cache
//
// Cache stores blocks (data parts of a file) for a performant random read access. (@see interf.RangeFetcher)
// The cache is always at least 1024 * BlockSize big (~17 MB).
// If possible, there should only be one common large cache (reuse the object in your program).
type _Cache struct {
	cache *freecache.Cache // RAM cache for blocks
	pool  *bpool.BytePool  // buffer pool
	size  int64            // max. capacity in bytes
}

// NewCache return the default implementation of interf.Cache.
// cacheSizeMB can't be less than 17 (min. 1024 * BlockSize =~ 17 MB).
func NewCache(cacheSizeMB int) interf.Cache {
	// cache min. size
	min := ((1024 * interf.BlockSize) / (1024 * 1024)) + 1
	if cacheSizeMB < min {
		cacheSizeMB = min
	}

	// init freeCache
	cacheSize := cacheSizeMB * 1024 * 1024
	fCache := freecache.NewCache(cacheSize) // > 17 MB
	debug.SetGCPercent(20)

	return &_Cache{
		cache: fCache,
		pool:  bpool.NewBytePool(300, interf.BlockSize), // ~ 5 MB
		size:  int64(cacheSize),
	}
}

// @see interf.Cache
//
// Get returns the value or 'not found' error.
// This method doesn't allocate memory when the capacity of buf is greater or equal to value.
func (c *_Cache) Get(fileId string, block uint64, buf []byte) ([]byte, error) {
	key := c.calcCacheKey(fileId, block)
	return c.cache.GetWithBuf(key, buf)
}

// @see interf.Cache
//
// Set stores the value in the cache.
// Old data can be deleted if the cache is full.
// The value expires after interf.CacheExpireSeconds.
func (c *_Cache) Set(fileId string, block uint64, data []byte) error {
	key := c.calcCacheKey(fileId, block)
	return c.cache.Set(key, data, interf.CacheExpireSeconds)
}

// @see interf.Cache
//
// Pool returns a byte pool. This means that the small byte buffers can be reused and the allocation is reduced.
// The Pool contain 300 buffer with the size of interf.BlockSize.
//
// Example of use:
//   buf := c.Pool().Get()
//   defer c.Pool().Put(buf)
func (c *_Cache) Pool() *bpool.BytePool {
	return c.pool
}

// @see interf.Cache
//
// Size returns the max. capacity of this cache in bytes.
func (c *_Cache) Size() int64 {
	return c.size
}

//-----  HELPER  -----------------------------------------------------------------------------------------------------//

// calcCacheKey converts fileId and a block number into a byte key for freeCache.
func (c *_Cache) calcCacheKey(fileId string, block uint64) []byte {
	var bKey [8]byte
	binary.LittleEndian.PutUint64(bKey[:], block)
	return append(bKey[:], []byte(fileId)...)
}
