package interf

// BlockSize is the size of a block. A block is a part of a file.
// It is comparable to sectors of a block device.
// The BlockSize is also the buffer size for the download.
const BlockSize = 16384 // 16 kiB

// MiB is the number of bytes in a mebibyte.
// All size and throughput reports of this module use this unit.
const MiB = 1024 * 1024

// MaxBlockJump determines how far you can jump forward in an open reader.
// An open reader for remote storage does not allow random read access.
// To reach a more distant block, you either have to read up to this point or open a new reader.
// Opening a new reader often takes longer than reading unnecessary data.
const MaxBlockJump = (50 * 1024 * 1024) / BlockSize // 3200 blocks (=50 MiB, ~1sec with 400 MBit/s)

// MaxReadersPerFile determines how many open readers can be kept for later use. This should reduce reader openings.
const MaxReadersPerFile = 6

// CacheExpireSeconds is the default value n. The cache stores data for max. n seconds.
const CacheExpireSeconds = 2 * 24 * 60 * 60 // 2 days

// MaxFileSize defines the maximum size in byte of the supported files.
const MaxFileSize = 100 * 1024 * 1024 * 1024 // 100 GiB
