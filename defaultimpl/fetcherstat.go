package impl

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// DebugOff deactivates all debug messages. Errors, warnings or information are still printed.
const DebugOff = 0

// DebugLow shows debug messages that happen very rarely during operation (to keep the log files small).
const DebugLow = 1

// DebugHigh shows all debug messages.
const DebugHigh = 2

//--------------------------------------------------------------------------------------------------------------------//

type _FetcherStat struct {
	debugLvl    uint8  // enable debug logging [0, 1, 2] (level: high=2)
	packageName string // text for debug logging

	_CacheHit     uint64
	_CacheMis     uint64
	_CacheSet     uint64
	_FetchNew     uint64
	_FetchClosing uint64
	_FetchClose   uint64
	_FetchReq     uint64
	_FetchRetErr  uint64
	_BlockSkip    uint64
	_BlockRet     uint64
	_ConnBest     uint64
	_ConnAdd      uint64
	_ConnAddErr   uint64
}

func (s *_FetcherStat) Stat() map[string]uint64 {
	ret := map[string]uint64{
		"CacheHit":     atomic.LoadUint64(&s._CacheHit),
		"CacheMis":     atomic.LoadUint64(&s._CacheMis),
		"CacheSet":     atomic.LoadUint64(&s._CacheSet),
		"FetchNew":     atomic.LoadUint64(&s._FetchNew),
		"FetchClosing": atomic.LoadUint64(&s._FetchClosing),
		"FetchClose":   atomic.LoadUint64(&s._FetchClose),
		"FetchReq":     atomic.LoadUint64(&s._FetchReq),
		"FetchRetErr":  atomic.LoadUint64(&s._FetchRetErr),
		"BlockSkip":    atomic.LoadUint64(&s._BlockSkip),
		"BlockRet":     atomic.LoadUint64(&s._BlockRet),
		"ConnBest":     atomic.LoadUint64(&s._ConnBest),
		"ConnAdd":      atomic.LoadUint64(&s._ConnAdd),
		"ConnAddErr":   atomic.LoadUint64(&s._ConnAddErr),
	}

	// ignore zero values
	for k, v := range ret {
		if v == 0 {
			delete(ret, k)
		}
	}
	return ret
}

func (s *_FetcherStat) PrintStatAfterClose(fileId string) {
	// final call in .Close()

	first := true
	var sb strings.Builder
	for k, v := range s.Stat() {
		if !first {
			sb.WriteString(", ")
		} else {
			first = false
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprintf("%d", v))
	}

	if s.debugLvl >= DebugLow { // Debug level: low=1
		log.Printf("DEBUG: %s/stat.PrintStatAfterClose: fileId=%s: %s", s.packageName, fileId, sb.String())
	}
}

// ------------------------------------------------------------------------------------------------------------------ //

func (s *_FetcherStat) CacheGet(fileId string, block uint64, reqLen, retLen int, err error) {
	if err == nil {
		atomic.AddUint64(&s._CacheHit, 1)
	} else {
		atomic.AddUint64(&s._CacheMis, 1)
	}
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.CacheGet: id=%s, block=%d, req=%d/%d, ret=%d/%d, err=%v", s.packageName, fileId, block, reqLen, interf.BlockSize, retLen, interf.BlockSize, err)
	}
}

func (s *_FetcherStat) CacheSet(fileId string, block uint64, data int, err error) {
	atomic.AddUint64(&s._CacheSet, 1)
	if s.debugLvl >= DebugHigh || err != nil {
		pre := "DEBUG" // Debug level: high=2
		if err != nil {
			pre = "ERROR" // Debug level: error=0
		}
		log.Printf("%s: %s/stat.CacheSet: id=%s, block=%d, data=%d/%d, expire=%d, err=%v", pre, s.packageName, fileId, block, data, interf.BlockSize, interf.CacheExpireSeconds, err)
	}
}

func (s *_FetcherStat) FetchNew(fileId string, cache bool) {
	atomic.AddUint64(&s._FetchNew, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.FetchNew: id=%s, _Cache=%v", s.packageName, fileId, cache)
	}
}

func (s *_FetcherStat) FetchClosing(fileId string) {
	atomic.AddUint64(&s._FetchClosing, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.FetchClosing: id=%s", s.packageName, fileId)
	}
}

func (s *_FetcherStat) FetchClose(fileId string, slot int, active bool) {
	atomic.AddUint64(&s._FetchClose, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.FetchClose: id=%s, slot=%d, active=%v", s.packageName, fileId, slot, active)
	}
}

func (s *_FetcherStat) FetchReq(fileId string, start, end int64, block uint64, innerOff int) {
	atomic.AddUint64(&s._FetchReq, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.FetchReq: id=%s, start=%d, end=%d, startBlock=%d, innerOff=%d", s.packageName, fileId, start, end, block, innerOff)
	}
}

func (s *_FetcherStat) FetchRet(fileId string, start, end int64, ret int, err error) {
	if err != nil && err != io.EOF {
		atomic.AddUint64(&s._FetchRetErr, 1)
	}
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.FetchRet: id=%s, start=%d, end=%d, ret=%d, err=%v", s.packageName, fileId, start, end, ret, err)
	}
}

func (s *_FetcherStat) BlockSkip(fileId string, skip uint64, n int, err error) {
	atomic.AddUint64(&s._BlockSkip, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.BlockSkip: id=%s, skipBlock=%d, n=%d/%d, err=%v", s.packageName, fileId, skip, n, interf.BlockSize, err)
	}
}

func (s *_FetcherStat) BlockRet(fileId string, block uint64, n int, err error) {
	atomic.AddUint64(&s._BlockRet, 1)
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.BlockRet: id=%s, block=%d, n=%d/%d, err=%v", s.packageName, fileId, block, n, interf.BlockSize, err)
	}
}

func (s *_FetcherStat) ConnBest(fileId string, index int, current uint64) {
	if index >= 0 {
		atomic.AddUint64(&s._ConnBest, 1)
	}
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.ConnBest: id=%s, index=%d, current=%d", s.packageName, fileId, index, current)
	}
}

func (s *_FetcherStat) ConnAdd(fileId string, block uint64, err error) {
	atomic.AddUint64(&s._ConnAdd, 1)
	if err != nil && err != io.EOF {
		atomic.AddUint64(&s._ConnAddErr, 1)
	}
	if s.debugLvl >= DebugHigh { // Debug level: high=2
		log.Printf("DEBUG: %s/stat.ConnAdd: id=%s, startBlock=%d, err=%v", s.packageName, fileId, block, err)
	}
}
