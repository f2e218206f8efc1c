// Package stats computes and caches the collection statistics the
// BM25 ranker needs: document count, average document length, and a
// precomputed impact table keyed by (k1, b) (spec §4.5).
package stats

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// MaxCachedShiftedDL bounds the impact table's document-length axis:
// dlShift is chosen so avgdl >> dlShift never exceeds this.
const MaxCachedShiftedDL = 512

// MaxCachedTF is the impact table's term-frequency axis width: the
// full 5-bit encoded TF range.
const MaxCachedTF = offset.MaxEncodedTF

// Params is the (k1, b) pair an impact table is built for; any change
// invalidates the cached entry for a container.
type Params struct {
	K1 float64
	B  float64
}

// Entry is one container's precomputed statistics.
type Entry struct {
	N       int64
	AvgDL   float64
	DLShift uint
	Params  Params

	table      [][]float64 // [shiftedDL][encodedTF]
	DocLengths []uint16    // optional, for positionless indexes
}

func chooseDLShift(avgdl float64) uint {
	var shift uint
	for avgdl/float64(uint64(1)<<shift) > MaxCachedShiftedDL {
		shift++
	}
	return shift
}

func kValue(params Params, dl, avgdl float64) float64 {
	return params.K1 * ((1 - params.B) + params.B*dl/avgdl)
}

// Build computes a fresh Entry for a container of n documents holding
// totalLen tokens in total.
func Build(n, totalLen int64, params Params) *Entry {
	avgdl := 0.0
	if n > 0 {
		avgdl = float64(totalLen) / float64(n)
	}
	shift := chooseDLShift(avgdl)
	table := make([][]float64, MaxCachedShiftedDL+1)
	for sdl := 0; sdl <= MaxCachedShiftedDL; sdl++ {
		row := make([]float64, MaxCachedTF+1)
		dl := float64(uint64(sdl) << shift)
		k := kValue(params, dl, avgdl)
		for code := uint32(0); code <= MaxCachedTF; code++ {
			tf := float64(offset.DecodeTF(code))
			row[code] = (params.K1 + 1) * tf / (k + tf)
		}
		table[sdl] = row
	}
	return &Entry{N: n, AvgDL: avgdl, DLShift: shift, Params: params, table: table}
}

// ImpactAt returns (k1+1)*decodeTF(tfCode)/(K+decodeTF(tfCode)) for a
// document of length dl, using the cached table when dl falls within
// its range and computing directly otherwise (spec §4.6 step 5).
func (e *Entry) ImpactAt(dl int64, tfCode uint32) float64 {
	sdl := uint64(dl) >> e.DLShift
	if sdl <= MaxCachedShiftedDL && tfCode <= MaxCachedTF {
		return e.table[sdl][tfCode]
	}
	tf := float64(offset.DecodeTF(tfCode))
	k := kValue(e.Params, float64(dl), e.AvgDL)
	return (e.Params.K1 + 1) * tf / (k + tf)
}

// WithDocLengths attaches a per-document length vector (scaled by
// DLShift) for positionless indexes, where document boundaries are
// not otherwise recoverable from the posting lists themselves.
func (e *Entry) WithDocLengths(lengths []uint16) *Entry {
	e.DocLengths = lengths
	return e
}

type cacheKey struct {
	fingerprint uint64
	k1, b       float64
}

// Cache maps container fingerprint + (k1,b) to a built Entry,
// deduplicating concurrent rebuilds of the same key via singleflight
// so N simultaneous queries against a cold cache trigger exactly one
// computation (spec §5: "recomputation on parameter change is done
// under a mutex; readers see either the old or new table atomically").
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*Entry
	group   singleflight.Group
}

// NewCache returns an empty statistics cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Entry)}
}

// Get returns the cached Entry for (fingerprint, params), building it
// via build if absent.
func (c *Cache) Get(fingerprint uint64, params Params, build func() (int64, int64)) (*Entry, error) {
	key := cacheKey{fingerprint, params.K1, params.B}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}
	sfKey := fmt.Sprintf("%d:%v:%v", fingerprint, params.K1, params.B)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		c.mu.RLock()
		if e, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return e, nil
		}
		c.mu.RUnlock()
		n, totalLen := build()
		built := Build(n, totalLen, params)
		c.mu.Lock()
		c.entries[key] = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Invalidate drops every cached entry for fingerprint, regardless of
// (k1,b): called when the underlying container's documents change.
func (c *Cache) Invalidate(fingerprint uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.fingerprint == fingerprint {
			delete(c.entries, k)
		}
	}
}
