package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// EntryKind says what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota // HTTP request
	KindQuery                    // SQL statement
	KindFetch                    // Google Sheet download
	KindDispatch                 // sheet script call
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /api/data", "ExecContext", "sheets.gviz", "script.commitAttendance"
	StatusCode int    // HTTP status, 0 when not applicable
	Failed     bool   // fetch or dispatch returned an error
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent timings in a fixed ring.
// Record never blocks on aggregation; Snapshot does the work.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns a ready-to-use collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the ring is full.
// A nil collector discards the entry.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	return atomic.LoadInt64(&c.count)
}

// Snapshot is the aggregate served by the admin perf endpoint.
type Snapshot struct {
	TotalRecorded  int64      `json:"totalRecorded"`
	RequestP50Ms   float64    `json:"requestP50Ms"`
	RequestP95Ms   float64    `json:"requestP95Ms"`
	RequestP99Ms   float64    `json:"requestP99Ms"`
	SlowestPaths   []PathStat `json:"slowestPaths"`
	SlowestQueries []PathStat `json:"slowestQueries"`
	Fetches        []PathStat `json:"fetches"`
	Dispatches     []PathStat `json:"dispatches"`
}

// PathStat aggregates the timings of one path.
type PathStat struct {
	Path     string  `json:"path"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avgMs"`
	MaxMs    float64 `json:"maxMs"`
	TotalMs  float64 `json:"totalMs"`
}

// Snapshot aggregates entries recorded at or after since.
// PRE: topN > 0
// POST: each list holds at most topN paths, slowest average first
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	byKind := map[EntryKind]map[string]*PathStat{
		KindRequest:  {},
		KindQuery:    {},
		KindFetch:    {},
		KindDispatch: {},
	}
	var requestMs []float64

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats, ok := byKind[e.Kind]
		if !ok {
			continue
		}
		if e.Kind == KindRequest {
			requestMs = append(requestMs, e.DurationMs)
		}
		s := stats[e.Path]
		if s == nil {
			s = &PathStat{Path: e.Path}
			stats[e.Path] = s
		}
		s.add(e)
	}

	snap := Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		SlowestPaths:   topByAvg(byKind[KindRequest], topN),
		SlowestQueries: topByAvg(byKind[KindQuery], topN),
		Fetches:        topByAvg(byKind[KindFetch], topN),
		Dispatches:     topByAvg(byKind[KindDispatch], topN),
	}
	if len(requestMs) > 0 {
		sort.Float64s(requestMs)
		snap.RequestP50Ms = percentile(requestMs, 50)
		snap.RequestP95Ms = percentile(requestMs, 95)
		snap.RequestP99Ms = percentile(requestMs, 99)
	}
	return snap
}

func (s *PathStat) add(e Entry) {
	s.Count++
	s.TotalMs += e.DurationMs
	s.AvgMs = s.TotalMs / float64(s.Count)
	if e.DurationMs > s.MaxMs {
		s.MaxMs = e.DurationMs
	}
	if e.Failed || e.StatusCode >= 500 {
		s.Failures++
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

