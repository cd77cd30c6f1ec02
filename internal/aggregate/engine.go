// Package aggregate maintains dashboard statistics over the document
// collection. The engine is a derived view keyed by record id: it can always
// be rebuilt by a full fold, and incremental deltas must never diverge from
// that fold.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

const dayKeyLayout = "2006-01-02"

// DefaultWindowDays is the trailing per-day bucket window.
const DefaultWindowDays = 30

// recordFacts is the engine's per-record derived view: only the fields that
// contribute to counters, never the canonical record itself.
type recordFacts struct {
	status   domain.DocumentStatus
	caseType domain.CaseType
	urgency  domain.UrgencyLevel
	client   string
	day      string
}

// Engine folds records into running statistics. All mutation is serialized
// behind one mutex so concurrent deltas from parallel pipelines sum exactly
// to a full recompute. Reads snapshot under the same lock and never trigger
// recomputation.
type Engine struct {
	repo       ports.DocumentRepository
	windowDays int

	mu       sync.Mutex
	facts    map[string]recordFacts
	total    int64
	byCase   map[domain.CaseType]int64
	byLevel  map[domain.UrgencyLevel]int64
	byClient map[string]int64
	byDay    *dayWindow
}

func NewEngine(repo ports.DocumentRepository, windowDays int) *Engine {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	e := &Engine{repo: repo, windowDays: windowDays}
	e.resetLocked()
	return e
}

func (e *Engine) resetLocked() {
	e.facts = map[string]recordFacts{}
	e.total = 0
	e.byCase = map[domain.CaseType]int64{}
	e.byLevel = map[domain.UrgencyLevel]int64{}
	e.byClient = map[string]int64{}
	e.byDay = newDayWindow(e.windowDays)
}

// Recompute rebuilds the view from scratch by streaming the full collection.
// Used at cold start and as the correctness oracle in tests.
func (e *Engine) Recompute(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	err := e.repo.ForEach(ctx, func(rec domain.DocumentRecord) error {
		e.addLocked(rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recompute aggregate stats: %w", err)
	}
	return nil
}

// ApplyDelta folds one created or updated record into the view. Re-applying
// the same record is idempotent: the previous contribution is retracted
// first.
func (e *Engine) ApplyDelta(rec domain.DocumentRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.facts[rec.ID]; ok {
		e.subtractLocked(old)
	}
	e.addLocked(rec)
}

// ApplyRemoval retracts a deleted record's contribution.
func (e *Engine) ApplyRemoval(documentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.facts[documentID]
	if !ok {
		return
	}
	e.subtractLocked(old)
	delete(e.facts, documentID)
}

func factsOf(rec domain.DocumentRecord) recordFacts {
	f := recordFacts{
		status:   rec.Status,
		caseType: rec.CaseType,
		urgency:  rec.UrgencyLevel,
		day:      rec.CreatedAt.UTC().Format(dayKeyLayout),
	}
	if rec.ClientName.Specified {
		f.client = rec.ClientName.Name
	}
	return f
}

func (e *Engine) addLocked(rec domain.DocumentRecord) {
	f := factsOf(rec)
	e.facts[rec.ID] = f
	e.total++
	e.byDay.add(f.day, 1)

	// Failed records count in totals and the date series but stay out of
	// the classification breakdowns.
	if f.status != domain.StatusIndexed {
		return
	}
	e.byCase[f.caseType]++
	e.byLevel[f.urgency]++
	if f.client != "" {
		e.byClient[f.client]++
	}
}

func (e *Engine) subtractLocked(f recordFacts) {
	e.total--
	e.byDay.add(f.day, -1)
	if f.status != domain.StatusIndexed {
		return
	}
	decrement(e.byCase, f.caseType)
	decrement(e.byLevel, f.urgency)
	if f.client != "" {
		decrement(e.byClient, f.client)
	}
}

func decrement[K comparable](m map[K]int64, key K) {
	m[key]--
	if m[key] <= 0 {
		delete(m, key)
	}
}

// Snapshot returns the current stats. Read latency is independent of the
// collection size.
func (e *Engine) Snapshot() domain.AggregateStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	caseCounts := make(map[string]int64, len(e.byCase))
	for ct, n := range e.byCase {
		caseCounts[string(ct)] = n
	}
	levelCounts := make(map[string]int64, len(e.byLevel))
	for lvl, n := range e.byLevel {
		levelCounts[string(lvl)] = n
	}

	caseDist := make([]domain.CaseTypeCount, 0, len(caseCounts))
	for _, b := range breakdown(caseCounts) {
		caseDist = append(caseDist, domain.CaseTypeCount{CaseType: b.key, Count: b.count, Percentage: b.pct})
	}
	levelDist := make([]domain.UrgencyCount, 0, len(levelCounts))
	for _, b := range breakdown(levelCounts) {
		levelDist = append(levelDist, domain.UrgencyCount{UrgencyLevel: b.key, Count: b.count, Percentage: b.pct})
	}

	return domain.AggregateStats{
		TotalDocuments:        e.total,
		HighPriorityCount:     e.byLevel[domain.UrgencyHigh],
		CriticalPriorityCount: e.byLevel[domain.UrgencyCritical],
		ActiveClients:         int64(len(e.byClient)),
		CaseTypeDistribution:  caseDist,
		UrgencyDistribution:   levelDist,
		DocumentsByDate:       e.byDay.snapshot(),
	}
}

// bucket is one rendered breakdown entry before it takes its axis-specific
// wire shape.
type bucket struct {
	key   string
	count int64
	pct   float64
}

// breakdown renders counts as a percentage distribution. Percentages are
// count/sum*100 rounded to one decimal, so a non-empty breakdown sums to 100
// within ±0.05 per category. Buckets sort by count descending, key ascending
// on ties.
func breakdown(counts map[string]int64) []bucket {
	var sum int64
	for _, n := range counts {
		sum += n
	}
	out := make([]bucket, 0, len(counts))
	for key, n := range counts {
		pct := 0.0
		if sum > 0 {
			pct = math.Round(float64(n)/float64(sum)*1000) / 10
		}
		out = append(out, bucket{key: key, count: n, pct: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// dayWindow keeps per-day counts for a fixed trailing window. When a newer
// day arrives, buckets older than the window evict in FIFO order.
type dayWindow struct {
	days   int
	counts map[string]int64
	order  []string // present day keys, ascending
}

func newDayWindow(days int) *dayWindow {
	return &dayWindow{days: days, counts: map[string]int64{}}
}

func (w *dayWindow) add(day string, delta int64) {
	if _, ok := w.counts[day]; !ok {
		if delta <= 0 {
			// Retraction against an already-evicted bucket.
			return
		}
		i := sort.SearchStrings(w.order, day)
		w.order = append(w.order, "")
		copy(w.order[i+1:], w.order[i:])
		w.order[i] = day
	}
	w.counts[day] += delta
	if w.counts[day] <= 0 {
		delete(w.counts, day)
		i := sort.SearchStrings(w.order, day)
		if i < len(w.order) && w.order[i] == day {
			w.order = append(w.order[:i], w.order[i+1:]...)
		}
		return
	}
	w.evict()
}

func (w *dayWindow) evict() {
	if len(w.order) == 0 {
		return
	}
	newest, err := time.Parse(dayKeyLayout, w.order[len(w.order)-1])
	if err != nil {
		return
	}
	cutoff := newest.AddDate(0, 0, -(w.days - 1)).Format(dayKeyLayout)
	for len(w.order) > 0 && w.order[0] < cutoff {
		delete(w.counts, w.order[0])
		w.order = w.order[1:]
	}
}

func (w *dayWindow) snapshot() map[string]int64 {
	out := make(map[string]int64, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}
