package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// The BST comparator treats "less" as "ranks earlier", so an in-order
// traversal yields the ranking from most to least valuable catalog.

// valueScale converts valuations to fixed-point cents.
const valueScale = 100

type valueFP int64

func toFixedPoint(x float64) valueFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*valueScale >= math.MaxInt64:
		return valueFP(math.MaxInt64)
	case x*valueScale <= math.MinInt64:
		return valueFP(math.MinInt64)
	}
	return valueFP(math.Round(x * valueScale))
}

type node struct {
	id    string
	value valueFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aValue, aID) ranks before (bValue, bID).
func less(aValue valueFP, aID string, bValue valueFP, bID string) bool {
	if aValue != bValue {
		return aValue > bValue
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, value valueFP) *node {
	if n == nil {
		return &node{id: id, value: value, prio: rand.Uint64(), size: 1}
	}
	if less(value, id, n.value, n.id) {
		n.left = insert(n.left, id, value)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, value)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, value valueFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case value == n.value && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, value)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, value)
		}
	case less(value, id, n.value, n.id):
		n.left = deleteNode(n.left, id, value)
	default:
		n.right = deleteNode(n.right, id, value)
	}
	fix(n)
	return n
}

// countAhead returns how many nodes rank before (value, id).
func countAhead(n *node, id string, value valueFP) int {
	ahead := 0
	for n != nil {
		if less(n.value, n.id, value, id) {
			ahead += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return ahead
}

// collectTopN appends up to limit ids in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// MemoryStore keeps reports in memory, ordered by a treap.
type MemoryStore struct {
	mu      sync.RWMutex
	root    *node
	reports map[string]model.Report

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

// NewMemoryStore constructs an in-memory store with configuration options.
// A background goroutine publishes store metrics until ctx is done or the
// store is closed.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		reports:               make(map[string]model.Report),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Save implements Store.Save in O(log n) expected time.
func (s *MemoryStore) Save(_ context.Context, report model.Report) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	id := strings.TrimSpace(report.CatalogID)
	if id == "" {
		metrics.RecordErrorByComponent("repository", "missing_id")
		return ErrMissingID
	}
	value := toFixedPoint(report.GrossValuation)

	s.mu.Lock()
	if old, ok := s.reports[id]; ok {
		s.root = deleteNode(s.root, id, toFixedPoint(old.GrossValuation))
	}
	s.reports[id] = report
	s.root = insert(s.root, id, value)
	count := len(s.reports)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(count)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, catalogID string) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[catalogID]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return r, nil
}

// Rank implements Store.Rank in O(log n) expected time.
func (s *MemoryStore) Rank(_ context.Context, catalogID string) (model.RankedEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[catalogID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedEntry{}, ErrNotFound
	}
	e := r.Entry()
	e.Rank = countAhead(s.root, catalogID, toFixedPoint(r.GrossValuation)) + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]model.RankedEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, min(n, len(s.reports)))
	collectTopN(s.root, n, &ids)
	out := make([]model.RankedEntry, len(ids))
	for i, id := range ids {
		out[i] = s.reports[id].Entry()
		out[i].Rank = i + 1
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports), nil
}

// Close stops the metrics goroutine. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdateRepositoryRecordsTotal(n)
			}
		}
	}()
}
