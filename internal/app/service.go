// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the job workers.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/royalty/internal/adapters/cache"
	"github.com/okian/royalty/internal/adapters/mq/queue"
	"github.com/okian/royalty/internal/adapters/mq/worker"
	"github.com/okian/royalty/internal/adapters/repository"
	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/dedupe"
	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
	"github.com/okian/royalty/pkg/logger"
	"github.com/okian/royalty/pkg/metrics"
)

// Default service configuration.
const (
	DefaultQueueSize       = queue.DefaultCapacity
	DefaultDedupeTTL       = dedupe.DefaultTTL
	DefaultCacheTTL        = 5 * time.Minute
	DefaultMaxCatalogLimit = 100
	defaultJobRetention    = time.Hour
)

// Service implements the API dependencies for the valuation engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	appraiser *appraisal.Appraiser
	store     repository.Store
	reports   *cache.ReportCache
	deduper   dedupe.Deduper
	jobs      *gocache.Cache
	jobsMu    sync.Mutex
	jobQueue  *queue.InMemoryQueue
	pool      *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeTTL   time.Duration
	cacheTTL    time.Duration
	maxLimit    int
	policy      appraisal.Config

	// State
	started bool

	logger logger.Logger
	now    func() time.Time
}

// New constructs a Service. Synchronous operations are usable right away;
// job submission requires Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   DefaultQueueSize,
		dedupeTTL:   DefaultDedupeTTL,
		cacheTTL:    DefaultCacheTTL,
		maxLimit:    DefaultMaxCatalogLimit,
		policy:      appraisal.DefaultConfig(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(context.Background())
	}
	s.appraiser = appraisal.New(s.policy, appraisal.WithClock(s.now))
	s.reports = cache.New(s.cacheTTL)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithTTL(s.dedupeTTL))
	s.jobs = gocache.New(defaultJobRetention, defaultJobRetention/2)
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting valuation service...")

	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobQueue, s, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "valuation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.String("policy_version", s.policy.Pipeline.Version),
	)
	return nil
}

// Stop drains the job queue, stops the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping valuation service...")

	if s.started && s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "close report store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "valuation service stopped")
}

// Policy returns the appraisal policy in force.
func (s *Service) Policy() appraisal.Config {
	return s.policy
}

// RevenueTypes returns the revenue type catalog.
func (s *Service) RevenueTypes() []revenue.Info {
	return revenue.Types()
}

// ValuateRevenue capitalizes additional revenue sources.
func (s *Service) ValuateRevenue(_ context.Context, sources []revenue.Source) valuation.Result {
	defer observe(metrics.KindRevenue, time.Now())
	return valuation.Valuate(sources)
}

// AssessRisk rates the risk of a revenue portfolio.
func (s *Service) AssessRisk(_ context.Context, sources []revenue.Source) risk.Assessment {
	defer observe(metrics.KindRisk, time.Now())
	return risk.AssessSources(sources)
}

// EstimatePipeline estimates the uncollected royalty pipeline of songs.
func (s *Service) EstimatePipeline(_ context.Context, songs []pipeline.Song) pipeline.Result {
	defer observe(metrics.KindPipeline, time.Now())
	res := s.appraiser.Estimator().Compute(songs)
	metrics.UpdateLastPipeline(res.Total, res.MissingImpact, res.ConfidenceScore)
	return res
}

// Appraise values a catalog. Identical requests under the same policy are
// served from the report cache. Fresh reports are saved to the store.
func (s *Service) Appraise(ctx context.Context, c model.Catalog) (model.Report, error) {
	if err := ctx.Err(); err != nil {
		return model.Report{}, err
	}

	key, err := cache.Fingerprint(c, s.policy)
	if err != nil {
		return model.Report{}, fmt.Errorf("fingerprint catalog %s: %w", c.ID, err)
	}
	if r, ok := s.reports.Get(key); ok {
		metrics.RecordCacheHit()
		return r, nil
	}
	metrics.RecordCacheMiss()

	start := time.Now()
	report := s.appraiser.Appraise(c)
	observe(metrics.KindAppraisal, start)
	metrics.UpdateLastPipeline(report.Pipeline.Total, report.Pipeline.MissingImpact, report.Pipeline.ConfidenceScore)
	metrics.UpdateLastGrossValuation(report.GrossValuation)

	if err := s.store.Save(ctx, report); err != nil {
		metrics.RecordErrorByComponent("service", "store_save")
		return model.Report{}, fmt.Errorf("save report %s: %w", c.ID, err)
	}
	s.reports.Set(key, report)

	s.logger.Debug(ctx, "catalog appraised",
		logger.String("catalog_id", c.ID),
		logger.Float64("gross_valuation", report.GrossValuation),
		logger.Int("confidence", report.Confidence),
	)
	return report, nil
}

// Submit queues an asynchronous appraisal. Submissions sharing a request
// id within the dedupe TTL return the first job. An empty request id
// disables deduplication. A full queue yields ErrBackpressure.
func (s *Service) Submit(ctx context.Context, requestID string, c model.Catalog) (model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Submission{}, ErrNotStarted
	}

	jobID := uuid.NewString()
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = jobID
	}
	if existing, seen := s.deduper.SeenAndRecord(ctx, requestID, jobID); seen {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate job request", logger.String("request_id", requestID), logger.String("job_id", existing))
		return model.Submission{JobID: existing, Duplicate: true}, nil
	}

	s.putJob(model.Job{
		ID:          jobID,
		RequestID:   requestID,
		CatalogID:   c.ID,
		Status:      model.JobPending,
		SubmittedAt: s.now().UTC(),
	})

	if err := s.jobQueue.Enqueue(ctx, queue.Task{JobID: jobID, Catalog: c}); err != nil {
		s.deduper.Unrecord(ctx, requestID)
		s.jobs.Delete(jobID)
		if errors.Is(err, queue.ErrFull) {
			return model.Submission{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Submission{}, fmt.Errorf("enqueue job %s: %w", jobID, err)
	}

	metrics.RecordJobSubmitted()
	return model.Submission{JobID: jobID}, nil
}

// Job returns the status of an asynchronous appraisal.
func (s *Service) Job(_ context.Context, jobID string) (model.Job, error) {
	v, ok := s.jobs.Get(jobID)
	if !ok {
		return model.Job{}, ErrJobNotFound
	}
	return v.(model.Job), nil
}

// Complete implements worker.Recorder.
func (s *Service) Complete(_ context.Context, jobID string, report model.Report) {
	s.updateJob(jobID, func(j *model.Job) {
		j.Status = model.JobDone
		j.Report = &report
	})
	metrics.RecordJobCompleted()
}

// Fail implements worker.Recorder.
func (s *Service) Fail(_ context.Context, jobID string, err error) {
	s.updateJob(jobID, func(j *model.Job) {
		j.Status = model.JobFailed
		j.Error = err.Error()
	})
	metrics.RecordJobFailed()
}

// Report returns the stored report of a catalog.
func (s *Service) Report(ctx context.Context, catalogID string) (model.Report, error) {
	return s.store.Get(ctx, catalogID)
}

// Rank returns a catalog's position in the valuation ranking.
func (s *Service) Rank(ctx context.Context, catalogID string) (model.RankedEntry, error) {
	return s.store.Rank(ctx, catalogID)
}

// TopN returns the n most valuable stored catalogs.
func (s *Service) TopN(ctx context.Context, n int) ([]model.RankedEntry, error) {
	if n < 1 || n > s.maxLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, s.maxLimit)
	}
	return s.store.TopN(ctx, n)
}

// MaxCatalogLimit returns the largest accepted ranking size.
func (s *Service) MaxCatalogLimit() int {
	return s.maxLimit
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.deduper.Size(),
		"cachedReports":  s.reports.Len(),
		"trackedJobs":    s.jobs.ItemCount(),
		"policyVersion":  s.policy.Pipeline.Version,
		"revenueTypes":   revenue.Count,
		"maxCatalogSize": s.maxLimit,
	}
	if n, err := s.store.Count(ctx); err == nil {
		stats["storedCatalogs"] = n
	}
	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

func (s *Service) putJob(j model.Job) { //nolint:gocritic // hugeParam: jobs are stored by value
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.jobs.SetDefault(j.ID, j)
}

func (s *Service) updateJob(jobID string, mutate func(*model.Job)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	v, ok := s.jobs.Get(jobID)
	if !ok {
		s.logger.Warn(context.Background(), "result for unknown job", logger.String("job_id", jobID))
		return
	}
	j := v.(model.Job)
	mutate(&j)
	j.CompletedAt = s.now().UTC()
	s.jobs.SetDefault(jobID, j)
}

func observe(kind string, start time.Time) {
	metrics.RecordValuation(kind)
	metrics.RecordComputationLatency(kind, float64(time.Since(start).Microseconds())/1000)
}
