package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/royalty/internal/client"
	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/pkg/logger"
)

// Submission retry parameters for a saturated queue.
const (
	maxSubmitAttempts = 5
	retryBackoff      = 50 * time.Millisecond
	progressInterval  = time.Second
	directoryPerm     = 0o750
	filePerm          = 0o600
)

// Result is the outcome of a run.
type Result struct {
	Stats       Stats               `json:"stats"`
	Leaderboard []model.RankedEntry `json:"leaderboard"`
	Expected    []model.RankedEntry `json:"expected"`
}

// Run generates catalogs, submits them as jobs, waits for every job and
// verifies the service ranking against a local appraisal.
func Run(ctx context.Context, cfg Config, cl *client.Client) (Result, error) {
	log := logger.Get().Named("loadtest")
	cfg = withDefaults(cfg)
	res := Result{Stats: Stats{StartTime: time.Now()}}

	log.Info(ctx, "starting catalog load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("catalogs", cfg.Catalogs),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN),
		logger.String("prefix", cfg.Prefix))

	// Step 1: the service must answer before anything is generated.
	if _, err := cl.RevenueTypes(ctx); err != nil {
		return res, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: generate catalogs.
	catalogs := NewGenerator(cfg.Seed, cfg.Prefix).Generate(cfg.Catalogs)
	res.Stats.Generated = len(catalogs)
	if cfg.OutputFile != "" {
		if err := saveCatalogs(cfg.OutputFile, catalogs); err != nil {
			log.Warn(ctx, "failed to save catalogs", logger.Error(err))
		}
	}

	// Step 3: submit and wait concurrently.
	submitAll(ctx, cfg, cl, catalogs, &res.Stats)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run interrupted: %w", err)
	}

	// Step 4: compare the published ranking with a local appraisal.
	expected, err := ExpectedRanking(cfg.Policy, catalogs)
	if err != nil {
		return res, fmt.Errorf("local appraisal failed: %w", err)
	}
	res.Expected = expected

	leaderboard, err := cl.TopN(ctx, cfg.TopN)
	if err != nil {
		return res, fmt.Errorf("ranking retrieval failed: %w", err)
	}
	res.Leaderboard = leaderboard
	res.Stats.Ranked = len(leaderboard)

	matched, err := Verify(expected, leaderboard, cfg.Prefix)
	res.Stats.Matched = matched
	res.Stats.EndTime = time.Now()
	res.Stats.Duration = res.Stats.EndTime.Sub(res.Stats.StartTime)
	logStats(ctx, log, res.Stats)
	if err != nil {
		return res, fmt.Errorf("result verification failed: %w", err)
	}

	log.Info(ctx, "load run completed successfully")
	return res, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Catalogs <= 0 {
		cfg.Catalogs = DefaultCatalogs
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Policy.Pipeline.BaseRate == 0 {
		cfg.Policy = appraisal.DefaultConfig()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "load-" + uuid.NewString()[:8]
	}
	return cfg
}

// submitAll fans catalogs out to cfg.Workers submitters; each submitter
// waits for its job before taking the next catalog.
func submitAll(ctx context.Context, cfg Config, cl *client.Client, catalogs []model.RawCatalog, stats *Stats) {
	log := logger.Get().Named("loadtest")

	var submitted, accepted, duplicate, failed, completed, jobsFailed atomic.Int64
	var lastReport atomic.Int64

	work := make(chan model.RawCatalog, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				sub, err := submitOne(ctx, cl, c)
				submitted.Add(1)
				if err != nil {
					failed.Add(1)
					log.Debug(ctx, "submit failed", logger.String("catalog", c.ID), logger.Error(err))
					continue
				}
				if sub.Duplicate {
					duplicate.Add(1)
				} else {
					accepted.Add(1)
				}
				if _, err := cl.WaitJob(ctx, sub.JobID); err != nil {
					jobsFailed.Add(1)
					log.Debug(ctx, "job failed", logger.String("job_id", sub.JobID), logger.Error(err))
				} else {
					completed.Add(1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if cfg.Verbose && now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(submitted.Load())),
						logger.Int("total", len(catalogs)),
						logger.Int("completed", int(completed.Load())))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, c := range catalogs {
			select {
			case <-ctx.Done():
				return
			case work <- c:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	stats.Completed = int(completed.Load())
	stats.JobsFailed = int(jobsFailed.Load())
}

// submitOne retries while the service reports backpressure.
func submitOne(ctx context.Context, cl *client.Client, c model.RawCatalog) (model.Submission, error) {
	var err error
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		var sub model.Submission
		sub, err = cl.Submit(ctx, c.ID, c)
		if err == nil || !errors.Is(err, model.ErrBackpressure) {
			return sub, err
		}
		select {
		case <-ctx.Done():
			return model.Submission{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return model.Submission{}, err
}

func saveCatalogs(path string, catalogs []model.RawCatalog) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPerm); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(catalogs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalogs: %w", err)
	}
	return os.WriteFile(path, data, filePerm)
}

func logStats(ctx context.Context, log logger.Logger, s Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("generated", s.Generated),
		logger.Int("submitted", s.Submitted),
		logger.Int("accepted", s.Accepted),
		logger.Int("duplicate", s.Duplicate),
		logger.Int("failed", s.Failed),
		logger.Int("completed", s.Completed),
		logger.Int("jobsFailed", s.JobsFailed),
		logger.Int("ranked", s.Ranked),
		logger.Int("matched", s.Matched),
		logger.String("duration", s.Duration.String()),
		logger.Float64("catalogsPerSecond", s.Throughput()))
}
