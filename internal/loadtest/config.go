// Package loadtest drives a running valuation service with generated
// catalogs and checks the published ranking against a local appraisal.
package loadtest

import (
	"time"

	"github.com/okian/royalty/internal/domain/appraisal"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Catalogs   int           // Number of catalogs to generate
	TopN       int           // Number of top entries to fetch
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; equal seeds give equal catalogs
	Prefix     string        // Catalog id prefix; empty picks a random one
	OutputFile string        // Optional JSON dump of the generated catalogs
	Policy     appraisal.Config
	Verbose    bool
}

// Stats holds run statistics.
type Stats struct {
	Generated  int           `json:"generated"`
	Submitted  int           `json:"submitted"`
	Accepted   int           `json:"accepted"`
	Duplicate  int           `json:"duplicate"`
	Failed     int           `json:"failed"`
	Completed  int           `json:"completed"`
	JobsFailed int           `json:"jobs_failed"`
	Ranked     int           `json:"ranked"`
	Matched    int           `json:"matched"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// Throughput returns submitted catalogs per second.
func (s Stats) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}

// Default run parameters.
const (
	DefaultCatalogs = 500
	DefaultTopN     = 25

	workerChannelMultiplier = 2
	valueTolerance          = 0.01
)
