package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics should be registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.valuations.WithLabelValues(KindPipeline).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "royalty_valuation_")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then names and labels should follow them", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(testutil.ToFloat64(manager.cacheHits), ShouldEqual, 1)
				n, err := testutil.GatherAndCount(registry, "test_unit_cache_hits_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When options carry empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "royalty")
				So(manager.subsystem, ShouldEqual, "valuation")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When valuations are recorded", func() {
			before := testutil.ToFloat64(globalManager.valuations.WithLabelValues(KindAppraisal))
			RecordValuation(KindAppraisal)
			RecordComputationLatency(KindAppraisal, 1.5)
			UpdateLastPipeline(1328, 172, 25)
			UpdateLastGrossValuation(1e6)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.valuations.WithLabelValues(KindAppraisal)), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.lastMissingImpact), ShouldEqual, 172)
				So(testutil.ToFloat64(globalManager.lastConfidence), ShouldEqual, 25)
				So(testutil.ToFloat64(globalManager.lastGrossValuation), ShouldEqual, 1e6)
			})
		})

		Convey("When job and cache events are recorded", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			failed := testutil.ToFloat64(globalManager.jobsFailed)
			RecordCacheHit()
			RecordCacheMiss()
			RecordJobSubmitted()
			RecordJobDuplicate()
			RecordJobCompleted()
			RecordJobFailed()

			Convey("Then each counter should increase", func() {
				So(testutil.ToFloat64(globalManager.cacheHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.jobsFailed), ShouldEqual, failed+1)
			})
		})

		Convey("When operational metrics are recorded", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				UpdateRepositoryRecordsTotal(7)
				RecordRepositoryUpdateLatency(0.1)
				RecordRepositoryQueryLatency(0.1)
				RecordHTTPRequest("/appraisals", "POST", "200")
				RecordHTTPRequestDuration("/appraisals", "POST", "200", 12)
				RecordErrorByComponent("http", "bad_request")
				RecordErrorByEndpoint("/appraisals", "POST", "bad_request")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(globalManager.repositoryRecordsTotal), ShouldEqual, 7)
		})

		Convey("When metrics are recorded concurrently", func() {
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					RecordValuation(KindRevenue)
					RecordHTTPRequest("/revenue-types", "GET", "200")
				}()
			}
			wg.Wait()
			So(testutil.ToFloat64(globalManager.valuations.WithLabelValues(KindRevenue)), ShouldBeGreaterThanOrEqualTo, 20)
		})

		Convey("When the registry is requested", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
