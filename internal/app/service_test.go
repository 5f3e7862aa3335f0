package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	service "github.com/okian/royalty/internal/app"
	"github.com/okian/royalty/internal/adapters/repository"
	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Keep test output quiet.
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func catalog(id string, publishing float64) model.Catalog {
	return model.Catalog{
		ID:   id,
		Name: "Catalog " + id,
		Songs: []pipeline.Song{
			{ID: id + "-s1", Completeness: ptr(1.0), ISWC: ptr("T-1"), PRORegistrations: map[string]string{"ascap": "1"}},
			{ID: id + "-s2"},
		},
		Sources: []revenue.Source{
			{Type: revenue.Publishing, AnnualRevenue: publishing, Confidence: revenue.Medium, Recurring: true},
			{Type: revenue.Sync, AnnualRevenue: 5000, Confidence: revenue.Low},
		},
	}
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithClock(func() time.Time { return fixed }),
		service.WithWorkerCount(2),
		service.WithLogger(logger.NewNop()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxCatalogLimit(), ShouldEqual, service.DefaultMaxCatalogLimit)
			So(svc.Policy(), ShouldResemble, appraisal.DefaultConfig())
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		policy := appraisal.DefaultConfig()
		policy.Pipeline.Version = "test"
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(64),
			service.WithDedupeTTL(time.Minute),
			service.WithCacheTTL(time.Minute),
			service.WithMaxCatalogLimit(5),
			service.WithPolicy(policy),
		)
		defer svc.Stop()

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 64)
			So(stats["policyVersion"], ShouldEqual, "test")
			So(svc.MaxCatalogLimit(), ShouldEqual, 5)
		})
	})
}

func TestService_Computations(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When listing revenue types", func() {
			types := svc.RevenueTypes()
			So(types, ShouldHaveLength, revenue.Count)
			So(types[0].Type, ShouldEqual, revenue.Publishing)
		})

		Convey("When valuing revenue sources", func() {
			res := svc.ValuateRevenue(ctx, []revenue.Source{
				{Type: revenue.Streaming, AnnualRevenue: 1000, Confidence: revenue.High, Recurring: true},
			})
			So(res.TotalValuation, ShouldAlmostEqual, 13200, 1e-9)
		})

		Convey("When assessing risk", func() {
			a := svc.AssessRisk(ctx, nil)
			So(a.Level, ShouldEqual, revenue.High)
		})

		Convey("When estimating a pipeline", func() {
			res := svc.EstimatePipeline(ctx, catalog("p", 0).Songs)
			So(res.Total, ShouldAlmostEqual, 1328, 1e-9)
			So(res.ConfidenceScore, ShouldEqual, 25)
		})
	})
}

func TestService_Appraise(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()
		defer svc.Stop()
		ctx := context.Background()
		want := appraisal.New(appraisal.DefaultConfig(), appraisal.WithClock(func() time.Time { return fixed })).
			Appraise(catalog("a", 75000))

		Convey("When appraising a catalog", func() {
			got, err := svc.Appraise(ctx, catalog("a", 75000))

			Convey("Then it should match the appraiser and be stored", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)

				stored, err := svc.Report(ctx, "a")
				So(err, ShouldBeNil)
				So(stored.GrossValuation, ShouldEqual, want.GrossValuation)
			})

			Convey("Then a repeat should come from the cache", func() {
				again, err := svc.Appraise(ctx, catalog("a", 75000))
				So(err, ShouldBeNil)
				So(again, ShouldResemble, got)
				So(svc.GetStats()["cachedReports"], ShouldEqual, 1)
			})
		})

		Convey("When several catalogs are appraised", func() {
			for _, c := range []model.Catalog{catalog("small", 1000), catalog("big", 90000), catalog("mid", 40000)} {
				_, err := svc.Appraise(ctx, c)
				So(err, ShouldBeNil)
			}

			Convey("Then they should rank by gross valuation", func() {
				top, err := svc.TopN(ctx, 3)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].CatalogID, ShouldEqual, "big")
				So(top[1].CatalogID, ShouldEqual, "mid")
				So(top[2].CatalogID, ShouldEqual, "small")
				So(top[2].Rank, ShouldEqual, 3)

				e, err := svc.Rank(ctx, "mid")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})
		})

		Convey("When the ranking limit is out of range", func() {
			_, err := svc.TopN(ctx, 0)
			So(errors.Is(err, service.ErrInvalidLimit), ShouldBeTrue)
			_, err = svc.TopN(ctx, service.DefaultMaxCatalogLimit+1)
			So(errors.Is(err, service.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When a report is missing", func() {
			_, err := svc.Report(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Appraise(cctx, catalog("x", 1))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := newService()
		defer svc.Stop()

		Convey("When submitting a job", func() {
			_, err := svc.Submit(context.Background(), "r1", catalog("a", 1))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When asking for an unknown job", func() {
			_, err := svc.Job(context.Background(), "missing")
			So(errors.Is(err, service.ErrJobNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When starting it twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
		})

		Convey("When stopping it", func() {
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}
