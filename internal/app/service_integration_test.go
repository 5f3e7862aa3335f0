package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/royalty/internal/app"
	"github.com/okian/royalty/internal/adapters/repository"
	"github.com/okian/royalty/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// waitJob polls until the job is terminal or the deadline passes.
func waitJob(ctx context.Context, svc *service.Service, id string) model.Job {
	deadline := time.Now().Add(5 * time.Second)
	for {
		j, err := svc.Job(ctx, id)
		if (err == nil && j.Terminal()) || time.Now().After(deadline) {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(service.WithQueueSize(100))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a catalog is submitted as a job", func() {
			res, err := svc.Submit(ctx, "req-1", catalog("job-cat", 50000))
			So(err, ShouldBeNil)
			So(res.Duplicate, ShouldBeFalse)
			So(res.JobID, ShouldNotBeEmpty)

			Convey("Then the job should complete with a stored report", func() {
				j := waitJob(ctx, svc, res.JobID)
				So(j.Status, ShouldEqual, model.JobDone)
				So(j.RequestID, ShouldEqual, "req-1")
				So(j.CatalogID, ShouldEqual, "job-cat")
				So(j.Report, ShouldNotBeNil)
				So(j.CompletedAt, ShouldEqual, fixed)

				stored, err := svc.Report(ctx, "job-cat")
				So(err, ShouldBeNil)
				So(stored.GrossValuation, ShouldEqual, j.Report.GrossValuation)
			})

			Convey("Then resubmitting the request should return the same job", func() {
				again, err := svc.Submit(ctx, "req-1", catalog("job-cat", 50000))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.JobID, ShouldEqual, res.JobID)
			})
		})

		Convey("When many jobs are submitted", func() {
			ids := make([]string, 0, 20)
			for i := range 20 {
				res, err := svc.Submit(ctx, fmt.Sprintf("bulk-%d", i), catalog(fmt.Sprintf("c%02d", i), float64(1000*(i+1))))
				So(err, ShouldBeNil)
				ids = append(ids, res.JobID)
			}

			Convey("Then all should finish and rank by value", func() {
				for _, id := range ids {
					So(waitJob(ctx, svc, id).Status, ShouldEqual, model.JobDone)
				}
				top, err := svc.TopN(ctx, 3)
				So(err, ShouldBeNil)
				So(top[0].CatalogID, ShouldEqual, "c19")
				So(top[1].CatalogID, ShouldEqual, "c18")
				So(svc.GetStats()["storedCatalogs"], ShouldEqual, 20)
			})
		})

		Convey("When submitting without a request id", func() {
			a, err := svc.Submit(ctx, "", catalog("anon", 1))
			So(err, ShouldBeNil)
			b, err := svc.Submit(ctx, "", catalog("anon", 1))
			So(err, ShouldBeNil)

			Convey("Then each submission should be a new job", func() {
				So(a.JobID, ShouldNotEqual, b.JobID)
				So(b.Duplicate, ShouldBeFalse)
			})
		})
	})

	Convey("Given a service backed by SQLite", t, func() {
		ctx := context.Background()
		store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "royalty.db"))
		So(err, ShouldBeNil)
		svc := newService(service.WithStore(store))
		defer svc.Stop()

		Convey("When a catalog is appraised", func() {
			r, err := svc.Appraise(ctx, catalog("persisted", 20000))
			So(err, ShouldBeNil)

			Convey("Then the report should round-trip through the database", func() {
				got, err := svc.Report(ctx, "persisted")
				So(err, ShouldBeNil)
				So(got.GrossValuation, ShouldAlmostEqual, r.GrossValuation, 1e-6)
				So(got.Risk.Level, ShouldEqual, r.Risk.Level)
				So(got.GeneratedAt.Equal(r.GeneratedAt), ShouldBeTrue)
			})
		})
	})
}
