package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/royalty/internal/adapters/repository"
	"github.com/okian/royalty/internal/config"
	"github.com/okian/royalty/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithOutput(io.Discard))
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a loaded configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the memory store is selected", func() {
			store, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer store.Close()

			convey.Convey("Then a memory store should be returned", func() {
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the sqlite store is selected", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "royalty.db")
			store, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer store.Close()

			convey.Convey("Then the database file should exist", func() {
				_, ok := store.(*repository.SQLiteStore)
				convey.So(ok, convey.ShouldBeTrue)
				_, statErr := os.Stat(cfg.SQLitePath)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 2
		store, err := openStore(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		svc := newService(cfg, store, logger.NewNop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc, cfg))
		defer srv.Close()

		for _, tc := range []struct {
			path     string
			contains string
		}{
			{"/revenue-types", "publishing"},
			{"/stats", "workercount"},
			{"/openapi.yaml", "openapi"},
			{"/docs/", "<html"},
			{"/healthz", "royalty_"},
		} {
			convey.Convey("When GET "+tc.path+" is requested", func() {
				resp, err := http.Get(srv.URL + tc.path)
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				body, _ := io.ReadAll(resp.Body)

				convey.Convey("Then it should be served", func() {
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
					convey.So(strings.ToLower(string(body)), convey.ShouldContainSubstring, tc.contains)
				})
			})
		}

		convey.Convey("When the service metrics are refreshed", func() {
			convey.So(func() {
				updateServiceMetrics(svc)
				updateSystemMetrics()
			}, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the system updater should return when it ends", func() {
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			convey.So(ctx.Err(), convey.ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given an invalid environment", t, func() {
		t.Setenv("ROYALTY_ADDR", "")
		t.Setenv("ROYALTY_STORE", "postgres")

		convey.Convey("When run is called", func() {
			err := run(context.Background())

			convey.Convey("Then configuration validation should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a valid environment and a canceled context", t, func() {
		t.Setenv("ROYALTY_ADDR", "127.0.0.1:0")
		t.Setenv("ROYALTY_STORE", "memory")
		t.Setenv("ROYALTY_LOG_LEVEL", "error")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then run should shut down cleanly", func() {
			convey.So(run(ctx), convey.ShouldBeNil)
		})
	})
}
