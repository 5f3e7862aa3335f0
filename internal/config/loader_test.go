package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/royalty/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROYALTY_ADDR", ":8080")
			_ = os.Setenv("ROYALTY_QUEUE_SIZE", "64")
			_ = os.Setenv("ROYALTY_STORE", "sqlite")
			_ = os.Setenv("ROYALTY_PIPELINE__BASE_RATE", "300")
			_ = os.Setenv("ROYALTY_PIPELINE__GAP_DISCOUNTS__MISSING_PRO", "0.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.Pipeline.BaseRate, convey.ShouldEqual, 300)
				convey.So(cfg.Pipeline.GapDiscounts.MissingPRO, convey.ShouldEqual, 0.5)
				convey.So(cfg.Pipeline.GapDiscounts.MissingISWC, convey.ShouldEqual, 0.35)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
worker_count: 3
log_format: json
band_spread: 0.25
pipeline:
  version: "2025-02"
  verified_statuses: [verified]
  split_weights:
    performance: 0.6
    mechanical: 0.3
    sync: 0.1
`)
			_ = os.Setenv("ROYALTY_CONFIG", path)
			_ = os.Setenv("ROYALTY_WORKER_COUNT", "8")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win and the file should fill the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.BandSpread, convey.ShouldEqual, 0.25)
				convey.So(cfg.Pipeline.Version, convey.ShouldEqual, "2025-02")
				convey.So(cfg.Pipeline.VerifiedStatuses, convey.ShouldResemble, []string{"verified"})
				convey.So(cfg.Pipeline.SplitWeights.Performance, convey.ShouldEqual, 0.6)
				convey.So(cfg.Pipeline.BaseRate, convey.ShouldEqual, 250)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("ROYALTY_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ROYALTY_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("ROYALTY_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the policy breaks pipeline rules", func() {
			_ = os.Setenv("ROYALTY_PIPELINE__RESIDUAL_FLOOR", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "residual_floor")
			})
		})
	})
}

func TestLoadPolicy(t *testing.T) {
	convey.Convey("Given a policy file", t, func() {
		convey.Convey("When it overrides part of the policy", func() {
			cfg, err := config.LoadPolicy(createTempConfigFile(t, "band_spread: 0.3\npipeline:\n  base_rate: 400\n"))

			convey.Convey("Then the rest should keep defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BandSpread, convey.ShouldEqual, 0.3)
				convey.So(cfg.Pipeline.BaseRate, convey.ShouldEqual, 400)
				convey.So(cfg.Pipeline.VerifiedBonus, convey.ShouldEqual, 250)
			})
		})

		convey.Convey("When it is invalid", func() {
			_, err := config.LoadPolicy(createTempConfigFile(t, "pipeline:\n  base_rate: 0\n"))
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)

			_, err = config.LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

// createTempConfigFile writes content to a YAML file under t.TempDir.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "royalty-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return f.Name()
}

// clearConfigEnvVars unsets every ROYALTY_ variable.
func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}
