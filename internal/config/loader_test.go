package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/playground/internal/config"
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
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.WeightNiche, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PLAYGROUND_ADDR", ":8080")
			_ = os.Setenv("PLAYGROUND_STORE_DRIVER", "memory")
			_ = os.Setenv("PLAYGROUND_WEIGHT_NICHE", "3")
			_ = os.Setenv("PLAYGROUND_NOTIFY_ENABLED", "false")
			_ = os.Setenv("PLAYGROUND_RESEND_API_KEY", "re_test")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.WeightNiche, convey.ShouldEqual, 3)
				convey.So(cfg.NotifyEnabled, convey.ShouldBeFalse)
				convey.So(cfg.ResendAPIKey, convey.ShouldEqual, "re_test")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_driver: bolt
store_path: /tmp/playground.bolt
weight_richness: 0
score_precision: 3
mail_provider: log
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLAYGROUND_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "bolt")
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/playground.bolt")
				convey.So(cfg.WeightRichness, convey.ShouldEqual, 0)
				convey.So(cfg.ScorePrecision, convey.ShouldEqual, 3)
				convey.So(cfg.MailProvider, convey.ShouldEqual, "log")
				convey.So(cfg.WeightNiche, convey.ShouldEqual, 4) // from defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
weight_tools: 2
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLAYGROUND_CONFIG", tmpFile)
			_ = os.Setenv("PLAYGROUND_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WeightTools, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLAYGROUND_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PLAYGROUND_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PLAYGROUND_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("PLAYGROUND_STORE_DRIVER", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a negative weight", func() {
			_ = os.Setenv("PLAYGROUND_WEIGHT_SKILL", "-1")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a non-numeric weight", func() {
			_ = os.Setenv("PLAYGROUND_WEIGHT_NICHE", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the memory driver is selected without a path", func() {
			_ = os.Setenv("PLAYGROUND_STORE_DRIVER", "memory")
			_ = os.Setenv("PLAYGROUND_STORE_PATH", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then no path is required", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PLAYGROUND_CONFIG",
		"PLAYGROUND_ADDR",
		"PLAYGROUND_STORE_DRIVER",
		"PLAYGROUND_STORE_PATH",
		"PLAYGROUND_WEIGHT_NICHE",
		"PLAYGROUND_WEIGHT_SKILL",
		"PLAYGROUND_NOTIFY_ENABLED",
		"PLAYGROUND_RESEND_API_KEY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "playground-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
