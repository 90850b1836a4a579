package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/bloomwell/bloom/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:8000")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9464")
				convey.So(cfg.SyncIntervalS, convey.ShouldEqual, 300)
				convey.So(cfg.APIKey, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BLOOM_BASE_URL", "https://project.example.co")
			_ = os.Setenv("BLOOM_API_KEY", "anon-key")
			_ = os.Setenv("BLOOM_EMAIL", "agent@example.com")
			_ = os.Setenv("BLOOM_SYNC_INTERVAL_S", "60")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://project.example.co")
				convey.So(cfg.APIKey, convey.ShouldEqual, "anon-key")
				convey.So(cfg.Email, convey.ShouldEqual, "agent@example.com")
				convey.So(cfg.SyncIntervalS, convey.ShouldEqual, 60)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9464") // From defaults
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
base_url: "https://file.example.co"
metrics_addr: ":9999"
sync_interval_s: 120
log_level: "debug"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BLOOM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://file.example.co")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9999")
				convey.So(cfg.SyncIntervalS, convey.ShouldEqual, 120)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
base_url: "https://file.example.co"
sync_interval_s: 120
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BLOOM_CONFIG", tmpFile)
			_ = os.Setenv("BLOOM_BASE_URL", "https://env.example.co")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://env.example.co") // Overridden by env
				convey.So(cfg.SyncIntervalS, convey.ShouldEqual, 120)                // From file
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BLOOM_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty base_url", func() {
			_ = os.Setenv("BLOOM_BASE_URL", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "base_url must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive sync interval", func() {
			_ = os.Setenv("BLOOM_SYNC_INTERVAL_S", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sync_interval_s must be positive")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid numeric value", func() {
			_ = os.Setenv("BLOOM_SYNC_INTERVAL_S", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BLOOM_CONFIG",
		"BLOOM_LOG_LEVEL",
		"BLOOM_BASE_URL",
		"BLOOM_API_KEY",
		"BLOOM_EMAIL",
		"BLOOM_PASSWORD",
		"BLOOM_SESSION_PATH",
		"BLOOM_METRICS_ADDR",
		"BLOOM_SYNC_INTERVAL_S",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "bloom-config-*.yaml")
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
