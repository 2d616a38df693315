package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	source := services.NewListenBrainzService(services.ListenBrainzOpts{
		BaseURL:   config.ListenBrainz.BaseURL,
		Token:     config.ListenBrainz.Token,
		RateLimit: config.Sync.RateLimit,
		Retry:     retryPolicyFromConfig(config),
		HTTPClient: &http.Client{
			Timeout: requestTimeout(config),
		},
		Logger: logger,
	})

	runner := NewRunner(RunnerOpts{
		Config: config,
		Source: source,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "lbx",
		Usage:    "Archive ListenBrainz listen history and likes locally",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func retryPolicyFromConfig(config *shared.Config) services.RetryPolicy {
	policy := services.DefaultRetryPolicy()
	if config.Sync.MaxRetries > 0 {
		policy.MaxRetries = config.Sync.MaxRetries
	}
	if config.Sync.BackoffBaseMS > 0 {
		policy.BackoffBase = time.Duration(config.Sync.BackoffBaseMS) * time.Millisecond
	}
	if config.Sync.BackoffMaxMS > 0 {
		policy.BackoffMax = time.Duration(config.Sync.BackoffMaxMS) * time.Millisecond
	}
	return policy
}

func requestTimeout(config *shared.Config) time.Duration {
	if config.Sync.RequestTimeoutSec > 0 {
		return time.Duration(config.Sync.RequestTimeoutSec) * time.Second
	}
	return 30 * time.Second
}
