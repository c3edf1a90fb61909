package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"autouploader/internal/config"
	"autouploader/internal/hosts"
	"autouploader/internal/ledger"
	"autouploader/internal/linkqueue"
	"autouploader/internal/linkstore"
	"autouploader/internal/logging"
	"autouploader/internal/pipeline"
	"autouploader/internal/statefile"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	invocationID string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		invocationID: uuid.NewString(),
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("create logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runContext tags the command context with the invocation id so every log
// line of one run can be correlated.
func (c *commandContext) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithInvocationID(ctx, c.invocationID)
}

// env bundles what most subcommands need.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	lockOpts statefile.Options
}

func (c *commandContext) env() (*env, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, lockOpts: pipeline.LockOptions(cfg)}, nil
}

func (e *env) queue() *linkqueue.Queue {
	return linkqueue.New(e.cfg.Paths.QueueDir, e.lockOpts, e.logger)
}

func (e *env) links() *linkstore.Store {
	return linkstore.NewStore(e.cfg.AggregatePath(), e.lockOpts, e.logger)
}

func (e *env) ledger() *ledger.Ledger {
	return ledger.New(e.cfg.LedgerPath(), e.lockOpts, e.logger)
}

func (e *env) hosts(ctx context.Context) hosts.Config {
	return hosts.Load(ctx, e.cfg.HostConfigPath(), e.lockOpts, e.logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
