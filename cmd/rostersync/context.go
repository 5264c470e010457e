package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"rostersync/internal/archive"
	"rostersync/internal/config"
	"rostersync/internal/history"
	"rostersync/internal/installer"
	"rostersync/internal/logging"
	"rostersync/internal/rostersync"
)

type commandContext struct {
	configFlag *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
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

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

// session holds everything one mutating command needs. All records written
// during the session share its operation id.
type session struct {
	cfg         *config.Config
	logger      *slog.Logger
	history     *history.Store
	engine      *rostersync.Engine
	installer   *installer.Installer
	operationID string
}

func (c *commandContext) openSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	operationID := history.NewOperationID()
	logger, err := logging.NewFromConfig(cfg, operationID)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if c.quiet() {
		logger = logging.WithLevelOverride(logger, slog.LevelWarn)
	}

	s := &session{cfg: cfg, logger: logger, operationID: operationID}
	var recorder rostersync.Recorder
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
			logging.String(logging.FieldPath, cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this operation will not appear in rostersync history"),
		)
	} else {
		s.history = store
		recorder = store
	}

	engine, err := rostersync.NewFromConfig(cfg, logger, recorder, operationID)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = engine
	s.installer = installer.New(cfg, engine, archive.NewExtractor(logger), nil, logger)
	return s, nil
}

func (s *session) Close() {
	if s.history != nil {
		_ = s.history.Close()
	}
}

func (c *commandContext) withSession(fn func(*session) error) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
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

// errSummary turns a failure count into a non-zero exit.
func errSummary(count int, noun string) error {
	if count == 0 {
		return nil
	}
	if count == 1 {
		return fmt.Errorf("1 %s failed", noun)
	}
	return fmt.Errorf("%d %ss failed", count, noun)
}
