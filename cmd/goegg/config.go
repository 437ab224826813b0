package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/borzacchiello/goegg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	COST_AST_SIZE  = "ast-size"
	COST_AST_DEPTH = "ast-depth"

	SCHED_SIMPLE  = "simple"
	SCHED_BACKOFF = "backoff"
)

var ErrConfig = errors.New("invalid configuration")

type LimitsConfig struct {
	Iterations int           `yaml:"iterations"`
	Nodes      int           `yaml:"nodes"`
	Time       time.Duration `yaml:"time"`
}

type SchedulerConfig struct {
	Kind       string `yaml:"kind"`
	MatchLimit int    `yaml:"match_limit"`
	BanLength  int    `yaml:"ban_length"`
}

// Config is the run configuration read from --config. Command line flags
// override its values.
type Config struct {
	Limits        LimitsConfig    `yaml:"limits"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
	SearchWorkers int             `yaml:"search_workers"`
	Cost          string          `yaml:"cost"`
}

func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			Iterations: 22,
			Nodes:      15000,
			Time:       5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Kind:       SCHED_SIMPLE,
			MatchLimit: 1000,
			BanLength:  5,
		},
		SearchWorkers: 1,
		Cost:          COST_AST_SIZE,
	}
}

// ParseConfig reads yaml on top of the defaults. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Limits.Iterations <= 0 {
		return fmt.Errorf("%w: iteration limit must be positive", ErrConfig)
	}
	if c.Limits.Nodes <= 0 {
		return fmt.Errorf("%w: node limit must be positive", ErrConfig)
	}
	if c.Limits.Time < 0 {
		return fmt.Errorf("%w: negative time limit", ErrConfig)
	}
	if c.SearchWorkers < 1 {
		return fmt.Errorf("%w: search_workers must be at least 1", ErrConfig)
	}
	switch c.Scheduler.Kind {
	case SCHED_SIMPLE:
	case SCHED_BACKOFF:
		if c.Scheduler.MatchLimit <= 0 || c.Scheduler.BanLength <= 0 {
			return fmt.Errorf("%w: backoff match_limit and ban_length must be positive", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown scheduler %q", ErrConfig, c.Scheduler.Kind)
	}
	if _, err := c.CostFunction(); err != nil {
		return err
	}
	return nil
}

func (c *Config) CostFunction() (goegg.CostFunction, error) {
	switch c.Cost {
	case COST_AST_SIZE:
		return goegg.AstSize{}, nil
	case COST_AST_DEPTH:
		return goegg.AstDepth{}, nil
	}
	return nil, fmt.Errorf("%w: unknown cost function %q", ErrConfig, c.Cost)
}

func (c *Config) NewScheduler() goegg.Scheduler {
	if c.Scheduler.Kind == SCHED_BACKOFF {
		return goegg.NewBackoffScheduler().
			WithInitialMatchLimit(c.Scheduler.MatchLimit).
			WithBanLength(c.Scheduler.BanLength)
	}
	return goegg.SimpleScheduler{}
}

// applyFlags overrides the configuration with the flags set on the command
// line.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("iter-limit") {
		c.Limits.Iterations, err = flags.GetInt("iter-limit")
		if err != nil {
			return err
		}
	}
	if flags.Changed("node-limit") {
		c.Limits.Nodes, err = flags.GetInt("node-limit")
		if err != nil {
			return err
		}
	}
	if flags.Changed("time-limit") {
		c.Limits.Time, err = flags.GetDuration("time-limit")
		if err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		c.SearchWorkers, err = flags.GetInt("workers")
		if err != nil {
			return err
		}
	}
	if flags.Changed("cost") {
		c.Cost, err = flags.GetString("cost")
		if err != nil {
			return err
		}
	}
	if getFlag(cmd, "backoff") {
		c.Scheduler.Kind = SCHED_BACKOFF
	}
	return c.Validate()
}
