package quash

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds shell configuration, read from QUASH_* environment variables.
type Config struct {
	MaxJobs      int           `envconfig:"MAX_JOBS" default:"1000" validate:"gte=0"`
	OutputDir    string        `envconfig:"OUTPUT_DIR"`
	OutputSuffix string        `envconfig:"OUTPUT_SUFFIX" default:"-temp_output.out" validate:"required"`
	OutputMode   string        `envconfig:"OUTPUT_MODE" default:"0644" validate:"required,octal_mode"`
	JobDB        string        `envconfig:"JOB_DB"`
	Prompt       string        `envconfig:"PROMPT" default:"[Quash: %w] q$ "`
	WaitDelay    time.Duration `envconfig:"WAIT_DELAY" default:"1s" validate:"gte=0"`
	Log          LogConfig     `envconfig:"LOG"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	File  string `envconfig:"FILE"`
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("quash", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when the environment sets
// nothing.
func DefaultConfig() *Config {
	return &Config{
		MaxJobs:      1000,
		OutputSuffix: "-temp_output.out",
		OutputMode:   "0644",
		Prompt:       "[Quash: %w] q$ ",
		WaitDelay:    time.Second,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("octal_mode", func(fl validator.FieldLevel) bool {
		_, err := parseMode(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return validate.Struct(c)
}

// FileMode is the permission mask for files the shell creates.
func (c *Config) FileMode() os.FileMode {
	mode, err := parseMode(c.OutputMode)
	if err != nil {
		return 0644
	}
	return mode
}

func parseMode(s string) (os.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	if n > 0777 {
		return 0, fmt.Errorf("mode %s out of range", s)
	}
	return os.FileMode(n), nil
}
