package operations

import (
	"time"
)

// Config holds operation execution configuration
type Config struct {
	ContinueOnError bool                     `json:"continue_on_error"`
	RetryConfig     RetryConfig              `json:"retry_config"`
	StepTimeouts    map[string]time.Duration `json:"step_timeouts"`
	DefaultTimeout  time.Duration            `json:"default_timeout"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{
		ContinueOnError: false,
		RetryConfig:     NewRetryConfig(),
		DefaultTimeout:  DefaultStepTimeout,
		StepTimeouts: map[string]time.Duration{
			StepIDLoad:      DefaultLoadTimeout,
			StepIDFeaturize: DefaultFeaturizeTimeout,
			StepIDSummarize: DefaultSummarizeTimeout,
			StepIDExport:    DefaultExportTimeout,
		},
	}
}

// GetStepTimeout returns the timeout for a specific step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout overrides the timeout for a specific step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}
