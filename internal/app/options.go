package app

import (
	"time"

	"bicycle_rental/internal/domain/calendar"
)

type serviceConfig struct {
	nowFn   func() time.Time
	metrics MetricsRecorder
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		nowFn:   time.Now,
		metrics: noopMetrics{},
	}
}

// Option configures the services of this package.
type Option func(*serviceConfig)

// WithClock overrides the time source; "today" is the calendar day of its result.
func WithClock(nowFn func() time.Time) Option {
	return func(c *serviceConfig) {
		if nowFn != nil {
			c.nowFn = nowFn
		}
	}
}

// WithMetrics sets the recorder that receives operation outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *serviceConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

func buildConfig(opts []Option) serviceConfig {
	cfg := defaultServiceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c serviceConfig) today() calendar.Date {
	return calendar.DateOf(c.nowFn())
}
