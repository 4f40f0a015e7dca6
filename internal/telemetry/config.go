package telemetry

import (
	"time"

	"github.com/levinOo/go-telemetry-project/internal/alerting"
	"github.com/levinOo/go-telemetry-project/internal/sampler"
	"github.com/levinOo/go-telemetry-project/internal/stats"
)

// Значения по умолчанию.
const (
	DefaultCallLogSize      = 10000
	DefaultMetricsLogSize   = 1000
	DefaultRecentCallsLimit = 50
	DefaultRetentionAge     = 7 * 24 * time.Hour
	DefaultSweepInterval    = 7 * 24 * time.Hour
)

// Config задаёт ёмкости буферов, интервалы опроса хоста, пороги и параметры хранения.
type Config struct {
	CallLogSize    int
	MetricsLogSize int
	ErrorLogSize   int

	Sampler  sampler.Config
	DiskPath string

	Thresholds alerting.Thresholds

	// RetentionAge задаёт возраст, старше которого данные удаляются при очистке.
	RetentionAge time.Duration

	// SweepInterval задаёт период фоновой очистки. Нулевое значение отключает фоновую очистку.
	SweepInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		CallLogSize:    DefaultCallLogSize,
		MetricsLogSize: DefaultMetricsLogSize,
		ErrorLogSize:   stats.DefaultErrorLogSize,
		Sampler: sampler.Config{
			Period:      sampler.DefaultPeriod,
			Backoff:     sampler.DefaultBackoff,
			ReadTimeout: sampler.DefaultReadTimeout,
		},
		DiskPath:      "/",
		Thresholds:    alerting.DefaultThresholds(),
		RetentionAge:  DefaultRetentionAge,
		SweepInterval: DefaultSweepInterval,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CallLogSize <= 0 {
		c.CallLogSize = d.CallLogSize
	}
	if c.MetricsLogSize <= 0 {
		c.MetricsLogSize = d.MetricsLogSize
	}
	if c.ErrorLogSize <= 0 {
		c.ErrorLogSize = d.ErrorLogSize
	}
	if c.DiskPath == "" {
		c.DiskPath = d.DiskPath
	}
	if c.Thresholds == (alerting.Thresholds{}) {
		c.Thresholds = d.Thresholds
	}
	if c.RetentionAge <= 0 {
		c.RetentionAge = d.RetentionAge
	}
	return c
}

// Clock абстрагирует источник времени.
type Clock interface {
	Now() time.Time
}

// RealClock возвращает системное время.
type RealClock struct{}

// Now реализует Clock.
func (RealClock) Now() time.Time { return time.Now() }

// Option настраивает Core при создании.
type Option func(*Core)

// WithClock подменяет источник времени.
func WithClock(clock Clock) Option {
	return func(c *Core) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithProbe подменяет источник показателей хоста.
func WithProbe(probe sampler.Probe) Option {
	return func(c *Core) {
		if probe != nil {
			c.probe = probe
		}
	}
}
