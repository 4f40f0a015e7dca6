// Package config загружает конфигурацию сервера телеметрии.
// Значения берутся из переменных окружения, флагов командной строки и JSON-файла
// в порядке убывания приоритета; незаданные параметры получают значения по умолчанию.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/levinOo/go-telemetry-project/internal/alerting"
	"github.com/levinOo/go-telemetry-project/internal/sampler"
	"github.com/levinOo/go-telemetry-project/internal/stats"
	"github.com/levinOo/go-telemetry-project/internal/telemetry"
)

// Config содержит параметры сервера телеметрии.
type Config struct {
	// Addr задаёт адрес HTTP-сервера (например, "localhost:8080").
	Addr string `env:"ADDRESS" json:"address"`

	LogLevel string `env:"LOG_LEVEL" json:"log_level"`

	// PprofAddr включает pprof на указанном адресе. Пустое значение отключает профилирование.
	PprofAddr string `env:"PPROF_ADDRESS" json:"pprof_address"`

	// ConfigFilePath указывает JSON-файл конфигурации. Пустое значение отключает чтение файла.
	ConfigFilePath string `env:"CONFIG" json:"-"`

	CallLogSize    int `env:"CALL_LOG_SIZE" json:"call_log_size"`
	MetricsLogSize int `env:"METRICS_LOG_SIZE" json:"metrics_log_size"`
	ErrorLogSize   int `env:"ERROR_LOG_SIZE" json:"error_log_size"`

	// SampleInterval, SampleBackoff и SampleTimeout задаются в секундах.
	SampleInterval int `env:"SAMPLE_INTERVAL" json:"sample_interval"`
	SampleBackoff  int `env:"SAMPLE_BACKOFF" json:"sample_backoff"`
	SampleTimeout  int `env:"SAMPLE_TIMEOUT" json:"sample_timeout"`

	// DiskPath указывает точку монтирования, заполненность которой попадает в снимки хоста.
	DiskPath string `env:"DISK_PATH" json:"disk_path"`

	ResponseTimeWarning  float64 `env:"RESPONSE_TIME_WARNING" json:"response_time_warning"`
	ResponseTimeCritical float64 `env:"RESPONSE_TIME_CRITICAL" json:"response_time_critical"`
	CPUWarning           float64 `env:"CPU_WARNING" json:"cpu_warning"`
	CPUCritical          float64 `env:"CPU_CRITICAL" json:"cpu_critical"`
	MemoryWarning        float64 `env:"MEMORY_WARNING" json:"memory_warning"`
	MemoryCritical       float64 `env:"MEMORY_CRITICAL" json:"memory_critical"`

	// RetentionDays задаёт возраст данных в днях, после которого они удаляются очисткой.
	RetentionDays int `env:"RETENTION_DAYS" json:"retention_days"`

	// SweepInterval задаёт период фоновой очистки в часах. 0 отключает фоновую очистку.
	SweepInterval int `env:"SWEEP_INTERVAL" json:"sweep_interval"`

	// AddrDB содержит DSN PostgreSQL для журнала алертов. Пустое значение отключает журнал.
	AddrDB string `env:"DATABASE_DSN" json:"database_dsn"`

	// AlertFile указывает файл, в который дописываются алерты.
	AlertFile string `env:"ALERT_FILE" json:"alert_file"`

	// AlertURL содержит адрес webhook для алертов.
	AlertURL string `env:"ALERT_URL" json:"alert_url"`

	// Key подписывает тело webhook HMAC SHA256. Пустое значение отключает подпись.
	Key string `env:"KEY" json:"key"`

	// ExternalAPIs отображает имя внешнего API в URL проверки.
	ExternalAPIs map[string]string `env:"EXTERNAL_APIS" envSeparator:"," envKeyValSeparator:"=" json:"external_apis"`

	// ExternalCheckInterval задаётся в секундах. 0 отключает периодические проверки.
	ExternalCheckInterval int `env:"EXTERNAL_CHECK_INTERVAL" json:"external_check_interval"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() Config {
	t := alerting.DefaultThresholds()
	return Config{
		Addr:                  "localhost:8080",
		LogLevel:              "info",
		CallLogSize:           telemetry.DefaultCallLogSize,
		MetricsLogSize:        telemetry.DefaultMetricsLogSize,
		ErrorLogSize:          stats.DefaultErrorLogSize,
		SampleInterval:        int(sampler.DefaultPeriod / time.Second),
		SampleBackoff:         int(sampler.DefaultBackoff / time.Second),
		SampleTimeout:         int(sampler.DefaultReadTimeout / time.Second),
		DiskPath:              "/",
		ResponseTimeWarning:   t.ResponseTimeWarning,
		ResponseTimeCritical:  t.ResponseTimeCritical,
		CPUWarning:            t.CPUWarning,
		CPUCritical:           t.CPUCritical,
		MemoryWarning:         t.MemoryWarning,
		MemoryCritical:        t.MemoryCritical,
		RetentionDays:         7,
		SweepInterval:         int(telemetry.DefaultSweepInterval / time.Hour),
		ExternalCheckInterval: 60,
	}
}

// GetConfig собирает конфигурацию из args (без имени программы), файла и окружения.
//
// Поддерживаемые флаги:
//
//	-a: адрес сервера
//	-config: путь к JSON-файлу конфигурации
//	-d: строка подключения к базе данных
//	-k: ключ HMAC для webhook
//	-p: файл для алертов
//	-u: URL webhook для алертов
//	-apis: внешние API в виде "name=url,name=url"
//
// Остальные флаги перечислены в newFlagSet.
func GetConfig(args []string) (Config, error) {
	cfg := Default()

	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if path, ok := os.LookupEnv("CONFIG"); ok {
		cfg.ConfigFilePath = path
	}
	if cfg.ConfigFilePath != "" {
		if err := loadFile(cfg.ConfigFilePath, &cfg); err != nil {
			return Config{}, err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return Config{}, fmt.Errorf("reapply flag -%s: %w", name, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("telemetry", flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "HTTP server address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.PprofAddr, "pprof", cfg.PprofAddr, "pprof listen address")
	fs.StringVar(&cfg.ConfigFilePath, "config", cfg.ConfigFilePath, "path to config file")
	fs.IntVar(&cfg.CallLogSize, "call-log", cfg.CallLogSize, "endpoint call log capacity")
	fs.IntVar(&cfg.MetricsLogSize, "metrics-log", cfg.MetricsLogSize, "host sample log capacity")
	fs.IntVar(&cfg.ErrorLogSize, "error-log", cfg.ErrorLogSize, "per-endpoint error log capacity")
	fs.IntVar(&cfg.SampleInterval, "sample-interval", cfg.SampleInterval, "host sample interval in seconds")
	fs.IntVar(&cfg.SampleBackoff, "sample-backoff", cfg.SampleBackoff, "delay after a failed sample in seconds")
	fs.IntVar(&cfg.SampleTimeout, "sample-timeout", cfg.SampleTimeout, "host read timeout in seconds")
	fs.StringVar(&cfg.DiskPath, "disk", cfg.DiskPath, "mount point for disk usage")
	fs.Float64Var(&cfg.ResponseTimeWarning, "rt-warn", cfg.ResponseTimeWarning, "response time warning threshold, s")
	fs.Float64Var(&cfg.ResponseTimeCritical, "rt-crit", cfg.ResponseTimeCritical, "response time critical threshold, s")
	fs.Float64Var(&cfg.CPUWarning, "cpu-warn", cfg.CPUWarning, "CPU warning threshold, %")
	fs.Float64Var(&cfg.CPUCritical, "cpu-crit", cfg.CPUCritical, "CPU critical threshold, %")
	fs.Float64Var(&cfg.MemoryWarning, "mem-warn", cfg.MemoryWarning, "memory warning threshold, %")
	fs.Float64Var(&cfg.MemoryCritical, "mem-crit", cfg.MemoryCritical, "memory critical threshold, %")
	fs.IntVar(&cfg.RetentionDays, "retention", cfg.RetentionDays, "data retention in days")
	fs.IntVar(&cfg.SweepInterval, "sweep", cfg.SweepInterval, "cleanup interval in hours")
	fs.StringVar(&cfg.AddrDB, "d", cfg.AddrDB, "Database address")
	fs.StringVar(&cfg.AlertFile, "p", cfg.AlertFile, "alert file path")
	fs.StringVar(&cfg.AlertURL, "u", cfg.AlertURL, "alert webhook url")
	fs.StringVar(&cfg.Key, "k", cfg.Key, "Hash key")
	fs.Var((*apisFlag)(&cfg.ExternalAPIs), "apis", "external APIs as name=url pairs")
	fs.IntVar(&cfg.ExternalCheckInterval, "check-interval", cfg.ExternalCheckInterval, "external API check interval in seconds")

	return fs
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// Validate проверяет согласованность порогов и размеров.
func (c Config) Validate() error {
	var errs []error
	if c.CallLogSize <= 0 || c.MetricsLogSize <= 0 || c.ErrorLogSize <= 0 {
		errs = append(errs, errors.New("log capacities must be positive"))
	}
	if c.ResponseTimeWarning > c.ResponseTimeCritical {
		errs = append(errs, fmt.Errorf("response time warning %.2f exceeds critical %.2f", c.ResponseTimeWarning, c.ResponseTimeCritical))
	}
	if c.CPUWarning > c.CPUCritical {
		errs = append(errs, fmt.Errorf("cpu warning %.2f exceeds critical %.2f", c.CPUWarning, c.CPUCritical))
	}
	if c.MemoryWarning > c.MemoryCritical {
		errs = append(errs, fmt.Errorf("memory warning %.2f exceeds critical %.2f", c.MemoryWarning, c.MemoryCritical))
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, errors.New("retention must be at least one day"))
	}
	return errors.Join(errs...)
}

// Thresholds возвращает пороги алертов.
func (c Config) Thresholds() alerting.Thresholds {
	return alerting.Thresholds{
		ResponseTimeWarning:  c.ResponseTimeWarning,
		ResponseTimeCritical: c.ResponseTimeCritical,
		CPUWarning:           c.CPUWarning,
		CPUCritical:          c.CPUCritical,
		MemoryWarning:        c.MemoryWarning,
		MemoryCritical:       c.MemoryCritical,
	}
}

// ToTelemetry преобразует конфигурацию в параметры ядра телеметрии.
func (c Config) ToTelemetry() telemetry.Config {
	return telemetry.Config{
		CallLogSize:    c.CallLogSize,
		MetricsLogSize: c.MetricsLogSize,
		ErrorLogSize:   c.ErrorLogSize,
		Sampler: sampler.Config{
			Period:      time.Duration(c.SampleInterval) * time.Second,
			Backoff:     time.Duration(c.SampleBackoff) * time.Second,
			ReadTimeout: time.Duration(c.SampleTimeout) * time.Second,
		},
		DiskPath:      c.DiskPath,
		Thresholds:    c.Thresholds(),
		RetentionAge:  time.Duration(c.RetentionDays) * 24 * time.Hour,
		SweepInterval: time.Duration(c.SweepInterval) * time.Hour,
	}
}

// apisFlag разбирает список "name=url,name=url".
type apisFlag map[string]string

func (a *apisFlag) String() string {
	if a == nil || len(*a) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(*a))
	for name, url := range *a {
		pairs = append(pairs, name+"="+url)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (a *apisFlag) Set(value string) error {
	apis := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			return fmt.Errorf("invalid api %q, want name=url", pair)
		}
		apis[name] = url
	}
	*a = apis
	return nil
}
