package config

import (
	"errors"
	"fmt"
	"time"

	"invader-notifier/internal/observability"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const DefaultNewsURL = "https://www.invader-spotter.art/news.php"

type Config struct {
	Source        SourceConfig        `yaml:"source"`
	HTTP          HttpConfig          `yaml:"http"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Robots        RobotsConfig        `yaml:"robots"`
	Rod           RodConfig           `yaml:"rod"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Observability ObservabilityConfig `yaml:"observability"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

type SourceConfig struct {
	NewsURL       string `yaml:"news_url" env:"NEWS_URL"`
	SelectorsFile string `yaml:"selectors_file"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	AcceptLanguage   string `yaml:"accept_language"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	BackoffMinMS     int    `yaml:"backoff_min_ms"`
	BackoffMaxMS     int    `yaml:"backoff_max_ms"`
	JitterPct        int    `yaml:"jitter_pct"`
}

type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

type RobotsConfig struct {
	Enabled       bool `yaml:"enabled"`
	CacheTTLHours int  `yaml:"cache_ttl_hours"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

// MQTTConfig is the broker connection used by the notifier. The five
// connection settings come from the environment in normal deployments.
type MQTTConfig struct {
	Host             string `yaml:"host" env:"MQTT_HOST"`
	Port             int    `yaml:"port" env:"MQTT_PORT"`
	Username         string `yaml:"username" env:"MQTT_USERNAME"`
	Password         string `yaml:"password" env:"MQTT_PASSWORD"`
	Topic            string `yaml:"topic" env:"MQTT_TOPIC"`
	QoS              int    `yaml:"qos"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	PublishTimeoutMS int    `yaml:"publish_timeout_ms"`
	MaxAttempts      int    `yaml:"max_attempts"`
	RetryDelayMS     int    `yaml:"retry_delay_ms"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path" env:"LOG_PATH"`
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL"`
	LogEncoding   string `yaml:"log_encoding"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// LoggerOptions maps the section onto the logger's options.
func (o ObservabilityConfig) LoggerOptions() observability.Options {
	return observability.Options{
		Path:       o.LogPath,
		Level:      o.LogLevel,
		Encoding:   o.LogEncoding,
		MaxSizeMB:  o.LogMaxSizeMB,
		MaxBackups: o.LogMaxBackups,
		MaxAgeDays: o.LogMaxAgeDays,
	}
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL"`
	Job            string `yaml:"job"`
}

// Default returns the settings used when no config file overrides them.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			NewsURL: DefaultNewsURL,
		},
		HTTP: HttpConfig{
			UserAgent:        "invader-notifier/1.0 (+https://github.com/invader-notifier)",
			AcceptLanguage:   "fr-FR,fr;q=0.9,en;q=0.5",
			ConnectTimeoutMS: 10000,
			TotalTimeoutMS:   30000,
			MaxRetries:       0,
			BackoffMinMS:     250,
			BackoffMaxMS:     2000,
			JitterPct:        20,
		},
		RateLimit: RateLimitConfig{
			RPM:   30,
			Burst: 1,
		},
		Robots: RobotsConfig{
			Enabled:       true,
			CacheTTLHours: 12,
		},
		Rod: RodConfig{
			PageTimeoutS:     30,
			WaitLoadTimeoutS: 15,
		},
		MQTT: MQTTConfig{
			QoS:              0,
			ConnectTimeoutMS: 10000,
			PublishTimeoutMS: 10000,
			MaxAttempts:      3,
			RetryDelayMS:     5000,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogEncoding:   "console",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
			LogMaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Job: "invader_notifier",
		},
	}
}

// Validate checks everything the pipeline relies on before any network activity.
func (c *Config) Validate() error {
	if c.Source.NewsURL == "" {
		return invalid("source.news_url is required")
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return invalid("mqtt.qos must be 0, 1 or 2")
	}
	if c.MQTT.ConnectTimeoutMS <= 0 {
		return invalid("mqtt.connect_timeout_ms must be > 0")
	}
	if c.MQTT.PublishTimeoutMS <= 0 {
		return invalid("mqtt.publish_timeout_ms must be > 0")
	}
	if c.MQTT.MaxAttempts <= 0 {
		return invalid("mqtt.max_attempts must be > 0")
	}
	if c.MQTT.RetryDelayMS <= 0 {
		return invalid("mqtt.retry_delay_ms must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return invalid("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return invalid("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return invalid("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return invalid("http.max_retries must be >= 0")
	}
	if c.HTTP.BackoffMinMS <= 0 || c.HTTP.BackoffMaxMS <= 0 {
		return invalid("http.backoff_min_ms and http.backoff_max_ms must be > 0")
	}
	if c.HTTP.BackoffMinMS > c.HTTP.BackoffMaxMS {
		return invalid("http.backoff_min_ms must be <= http.backoff_max_ms")
	}
	if c.HTTP.JitterPct < 0 || c.HTTP.JitterPct > 100 {
		return invalid("http.jitter_pct must be between 0 and 100")
	}
	if c.RateLimit.RPM <= 0 {
		return invalid("rate_limit.rpm must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return invalid("rate_limit.burst must be > 0")
	}
	if c.Robots.Enabled && c.Robots.CacheTTLHours <= 0 {
		return invalid("robots.cache_ttl_hours must be > 0")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return invalid("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return invalid("rod.wait_load_timeout_s must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return invalid("observability.log_level is required")
	}
	return nil
}

// Validate checks the five broker settings. Port must be a positive TCP port.
func (m *MQTTConfig) Validate() error {
	var missing []string
	if m.Host == "" {
		missing = append(missing, "MQTT_HOST")
	}
	if m.Port == 0 {
		missing = append(missing, "MQTT_PORT")
	}
	if m.Username == "" {
		missing = append(missing, "MQTT_USERNAME")
	}
	if m.Password == "" {
		missing = append(missing, "MQTT_PASSWORD")
	}
	if m.Topic == "" {
		missing = append(missing, "MQTT_TOPIC")
	}
	if len(missing) > 0 {
		return invalid(fmt.Sprintf("MQTT configuration missing: %v", missing))
	}
	if m.Port < 0 || m.Port > 65535 {
		return invalid(fmt.Sprintf("invalid MQTT port number: %d", m.Port))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.Robots.CacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (m *MQTTConfig) GetConnectTimeout() time.Duration {
	return time.Duration(m.ConnectTimeoutMS) * time.Millisecond
}

func (m *MQTTConfig) GetPublishTimeout() time.Duration {
	return time.Duration(m.PublishTimeoutMS) * time.Millisecond
}

func (m *MQTTConfig) GetRetryDelay() time.Duration {
	return time.Duration(m.RetryDelayMS) * time.Millisecond
}
