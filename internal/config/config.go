package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/generator"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
)

// Notification drivers.
const (
	NotifyDriverLog  = "log"
	NotifyDriverSMTP = "smtp"
)

// minSuspiciousCount is the number of suspicious records needed for a generated
// batch to contain every violation combination.
var minSuspiciousCount = generator.MinSuspiciousCount(generator.DefaultCatalogue)

// Config is the fully resolved application configuration.
type Config struct {
	Notify    NotifyConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Rules     RulesConfig
	Generator GeneratorConfig
	Queue     QueueConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// QueueConfig controls the durable write queue.
type QueueConfig struct {
	FlushInterval time.Duration
}

// Region maps an IP prefix to its expected currency and banned status.
type Region struct {
	Prefix   string `mapstructure:"prefix"`
	Currency string `mapstructure:"currency"`
	Banned   bool   `mapstructure:"banned"`
}

// RulesConfig holds the fraud policy inputs.
type RulesConfig struct {
	AmountLimit decimal.Decimal
	Regions     []Region
}

// GeneratorConfig controls the clean/suspicious ratio of generated batches.
type GeneratorConfig struct {
	CleanCount      int
	SuspiciousCount int
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string
}

// SMTPConfig configures outgoing mail.
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string
	Port     int
}

// NotifyConfig selects the notification driver.
type NotifyConfig struct {
	Driver string
	SMTP   SMTPConfig
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultRegions returns the built-in prefix table.
func DefaultRegions() []Region {
	return []Region{
		{Prefix: "192.168.1.", Currency: "USD"},
		{Prefix: "10.0.0.", Currency: "AED", Banned: true},
		{Prefix: "172.16.0.", Currency: "EUR"},
		{Prefix: "192.168.100.", Currency: "INR", Banned: true},
		{Prefix: "10.1.1.", Currency: "GBP"},
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/fraud/fraud.db")
	v.SetDefault("queue.flush_interval", 5*time.Second)
	v.SetDefault("rules.amount_limit", "1000")
	v.SetDefault("generator.clean_count", 40)
	v.SetDefault("generator.suspicious_count", 10)
	v.SetDefault("server.addr", ":4000")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the configuration from v. Values missing from v fall back to
// FRAUD_SMTP_* environment variables for mail credentials, then to defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	limit, err := decimal.NewFromString(v.GetString("rules.amount_limit"))
	if err != nil {
		return nil, fmt.Errorf("%w: rules.amount_limit: %v", common.ErrInvalidConfig, err)
	}

	regions := DefaultRegions()
	if v.IsSet("rules.regions") {
		regions = nil
		if err := v.UnmarshalKey("rules.regions", &regions); err != nil {
			return nil, fmt.Errorf("%w: rules.regions: %v", common.ErrInvalidConfig, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString("database.path"))},
		Queue:    QueueConfig{FlushInterval: v.GetDuration("queue.flush_interval")},
		Rules: RulesConfig{
			AmountLimit: limit,
			Regions:     regions,
		},
		Generator: GeneratorConfig{
			CleanCount:      v.GetInt("generator.clean_count"),
			SuspiciousCount: v.GetInt("generator.suspicious_count"),
		},
		Server: ServerConfig{Addr: v.GetString("server.addr")},
		Notify: NotifyConfig{
			Driver: v.GetString("notify.driver"),
			SMTP: SMTPConfig{
				Host:     v.GetString("notify.smtp.host"),
				Port:     v.GetInt("notify.smtp.port"),
				Username: v.GetString("notify.smtp.username"),
				Password: v.GetString("notify.smtp.password"),
				From:     v.GetString("notify.smtp.from"),
			},
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	// Override with direct environment variables if not set
	if cfg.Notify.SMTP.Password == "" {
		cfg.Notify.SMTP.Password = os.Getenv("FRAUD_SMTP_PASSWORD")
	}
	if cfg.Notify.SMTP.From == "" {
		cfg.Notify.SMTP.From = os.Getenv("FRAUD_SMTP_FROM")
	}

	if cfg.Notify.Driver == "" {
		cfg.Notify.Driver = NotifyDriverLog
		if cfg.Notify.SMTP.Host != "" {
			cfg.Notify.Driver = NotifyDriverSMTP
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.Queue.FlushInterval <= 0 {
		return fmt.Errorf("%w: queue.flush_interval must be positive", common.ErrInvalidConfig)
	}
	if c.Rules.AmountLimit.IsNegative() {
		return fmt.Errorf("%w: rules.amount_limit must not be negative", common.ErrInvalidConfig)
	}
	if c.Generator.CleanCount < 0 {
		return fmt.Errorf("%w: generator.clean_count must not be negative", common.ErrInvalidConfig)
	}
	if c.Generator.SuspiciousCount < minSuspiciousCount {
		return fmt.Errorf("%w: generator.suspicious_count must be at least %d", common.ErrInvalidConfig, minSuspiciousCount)
	}

	seen := make(map[string]bool, len(c.Rules.Regions))
	for _, r := range c.Rules.Regions {
		if !strings.HasSuffix(r.Prefix, ".") || strings.Count(r.Prefix, ".") != 3 {
			return fmt.Errorf("%w: region prefix %q must be three octets followed by a dot", common.ErrInvalidConfig, r.Prefix)
		}
		if seen[r.Prefix] {
			return fmt.Errorf("%w: duplicate region prefix %q", common.ErrInvalidConfig, r.Prefix)
		}
		seen[r.Prefix] = true
	}

	switch c.Notify.Driver {
	case NotifyDriverLog:
	case NotifyDriverSMTP:
		if c.Notify.SMTP.Host == "" {
			return fmt.Errorf("%w: notify.smtp.host", common.ErrMissingConfig)
		}
		if c.Notify.SMTP.From == "" {
			return fmt.Errorf("%w: notify.smtp.from", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown notify.driver %q", common.ErrInvalidConfig, c.Notify.Driver)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Policy builds the fraud policy described by the rules configuration. Regions
// without a currency only contribute to the banned set.
func (r RulesConfig) Policy() rules.Policy {
	policy := rules.Policy{
		PrefixCurrencies: make(map[string]string, len(r.Regions)),
		AmountLimit:      r.AmountLimit,
		BannedPrefixes:   []string{},
	}
	for _, region := range r.Regions {
		if region.Currency != "" {
			policy.PrefixCurrencies[region.Prefix] = strings.ToUpper(region.Currency)
		}
		if region.Banned {
			policy.BannedPrefixes = append(policy.BannedPrefixes, region.Prefix)
		}
	}
	return policy
}
