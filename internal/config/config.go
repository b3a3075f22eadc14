package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the data directory.
const FileName = "securebank.yaml"

// EnvPrefix prefixes environment overrides, e.g. SECUREBANK_STORAGE_DRIVER.
const EnvPrefix = "SECUREBANK"

// Config represents the top-level securebank.yaml configuration.
type Config struct {
	Bank    BankConfig    `yaml:"bank" mapstructure:"bank"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Events  EventsConfig  `yaml:"events" mapstructure:"events"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Ledger  LedgerConfig  `yaml:"ledger" mapstructure:"ledger"`
}

// BankConfig identifies the bank and the owner of unscoped requests.
type BankConfig struct {
	Name          string `yaml:"name" mapstructure:"name"`
	DefaultUserID string `yaml:"default_user_id" mapstructure:"default_user_id"`
	Currency      string `yaml:"currency" mapstructure:"currency"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	Path   string `yaml:"path" mapstructure:"path"`     // sqlite file, relative to the data directory
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// ServerConfig controls `securebank serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// EventsConfig enables NATS publishing when NATSURL is set.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url,omitempty" mapstructure:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LedgerConfig holds history defaults.
type LedgerConfig struct {
	DefaultPageSize int `yaml:"default_page_size" mapstructure:"default_page_size"`
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(bankName string) *Config {
	return &Config{
		Bank: BankConfig{
			Name:          bankName,
			DefaultUserID: "1",
			Currency:      "USD",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "securebank.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Events: EventsConfig{
			SubjectPrefix: "securebank",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "colorful",
		},
		Ledger: LedgerConfig{
			DefaultPageSize: 20,
		},
	}
}

// Load reads a securebank.yaml file and applies SECUREBANK_* environment
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default("SecureBank"))

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("bank.name", d.Bank.Name)
	v.SetDefault("bank.default_user_id", d.Bank.DefaultUserID)
	v.SetDefault("bank.currency", d.Bank.Currency)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("events.nats_url", d.Events.NATSURL)
	v.SetDefault("events.subject_prefix", d.Events.SubjectPrefix)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("ledger.default_page_size", d.Ledger.DefaultPageSize)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
