// Package config loads service configuration from a YAML file with
// RELAYDESK_* environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig configures the cache backend. The service falls back to an
// in-memory cache when Redis is unreachable.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SalesforceConfig configures the CRM gateway. Missing credentials leave
// the gateway disconnected; CRM summaries then resolve to empty.
type SalesforceConfig struct {
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	SecurityToken string `mapstructure:"security_token"`
}

// Configured reports whether CRM credentials are present
func (c SalesforceConfig) Configured() bool {
	return c.Username != "" && c.Password != "" && c.SecurityToken != ""
}

// SlackConfig configures the Slack channel adapter
type SlackConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	SigningSecret string `mapstructure:"signing_secret"`
	AdminChannel  string `mapstructure:"admin_channel"`
}

// TwilioConfig configures the WhatsApp channel adapter
type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	PhoneNumber string `mapstructure:"phone_number"`
}

// ConversationConfig tunes the message pipeline
type ConversationConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	MaxMessageLength    int           `mapstructure:"max_message_length"`
	FrequentThreshold   int64         `mapstructure:"frequent_threshold"`
	FrequentTTL         time.Duration `mapstructure:"frequent_ttl"`
	CounterTTL          time.Duration `mapstructure:"counter_ttl"`
	ContextTTL          time.Duration `mapstructure:"context_ttl"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config is the root configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Salesforce   SalesforceConfig   `mapstructure:"salesforce"`
	Slack        SlackConfig        `mapstructure:"slack"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "relaydesk.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("salesforce.url", "https://login.salesforce.com")

	v.SetDefault("slack.admin_channel", "#customer-support-escalations")

	v.SetDefault("conversation.confidence_threshold", 0.7)
	v.SetDefault("conversation.max_message_length", 10000)
	v.SetDefault("conversation.frequent_threshold", 3)
	v.SetDefault("conversation.frequent_ttl", time.Hour)
	v.SetDefault("conversation.counter_ttl", 24*time.Hour)
	v.SetDefault("conversation.context_ttl", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration from path (optional) and the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RELAYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
