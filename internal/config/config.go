package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Comments CommentsConfig `mapstructure:"comments"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Mail     MailConfig     `mapstructure:"mail"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port        string    `mapstructure:"port"`
	TLS         TLSConfig `mapstructure:"tls"`
	StaticDir   string    `mapstructure:"static_dir"`
	CORSOrigin  string    `mapstructure:"cors_origin"`
	BehindProxy bool      `mapstructure:"behind_proxy"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver     string `mapstructure:"driver"` // "mysql" or "sqlite"
	DSN        string `mapstructure:"dsn"`
	Migrations string `mapstructure:"migrations"`
}

// SessionConfig holds the admin session cookie settings.
type SessionConfig struct {
	Lifetime   int    `mapstructure:"lifetime"` // hours
	CookieName string `mapstructure:"cookie_name"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CommentsConfig holds settings for comment creation.
type CommentsConfig struct {
	DeleteKeyCost int `mapstructure:"delete_key_cost"`
}

// NotifyConfig sizes the background reply-notification pool.
type NotifyConfig struct {
	Workers    int           `mapstructure:"workers"`
	QueueSize  int           `mapstructure:"queue_size"`
	Attempts   int           `mapstructure:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// MailConfig holds SMTP settings. Mail is disabled unless Host and From are set.
type MailConfig struct {
	SiteName   string `mapstructure:"site_name"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	From       string `mapstructure:"from"`
	Encryption string `mapstructure:"encryption"` // "starttls", "tls" or "none"
}

// Enabled reports whether enough settings are present to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-comments-app/")
	v.AddConfigPath("$HOME/.go-comments-app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	v.SetEnvPrefix("COMMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origin", "")
	v.SetDefault("server.behind_proxy", false)

	// parseTime is required for DATETIME columns, the CTE depth lifts MySQL's 1000-level default.
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "comments:comments@tcp(localhost:3306)/comments?parseTime=true&cte_max_recursion_depth=100000")
	v.SetDefault("db.migrations", "migrations")

	v.SetDefault("session.lifetime", 24)
	v.SetDefault("session.cookie_name", "comments_session")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("comments.delete_key_cost", bcrypt.DefaultCost)

	v.SetDefault("notify.workers", 16)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.attempts", 5)
	v.SetDefault("notify.retry_delay", "2s")

	v.SetDefault("mail.site_name", "Comments")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", "587")
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.encryption", "starttls")
}
