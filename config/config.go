package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	// PublicBaseURL is the externally reachable prefix used to build the
	// accept/deny links embedded in owner email.
	PublicBaseURL string `yaml:"public_base_url"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	// BackupName, when set, names a second database that receives
	// best-effort mirror writes of decision transitions.
	BackupName string `yaml:"backup_name"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) BackupDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.BackupName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	AuditTopic         string   `yaml:"audit_topic"`
	GroupID            string   `yaml:"group_id"`
}

type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	OwnerEmail string `yaml:"owner_email"`
}

type AuthConfig struct {
	// Mode selects the inbound credential check: "secret" compares the
	// X-Api-Key header against Secret, "hmac" verifies an X-Signature
	// header computed over the raw body plus the X-Submission-Id header.
	Mode   string `yaml:"mode"`
	Secret string `yaml:"secret"`
}

type RateLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

type BookingConfig struct {
	// IDStrategy is "uuid" or "deterministic".
	IDStrategy           string `yaml:"id_strategy"`
	LockTTLSeconds       int    `yaml:"lock_ttl_seconds"`
	TokenAuditTTLMinutes int    `yaml:"token_audit_ttl_minutes"`
	StoreRetryAttempts   int    `yaml:"store_retry_attempts"`
	StoreRetryBackoffMs  int    `yaml:"store_retry_backoff_ms"`
}

type WorkerConfig struct {
	TokenSweepMinutes int `yaml:"token_sweep_minutes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Secrets may be given as ${ENV_VAR} references.
	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
	cfg.SMTP.Password = os.ExpandEnv(cfg.SMTP.Password)
	cfg.Auth.Secret = os.ExpandEnv(cfg.Auth.Secret)

	// A zero sweep interval would make the worker's ticker panic.
	if cfg.Worker.TokenSweepMinutes <= 0 {
		cfg.Worker.TokenSweepMinutes = 60
	}

	return &cfg, nil
}
