package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	MaxUploadMB int           `yaml:"max_upload_mb"`
	// Bootstrap admin, created on startup when no user with this name exists.
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DashboardTTL time.Duration `yaml:"dashboard_ttl"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type MinIOConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Bucket     string        `yaml:"bucket"`
	UseSSL     bool          `yaml:"use_ssl"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// EmbeddingConfig points at the external face embedding service.
type EmbeddingConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	Dimensions int           `yaml:"dimensions"`
}

const DefaultSearchThreshold = 0.6

type SearchConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold"`
	MaxResults       int     `yaml:"max_results"`
	NotifyOnSuccess  bool    `yaml:"notify_on_success"`
}

// AlertsConfig selects where audit alerts are published: "nats", "kafka" or "none".
type AlertsConfig struct {
	Transport string        `yaml:"transport"`
	Subject   string        `yaml:"subject"`
	Timeout   time.Duration `yaml:"timeout"`
}

type IndexerConfig struct {
	WorkerCount  int    `yaml:"worker_count"`
	ConsumerName string `yaml:"consumer_name"`
	MetricsPort  int    `yaml:"metrics_port"`
}

type RetentionConfig struct {
	Days     int           `yaml:"days"`
	Interval time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file, loads an optional .env file and applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Zero is a valid threshold, so its default is set before decoding
	// rather than in setDefaults.
	cfg := &Config{Search: SearchConfig{DefaultThreshold: DefaultSearchThreshold}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if t := cfg.Search.DefaultThreshold; t < 0 || t > 1 {
		return nil, fmt.Errorf("search.default_threshold %v outside [0, 1]", t)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TokenTTL == 0 {
		cfg.Server.TokenTTL = time.Hour
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 20
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.DashboardTTL == 0 {
		cfg.Redis.DashboardTTL = 300 * time.Second
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "photohub-alerts"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "event-photos"
	}
	if cfg.MinIO.PresignTTL == 0 {
		cfg.MinIO.PresignTTL = 15 * time.Minute
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:8001/process_face"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 50
	}
	if cfg.Alerts.Transport == "" {
		cfg.Alerts.Transport = "nats"
	}
	if cfg.Alerts.Subject == "" {
		cfg.Alerts.Subject = "alerts"
	}
	if cfg.Alerts.Timeout == 0 {
		cfg.Alerts.Timeout = 5 * time.Second
	}
	if cfg.Indexer.WorkerCount == 0 {
		cfg.Indexer.WorkerCount = 4
	}
	if cfg.Indexer.ConsumerName == "" {
		cfg.Indexer.ConsumerName = "face-indexer"
	}
	if cfg.Indexer.MetricsPort == 0 {
		cfg.Indexer.MetricsPort = 8082
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 365
	}
	if cfg.Retention.Interval == 0 {
		cfg.Retention.Interval = 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FD_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("FD_ADMIN_USERNAME"); v != "" {
		cfg.Server.AdminUsername = v
	}
	if v := os.Getenv("FD_ADMIN_PASSWORD"); v != "" {
		cfg.Server.AdminPassword = v
	}
	if v := os.Getenv("FD_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FD_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FD_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FD_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("FD_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FD_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = v
	}
	if v := os.Getenv("FD_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FD_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FD_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FD_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FD_EMBEDDING_URL"); v != "" {
		cfg.Embedding.URL = v
	}
	if v := os.Getenv("FD_ALERTS_TRANSPORT"); v != "" {
		cfg.Alerts.Transport = v
	}
	if v := os.Getenv("FD_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retention.Days = n
		}
	}
	if v := os.Getenv("FD_INDEXER_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.WorkerCount = n
		}
	}
}
