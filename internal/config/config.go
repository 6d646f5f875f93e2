package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		ENV string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Component string `yaml:"component"`
		Source    bool   `yaml:"source"`
		File      string `yaml:"file"`
	} `yaml:"log"`

	DB struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		LogSQL   bool   `yaml:"log_sql"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	HTTP struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"http"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Engine struct {
		DefaultLimit     int           `yaml:"default_limit"`
		OversampleFactor int           `yaml:"oversample_factor"`
		LockTTL          time.Duration `yaml:"lock_ttl"`
		LockAttempts     uint64        `yaml:"lock_attempts"`
		TxAttempts       uint64        `yaml:"tx_attempts"`
	} `yaml:"engine"`
}

// New builds the configuration.
//
// Sources, lowest precedence first:
//  1. built-in defaults
//  2. YAML file named by CONFIG_FILE (optional)
//  3. environment variables, including a .env file in the working directory
func New() *Config {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}
	cfg.applyEnv()
	return cfg
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.ENV = "development"

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.Component = "intro_match"

	cfg.DB.Driver = "mysql"
	cfg.DB.Host = "localhost"
	cfg.DB.Port = "3306"
	cfg.DB.User = "root"
	cfg.DB.Password = "root"
	cfg.DB.Name = "intromatch"
	cfg.DB.SSLMode = "disable"

	cfg.Redis.Addr = "localhost:6379"

	cfg.GRPC.Host = "127.0.0.1"
	cfg.GRPC.Port = "50051"
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "intromatch.matches"

	cfg.Engine.DefaultLimit = 10
	cfg.Engine.OversampleFactor = 3
	cfg.Engine.LockTTL = 5 * time.Second
	cfg.Engine.LockAttempts = 20
	cfg.Engine.TxAttempts = 5
	return cfg
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func (c *Config) applyEnv() {
	c.App.ENV = getEnvDefault("APP_ENV", c.App.ENV)

	// Logger
	c.Log.Level = getEnvDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvDefault("LOG_FORMAT", c.Log.Format)
	c.Log.Component = getEnvDefault("LOG_COMPONENT", c.Log.Component)
	if v, ok := os.LookupEnv("LOG_SOURCE"); ok {
		c.Log.Source = isTruthy(v)
	}
	c.Log.File = getEnvDefault("LOG_FILE", c.Log.File)

	// Database
	c.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", c.DB.Driver))
	c.DB.DSN = getEnvDefault("DB_DSN", getEnvDefault("MYSQL_DSN", c.DB.DSN))
	c.DB.Host = getEnvDefault("DB_HOST", c.DB.Host)
	c.DB.Port = getEnvDefault("DB_PORT", c.DB.Port)
	c.DB.User = getEnvDefault("DB_USER", c.DB.User)
	c.DB.Password = getEnvDefault("DB_PASSWORD", c.DB.Password)
	c.DB.Name = getEnvDefault("DB_NAME", c.DB.Name)
	c.DB.SSLMode = getEnvDefault("DB_SSLMODE", c.DB.SSLMode)
	if v, ok := os.LookupEnv("DB_LOG_SQL"); ok {
		c.DB.LogSQL = isTruthy(v)
	}
	if c.DB.DSN == "" {
		c.DB.DSN = c.buildDSN()
	}

	// Redis
	c.Redis.Addr = getEnvDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvDefault("REDIS_PASSWORD", c.Redis.Password)
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = dbInt
		}
	}

	// gRPC / HTTP
	c.GRPC.Host = getEnvDefault("GRPC_HOST", c.GRPC.Host)
	c.GRPC.Port = getEnvDefault("GRPC_PORT", c.GRPC.Port)
	c.HTTP.Host = getEnvDefault("HTTP_HOST", c.HTTP.Host)
	c.HTTP.Port = getEnvDefault("HTTP_PORT", c.HTTP.Port)

	// Kafka
	if v, ok := os.LookupEnv("KAFKA_ENABLED"); ok {
		c.Kafka.Enabled = isTruthy(v)
	}
	if v := getEnvDefault("KAFKA_BROKERS", ""); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnvDefault("KAFKA_TOPIC", c.Kafka.Topic)

	// Engine
	c.Engine.DefaultLimit = getEnvInt("ENGINE_DEFAULT_LIMIT", c.Engine.DefaultLimit)
	c.Engine.OversampleFactor = getEnvInt("ENGINE_OVERSAMPLE_FACTOR", c.Engine.OversampleFactor)
	if v := getEnvDefault("ENGINE_LOCK_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Engine.LockTTL = d
		}
	}
	c.Engine.LockAttempts = uint64(getEnvInt("ENGINE_LOCK_ATTEMPTS", int(c.Engine.LockAttempts)))
	c.Engine.TxAttempts = uint64(getEnvInt("ENGINE_TX_ATTEMPTS", int(c.Engine.TxAttempts)))
}

func (c *Config) buildDSN() string {
	switch c.DB.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
		)
	case "sqlite":
		return c.DB.Name + ".db"
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
		)
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
