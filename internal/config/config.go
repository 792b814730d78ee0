package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendLevelDB  = "leveldb"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	Table    string `yaml:"table"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// MQTTConfig 变更通知（默认关闭）
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         byte   `yaml:"qos"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Config clinic-data 配置
// 加载顺序：默认值 -> CLINIC_CONFIG 指定的 YAML 文件 -> 环境变量
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Storage struct {
		Backend     string `yaml:"backend"` // leveldb / redis / postgres / memory
		LevelDBPath string `yaml:"leveldb_path"`
	} `yaml:"storage"`

	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`

	Attachment struct {
		MaxBytes int64 `yaml:"max_bytes"` // per file, before encoding
	} `yaml:"attachment"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"` // stdout / stderr / file path
	} `yaml:"log"`
}

// Default returns the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Storage.Backend = BackendLevelDB
	cfg.Storage.LevelDBPath = "data/clinic.ldb"

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.KeyPrefix = "clinic:"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "clinic"
	cfg.Database.SSLMode = "disable"
	cfg.Database.Table = "clinic_kv"

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "clinic-data"
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = "clinic/changes"

	cfg.Attachment.MaxBytes = 5 << 20

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CLINIC_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.LevelDBPath = getEnv("LEVELDB_PATH", c.Storage.LevelDBPath)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = parseInt(os.Getenv("REDIS_DB"), c.Redis.DB)
	c.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", c.Redis.KeyPrefix)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = parseInt(os.Getenv("DB_PORT"), c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Table = getEnv("DB_TABLE", c.Database.Table)

	if v := os.Getenv("MQTT_ENABLED"); v != "" {
		c.MQTT.Enabled = v == "true"
	}
	c.MQTT.Broker = getEnv("MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Username = getEnv("MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getEnv("MQTT_PASSWORD", c.MQTT.Password)
	c.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTT.TopicPrefix)

	if v, err := strconv.ParseInt(os.Getenv("ATTACHMENT_MAX_BYTES"), 10, 64); err == nil && v > 0 {
		c.Attachment.MaxBytes = v
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Output = getEnv("LOG_OUTPUT", c.Log.Output)
}

// Validate rejects an unknown storage backend.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLevelDB, BackendRedis, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendLevelDB && c.Storage.LevelDBPath == "" {
		return fmt.Errorf("leveldb backend requires a path")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
