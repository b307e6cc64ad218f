package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config pulsera（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}

	// Redis（健康读数缓存）
	RedisEnabled bool
	Redis        struct {
		Addr     string
		Password string
		DB       int
	}

	// PostgreSQL（报警归档，可选）
	DBEnabled bool
	Database  DatabaseConfig

	// PulseNet 模型服务（状态/训练历史查询）
	PulseNet struct {
		BaseURL string
	}

	// MQTT 评分摄入（可选）
	MQTT MQTTConfig

	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// MQTTConfig MQTT 配置（设备评分上报通道）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Load 从环境变量加载配置（带默认值）
func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	// Default to false: without a DB pulsera keeps the full alert history in memory.
	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "pulsera")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.PulseNet.BaseURL = getEnv("PULSENET_BASE_URL", "")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "pulsera-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "pulsera/scores")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
