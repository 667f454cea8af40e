package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Runner     RunnerConfig
	MQ         MQConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Storage    StorageConfig
	Minio      MinioConfig
	GCS        GCSConfig
	Redis      RedisConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// RunnerConfig configures the external code-execution service.
type RunnerConfig struct {
	// URL is the Piston-compatible execute endpoint.
	URL string

	// TimeoutSeconds bounds a single batch of test-case executions.
	TimeoutSeconds int
}

// MQConfig selects the message broker backend. An empty Backend disables
// judged-event publishing.
type MQConfig struct {
	Backend     string // "rabbitmq", "pubsub" or ""
	JudgedTopic string
}

type RabbitMQConfig struct {
	URL           string
	QueueDurable  bool
	PrefetchCount int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// StorageConfig selects the object-storage backend for testcase archives.
// An empty Backend disables archive retention.
type StorageConfig struct {
	Backend string // "minio", "gcs" or ""
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// RedisConfig configures the optional progress-snapshot cache.
// An empty Addr disables caching.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "codetrail"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "codetrail_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Runner: RunnerConfig{
			URL:            getEnv("RUNNER_URL", "https://emkc.org/api/v2/piston/execute"),
			TimeoutSeconds: getEnvInt("RUNNER_TIMEOUT_SECONDS", 30),
		},
		MQ: MQConfig{
			Backend:     getEnv("MQ_BACKEND", ""),
			JudgedTopic: getEnv("MQ_JUDGED_TOPIC", "submission.judged"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           getEnv("RABBITMQ_URL", ""),
			QueueDurable:  getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			PrefetchCount: getEnvInt("RABBITMQ_PREFETCH_COUNT", 8),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "testcase-archives"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			TTLSeconds: getEnvInt("REDIS_PROGRESS_TTL_SECONDS", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}
