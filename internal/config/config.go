package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Location LocationConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WSLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
}

// RedisConfig mirrors the two deployments the service talks to: a cache
// instance (liveness flags + directive pub/sub) and a storage instance that
// holds the geo index.
type RedisConfig struct {
	Driver     string // "redis" or "memory"
	CacheURL   string
	StorageURL string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

type LocationConfig struct {
	GeoIndexKey       string
	LivenessKeyPrefix string
	LivenessTTL       time.Duration

	DefaultRadiusKm      int
	SearchLimit          int
	LivenessConcurrency  int
	LivenessCheckTimeout time.Duration

	PublishTimeout  time.Duration
	HighFrequencyMs int64
	LowFrequencyMs  int64

	PingInterval      time.Duration
	InactivityTimeout time.Duration
	WriteWait         time.Duration
	SubscribeRetries  int
	SubscribeBackoff  time.Duration
	SampleInterval    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WSLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/location-ws.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Redis: RedisConfig{
			Driver:     getEnv("STORE_DRIVER", StoreDriverRedis),
			CacheURL:   getEnv("REDIS_CACHE_URL", "redis://localhost:6379/0"),
			StorageURL: getEnv("REDIS_STORAGE_URL", "redis://localhost:6380/0"),
		},
		Location: LocationConfig{
			GeoIndexKey:       getEnv("GEO_INDEX_KEY", "driver_locations"),
			LivenessKeyPrefix: getEnv("LIVENESS_KEY_PREFIX", "liveness:"),
			LivenessTTL:       getEnvAsDuration("LIVENESS_TTL", 30*time.Second),

			DefaultRadiusKm:      getEnvAsInt("SEARCH_DEFAULT_RADIUS_KM", 5),
			SearchLimit:          getEnvAsInt("SEARCH_LIMIT", 50),
			LivenessConcurrency:  getEnvAsInt("LIVENESS_CONCURRENCY", 10),
			LivenessCheckTimeout: getEnvAsDuration("LIVENESS_CHECK_TIMEOUT", 200*time.Millisecond),

			PublishTimeout:  getEnvAsDuration("DIRECTIVE_PUBLISH_TIMEOUT", 2*time.Second),
			HighFrequencyMs: int64(getEnvAsInt("HIGH_FREQUENCY_INTERVAL_MS", 1000)),
			LowFrequencyMs:  int64(getEnvAsInt("LOW_FREQUENCY_INTERVAL_MS", 5000)),

			PingInterval:      getEnvAsDuration("WS_PING_INTERVAL", 10*time.Second),
			InactivityTimeout: getEnvAsDuration("WS_INACTIVITY_TIMEOUT", 30*time.Second),
			WriteWait:         getEnvAsDuration("WS_WRITE_WAIT", 10*time.Second),
			SubscribeRetries:  getEnvAsInt("WS_SUBSCRIBE_RETRIES", 3),
			SubscribeBackoff:  getEnvAsDuration("WS_SUBSCRIBE_BACKOFF", 2*time.Second),
			SampleInterval:    time.Duration(getEnvAsInt("LOCATION_SAMPLE_INTERVAL_MS", 0)) * time.Millisecond,
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s", "200ms").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
