package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Configuration
	HTTPAddr        string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level

	// MQTT Configuration
	MQTTBroker               string
	MQTTClientID             string
	MQTTUsername             string
	MQTTPassword             string
	MQTTTopicTemperature     string
	MQTTTopicCommand         string
	MQTTConnectTimeout       time.Duration
	MQTTMaxReconnectInterval time.Duration

	// MongoDB Configuration (AAS document)
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// ClickHouse Configuration (temperature time series)
	ClickHouseAddr  string
	ClickHouseDB    string
	ClickHouseUser  string
	ClickHousePass  string
	ClickHouseTable string

	// Store access
	StoreTimeout       time.Duration
	TemperatureHistory int
	TelemetryBuffer    int
	AASSeedFile        string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnvLevel("LOG_LEVEL", slog.LevelInfo),

		MQTTBroker:               getEnv("MQTT_BROKER", "tcp://broker.hivemq.com:1883"),
		MQTTClientID:             getEnv("MQTT_CLIENT_ID", "aas-service"),
		MQTTUsername:             getEnv("MQTT_USERNAME", ""),
		MQTTPassword:             getEnv("MQTT_PASSWORD", ""),
		MQTTTopicTemperature:     getEnv("MQTT_TOPIC_TEMPERATURE", "iTamba/temperature"),
		MQTTTopicCommand:         getEnv("MQTT_TOPIC_COMMAND", "FishTankAAS/{family}/{property_id}"),
		MQTTConnectTimeout:       getEnvDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		MQTTMaxReconnectInterval: getEnvDuration("MQTT_MAX_RECONNECT_INTERVAL", time.Minute),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "db_fishTank"),
		MongoCollection: getEnv("MONGO_COLLECTION", "tank_data"),

		ClickHouseAddr:  getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:    getEnv("CLICKHOUSE_DB", "fishtank"),
		ClickHouseUser:  getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:  getEnv("CLICKHOUSE_PASS", ""),
		ClickHouseTable: getEnv("CLICKHOUSE_TABLE", "tank_temperature"),

		StoreTimeout:       getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		TemperatureHistory: getEnvInt("TEMPERATURE_HISTORY", 100),
		TelemetryBuffer:    getEnvInt("TELEMETRY_BUFFER", 100),
		AASSeedFile:        getEnvOptional("AAS_SEED_FILE", "configs/fishtank.yaml"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvOptional distinguishes an unset variable (default) from one set to the
// empty string (disabled).
func getEnvOptional(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default", slog.String("key", key), slog.String("value", value), slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil || intValue <= 0 {
		slog.Warn("Invalid integer, using default", slog.String("key", key), slog.Any("error", err))
		return defaultValue
	}
	return intValue
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		slog.Warn("Invalid log level, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return level
}
