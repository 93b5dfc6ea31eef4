package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string // Kênh pub/sub cho thông báo real-time

	AIServiceURL string        // Để trống nếu không có AI service
	AITimeout    time.Duration // Thời gian chờ tối đa cho 1 lần gọi predict

	SearchMinScore int // Điểm tối thiểu để một bãi xuất hiện trong kết quả search

	JWTSecret          string
	JWTExpirationHours time.Duration
	DemoPassword       string // Mật khẩu của 2 tài khoản demo được seed lúc khởi động

	LogLevel  string
	LogFormat string // "json" hoặc "console"
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Không thể tải file .env")
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	aiTimeoutMs, _ := strconv.Atoi(getEnv("AI_TIMEOUT_MS", "1500"))
	minScore, _ := strconv.Atoi(getEnv("SEARCH_MIN_SCORE", "1"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parkease"),
		DBPassword: getEnv("DB_PASSWORD", "parkease"),
		DBName:     getEnv("DB_NAME", "parkease_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""), // Để trống thì notifier chạy chế độ no-op
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		EventsChannel: getEnv("EVENTS_CHANNEL", "parkease:spot_events"),

		AIServiceURL: getEnv("AI_SERVICE_URL", ""),
		AITimeout:    time.Duration(aiTimeoutMs) * time.Millisecond,

		SearchMinScore: minScore,

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production-!@#$"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,
		DemoPassword:       getEnv("DEMO_PASSWORD", "demo1234"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
