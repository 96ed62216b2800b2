package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	JWTSecret     string

	PollIntervalSeconds  int    // 客户端核心轮询刷新间隔（秒）
	ChallengeWindowHours int    // 每期挑战的公开窗口时长（小时）
	ChallengeRotateCron  string // 挑战轮换的 cron 表达式
	CycleCacheTTLSeconds int    // 当前挑战在 Redis 中的缓存时长（秒）
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "30"))
	windowHours, _ := strconv.Atoi(getEnv("CHALLENGE_WINDOW_HOURS", "24"))
	cycleCacheTTL, _ := strconv.Atoi(getEnv("CYCLE_CACHE_TTL_SECONDS", "60"))

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		JWTSecret:     os.Getenv("JWT_SECRET"),

		PollIntervalSeconds:  pollInterval,
		ChallengeWindowHours: windowHours,
		ChallengeRotateCron:  getEnv("CHALLENGE_ROTATE_CRON", "0 0 * * *"),
		CycleCacheTTLSeconds: cycleCacheTTL,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
