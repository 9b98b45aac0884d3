package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config 服务全量配置，均可通过环境变量覆盖
type Config struct {
	HTTPAddr string

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	// MediaDir 上传图片落盘目录
	MediaDir string

	// PostsPerPage 首页/分组/关注流每页条数；ProfilePostsPerPage 个人页每页条数
	PostsPerPage        int
	ProfilePostsPerPage int

	// PageCacheTTL 首页整页缓存的过期时间
	PageCacheTTL time.Duration

	JWTAccessSecret  string
	JWTRefreshSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load 读取 .env（存在时）与环境变量，缺省项使用默认值
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MySQLDSN: getEnv("MYSQL_DSN",
			"user:password@tcp(127.0.0.1:3306)/yatube?charset=utf8mb4&parseTime=True"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "127.0.0.1:9092"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "yatube.follow.events"),

		MediaDir: getEnv("MEDIA_DIR", "media"),

		PostsPerPage:        getEnvInt("POSTS_PER_PAGE", 10),
		ProfilePostsPerPage: getEnvInt("PROFILE_POSTS_PER_PAGE", 5),

		PageCacheTTL: time.Duration(getEnvInt("PAGE_CACHE_TTL_SECONDS", 20)) * time.Second,

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
