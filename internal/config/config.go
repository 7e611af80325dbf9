package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server reads from the environment (or .env).
type Config struct {
	Port              string
	BaseURL           string
	AllowedOrigins    []string
	DBDriver          string // mysql, postgres or sqlite
	DBDSN             string
	DBDebug           bool
	Migrations        bool
	JWTSecret         string
	TokenTTL          time.Duration
	AllowRegistration bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisChannel      string
	UploadDir         string
	GeminiAPIKey      string
	GeminiModel       string
	Debug             bool
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttlHours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil || ttlHours < 1 {
		ttlHours = 24
	}

	port := getEnv("PORT", "8080")
	cfg := Config{
		Port:              port,
		BaseURL:           strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		DBDebug:           getBool("DB_DEBUG"),
		Migrations:        getBool("MIGRATIONS"),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:          time.Duration(ttlHours) * time.Hour,
		AllowRegistration: getBool("ALLOW_REGISTRATION"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		RedisChannel:      getEnv("REDIS_CHANNEL", "pos:invoice-hint"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		Debug:             getBool("DEBUG"),
	}

	return cfg
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be set and at least 32 characters")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (mysql, postgres, sqlite)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN must be set")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
