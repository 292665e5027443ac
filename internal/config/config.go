package config

import "os"

// Config holds all runtime settings. It is built once in main, after
// godotenv has loaded .env, and passed explicitly to every constructor.
// Business logic never reads the environment directly.
type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	RedisAddr      string // empty disables the aggregate cache
	JWTSecret      string
	AllowedOrigins string // comma-separated CORS allow-list; empty disables CORS
	DevMode        bool   // when true, error responses include wrapped cause detail
}

// Load reads the configuration from the environment, applying defaults
// for everything except the database URL and JWT secret.
func Load() Config {
	return Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		DevMode:        os.Getenv("DEV_MODE") == "true",
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
