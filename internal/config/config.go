package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret   string
	AuthTokenTTLMin int

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ImportOrgRate   float64
	ImportOrgBurst  int
	ImportUserRate  float64
	ImportUserBurst int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	StorageDir     string
	StorageBaseURL string

	DefaultOrgName     string
	BootstrapEmail     string
	BootstrapPassword  string
	EnsureDefaultAdmin bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_SERVICE", "leadstack")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AUTH_TOKEN_TTL_MINUTES", 720)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "leadstack")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 25)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", 300)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IMPORT_ORG_RATE", 0.5)
	v.SetDefault("IMPORT_ORG_BURST", 3)
	v.SetDefault("IMPORT_USER_RATE", 0.2)
	v.SetDefault("IMPORT_USER_BURST", 2)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DIR", "")
	v.SetDefault("STORAGE_BASE_URL", "/static/uploads")
	v.SetDefault("DEFAULT_ORG_NAME", "Main")
	v.SetDefault("BOOTSTRAP_ENSURE_DEFAULT_ADMIN", true)

	return Config{
		AppName:            v.GetString("APP_SERVICE"),
		AppVersion:         v.GetString("APP_VERSION"),
		Environment:        v.GetString("ENVIRONMENT"),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		AuthJWTSecret:      strings.TrimSpace(v.GetString("AUTH_JWT_SECRET")),
		AuthTokenTTLMin:    v.GetInt("AUTH_TOKEN_TTL_MINUTES"),
		OTLPEndpoint:       v.GetString("OTLP_ENDPOINT"),
		DBType:             v.GetString("DATABASE_TYPE"),
		DBHost:             v.GetString("DATABASE_HOST"),
		DBPort:             v.GetString("DATABASE_PORT"),
		DBName:             v.GetString("DATABASE_NAME"),
		DBUser:             v.GetString("DATABASE_USER"),
		DBPassword:         v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:          v.GetString("DATABASE_SSLMODE"),
		DBMaxIdleConn:      v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:      v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime:  v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime:  v.GetInt("DATABASE_CONN_MAX_IDLE_TIME"),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		ImportOrgRate:      v.GetFloat64("IMPORT_ORG_RATE"),
		ImportOrgBurst:     v.GetInt("IMPORT_ORG_BURST"),
		ImportUserRate:     v.GetFloat64("IMPORT_USER_RATE"),
		ImportUserBurst:    v.GetInt("IMPORT_USER_BURST"),
		SMTPHost:           strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUsername:       v.GetString("SMTP_USERNAME"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPFrom:           v.GetString("SMTP_FROM"),
		StorageDir:         strings.TrimSpace(v.GetString("STORAGE_DIR")),
		StorageBaseURL:     v.GetString("STORAGE_BASE_URL"),
		DefaultOrgName:     v.GetString("DEFAULT_ORG_NAME"),
		BootstrapEmail:     strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapPassword:  v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		EnsureDefaultAdmin: v.GetBool("BOOTSTRAP_ENSURE_DEFAULT_ADMIN"),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
