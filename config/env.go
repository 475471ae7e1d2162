package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort string
	GRPCPort string
	LogLevel string

	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Assets AssetsConfig

	Terminal         TerminalConfig
	OrderServiceAddr string
	CORSOrigins      []string
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration

	AdminUser string
	AdminPass string

	StepUpMode       string
	StepUpSecret     string
	StepUpTOTPSecret string
}

// TerminalConfig is the account a terminal client such as the kitchen
// display signs in with.
type TerminalConfig struct {
	User string
	Pass string
}

type AssetsConfig struct {
	PublicDir  string
	PrivateDir string
	UploadDir  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil || sessionTTL <= 0 {
		log.Warn().Str("value", os.Getenv("SESSION_TTL")).Msg("invalid SESSION_TTL, falling back to 24h")
		sessionTTL = 24 * time.Hour
	}

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50053"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			DSN: getEnv("DATABASE_DSN", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			SessionTTL:       sessionTTL,
			AdminUser:        getEnv("ADMIN_USER", "admin"),
			AdminPass:        getEnv("ADMIN_PASS", ""),
			StepUpMode:       strings.ToLower(getEnv("STEPUP_MODE", "none")),
			StepUpSecret:     getEnv("STEPUP_SECRET", ""),
			StepUpTOTPSecret: getEnv("STEPUP_TOTP_SECRET", ""),
		},
		Assets: AssetsConfig{
			PublicDir:  getEnv("PUBLIC_DIR", "public"),
			PrivateDir: getEnv("PRIVATE_DIR", "private"),
			UploadDir:  getEnv("UPLOAD_DIR", "public/uploads"),
		},
		Terminal: TerminalConfig{
			User: getEnv("TERMINAL_USER", ""),
			Pass: getEnv("TERMINAL_PASS", ""),
		},
		OrderServiceAddr: getEnv("ORDER_SERVICE_ADDR", "localhost:50053"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "")),
	}
}

// Validate reports missing settings the services cannot start without.
func (c Config) Validate() error {
	var missing []string
	if c.DB.DSN == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.Auth.StepUpMode {
	case "none":
	case "secret":
		if c.Auth.StepUpSecret == "" {
			return fmt.Errorf("STEPUP_MODE=secret requires STEPUP_SECRET")
		}
	case "totp":
		if c.Auth.StepUpTOTPSecret == "" {
			return fmt.Errorf("STEPUP_MODE=totp requires STEPUP_TOTP_SECRET")
		}
	default:
		return fmt.Errorf("unknown STEPUP_MODE %q", c.Auth.StepUpMode)
	}
	return nil
}

// SetupLogger configures the global zerolog logger for one binary.
func SetupLogger(service, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", service).Logger()
	if getEnv("APP_ENV", "development") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
