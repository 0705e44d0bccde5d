package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stackbridge/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	Engine  EngineConfig
	Payload PayloadConfig

	StatusCacheTTL       time.Duration
	TechnologiesCacheTTL time.Duration
	MaxBodyBytes         int64
	RateLimitRPS         float64
	RateLimitBurst       int

	DatabaseURL           string
	ObjectStoreType       string
	LocalStoreDir         string
	AWSRegion             string
	S3Bucket              string
	S3Prefix              string
	SSEKMSKeyID           string
	ArchiveEngineFailures bool
}

// EngineConfig locates the external analysis engine. It is resolved once at startup.
type EngineConfig struct {
	Command        string
	Args           []string
	Dir            string
	Env            []string
	VersionArgs    []string
	Timeout        time.Duration
	MaxOutputBytes int
}

// PayloadConfig controls where request payload files are written and swept.
type PayloadConfig struct {
	Dir           string
	Prefix        string
	SweepInterval time.Duration
	SweepMaxAge   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_empty", map[string]any{"env": env})
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		LogLevel:        v.GetString("LOG_LEVEL"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Engine: EngineConfig{
			Command:        strings.TrimSpace(v.GetString("ENGINE_COMMAND")),
			Args:           strings.Fields(v.GetString("ENGINE_ARGS")),
			Dir:            v.GetString("ENGINE_DIR"),
			Env:            splitAndTrim(v.GetString("ENGINE_ENV")),
			VersionArgs:    strings.Fields(v.GetString("ENGINE_VERSION_ARGS")),
			Timeout:        v.GetDuration("ENGINE_TIMEOUT"),
			MaxOutputBytes: v.GetInt("ENGINE_MAX_OUTPUT_BYTES"),
		},
		Payload: PayloadConfig{
			Dir:           v.GetString("PAYLOAD_DIR"),
			Prefix:        v.GetString("PAYLOAD_PREFIX"),
			SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
			SweepMaxAge:   v.GetDuration("SWEEP_MAX_AGE"),
		},
		StatusCacheTTL:        v.GetDuration("STATUS_CACHE_TTL"),
		TechnologiesCacheTTL:  v.GetDuration("TECHNOLOGIES_CACHE_TTL"),
		MaxBodyBytes:          v.GetInt64("MAX_BODY_BYTES"),
		RateLimitRPS:          v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
		DatabaseURL:           dbURL,
		ObjectStoreType:       normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:         v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:             v.GetString("AWS_REGION"),
		S3Bucket:              v.GetString("S3_BUCKET"),
		S3Prefix:              v.GetString("S3_PREFIX"),
		SSEKMSKeyID:           v.GetString("SSE_KMS_KEY_ID"),
		ArchiveEngineFailures: v.GetBool("ARCHIVE_ENGINE_FAILURES"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("ENGINE_COMMAND", "stack-engine")
	v.SetDefault("ENGINE_ARGS", "")
	v.SetDefault("ENGINE_DIR", "")
	v.SetDefault("ENGINE_ENV", "")
	v.SetDefault("ENGINE_VERSION_ARGS", "--version")
	v.SetDefault("ENGINE_TIMEOUT", 20*time.Second)
	v.SetDefault("ENGINE_MAX_OUTPUT_BYTES", 4<<20)
	v.SetDefault("PAYLOAD_DIR", "")
	v.SetDefault("PAYLOAD_PREFIX", "stackbridge_")
	v.SetDefault("SWEEP_INTERVAL", 10*time.Minute)
	v.SetDefault("SWEEP_MAX_AGE", time.Hour)
	v.SetDefault("STATUS_CACHE_TTL", 15*time.Second)
	v.SetDefault("TECHNOLOGIES_CACHE_TTL", 5*time.Minute)
	v.SetDefault("MAX_BODY_BYTES", 64<<10)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("AWS_REGION", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("SSE_KMS_KEY_ID", "")
	v.SetDefault("ARCHIVE_ENGINE_FAILURES", false)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
