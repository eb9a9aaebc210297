package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string `env:"APP_ENV,default=development"`
	Port           string `env:"PORT,default=8080"`
	GinMode        string `env:"GIN_MODE,default=debug"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	DB struct {
		Host     string `env:"DB_HOST,default=localhost"`
		Port     string `env:"DB_PORT,default=5432"`
		User     string `env:"DB_USER,default=postgres"`
		Password string `env:"DB_PASSWORD"`
		Name     string `env:"DB_NAME,default=carbculator"`
		SSLMode  string `env:"DB_SSLMODE,default=disable"`
	}

	JWT struct {
		Secret string        `env:"JWT_SECRET,required"`
		TTL    time.Duration `env:"JWT_TTL,default=72h"`
	}

	AWS struct {
		Region             string `env:"AWS_REGION,default=us-east-1"`
		S3Bucket           string `env:"S3_BUCKET"`
		S3Region           string `env:"S3_REGION"`
		CloudFrontURL      string `env:"CLOUDFRONT_URL"`
		SESEmail           string `env:"SES_EMAIL"`
		SNSPlatformARN     string `env:"SNS_FCM_ARN"`
		RekognitionEnabled bool   `env:"REKOGNITION_ENABLED,default=false"`
	}

	Vision struct {
		URL     string        `env:"VISION_API_URL,default=https://api.openai.com/v1/chat/completions"`
		APIKey  string        `env:"VISION_API_KEY"`
		Model   string        `env:"VISION_MODEL,default=gpt-4o-mini"`
		Timeout time.Duration `env:"VISION_TIMEOUT,default=45s"`
	}

	Redis struct {
		URL      string        `env:"REDIS_URL"`
		CacheTTL time.Duration `env:"ANALYSIS_CACHE_TTL,default=24h"`
	}

	Scheduler struct {
		Enabled       bool   `env:"SCHEDULER_ENABLED,default=true"`
		SnapshotSpec  string `env:"SNAPSHOT_CRON,default=15 * * * *"`
		HydrationSpec string `env:"HYDRATION_CRON,default=0 * * * *"`
		HydrationHour int    `env:"HYDRATION_LOCAL_HOUR,default=15"`
		DigestSpec    string `env:"DIGEST_CRON,default=0 8 * * MON"`
	}

	RateLimit struct {
		AnalyzePerMinute int `env:"ANALYZE_RPM,default=10"`
		AnalyzeBurst     int `env:"ANALYZE_BURST,default=3"`
		AuthPerMinute    int `env:"AUTH_RPM,default=20"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL,default=info"`
		Format string `env:"LOG_FORMAT,default=json"`
	}
}

// Load reads .env (if present) and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	if cfg.AWS.S3Region == "" {
		cfg.AWS.S3Region = cfg.AWS.Region
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DB.Host,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.Port,
		c.DB.SSLMode,
	)
}
