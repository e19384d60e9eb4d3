package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables
// and an optional config file.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	DB       DBConfig       `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Swagger  SwaggerConfig  `mapstructure:"swagger"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig configures session tokens and the cookies that carry them.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwtsecret"`
	TokenTTL      time.Duration `mapstructure:"tokenttl"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secretkey"`
	PublishableKey string `mapstructure:"publishablekey"`
	Currency       string `mapstructure:"currency"`
}

// StorageConfig selects where listing photos are written.
type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	LocalDir     string `mapstructure:"localdir"`
	PublicPrefix string `mapstructure:"publicprefix"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	KeyPrefix    string `mapstructure:"keyprefix"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"maxbytes"`
}

type DBConfig struct {
	Reset bool `mapstructure:"reset"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TimeoutsConfig struct {
	Request time.Duration `mapstructure:"request"`
	Payment time.Duration `mapstructure:"payment"`
}

type SwaggerConfig struct {
	Host string `mapstructure:"host"`
}

// Load builds Config from .env, environment (MARKETPLACE_ prefix) and an optional
// config file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional file; existing env wins

	v := viper.New()
	v.SetEnvPrefix("MARKETPLACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, fmt.Errorf("auth jwt secret is required")
	}
	cfg.Stripe.Currency = strings.ToLower(strings.TrimSpace(cfg.Stripe.Currency))

	// the payment context derives from the request context
	if t := cfg.Timeouts; t.Request > 0 && t.Payment > t.Request {
		return nil, fmt.Errorf("timeouts.payment (%s) must not exceed timeouts.request (%s)", t.Payment, t.Request)
	}

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv values are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("mysql.dsn", "user:password@tcp(localhost:3306)/marketplace?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", "100h")
	v.SetDefault("auth.secure_cookies", false)
	v.SetDefault("stripe.secretkey", "")
	v.SetDefault("stripe.publishablekey", "")
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.localdir", "public/uploads")
	v.SetDefault("storage.publicprefix", "/uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.keyprefix", "listings")
	v.SetDefault("upload.maxbytes", 3*1024*1024)
	v.SetDefault("db.reset", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("timeouts.request", "30s")
	v.SetDefault("timeouts.payment", "20s")
	v.SetDefault("swagger.host", "")
}
