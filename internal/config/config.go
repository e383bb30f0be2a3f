package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port       int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	Secret     string        `mapstructure:"secret" validate:"required"`

	DefaultRoom  string `mapstructure:"default_room" validate:"required"`
	HistoryLimit int    `mapstructure:"history_limit" validate:"min=1"`
	SendBuffer   int    `mapstructure:"send_buffer" validate:"min=1"`

	RateLimit    int           `mapstructure:"rate_limit" validate:"min=0"`
	RateInterval time.Duration `mapstructure:"rate_interval" validate:"gt=0"`
	Backpressure string        `mapstructure:"backpressure" validate:"oneof=kick drop"`

	RoomIdleTTL     time.Duration `mapstructure:"room_idle_ttl" validate:"gte=0"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval" validate:"gt=0"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load without the .env step and with an explicit yaml path. A
// missing file is not an error; defaults and environment still apply.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("default_room", "general")
	v.SetDefault("history_limit", 100)
	v.SetDefault("send_buffer", 64)
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_interval", "10s")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("room_idle_ttl", "0s")
	v.SetDefault("janitor_interval", "1m")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// CLIENT_URL is the name browser-facing deployments already use.
	if err := v.BindEnv("allowed_origins", "ALLOWED_ORIGINS", "CLIENT_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("default_room", cfg.DefaultRoom).Msg("config ready")
	return &cfg, nil
}
