package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting. It is built once in main and
// passed into constructors; nothing else reads the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	CocToken              string `env:"COC_TOKEN,required"`
	CocClanTag            string `env:"COC_CLAN_TAG,required"`
	CocAPIBase            string `env:"COC_API_BASE" envDefault:"https://api.clashofclans.com/v1"`
	RequestTimeoutSeconds int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"10"`

	RedisURL           string `env:"REDIS_URL"`
	CacheTTLSeconds    int    `env:"CACHE_TTL_SECONDS" envDefault:"300"`
	WarCacheTTLSeconds int    `env:"WAR_CACHE_TTL_SECONDS" envDefault:"60"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	BindingsDBPath   string `env:"BINDINGS_DB_PATH" envDefault:"data/bindings.db"`

	WarReminderEnabled         bool `env:"WAR_REMINDER_ENABLED" envDefault:"true"`
	WarReminderWindowHours     int  `env:"WAR_REMINDER_WINDOW_HOURS" envDefault:"4"`
	WarReminderIntervalMinutes int  `env:"WAR_REMINDER_INTERVAL_MINUTES" envDefault:"15"`
	ReminderCooldownMinutes    int  `env:"REMINDER_COOLDOWN_MINUTES" envDefault:"60"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) WarCacheTTL() time.Duration {
	return time.Duration(c.WarCacheTTLSeconds) * time.Second
}

func (c Config) ReminderWindow() time.Duration {
	return time.Duration(c.WarReminderWindowHours) * time.Hour
}

func (c Config) ReminderInterval() time.Duration {
	return time.Duration(c.WarReminderIntervalMinutes) * time.Minute
}

func (c Config) ReminderCooldown() time.Duration {
	return time.Duration(c.ReminderCooldownMinutes) * time.Minute
}
