// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config holds every externally tunable parameter. Only SessionRetention and
// SessionCacheSize affect engine semantics; the rest is wiring.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DBPath       string `env:"DB_PATH" envDefault:"data/amora.db"`
	LogPath      string `env:"LOG_PATH" envDefault:""`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// SessionRetention is how long an idle session survives before the
	// expiry sweep purges it.
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"4h"`

	// SessionCacheSize bounds the in-memory session cache.
	SessionCacheSize int `env:"SESSION_CACHE_SIZE" envDefault:"100"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("failed to parse environment: ", err)
	}
	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is not set")
	}
	return cfg
}
