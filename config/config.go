package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config carries everything the bot needs from the environment. It is built
// once at startup and passed down; nothing reads the environment after Load.
type Config struct {
	// BotToken authenticates against the Webex API.
	BotToken string
	// VantageAPIKey authenticates against Alpha Vantage.
	VantageAPIKey string
	// StorePath is the on-disk location of the document store.
	StorePath string
	// Port the webhook server listens on.
	Port string
	// NgrokAPI is the local ngrok inspection API used to discover the
	// public webhook URL.
	NgrokAPI string

	LogLevel string
	LogFile  string
}

// Load reads configuration from a .env file (when present) and the process
// environment. The bot token is the only hard requirement.
func Load() (Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := Config{
		BotToken:      os.Getenv("MY_BOT_TOKEN"),
		VantageAPIKey: os.Getenv("VANTAGE_API_KEY"),
		StorePath:     getenv("STORE_PATH", "data/stocks-bot"),
		Port:          getenv("BOT_PORT", "4111"),
		NgrokAPI:      getenv("NGROK_API", "http://127.0.0.1:4040"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
	}
	if cfg.BotToken == "" {
		return Config{}, errors.New("config: environment variable MY_BOT_TOKEN not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
