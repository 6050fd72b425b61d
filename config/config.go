package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// defaultMessagesURL is the public member-messages endpoint used when no
// override is configured.
const defaultMessagesURL = "https://november7-730026606190.europe-west1.run.app/messages"

// Config holds process-wide settings read from the environment.
// Missing required settings are surfaced at startup by the Require helpers,
// before any remote call is attempted.
type Config struct {
	MessagesURL string

	EmbeddingEndpoint string
	EmbeddingAPIKey   string
	EmbeddingModel    string

	ChatEndpoint string
	ChatAPIKey   string
	ChatModel    string

	SearchEndpoint string
	SearchAPIKey   string
	SearchIndex    string

	OutputDir string
	HTTPPort  string
}

// Load reads configuration from a .env file (if present) and the
// environment. It never fails: validation happens per command via the
// Require helpers, since each command needs a different subset.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		MessagesURL: getEnv("MESSAGES_URL", defaultMessagesURL),

		EmbeddingEndpoint: getEnv("EMBEDDING_ENDPOINT", ""),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		ChatEndpoint: getEnv("CHAT_ENDPOINT", ""),
		ChatAPIKey:   getEnv("CHAT_API_KEY", ""),
		ChatModel:    getEnv("CHAT_MODEL", "gpt-4o-mini"),

		SearchEndpoint: getEnv("SEARCH_ENDPOINT", ""),
		SearchAPIKey:   getEnv("SEARCH_API_KEY", ""),
		SearchIndex:    getEnv("SEARCH_INDEX", ""),

		OutputDir: getEnv("OUTPUT_DIR", "output"),
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
	}
}

// RequireEmbedding validates the settings the embedding service needs.
func (c *Config) RequireEmbedding() error {
	return c.require(map[string]string{
		"EMBEDDING_ENDPOINT": c.EmbeddingEndpoint,
		"EMBEDDING_MODEL":    c.EmbeddingModel,
	})
}

// RequireChat validates the settings the chat completion service needs.
func (c *Config) RequireChat() error {
	return c.require(map[string]string{
		"CHAT_ENDPOINT": c.ChatEndpoint,
		"CHAT_MODEL":    c.ChatModel,
	})
}

// RequireSearch validates the settings the search index needs.
func (c *Config) RequireSearch() error {
	return c.require(map[string]string{
		"SEARCH_ENDPOINT": c.SearchEndpoint,
		"SEARCH_API_KEY":  c.SearchAPIKey,
		"SEARCH_INDEX":    c.SearchIndex,
	})
}

func (c *Config) require(vars map[string]string) error {
	var missing []string
	for name, value := range vars {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
