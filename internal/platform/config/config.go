// Package config loads application configuration from environment variables.
// All variables use the HANYU_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Quiz     QuizConfig
	Vocab    VocabConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	Host        string
	CORSOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables the quiz event log.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL keeps pool state in memory.
type CacheConfig struct {
	URL string
	// PoolTTL expires a learner's consumed-word set after this long without a quiz. Zero keeps it.
	PoolTTL time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	DeepSeek   DeepSeekConfig
	Google     GoogleConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// QuizConfig holds quiz generation settings.
type QuizConfig struct {
	QuestionsPerQuiz   int
	OptionsPerQuestion int
	RemoteTimeout      time.Duration
	// UseAI is the initial AI toggle for new learners.
	UseAI    bool
	Language string
	// Seed fixes the random source when non-zero.
	Seed        uint64
	TokenBudget int64
}

// VocabConfig selects the vocabulary source. An empty path uses the built-in HSK table.
type VocabConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with HANYU_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        envInt("HANYU_SERVER_PORT", 8080),
			Host:        envStr("HANYU_SERVER_HOST", "0.0.0.0"),
			CORSOrigins: envList("HANYU_SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:      envStr("HANYU_DATABASE_URL", ""),
			MaxConns: envInt("HANYU_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("HANYU_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:     envStr("HANYU_CACHE_URL", ""),
			PoolTTL: envDuration("HANYU_CACHE_POOL_TTL", 0),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("HANYU_AI_OPENAI_API_KEY", ""),
				Model:  envStr("HANYU_AI_OPENAI_MODEL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("HANYU_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("HANYU_AI_ANTHROPIC_MODEL", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey:  envStr("HANYU_AI_DEEPSEEK_API_KEY", ""),
				BaseURL: envStr("HANYU_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
				Model:   envStr("HANYU_AI_DEEPSEEK_MODEL", "deepseek-chat"),
			},
			Google: GoogleConfig{
				APIKey: envStr("HANYU_AI_GOOGLE_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("HANYU_AI_OLLAMA_ENABLED", false),
				URL:     envStr("HANYU_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("HANYU_AI_OLLAMA_MODEL", ""),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("HANYU_AI_OPENROUTER_API_KEY", ""),
			},
		},
		Quiz: QuizConfig{
			QuestionsPerQuiz:   envInt("HANYU_QUIZ_QUESTIONS", 5),
			OptionsPerQuestion: envInt("HANYU_QUIZ_OPTIONS", 4),
			RemoteTimeout:      envDuration("HANYU_QUIZ_REMOTE_TIMEOUT", 30*time.Second),
			UseAI:              envBool("HANYU_QUIZ_USE_AI", true),
			Language:           envStr("HANYU_QUIZ_LANGUAGE", "en"),
			Seed:               uint64(envInt("HANYU_QUIZ_SEED", 0)),
			TokenBudget:        int64(envInt("HANYU_QUIZ_TOKEN_BUDGET", 0)),
		},
		Vocab: VocabConfig{
			Path: envStr("HANYU_VOCAB_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("HANYU_LOG_LEVEL", "info"),
			Format: envStr("HANYU_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HANYU_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Quiz.QuestionsPerQuiz < 1 {
		return fmt.Errorf("HANYU_QUIZ_QUESTIONS must be at least 1, got %d", c.Quiz.QuestionsPerQuiz)
	}
	if c.Quiz.OptionsPerQuestion < 2 || c.Quiz.OptionsPerQuestion > 4 {
		return fmt.Errorf("HANYU_QUIZ_OPTIONS must be between 2 and 4, got %d", c.Quiz.OptionsPerQuestion)
	}
	if c.Quiz.RemoteTimeout <= 0 {
		return fmt.Errorf("HANYU_QUIZ_REMOTE_TIMEOUT must be positive, got %s", c.Quiz.RemoteTimeout)
	}
	if c.Cache.PoolTTL < 0 {
		return fmt.Errorf("HANYU_CACHE_POOL_TTL must not be negative, got %s", c.Cache.PoolTTL)
	}
	if c.Quiz.TokenBudget < 0 {
		return fmt.Errorf("HANYU_QUIZ_TOKEN_BUDGET must not be negative, got %d", c.Quiz.TokenBudget)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("HANYU_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or plain seconds ("45").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
