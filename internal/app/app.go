// Package app wires configuration into the agent engine and its backing services.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hanyumate/hanyumate/internal/agent"
	"github.com/hanyumate/hanyumate/internal/ai"
	"github.com/hanyumate/hanyumate/internal/chat"
	"github.com/hanyumate/hanyumate/internal/platform/cache"
	"github.com/hanyumate/hanyumate/internal/platform/config"
	"github.com/hanyumate/hanyumate/internal/platform/database"
	"github.com/hanyumate/hanyumate/internal/quiz"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

const connectTimeout = 10 * time.Second

// App holds the engine and every service it was built from.
type App struct {
	Config *config.Config
	Bank   *vocab.Bank
	Router *ai.Router
	Engine *agent.Engine
	DB     *database.DB // nil when HANYU_DATABASE_URL is unset
	Cache  *cache.Cache // nil when HANYU_CACHE_URL is unset
	Budget *ai.InMemoryBudget
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRouter registers every configured provider. Registration order is the
// fallback order. An empty router is valid and disables AI features.
func NewRouter(cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()

	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey,
			ai.WithBaseURL(cfg.DeepSeek.BaseURL),
			ai.WithDefaultModel(cfg.DeepSeek.Model),
		))
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, ai.WithDefaultModel(cfg.OpenAI.Model)))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, ai.WithAnthropicModel(cfg.Anthropic.Model))
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.Register("anthropic", p)
	}
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL, ai.WithDefaultModel(cfg.Ollama.Model)))
	}

	if !router.HasProvider() {
		slog.Warn("no AI provider configured, quizzes use the local vocabulary only")
	}
	return router, nil
}

// New loads the vocabulary, connects the optional database and cache, and builds the engine.
// A bad vocabulary source is returned as a *vocab.ConfigurationError.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	bank, err := vocab.Load(cfg.Vocab.Path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	router, err := NewRouter(cfg.AI)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Bank: bank, Router: router}

	var events agent.EventLogger = agent.NopEventLogger{}
	if cfg.Database.URL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		db, err := database.New(dbCtx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		if err := db.Migrate(dbCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		a.DB = db
		events = agent.NewPostgresEventLogger(db.Pool)
		slog.Info("quiz event log enabled", "store", "postgres")
	}

	var pools quiz.ConsumedStore
	if cfg.Cache.URL != "" {
		cacheCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		c, err := cache.New(cacheCtx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting cache: %w", err)
		}
		a.Cache = c
		pools = cache.NewPoolStore(c, cache.WithTTL(cfg.Cache.PoolTTL))
		slog.Info("quiz pools shared", "store", "redis", "ttl", cfg.Cache.PoolTTL)
	}

	var budget ai.BudgetChecker
	if cfg.Quiz.TokenBudget > 0 {
		a.Budget = ai.NewInMemoryBudget(cfg.Quiz.TokenBudget)
		budget = a.Budget
	}

	a.Engine = agent.NewEngine(agent.EngineConfig{
		Bank:               bank,
		AIRouter:           router,
		Store:              agent.NewMemoryStore(),
		Events:             events,
		PoolStore:          pools,
		Budget:             budget,
		QuestionsPerQuiz:   cfg.Quiz.QuestionsPerQuiz,
		OptionsPerQuestion: cfg.Quiz.OptionsPerQuestion,
		RemoteTimeout:      cfg.Quiz.RemoteTimeout,
		Language:           cfg.Quiz.Language,
		UseAI:              cfg.Quiz.UseAI,
		Seed:               cfg.Quiz.Seed,
	})

	slog.Info("engine ready",
		"levels", len(bank.Levels()),
		"ai_providers", router.Names(),
		"questions_per_quiz", cfg.Quiz.QuestionsPerQuiz,
	)
	return a, nil
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Check is one readiness probe. An Optional check is reported but never fails readiness.
type Check struct {
	Run      func(context.Context) error
	Optional bool
}

// Checks returns the readiness checks for the configured services. AI providers
// are optional: quizzes fall back to local questions when they are down.
func (a *App) Checks() map[string]Check {
	checks := make(map[string]Check)
	if a.DB != nil {
		checks["database"] = Check{Run: a.DB.HealthCheck}
	}
	if a.Cache != nil {
		checks["cache"] = Check{Run: a.Cache.HealthCheck}
	}
	if a.Router != nil && a.Router.HasProvider() {
		checks["ai"] = Check{Run: a.Router.HealthCheck, Optional: true}
	}
	return checks
}

// MessageHandler returns the chat handler that feeds the engine and replies on
// the channel the message came from. Work stops when the message's ctx ends.
func (a *App) MessageHandler(gw *chat.Gateway) chat.Handler {
	return func(ctx context.Context, msg chat.InboundMessage) {
		if err := gw.SendTyping(ctx, msg.Channel, msg.UserID); err != nil {
			slog.Debug("typing indicator failed", "channel", msg.Channel, "error", err)
		}

		reply, err := a.Engine.ProcessMessage(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("message abandoned", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
				return
			}
			slog.Error("processing message failed", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
			return
		}
		if reply == "" {
			return
		}

		out := chat.OutboundMessage{Channel: msg.Channel, UserID: msg.UserID, Text: reply}
		if err := gw.Send(ctx, out); err != nil {
			slog.Warn("sending reply failed", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
		}
	}
}
