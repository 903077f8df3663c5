package main

import (
	"github.com/joho/godotenv"
	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/chat"
	"github.com/reldane/chatrelay/internal/config"
	"github.com/reldane/chatrelay/internal/db"
	"github.com/reldane/chatrelay/internal/httpapi"
	"github.com/reldane/chatrelay/internal/httpapi/handlers"
	"github.com/reldane/chatrelay/internal/logger"
	"github.com/reldane/chatrelay/internal/models"
	"github.com/reldane/chatrelay/internal/store/rabbitmq"
	"github.com/reldane/chatrelay/internal/store/redisstore"
	"github.com/reldane/chatrelay/internal/tools"
	"go.uber.org/zap"
)

func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register(ai.ProviderOpenAI, func(model string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})
	reg.Register(ai.ProviderAnthropic, func(model string) (ai.Provider, error) {
		return ai.NewAnthropicProvider(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, model), nil
	})
	reg.Register(ai.ProviderGoogle, func(model string) (ai.Provider, error) {
		return ai.NewGoogleProvider(cfg.GoogleBaseURL, cfg.GoogleAPIKey, model), nil
	})
	reg.Register(ai.ProviderFireworks, func(model string) (ai.Provider, error) {
		return ai.NewFireworksProvider(cfg.FireworksBaseURL, cfg.FireworksAPIKey, model), nil
	})
	return reg
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()
	defer log.Sync() //nolint:errcheck

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&chat.Chat{},
		&chat.Message{},
		&chat.TitleJob{},
		&tools.Document{},
		&tools.Suggestion{},
	); err != nil {
		log.Fatal("auto migrate", zap.Error(err))
	}

	quota := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer quota.Close() //nolint:errcheck

	catalog := ai.DefaultCatalog()
	registry := newRegistry(cfg)

	// The document and suggestion tools stream their own model calls
	// through the block model.
	blockCfg, err := catalog.Resolve(ai.BlockModel)
	if err != nil {
		log.Fatal("resolve block model", zap.Error(err))
	}
	writer, err := registry.Get(blockCfg.Provider, blockCfg.Model)
	if err != nil {
		log.Fatal("block model provider", zap.Error(err))
	}

	toolRepo := tools.NewRepo(gdb)
	toolReg := tools.NewRegistry(
		tools.NewWeather(cfg.WeatherBaseURL),
		tools.NewCreateDocument(toolRepo, writer),
		tools.NewUpdateDocument(toolRepo, writer),
		tools.NewRequestSuggestions(toolRepo, writer),
	)

	// Title refinement degrades gracefully when the broker is down: chats
	// keep their derived titles.
	var titles chat.TitlePublisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Warn("rabbitmq unavailable, title refinement disabled", zap.Error(err))
	} else {
		defer pub.Close() //nolint:errcheck
		titles = pub
	}

	svc := chat.NewService(chat.NewRepo(gdb), registry, catalog, toolReg, titles, log)

	h := handlers.NewHandler(gdb, cfg, quota, catalog, svc, log)
	r := httpapi.NewRouter(h, cfg.JWTSecret, log)

	log.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
