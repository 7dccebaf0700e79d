package main

import (
	"context"
	"fmt"

	"github.com/liliang-cn/doc0/internal/auth"
	"github.com/liliang-cn/doc0/internal/config"
	"github.com/liliang-cn/doc0/internal/conversation"
	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/liliang-cn/doc0/internal/quota"
	"github.com/liliang-cn/doc0/internal/repository"
	"github.com/liliang-cn/doc0/internal/search"
	"github.com/liliang-cn/doc0/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *repository.DB

	search *search.Client

	chatService   *service.ChatService
	widgetService *service.WidgetService
	authService   *service.AuthService
	adminService  *service.AdminService
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func wireApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Holds the quota record and, when enabled, the conversation history
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	tracker := quota.NewTracker(repository.NewQuotaRepository(db), quota.Options{
		DailyLimit: cfg.Quota.DailyLimit,
		Window:     cfg.Quota.Window,
		Key:        cfg.Quota.StorageKey,
		Logger:     logger.Named("quota"),
	})

	activeTopic, err := domain.ParseTopic(cfg.Chat.DefaultTopic)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		journal conversation.Journal
		counter service.ChatCounter
	)
	if cfg.Chat.PersistHistory {
		repo := repository.NewConversationRepository(db)
		journal, counter = repo, repo
	}

	conversations, err := conversation.NewStore(activeTopic, domain.Topics(), journal, logger.Named("conversation"))
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := conversations.Restore(context.Background()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to restore history: %w", err)
	}

	state := auth.NewState()

	a.search = search.NewClient(search.Options{
		Endpoint:     cfg.Search.Endpoint,
		DocsEndpoint: cfg.Search.DocsEndpoint,
		Timeout:      cfg.Search.Timeout,
		Logger:       logger.Named("search"),
	})

	a.chatService = service.NewChatService(a.search, tracker, state, conversations, logger.Named("chat"))
	a.widgetService = service.NewWidgetService(cfg, conversations, tracker, state)
	a.authService = service.NewAuthService(state, auth.DecodeCredential, logger.Named("auth"))
	a.adminService = service.NewAdminService(conversations, tracker, state, counter)

	return a, nil
}
