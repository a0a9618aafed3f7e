package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gopherai-chatbot/internal/ai"
	"gopherai-chatbot/internal/app"
	"gopherai-chatbot/internal/cache"
	"gopherai-chatbot/internal/config"
	"gopherai-chatbot/internal/pkg/fileextract"
	mysqlClient "gopherai-chatbot/internal/platform/mysql"
	rabbitmqClient "gopherai-chatbot/internal/platform/rabbitmq"
	redisClient "gopherai-chatbot/internal/platform/redis"
	"gopherai-chatbot/internal/prompts"
	"gopherai-chatbot/internal/repository"
	"gopherai-chatbot/internal/vision"
	"gopherai-chatbot/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Sessions    *repository.SessionStore
	Prompts     *prompts.Registry
	Completions *app.CompletionService
	Chat        *app.ChatService
	RateLimiter *cache.RateLimiter

	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Publisher     *rabbitmqClient.CompletionPublisher
	ArchiveWorker *worker.CompletionArchiveWorker
	Classifier    *vision.Classifier

	StartedAt time.Time
}

// New wires the service. Redis, the completion archive and the image
// classifier are optional: each is only brought up when configured, and a
// configured dependency that cannot be reached fails startup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Sessions:  repository.NewSessionStore(),
		Prompts:   prompts.Builtin(),
		StartedAt: time.Now(),
	}

	if err := a.initRedis(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	var (
		archive app.CompletionArchive
		records app.CompletionRecordLister
	)
	if cfg.ArchiveEnabled() {
		repo, err := a.initArchive(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		archive = a.Publisher
		records = repo
	}

	var extractorOpts []fileextract.Option
	if cfg.Vision.Enabled {
		a.Classifier = vision.NewClassifier(cfg.Vision.ModelPath, cfg.Vision.LabelsPath, cfg.Vision.ONNXSharedLibPath, cfg.Vision.TopK)
		extractorOpts = append(extractorOpts, fileextract.WithImageLabeler(a.Classifier))
		logger.Info("image labelling enabled", zap.String("model", cfg.Vision.ModelPath))
	}

	factory := ai.NewFactory(ai.Settings{
		OpenAI: ai.ChatConfig{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
		},
		Claude: ai.ClaudeConfig{
			BaseURL: cfg.Anthropic.BaseURL,
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			Version: cfg.Anthropic.Version,
		},
		Gemini: ai.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		},
		Timeout: cfg.RequestTimeout(),
	})

	completions, err := app.NewCompletionService(ctx, a.Prompts, factory, cfg.LLM.DefaultProvider, archive, logger.Named("completion"))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init llm provider failed: %w", err)
	}
	a.Completions = completions

	a.Chat = app.NewChatService(
		a.Sessions,
		a.Prompts,
		completions,
		fileextract.New(extractorOpts...),
		records,
		app.ChatDefaults{
			PromptType:   cfg.LLM.DefaultPromptType,
			MaxTokens:    cfg.LLM.MaxTokensDefault,
			Temperature:  cfg.LLM.TemperatureDefault,
			MaxFileChars: cfg.LLM.MaxFileChars,
			UploadDir:    cfg.App.UploadDir,
		},
		logger.Named("chat"),
	)

	active := completions.ActiveProvider()
	logger.Info("llm provider ready", zap.String("provider", active.Provider), zap.String("model", active.Model))
	return a, nil
}

func (a *App) initRedis(ctx context.Context) error {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		a.Logger.Info("rate limiting disabled: redis.addr not set")
		return nil
	}
	client, err := redisClient.New(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return err
	}
	a.Redis = client
	a.RateLimiter = cache.NewRateLimiter(client, time.Minute, cfg.RateLimitPerMinute)
	a.Logger.Info("rate limiting enabled", zap.String("addr", cfg.Addr), zap.Int("per_minute", cfg.RateLimitPerMinute))
	return nil
}

func (a *App) initArchive(ctx context.Context) (*repository.CompletionRecordRepository, error) {
	db, err := mysqlClient.New(ctx, a.Config.MySQLDSN())
	if err != nil {
		return nil, err
	}
	a.MySQL = db

	queue := a.Config.RabbitMQ.CompletionArchiveQueue
	conn, err := rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL, queue)
	if err != nil {
		return nil, err
	}
	a.MQConn = conn
	a.Publisher = rabbitmqClient.NewCompletionPublisher(conn, queue)

	repo := repository.NewCompletionRecordRepository(db)
	a.ArchiveWorker = worker.NewCompletionArchiveWorker(conn, repo, queue, a.Logger.Named("archive"))
	if err := a.ArchiveWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start archive worker failed: %w", err)
	}
	return repo, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.ArchiveWorker != nil {
		a.ArchiveWorker.Close()
	}
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		errs = append(errs, a.MQConn.Close())
	}
	if a.MySQL != nil {
		errs = append(errs, mysqlClient.Close(a.MySQL))
	}
	if a.Classifier != nil {
		a.Classifier.Close()
	}
	return errors.Join(errs...)
}
