package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"interview-bot/config"
	"interview-bot/internal/application"
	"interview-bot/internal/infra/openai"
	"interview-bot/internal/infra/store"
	"interview-bot/internal/infra/telegram"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "interview-bot",
	Short: "Telegram bot that transcribes interview recordings and answers questions about them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		return err
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	sessions, err := createStore(cfg.Store, logger)
	if err != nil {
		logger.Error("opening session store", "error", err)
		return err
	}

	transcriber := openai.NewTranscriptionClient(cfg.OpenAI.APIKey, cfg.OpenAI.TranscribeModel, cfg.OpenAI.Language)
	chat := openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	tg := telegram.NewClient(cfg.Telegram.Token)

	router := application.NewRouter(
		sessions,
		transcriber,
		chat,
		tg,
		tg,
		cfg.Downloads.Dir,
		logger,
	)

	poller := telegram.NewPoller(tg, router, cfg.Telegram.PollTimeout, logger)

	logger.Info("starting interview bot",
		"store", cfg.Store.Driver,
		"transcribe_model", cfg.OpenAI.TranscribeModel,
		"chat_model", cfg.OpenAI.ChatModel,
	)

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("poller error", "error", err)
		return err
	}
	return nil
}

func createStore(cfg config.StoreConfig, logger *slog.Logger) (application.SessionStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.OpenSQLite(cfg.Path)
	case "memory":
		return store.NewMemory(), nil
	default:
		logger.Warn("unknown store driver, using memory", "driver", cfg.Driver)
		return store.NewMemory(), nil
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
