package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/chat"
	"github.com/totalquality/qassist/internal/cli"
	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/storage"
	"github.com/totalquality/qassist/pkg/utils"
)

// openConversations opens the durable conversation store named in cfg.
func openConversations(cfg *config.Config, logger *zap.Logger) (*conversation.Store, storage.KV, error) {
	kv, err := storage.Open(cfg.Client.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open conversation storage: %w", err)
	}
	return conversation.NewStore(kv, cfg.Client.StorageKey, logger), kv, nil
}

func runChat(args []string) error {
	fs := newFlagSet("chat", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "", "server URL (default from config)")
	plain := fs.Bool("plain", false, "stream raw text instead of rendering markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewClientLogger(cfg.Debug || *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *serverURL == "" {
		*serverURL = cfg.Client.ServerURL
	}

	ctx := context.Background()
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	store, kv, err := openConversations(cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	// No overall timeout: replies stream for as long as the provider does.
	client := chat.NewClient(*serverURL, &http.Client{})
	ctrl, err := chat.NewController(ctx, client,
		chat.WithPrompts(comps.Prompts),
		chat.WithStore(store),
		chat.WithErrorMessage(cfg.Client.ErrorMessage),
		chat.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	input := cli.NewLinerInput(filepath.Join(filepath.Dir(cfg.Client.DatabasePath), "chat_history"))
	defer input.Close()

	renderer := cli.NewRenderer(!*plain && cli.IsStdoutTTY(), 80)
	session := cli.NewSession(ctrl, input, os.Stdout, renderer, comps.Knowledge.Current().Suggestions())

	// Ctrl-C at the prompt is handled by the line editor; while a reply
	// streams it arrives as a signal and stops that reply.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			session.Interrupt()
		}
	}()

	return session.Run(ctx)
}

func runConversations(args []string, stdout io.Writer) error {
	fs := newFlagSet("conversations", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, kv, err := openConversations(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer kv.Close()
	convs, err := store.Load(context.Background())
	if err != nil {
		return err
	}

	groups := conversation.GroupByRecency(convs, time.Now())
	if format == cli.OutputJSON {
		return cli.WriteConversationsJSON(stdout, groups)
	}
	cli.WriteConversations(stdout, groups, "")
	cli.WriteStorageUsage(stdout, cfg.Client.DatabasePath)
	return nil
}
