package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nvhoang/shopfeed/internal/broker"
	"github.com/nvhoang/shopfeed/internal/credential"
	"github.com/nvhoang/shopfeed/internal/feed"
	"github.com/nvhoang/shopfeed/internal/keys"
	"github.com/nvhoang/shopfeed/internal/model"
	"github.com/nvhoang/shopfeed/internal/rest"
	"github.com/nvhoang/shopfeed/internal/session"
	"github.com/nvhoang/shopfeed/internal/store"
	"github.com/nvhoang/shopfeed/internal/ui/feedview"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	headless := flag.Bool("headless", false, "print notifications to stdout instead of the TUI")
	flag.Parse()

	if err := run(*configPath, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "shopfeed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, headless bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	// Persist the defaults on first run so the file is there to edit.
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mirror, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer mirror.Close()

	creds := credential.FromEnv()
	userID, err := creds.UserID()
	if err != nil {
		return fmt.Errorf("no signed-in user: %w", err)
	}

	ctx := context.Background()

	f := feed.NewStore(mirror, logger)
	if err := f.Load(ctx); err != nil {
		// A damaged mirror degrades to an empty feed; the snapshot
		// fetch repopulates it.
		logger.Warn("loading persisted feed failed", zap.Error(err))
	}

	client := rest.NewClient(cfg.API.BaseURL, creds)
	dialer := &broker.STOMPDialer{
		URL:       cfg.Broker.URL,
		Creds:     creds,
		Heartbeat: time.Duration(cfg.Broker.HeartbeatSec) * time.Second,
	}
	manager := broker.NewManager(
		dialer,
		f,
		time.Duration(cfg.Broker.ReconnectBaseSec)*time.Second,
		cfg.Broker.MaxReconnectAttempts,
		logger,
	)

	sess := session.New(userID, f, manager, client, logger)
	sess.Start(ctx)
	defer sess.Close()

	if headless {
		return runHeadless(f)
	}
	return runUI(f)
}

// runUI drives the interactive terminal feed viewer.
func runUI(f *feed.Store) error {
	view := feedview.New(f, keys.DefaultKeyMap(), 80, 24)
	defer view.Unsubscribe()

	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// runHeadless tails the feed to stdout until interrupted.
func runHeadless(f *feed.Store) error {
	unsubscribe := f.AddListener(func(ev feed.Event) {
		if ev.Kind == feed.EventNew && ev.Notification != nil {
			n := ev.Notification
			fmt.Printf("[%s] %s: %s (unread: %d)\n", n.Category, n.Title, n.Message, ev.UnreadCount)
		}
	})
	defer unsubscribe()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

// buildLogger creates a file-backed zap logger so log output never
// corrupts the terminal UI.
func buildLogger(cfg model.LogConfig) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{cfg.Path}
	zcfg.ErrorOutputPaths = []string{cfg.Path}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
