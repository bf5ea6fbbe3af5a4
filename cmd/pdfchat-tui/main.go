package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/app"
	"github.com/kailas-cloud/pdfchat/internal/config"
	logpkg "github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/tui"
	"github.com/kailas-cloud/pdfchat/internal/version"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		logFile string
		adapter string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config (default: config/<ENV>.yaml)")
	flag.StringVar(&logFile, "log", "", "Log file (default: logging.file, else pdfchat-tui.log)")
	flag.StringVar(&adapter, "adapter", "", "Fine-tuned adapter id (default: llm.adapter_id or llm.adapter_file)")
	flag.Parse()

	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		fatalf("load config: %v", err)
	}
	if adapter != "" {
		cfg.LLM.AdapterID = adapter
	}

	// The terminal belongs to the UI, so logs go to a file.
	if logFile == "" {
		logFile = cfg.Logging.File
	}
	if logFile == "" {
		logFile = "pdfchat-tui.log"
	}
	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, File: logFile})
	if err != nil {
		fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pdfchat terminal UI", zap.String("version", version.String()))
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatApp, err := app.NewChat(ctx, &cfg, logger)
	if err != nil {
		fatalf("build chat service: %v", err)
	}
	defer chatApp.Close()

	sess := chatApp.Service.Create(ctx)
	m := tui.New(ctx, chatApp.Service, sess.ID)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("Terminal UI failed", zap.Error(err))
		fatalf("run: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "pdfchat-tui: "+format+"\n", args...)
	os.Exit(1)
}
