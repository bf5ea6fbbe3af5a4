package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	logpkg "github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/transport/gradient"
	"github.com/kailas-cloud/pdfchat/internal/usecase/finetune"
	"github.com/kailas-cloud/pdfchat/internal/version"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		samples    string
		output     string
		iterations int
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config (default: config/<ENV>.yaml)")
	flag.StringVar(&samples, "samples", "", "Sample set file, YAML or JSON (default: finetune.samples_file)")
	flag.StringVar(&output, "out", "", "Adapter record file (default: finetune.output_file)")
	flag.IntVar(&iterations, "iterations", 0, "Number of full-batch submissions (default: finetune.iterations)")
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
	if samples != "" {
		cfg.FineTune.SamplesFile = samples
	}
	if output != "" {
		cfg.FineTune.OutputFile = output
	}
	if iterations != 0 {
		cfg.FineTune.Iterations = iterations
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level})
	if err != nil {
		fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Register()

	if err := run(&cfg, logger, os.Stdout); err != nil {
		logger.Error("Fine-tune run failed",
			zap.String("kind", string(domain.KindOf(err))),
			zap.String("op", domain.OpOf(err)),
			zap.Error(err),
		)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	if cfg.Platform.Provider != config.ProviderGradient {
		return domain.NewError(domain.KindConfig, finetune.OpValidate,
			fmt.Errorf("%w: fine-tuning requires platform.provider %q", domain.ErrInvalidConfig, config.ProviderGradient))
	}
	if cfg.FineTune.SamplesFile == "" {
		return domain.NewError(domain.KindConfig, finetune.OpValidate,
			fmt.Errorf("%w: no sample set given (-samples or finetune.samples_file)", domain.ErrInvalidConfig))
	}

	set, err := finetune.LoadSamples(cfg.FineTune.SamplesFile)
	if err != nil {
		return err
	}

	client, err := gradient.NewClient(gradient.Config{
		BaseURL:     cfg.Platform.BaseURL,
		AccessToken: cfg.Platform.AccessToken,
		WorkspaceID: cfg.Platform.WorkspaceID,
		Timeout:     cfg.PlatformTimeout(),
		Logger:      logger,
	})
	if err != nil {
		return domain.NewError(domain.KindConfig, finetune.OpValidate, err)
	}

	logger.Info("Starting fine-tune",
		zap.String("version", version.String()),
		zap.String("base_model", cfg.FineTune.BaseModelSlug),
		zap.String("adapter_name", cfg.FineTune.AdapterName),
		zap.Int("iterations", cfg.FineTune.Iterations),
		zap.Int("samples", len(set)),
	)

	svc := finetune.New(client, finetune.Options{
		BaseModelSlug: cfg.FineTune.BaseModelSlug,
		AdapterName:   cfg.FineTune.AdapterName,
		Iterations:    cfg.FineTune.Iterations,
		MaxTokens:     cfg.FineTune.MaxTokens,
		LLMProvider:   cfg.Platform.Provider,
		Embedding: domain.EmbeddingSettings{
			Provider:         cfg.Embedding.Provider,
			ModelSlug:        cfg.Embedding.ModelSlug,
			QueryInstruction: cfg.Embedding.QueryInstruction,
		},
		ChunkSize:       cfg.Index.ChunkSize,
		ChunkOverlap:    cfg.Index.Overlap(),
		TopK:            cfg.Index.TopK,
		DeleteOnFailure: cfg.FineTune.DeleteAdapterOnFailure,
		OnIteration: func(i, total int, res domain.FineTuneResult) {
			_, _ = fmt.Fprintf(out, "Fine-tuning the model, iteration %d/%d (trainable tokens %d, loss %.4f)\n",
				i, total, res.TrainableTokens, res.SumLoss)
		},
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := svc.Run(ctx, set)
	if err != nil {
		return err
	}

	rec := config.AdapterRecord{
		AdapterID:     res.Adapter.ID,
		Name:          res.Adapter.Name,
		BaseModelSlug: cfg.FineTune.BaseModelSlug,
		Iterations:    cfg.FineTune.Iterations,
		CreatedAt:     time.Now().UTC(),
	}
	if err := config.SaveAdapterRecord(cfg.FineTune.OutputFile, rec); err != nil {
		return domain.NewError(domain.KindLocalIO, "save_adapter_record", err)
	}

	printConfig(out, res.Config)
	_, _ = fmt.Fprintf(out, "Adapter record written to %s\n", cfg.FineTune.OutputFile)
	return nil
}

func printConfig(w io.Writer, c domain.RetrievalConfig) {
	_, _ = fmt.Fprintf(w, "Retrieval config:\n"+
		"  llm:        adapter %s (%s), max tokens %d\n"+
		"  embedding:  %s (%s)\n"+
		"  chunk size: %d, overlap %d, top k %d\n",
		c.LLM.AdapterID, c.LLM.Provider, c.LLM.MaxTokens,
		c.Embedding.ModelSlug, c.Embedding.Provider,
		c.ChunkSize, c.ChunkOverlap, c.TopK,
	)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "finetune: "+format+"\n", args...)
	os.Exit(1)
}
