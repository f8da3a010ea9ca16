package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/config"
	"github.com/vanshika/fintrace/linkgraph/internal/dataset"
	"github.com/vanshika/fintrace/linkgraph/internal/generator"
	"github.com/vanshika/fintrace/linkgraph/internal/logging"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users             = flag.Int("users", cfg.NumUsers, "number of users to generate")
		transactions      = flag.Int("transactions", cfg.NumTransactions, "number of transactions to generate")
		sharedChance      = flag.Float64("shared-attr-chance", cfg.SharedAttributeChance, "probability of reusing existing user attributes")
		pmShareChance     = flag.Float64("payment-share-chance", cfg.PaymentMethodShareChance, "probability of reusing existing payment methods")
		ipShareChance     = flag.Float64("ip-share-chance", cfg.IPShareChance, "probability of reusing existing IP addresses")
		deviceShareChance = flag.Float64("device-share-chance", cfg.DeviceShareChance, "probability of reusing existing device IDs")
		highValueChance   = flag.Float64("high-value-chance", cfg.HighValueChance, "probability of generating a high-value transaction")
		seed              = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir         = flag.String("output-dir", "data", "directory to write users.json and transactions.json")
		writeStdout       = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
		logLevel          = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger, err := logging.New(config.LoggingConfig{Level: *logLevel, Format: "console", Colored: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	genCfg := generator.Config{
		NumUsers:                 *users,
		NumTransactions:          *transactions,
		SharedAttributeChance:    clampProbability(*sharedChance),
		PaymentMethodShareChance: clampProbability(*pmShareChance),
		IPShareChance:            clampProbability(*ipShareChance),
		DeviceShareChance:        clampProbability(*deviceShareChance),
		HighValueChance:          clampProbability(*highValueChance),
		Seed:                     *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		logger.Fatal("generation failed", zap.Error(err))
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(data); err != nil {
			logger.Fatal("failed to write dataset to stdout", zap.Error(err))
		}
		return
	}

	if err := dataset.WriteDataset(data, *outputDir); err != nil {
		logger.Fatal("failed to write dataset", zap.Error(err))
	}

	logger.Info("dataset generated",
		zap.Int("users", len(data.Users)),
		zap.Int("transactions", len(data.Transactions)),
		zap.String("dir", *outputDir),
	)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
