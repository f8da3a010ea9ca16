package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/config"
	"github.com/vanshika/fintrace/linkgraph/internal/dataset"
	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/logging"
	"github.com/vanshika/fintrace/linkgraph/internal/service"
)

type options struct {
	datasetDir       string
	mode             string
	output           string
	node             string
	types            string
	showUsers        bool
	showTransactions bool
	minAmount        string
	maxAmount        string
	start            string
	end              string
}

func main() {
	var opts options
	flag.StringVar(&opts.datasetDir, "dataset-dir", "data", "directory containing users.json and transactions.json")
	flag.StringVar(&opts.mode, "mode", "stats", "what to print: stats, export or connections")
	flag.StringVar(&opts.output, "out", "", "write the result to this file instead of stdout")
	flag.StringVar(&opts.node, "node", "", "node id for connections mode, e.g. user-42 or transaction-7")
	flag.StringVar(&opts.types, "types", "", "comma separated relationship types to keep (default all, \"none\" for no edges)")
	flag.BoolVar(&opts.showUsers, "show-users", true, "include user nodes")
	flag.BoolVar(&opts.showTransactions, "show-transactions", true, "include transaction nodes")
	flag.StringVar(&opts.minAmount, "min-amount", "", "minimum transaction amount")
	flag.StringVar(&opts.maxAmount, "max-amount", "", "maximum transaction amount")
	flag.StringVar(&opts.start, "start", "", "earliest transaction time (RFC3339)")
	flag.StringVar(&opts.end, "end", "", "latest transaction time (RFC3339)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(config.LoggingConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("analyze failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, opts options) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	analytics := service.NewAnalyticsService(
		dataset.NewFileStore(opts.datasetDir, logger),
		service.WithLogger(logger),
	)
	if _, err := analytics.Refresh(ctx); err != nil {
		return err
	}

	var result any
	switch opts.mode {
	case "stats":
		result, err = analytics.Stats(filter)
	case "export":
		result, err = analytics.Export(filter)
	case "connections":
		var ref domain.EntityRef
		if ref, err = domain.ParseNodeID(opts.node); err != nil {
			return err
		}
		result, err = analytics.Connections(ref)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	logger.Info("analysis written", zap.String("mode", opts.mode), zap.String("output", opts.output))
	return nil
}

func buildFilter(opts options) (domain.GraphFilter, error) {
	filter := service.DefaultFilter()
	filter.ShowUsers = opts.showUsers
	filter.ShowTransactions = opts.showTransactions

	switch strings.TrimSpace(opts.types) {
	case "":
	case "none":
		filter.RelationshipKinds = []domain.RelationshipKind{}
	default:
		filter.RelationshipKinds = nil
		for _, name := range strings.Split(opts.types, ",") {
			kind, err := service.ParseRelationshipKind(name)
			if err != nil {
				return domain.GraphFilter{}, err
			}
			filter.RelationshipKinds = append(filter.RelationshipKinds, kind)
		}
	}

	var err error
	if filter.MinAmount, err = parseAmount("min-amount", opts.minAmount); err != nil {
		return domain.GraphFilter{}, err
	}
	if filter.MaxAmount, err = parseAmount("max-amount", opts.maxAmount); err != nil {
		return domain.GraphFilter{}, err
	}

	if opts.start != "" || opts.end != "" {
		var dr domain.DateRange
		if opts.start != "" {
			if dr.Start, err = time.Parse(time.RFC3339, opts.start); err != nil {
				return domain.GraphFilter{}, fmt.Errorf("invalid start: %w", err)
			}
		}
		if opts.end != "" {
			if dr.End, err = time.Parse(time.RFC3339, opts.end); err != nil {
				return domain.GraphFilter{}, fmt.Errorf("invalid end: %w", err)
			}
		}
		filter.DateRange = &dr
	}
	return filter, nil
}

func parseAmount(name, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &v, nil
}
