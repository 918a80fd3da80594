package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/tradebot/config"
	"github.com/alejandrodnm/tradebot/internal/adapters/alpaca"
	"github.com/alejandrodnm/tradebot/internal/adapters/dexscreener"
	"github.com/alejandrodnm/tradebot/internal/adapters/evm"
	"github.com/alejandrodnm/tradebot/internal/adapters/notify"
	"github.com/alejandrodnm/tradebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/tradebot/internal/adapters/storage"
	"github.com/alejandrodnm/tradebot/internal/adapters/yahoo"
	"github.com/alejandrodnm/tradebot/internal/agent"
	"github.com/alejandrodnm/tradebot/internal/detector"
	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/executor"
	"github.com/alejandrodnm/tradebot/internal/risk"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("tradebot starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"auto_execute", cfg.Agent.AutoExecute,
		"min_confidence", cfg.Agent.MinConfidence,
		"once", *once,
	)
	slog.Info("capital allocation",
		"markets", cfg.Capital.MarketsUSD,
		"equity", cfg.Capital.EquityUSD,
		"tokens", cfg.Capital.TokensUSD,
	)
	slog.Info("risk limits",
		"max_position", cfg.Risk.MaxPositionSizeUSD,
		"max_daily_loss", cfg.Risk.MaxDailyLossUSD,
		"max_trades_per_day", cfg.Risk.MaxTradesPerDay,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	// Clients de venues y data sources
	pmClient := polymarket.NewClient(cfg.API.GammaBase, cfg.API.DataBase, cfg.Wallets.Polymarket)
	dexClient := dexscreener.NewClient(cfg.API.DexscreenerBase, cfg.Listings.Chain)
	quoteClient := yahoo.NewClient(cfg.API.YahooBase)
	broker := alpaca.NewClient(cfg.API.AlpacaBase, cfg.Broker.APIKey, cfg.Broker.APISecret)
	wallet := evm.NewWallet(cfg.API.RPCURL, cfg.Wallets.Base)

	// Alertas: consola siempre, Telegram si hay credenciales
	console := notify.NewConsole()
	telegram := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	notifier := notify.NewMulti(console, telegram)

	// Detectores habilitados, en orden canónico de invocación
	var detectors []detector.Detector
	if cfg.Detectors.Markets {
		detectors = append(detectors, detector.NewMarketsDetector(pmClient, nil))
	}
	if cfg.Detectors.Window {
		wd, err := detector.NewWindowDetector(quoteClient, detector.WindowParams{
			Symbol:       cfg.Window.Symbol,
			Timezone:     cfg.Window.Timezone,
			Start:        cfg.Window.Start,
			End:          cfg.Window.End,
			ExpectedEdge: cfg.Window.ExpectedEdge,
		})
		if err != nil {
			slog.Error("failed to create window detector", "err", err)
			os.Exit(1)
		}
		detectors = append(detectors, wd)
	}
	if cfg.Detectors.Listings {
		detectors = append(detectors, detector.NewListingsDetector(dexClient, nil))
	}

	executors := executor.Registry{
		domain.KindPriceMovement:   executor.NewMarkets(pmClient, store, cfg.Risk.MaxPositionSizeUSD),
		domain.KindScheduledWindow: executor.NewEquity(broker, store, cfg.Capital.EquityUSD),
		domain.KindNewListing:      executor.NewTokens(wallet, store, cfg.Risk.MaxPositionSizeUSD),
	}

	riskMgr := risk.NewManager(risk.Limits{
		MaxPositionSizeUSD: cfg.Risk.MaxPositionSizeUSD,
		MaxDailyLossUSD:    cfg.Risk.MaxDailyLossUSD,
		MaxTradesPerDay:    cfg.Risk.MaxTradesPerDay,
	}, store, notifier)

	a := agent.New(agent.Config{
		ScanInterval:  cfg.ScanInterval(),
		StopFile:      cfg.Agent.StopFile,
		MinConfidence: cfg.MinConfidence,
		AutoExecute:   cfg.Agent.AutoExecute,
	}, detectors, executors, riskMgr, store, notifier)
	a.SetReporter(console)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := notifier.Notify(ctx, "Agent started\n\nMonitoring markets..."); err != nil {
		slog.Warn("startup notification failed", "err", err)
	}

	if *once {
		a.RunCycle(ctx)
		return
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("agent exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("tradebot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
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
	slog.SetDefault(slog.New(handler))
}
