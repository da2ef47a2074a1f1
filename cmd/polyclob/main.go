package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/polyclob/config"
	"github.com/alejandrodnm/polyclob/internal/adapters/notify"
	"github.com/alejandrodnm/polyclob/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyclob/internal/adapters/storage"
)

const usage = `usage: polyclob [flags] <command> [args]

commands:
  events                      scan Gamma markets and rank live events (loop; -once for one cycle)
  stream <token>...           subscribe to orderbook and trades for each token and log events
  book <token>...             print the order book of one or more tokens
  orders                      list the account's open orders
  place <token> <BUY|SELL> <price> <size>
                              validate, sign and submit a limit order
  cancel <orderID> [hash]     cancel a resting order
  journal                     print the latest entries of the local order journal
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "events: run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "events: print full table (default: compact 1-line)")
	preset := flag.String("preset", "", "events: sports|news|top (default: configured criteria)")
	orderType := flag.String("type", "GTC", "place: GTC|GTD|FOK|FAK")
	negRisk := flag.Bool("neg-risk", false, "place: route through the neg-risk exchange")
	user := flag.Bool("user", false, "stream: also subscribe to the wallet's order updates")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

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

	slog.Info("polyclob starting", "command", cmd, "config", *configPath, "chain_id", cfg.API.ChainID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase).
		WithMarketLimit(cfg.Events.MarketLimit)
	console := notify.NewConsole(*table)

	// book y stream no necesitan base de datos
	var store *storage.SQLiteStorage
	if cmd != "book" && cmd != "stream" {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	switch cmd {
	case "events":
		err = runEvents(ctx, cfg, client, store, console, *preset, *once)
	case "stream":
		err = runStream(ctx, cfg, args, *user)
	case "book":
		err = runBook(ctx, cfg, client, console, args)
	case "orders":
		err = runOrders(ctx, cfg, client, store, console)
	case "place":
		err = runPlace(ctx, cfg, client, store, console, args, *orderType, *negRisk)
	case "cancel":
		err = runCancel(ctx, cfg, client, store, console, args)
	case "journal":
		err = runJournal(ctx, store, console)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", cmd, "err", err)
		os.Exit(1)
	}
	slog.Info("polyclob stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
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
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
