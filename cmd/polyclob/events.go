package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyclob/config"
	"github.com/alejandrodnm/polyclob/internal/adapters/notify"
	"github.com/alejandrodnm/polyclob/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyclob/internal/adapters/storage"
	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/scanner"
)

func runEvents(ctx context.Context, cfg *config.Config, client *polymarket.Client, store *storage.SQLiteStorage, console *notify.Console, preset string, once bool) error {
	scorer := scanner.NewScorer(client, cfg.CacheTTL())

	if preset != "" {
		events, err := runPreset(ctx, scorer, preset)
		if err != nil {
			return err
		}
		if err := console.Notify(ctx, events); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return store.SaveScan(ctx, events)
	}

	runCfg := scanner.DefaultConfig()
	runCfg.ScanInterval = cfg.EventsInterval()
	runCfg.Once = once
	runCfg.Criteria = domain.LiveEventCriteria{
		MinVolume:         cfg.Events.MinVolume,
		MinLiquidity:      cfg.Events.MinLiquidity,
		MaxSpread:         cfg.Events.MaxSpread,
		EndingWithinHours: cfg.Events.EndingWithinHours,
		ExcludeResolved:   cfg.Events.ExcludeResolved,
	}

	return scanner.NewRunner(runCfg, scorer, store, console).Run(ctx)
}

func runPreset(ctx context.Context, scorer *scanner.Scorer, preset string) ([]domain.LiveEvent, error) {
	switch preset {
	case "sports":
		return scorer.FindLiveSports(ctx)
	case "news":
		return scorer.FindBreakingNews(ctx)
	case "top":
		return scorer.FindTopLiveEvents(ctx, 0)
	}
	return nil, fmt.Errorf("unknown preset %q (sports|news|top)", preset)
}
