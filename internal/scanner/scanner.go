package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/ports"
)

// Config contiene la configuración del loop de escaneo.
type Config struct {
	ScanInterval time.Duration
	Criteria     domain.LiveEventCriteria
	Once         bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		ScanInterval: 30 * time.Second,
		Criteria:     domain.DefaultLiveEventCriteria(),
	}
}

// Runner es el orquestador del loop: cada intervalo busca eventos en vivo,
// los notifica y los persiste.
type Runner struct {
	cfg      Config
	scorer   *Scorer
	storage  ports.LiveEventStorage
	notifier ports.Notifier
}

// NewRunner crea un Runner con todas las dependencias inyectadas. storage puede ser nil.
func NewRunner(cfg Config, scorer *Scorer, storage ports.LiveEventStorage, notifier ports.Notifier) *Runner {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 30 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		scorer:   scorer,
		storage:  storage,
		notifier: notifier,
	}
}

// Run ejecuta el loop hasta que el contexto se cancele.
// Si cfg.Once está activo, solo ejecuta un ciclo.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", r.cfg.ScanInterval,
		"once", r.cfg.Once,
	)

	if err := r.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if r.cfg.Once {
			return err
		}
	}

	if r.cfg.Once {
		return nil
	}

	ticker := time.NewTicker(r.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := r.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve los eventos encontrados.
func (r *Runner) RunOnce(ctx context.Context) ([]domain.LiveEvent, error) {
	return r.scorer.FindLiveEvents(ctx, r.cfg.Criteria)
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
// Los errores de notifier y storage se loguean pero no cortan el ciclo.
func (r *Runner) runCycle(ctx context.Context) error {
	start := time.Now()

	events, err := r.RunOnce(ctx)
	if err != nil {
		return err
	}

	if err := r.notifier.Notify(ctx, events); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if r.storage != nil {
		if err := r.storage.SaveScan(ctx, events); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"events", len(events),
		"live", countLive(events),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func countLive(events []domain.LiveEvent) int {
	n := 0
	for _, e := range events {
		if e.IsLive {
			n++
		}
	}
	return n
}
