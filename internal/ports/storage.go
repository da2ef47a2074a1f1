package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// LiveEventStorage persiste los resultados de cada ciclo del scanner.
type LiveEventStorage interface {
	// SaveScan persiste los eventos encontrados en un ciclo.
	SaveScan(ctx context.Context, events []domain.LiveEvent) error

	// GetHistory devuelve los eventos registrados en el rango de tiempo dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.LiveEvent, error)
}

// OrderJournal records what the order client sent and what came back.
type OrderJournal interface {
	RecordPlacement(ctx context.Context, order domain.PlacedOrder) error
	RecordCancel(ctx context.Context, result domain.CancelResult) error
}
