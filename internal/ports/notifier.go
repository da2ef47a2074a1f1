package ports

import (
	"context"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// Notifier presenta los eventos en vivo encontrados al usuario.
type Notifier interface {
	// Notify muestra los eventos ordenados por betting score.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, events []domain.LiveEvent) error
}
