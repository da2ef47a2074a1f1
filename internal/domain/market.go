package domain

import (
	"math"
	"time"
)

// Nombres canónicos de los outcomes binarios.
const (
	OutcomeYes = "YES"
	OutcomeNo  = "NO"
)

// Market es un snapshot de un mercado de predicción tal como lo entrega el proveedor de datos.
type Market struct {
	ID          string
	ConditionID string
	Question    string
	Description string
	Slug        string
	EndDate     time.Time // zero = sin fecha de cierre conocida
	Volume      float64   // volumen total en USDC
	Liquidity   float64   // liquidez en USDC
	Outcomes    []Outcome
	Active      bool
	Closed      bool
}

// Outcome es uno de los resultados posibles del mercado.
type Outcome struct {
	Name    string
	TokenID string
	Price   float64
}

// Resolved devuelve true si el mercado ya no acepta trading.
func (m Market) Resolved() bool {
	return !m.Active || m.Closed
}

// Outcome busca un outcome por nombre exacto.
func (m Market) Outcome(name string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// HoursToClose devuelve las horas hasta EndDate respecto a now.
// Sin EndDate devuelve +Inf. Un mercado vencido devuelve horas negativas.
func (m Market) HoursToClose(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return math.Inf(1)
	}
	return m.EndDate.Sub(now).Hours()
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen runas.
// Si la pregunta está vacía usa el id como fallback.
func TruncateQuestion(question, id string, maxLen int) string {
	q := question
	if q == "" {
		if r := []rune(id); len(r) > 20 {
			q = string(r[:20]) + "..."
		} else {
			q = id
		}
	}
	if r := []rune(q); len(r) > maxLen {
		q = string(r[:max(maxLen-3, 0)]) + "..."
	}
	return q
}
