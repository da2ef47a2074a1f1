package domain

// Categorías que asigna el clasificador de mercados.
const (
	CategorySports   = "sports"
	CategoryPolitics = "politics"
	CategoryNews     = "news"
	CategoryCrypto   = "crypto"
	CategoryFinance  = "finance"
	CategoryOther    = "other"
)

// LiveEvent es un mercado que pasó los filtros, con sus métricas derivadas.
type LiveEvent struct {
	Market         Market
	Spread         float64 // |1 - (YES + NO)|
	HoursToClose   float64 // +Inf si el mercado no tiene EndDate
	IsLive         bool
	Category       string
	BettingScore   float64 // 0-100
	HasLiveUpdates bool
}

// LiveEventCriteria define los filtros del pipeline de oportunidades.
// El orden de campos es fijo: su JSON es la clave canónica del cache.
type LiveEventCriteria struct {
	MinVolume         float64 `json:"minVolume"`
	MinLiquidity      float64 `json:"minLiquidity"`
	MaxSpread         float64 `json:"maxSpread"`
	EndingWithinHours float64 `json:"endingWithinHours"`
	ExcludeResolved   bool    `json:"excludeResolved"`
}

// DefaultLiveEventCriteria devuelve los criterios por defecto del scorer.
func DefaultLiveEventCriteria() LiveEventCriteria {
	return LiveEventCriteria{
		MinVolume:         10000,
		MinLiquidity:      1000,
		MaxSpread:         0.05,
		EndingWithinHours: 24,
		ExcludeResolved:   true,
	}
}
