package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del cliente.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Stream  StreamConfig  `yaml:"stream"`
	Risk    RiskConfig    `yaml:"risk"`
	Events  EventsConfig  `yaml:"events"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// Wallet solo se rellena desde el entorno.
	Wallet WalletConfig `yaml:"-"`
}

// APIConfig contiene los endpoints y la cadena.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	WSURL     string `yaml:"ws_url"`
	ChainID   int64  `yaml:"chain_id"`
}

// StreamConfig controla la reconexión y el keep-alive del WebSocket.
type StreamConfig struct {
	AutoReconnect        bool `yaml:"auto_reconnect"`
	MaxReconnectAttempts int  `yaml:"max_reconnect_attempts"`
	ReconnectBaseDelayMs int  `yaml:"reconnect_base_delay_ms"`
	ReconnectMaxDelayMs  int  `yaml:"reconnect_max_delay_ms"` // 0 = sin tope
	PingIntervalSeconds  int  `yaml:"ping_interval_seconds"`
	EventBuffer          int  `yaml:"event_buffer"`
}

// RiskConfig son los límites de riesgo. Con enabled=false no se valida nada.
type RiskConfig struct {
	Enabled           bool     `yaml:"enabled"`
	MaxNotional       float64  `yaml:"max_notional"`
	MaxSizePerMarket  float64  `yaml:"max_size_per_market"`
	MaxSkew           float64  `yaml:"max_skew"`
	MaxSpreadSlippage float64  `yaml:"max_spread_slippage"`
	MinEdge           float64  `yaml:"min_edge"`
	AllowedMarkets    []string `yaml:"allowed_markets"`
	BlockedMarkets    []string `yaml:"blocked_markets"`
}

// EventsConfig controla el scorer de eventos en vivo.
type EventsConfig struct {
	IntervalSeconds   int     `yaml:"interval_seconds"`
	MarketLimit       int     `yaml:"market_limit"`
	MinVolume         float64 `yaml:"min_volume"`
	MinLiquidity      float64 `yaml:"min_liquidity"`
	MaxSpread         float64 `yaml:"max_spread"`
	EndingWithinHours float64 `yaml:"ending_within_hours"`
	ExcludeResolved   bool    `yaml:"exclude_resolved"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// WalletConfig es la clave de firma y el funder opcional.
type WalletConfig struct {
	PrivateKey string
	Funder     string
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse interpreta un documento YAML. Las claves ausentes conservan su valor por defecto.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// EventsInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) EventsInterval() time.Duration {
	return time.Duration(c.Events.IntervalSeconds) * time.Second
}

// CacheTTL devuelve el TTL de la caché del scorer.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Events.CacheTTLSeconds) * time.Second
}

// ReconnectBaseDelay devuelve el retardo del primer reintento.
func (c StreamConfig) ReconnectBaseDelay() time.Duration {
	return time.Duration(c.ReconnectBaseDelayMs) * time.Millisecond
}

// ReconnectMaxDelay devuelve el tope del backoff (0 = sin tope).
func (c StreamConfig) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.ReconnectMaxDelayMs) * time.Millisecond
}

// PingInterval devuelve el intervalo del keep-alive.
func (c StreamConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSeconds) * time.Second
}

func defaults() Config {
	return Config{
		API: APIConfig{
			CLOBBase:  "https://clob.polymarket.com",
			GammaBase: "https://gamma-api.polymarket.com",
			WSURL:     "wss://ws-subscriptions-clob.polymarket.com/ws",
			ChainID:   137,
		},
		Stream: StreamConfig{
			AutoReconnect:        true,
			MaxReconnectAttempts: 5,
			ReconnectBaseDelayMs: 1000,
			PingIntervalSeconds:  30,
			EventBuffer:          256,
		},
		Events: EventsConfig{
			IntervalSeconds:   30,
			MarketLimit:       500,
			MinVolume:         10000,
			MinLiquidity:      1000,
			MaxSpread:         0.05,
			EndingWithinHours: 24,
			ExcludeResolved:   true,
			CacheTTLSeconds:   30,
		},
		Storage: StorageConfig{DSN: "polyclob.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CLOB_WS_URL"); v != "" {
		cfg.API.WSURL = v
	}
	cfg.Wallet.PrivateKey = os.Getenv("POLY_PRIVATE_KEY")
	cfg.Wallet.Funder = os.Getenv("POLY_FUNDER")
}

// setDefaults asegura que los valores requeridos tengan valores sensatos
// aunque el YAML los haya puesto a cero.
func setDefaults(cfg *Config) {
	d := defaults()
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = d.API.CLOBBase
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = d.API.GammaBase
	}
	if cfg.API.WSURL == "" {
		cfg.API.WSURL = d.API.WSURL
	}
	if cfg.API.ChainID <= 0 {
		cfg.API.ChainID = d.API.ChainID
	}
	if cfg.Stream.MaxReconnectAttempts < 0 {
		cfg.Stream.MaxReconnectAttempts = 0
	}
	if cfg.Stream.ReconnectBaseDelayMs <= 0 {
		cfg.Stream.ReconnectBaseDelayMs = d.Stream.ReconnectBaseDelayMs
	}
	if cfg.Stream.EventBuffer <= 0 {
		cfg.Stream.EventBuffer = d.Stream.EventBuffer
	}
	if cfg.Events.IntervalSeconds <= 0 {
		cfg.Events.IntervalSeconds = d.Events.IntervalSeconds
	}
	if cfg.Events.MarketLimit <= 0 {
		cfg.Events.MarketLimit = d.Events.MarketLimit
	}
	if cfg.Events.CacheTTLSeconds <= 0 {
		cfg.Events.CacheTTLSeconds = d.Events.CacheTTLSeconds
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = d.Storage.DSN
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}
