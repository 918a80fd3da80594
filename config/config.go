package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Config es la configuración completa del agente.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Risk      RiskConfig      `yaml:"risk"`
	Capital   CapitalConfig   `yaml:"capital"`
	Window    WindowConfig    `yaml:"window"`
	Listings  ListingsConfig  `yaml:"listings"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Telegram  TelegramConfig  `yaml:"-"` // solo desde env, nunca del YAML
	Broker    BrokerConfig    `yaml:"-"` // solo desde env
	Wallets   WalletsConfig   `yaml:"-"` // solo desde env
	Log       LogConfig       `yaml:"log"`

	// MinConfidence es el umbral parseado de Agent.MinConfidence.
	MinConfidence domain.Confidence `yaml:"-"`
}

// AgentConfig controla el loop de escaneo y la ejecución.
type AgentConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	AutoExecute     bool   `yaml:"auto_execute"`
	MinConfidence   string `yaml:"min_confidence"` // low | medium | high
	StopFile        string `yaml:"stop_file"`
}

// DetectorsConfig habilita o deshabilita cada detector.
type DetectorsConfig struct {
	Markets  bool `yaml:"markets"`
	Window   bool `yaml:"window"`
	Listings bool `yaml:"listings"`
}

// RiskConfig contiene los límites del risk manager.
type RiskConfig struct {
	MaxPositionSizeUSD float64 `yaml:"max_position_size_usd"`
	MaxDailyLossUSD    float64 `yaml:"max_daily_loss_usd"`
	MaxTradesPerDay    int     `yaml:"max_trades_per_day"`
}

// CapitalConfig es la asignación de capital por familia de detector.
type CapitalConfig struct {
	MarketsUSD float64 `yaml:"markets_usd"`
	EquityUSD  float64 `yaml:"equity_usd"`
	TokensUSD  float64 `yaml:"tokens_usd"`
}

// WindowConfig define la ventana diaria del detector scheduled_window.
type WindowConfig struct {
	Symbol       string  `yaml:"symbol"`
	Timezone     string  `yaml:"timezone"`
	Start        string  `yaml:"start"` // HH:MM en el timezone configurado
	End          string  `yaml:"end"`
	ExpectedEdge float64 `yaml:"expected_edge"` // estimación fija del movimiento esperado
}

// ListingsConfig define qué chain vigila el detector de new listings.
type ListingsConfig struct {
	Chain string `yaml:"chain"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	GammaBase       string `yaml:"gamma_base"`
	DataBase        string `yaml:"data_base"` // Polymarket data API (balances)
	DexscreenerBase string `yaml:"dexscreener_base"`
	YahooBase       string `yaml:"yahoo_base"`
	AlpacaBase      string `yaml:"alpaca_base"`
	RPCURL          string `yaml:"rpc_url"` // JSON-RPC del chain de listings
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// TelegramConfig son las credenciales del bot de alertas (env only).
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// BrokerConfig son las credenciales del broker de equities (env only).
type BrokerConfig struct {
	APIKey    string
	APISecret string
}

// WalletsConfig son las direcciones de wallet para checks de balance (env only).
type WalletsConfig struct {
	Polymarket string // dirección para consultar balance en el data API
	Base       string // dirección para consultar gas en el chain de listings
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un error aquí es fatal: el proceso no debe entrar al loop con config inválida.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	cfg.MinConfidence, err = domain.ParseConfidence(cfg.Agent.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("config.Load: agent.min_confidence: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Window.Timezone); err != nil {
		return nil, fmt.Errorf("config.Load: window.timezone %q: %w", cfg.Window.Timezone, err)
	}

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Agent.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STOP_FILE"); v != "" {
		cfg.Agent.StopFile = v
	}
	if v := os.Getenv("AUTO_EXECUTE"); v != "" {
		cfg.Agent.AutoExecute = v == "true"
	}
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.Broker.APIKey = os.Getenv("ALPACA_API_KEY")
	cfg.Broker.APISecret = os.Getenv("ALPACA_SECRET_KEY")
	cfg.Wallets.Polymarket = os.Getenv("WALLET_ADDRESS")
	cfg.Wallets.Base = os.Getenv("BASE_WALLET_ADDRESS")
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Agent.IntervalSeconds <= 0 {
		cfg.Agent.IntervalSeconds = 60
	}
	if cfg.Agent.MinConfidence == "" {
		cfg.Agent.MinConfidence = "high"
	}
	if cfg.Agent.StopFile == "" {
		cfg.Agent.StopFile = "STOP_TRADING"
	}
	if cfg.Risk.MaxPositionSizeUSD <= 0 {
		cfg.Risk.MaxPositionSizeUSD = 50
	}
	if cfg.Risk.MaxDailyLossUSD <= 0 {
		cfg.Risk.MaxDailyLossUSD = 50
	}
	if cfg.Risk.MaxTradesPerDay <= 0 {
		cfg.Risk.MaxTradesPerDay = 10
	}
	if cfg.Capital.MarketsUSD <= 0 {
		cfg.Capital.MarketsUSD = 200
	}
	if cfg.Capital.EquityUSD <= 0 {
		cfg.Capital.EquityUSD = 200
	}
	if cfg.Capital.TokensUSD <= 0 {
		cfg.Capital.TokensUSD = 200
	}
	if cfg.Window.Symbol == "" {
		cfg.Window.Symbol = "SPY"
	}
	if cfg.Window.Timezone == "" {
		cfg.Window.Timezone = "America/New_York"
	}
	if cfg.Window.Start == "" {
		cfg.Window.Start = "15:45"
	}
	if cfg.Window.End == "" {
		cfg.Window.End = "15:55"
	}
	if cfg.Window.ExpectedEdge <= 0 {
		cfg.Window.ExpectedEdge = 0.3
	}
	if cfg.Listings.Chain == "" {
		cfg.Listings.Chain = "base"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.DexscreenerBase == "" {
		cfg.API.DexscreenerBase = "https://api.dexscreener.com"
	}
	if cfg.API.YahooBase == "" {
		cfg.API.YahooBase = "https://query1.finance.yahoo.com"
	}
	if cfg.API.AlpacaBase == "" {
		cfg.API.AlpacaBase = "https://paper-api.alpaca.markets"
	}
	if cfg.API.RPCURL == "" {
		cfg.API.RPCURL = "https://mainnet.base.org"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tradebot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
