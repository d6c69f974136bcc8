package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de tradescope.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Backtest BacktestConfig `yaml:"backtest"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controla el sweep de métricas y el ranking.
type AnalysisConfig struct {
	Traders        []string           `yaml:"traders"` // trader ids opacos, resueltos externamente
	Symbol         string             `yaml:"symbol"`
	Interval       string             `yaml:"interval"`
	LookbackHours  int                `yaml:"lookback_hours"`
	MinTrades      int                `yaml:"min_trades"`
	Workers        int                `yaml:"workers"`
	Weights        map[string]float64 `yaml:"weights"`
	PeriodsPerYear float64            `yaml:"periods_per_year"`
}

// BacktestConfig controla el modelo de ejecución del backtest.
type BacktestConfig struct {
	Strategy       string  `yaml:"strategy"`
	InitialCapital float64 `yaml:"initial_capital"`
	CostRate       float64 `yaml:"cost_rate"`
	MaxLeverage    float64 `yaml:"max_leverage"`
	FillAtNextOpen bool    `yaml:"fill_at_next_open"`
}

// APIConfig contiene el base URL de la API del exchange.
type APIConfig struct {
	Base string `yaml:"base"`
}

// StorageConfig controla dónde se persisten los resultados.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que correspondan.
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

	return &cfg, nil
}

// Lookback devuelve la ventana de análisis como time.Duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Analysis.LookbackHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TRADESCOPE_API_BASE"); v != "" {
		cfg.API.Base = v
	}
	if v := os.Getenv("TRADESCOPE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Analysis.Symbol == "" {
		cfg.Analysis.Symbol = "SOL_USDC"
	}
	if cfg.Analysis.Interval == "" {
		cfg.Analysis.Interval = "5m"
	}
	if cfg.Analysis.LookbackHours <= 0 {
		cfg.Analysis.LookbackHours = 24
	}
	if cfg.Analysis.MinTrades < 0 {
		cfg.Analysis.MinTrades = 0
	}
	if cfg.Analysis.PeriodsPerYear <= 0 {
		cfg.Analysis.PeriodsPerYear = 365
	}
	if len(cfg.Analysis.Weights) == 0 {
		cfg.Analysis.Weights = map[string]float64{
			"win_rate":     0.3,
			"total_return": 0.4,
			"sharpe_ratio": 0.3,
		}
	}
	if cfg.Backtest.Strategy == "" {
		cfg.Backtest.Strategy = "sma-cross"
	}
	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 1000
	}
	if cfg.Backtest.MaxLeverage <= 0 {
		cfg.Backtest.MaxLeverage = 1
	}
	if cfg.API.Base == "" {
		cfg.API.Base = "https://api.backpack.exchange"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tradescope.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
