package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, _ := configValue.Load().(*Config)
	if cfg == nil {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	RAG         RAGConfig       `mapstructure:"rag"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

type WeatherConfig struct {
	// Provider names the entry of Services used for predictions.
	Provider  string                          `mapstructure:"provider"`
	Services  map[string]WeatherServiceConfig `mapstructure:"services"`
	Timeout   int                             `mapstructure:"timeout"`
	RateLimit float64                         `mapstructure:"rate_limit"`
	RateBurst int                             `mapstructure:"rate_burst"`
}

type WeatherServiceConfig struct {
	Type         string            `mapstructure:"type"`
	Enabled      bool              `mapstructure:"enabled"`
	BaseURL      string            `mapstructure:"base_url"`
	GeocodingURL string            `mapstructure:"geocoding_url"`
	APIKey       string            `mapstructure:"api_key"`
	Params       map[string]string `mapstructure:"params"`
}

type RAGConfig struct {
	// Disabled mirrors the DISABLE_RAG environment toggle and wins over Enabled.
	Enabled      bool           `mapstructure:"enabled"`
	Disabled     bool           `mapstructure:"disabled"`
	SourceDir    string         `mapstructure:"source_dir"`
	PersistPath  string         `mapstructure:"persist_path"`
	ForceRebuild bool           `mapstructure:"force_rebuild"`
	ChunkSize    int            `mapstructure:"chunk_size"`
	ChunkOverlap int            `mapstructure:"chunk_overlap"`
	TopK         int            `mapstructure:"top_k"`
	WarmOnStart  bool           `mapstructure:"warm_on_start"`
	Embedder     EmbedderConfig `mapstructure:"embedder"`
}

type EmbedderConfig struct {
	Type      string `mapstructure:"type"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	Dimension int    `mapstructure:"dimension"`
	Timeout   int    `mapstructure:"timeout"`
}

type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// RetrievalEnabled reports the process-wide retrieval setting.
func (c RAGConfig) RetrievalEnabled() bool {
	return c.Enabled && !c.Disabled
}

// ActiveService returns the configuration of the selected weather provider.
func (c WeatherConfig) ActiveService() (WeatherServiceConfig, bool) {
	svc, ok := c.Services[c.Provider]
	if !ok || !svc.Enabled {
		return WeatherServiceConfig{}, false
	}
	return svc, true
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  60,
		},
		Weather: WeatherConfig{
			Provider: "open-meteo",
			Services: map[string]WeatherServiceConfig{
				"open-meteo": {
					Type:         "open-meteo",
					Enabled:      true,
					BaseURL:      "https://api.open-meteo.com/v1",
					GeocodingURL: "https://geocoding-api.open-meteo.com/v1",
				},
				"weather-api": {
					Type:    "weather-api",
					Enabled: false,
					BaseURL: "https://api.weatherapi.com/v1",
					APIKey:  "",
				},
			},
			Timeout:   10,
			RateLimit: 0,
			RateBurst: 1,
		},
		RAG: RAGConfig{
			Enabled:      true,
			SourceDir:    "knowledge_base",
			PersistPath:  "data/knowledge.db",
			ChunkSize:    500,
			ChunkOverlap: 80,
			TopK:         4,
			WarmOnStart:  true,
			Embedder: EmbedderConfig{
				Type:      "ollama",
				Model:     "all-minilm",
				BaseURL:   "http://localhost:11434",
				Dimension: 384,
				Timeout:   60,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
