package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Documents DocumentsConfig `yaml:"documents" mapstructure:"documents"`
	Index     IndexConfig     `yaml:"index" mapstructure:"index"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Agent     AgentConfig     `yaml:"agent" mapstructure:"agent"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig holds settings for the embeddings collaborator
// (any OpenAI-compatible embeddings endpoint).
type EmbeddingConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Model          string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// DocumentsConfig configures document acquisition and preparation.
type DocumentsConfig struct {
	ManifestPath string `yaml:"manifest_path" mapstructure:"manifest_path"`
	DownloadDir  string `yaml:"download_dir" mapstructure:"download_dir"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
}

// IndexConfig configures the vector index artifact.
type IndexConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the structured entity store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	CSVPath     string `yaml:"csv_path" mapstructure:"csv_path"`
}

// AgentConfig configures the question-answering agent loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`
	SearchTopK    int `yaml:"search_top_k" mapstructure:"search_top_k"`
	ExtractTopK   int `yaml:"extract_top_k" mapstructure:"extract_top_k"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	PdfInfoPath   string `yaml:"pdfinfo_path" mapstructure:"pdfinfo_path"`
}

// ServerConfig configures the HTTP query server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. Unknown keys in the
// config file are rejected so typos surface at startup instead of being
// silently ignored.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.timeout_secs", 30)
	v.SetDefault("embedding.requests_per_sec", 5)
	v.SetDefault("documents.manifest_path", "manifest.yaml")
	v.SetDefault("documents.download_dir", "raw_documents")
	v.SetDefault("documents.user_agent", "finrag-cli/1.0")
	v.SetDefault("index.path", "index.json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "entity_data.db")
	v.SetDefault("store.csv_path", "aggregated_entities_table.csv")
	v.SetDefault("agent.max_iterations", 8)
	v.SetDefault("agent.search_top_k", 2)
	v.SetDefault("agent.extract_top_k", 5)
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.pdfinfo_path", "pdfinfo")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
