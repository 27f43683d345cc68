package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for ShopHub
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cart      CartConfig      `mapstructure:"cart"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// DatabaseConfig holds the conversation log database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds the cache store connection
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CartConfig holds cart store configuration
type CartConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RetrievalConfig holds vector store configuration
type RetrievalConfig struct {
	QdrantHost     string        `mapstructure:"qdrant_host"`
	QdrantPort     int           `mapstructure:"qdrant_port"`
	QdrantAPIKey   string        `mapstructure:"qdrant_api_key"`
	Collection     string        `mapstructure:"collection"`
	Dimensions     int           `mapstructure:"dimensions"`
	TopK           int           `mapstructure:"top_k"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IndexWorkers   int           `mapstructure:"index_workers"`
	IndexOnStartup bool          `mapstructure:"index_on_startup"`
}

// LLMConfig holds the embedding provider configuration
type LLMConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// CheckoutConfig holds checkout pricing rules
type CheckoutConfig struct {
	TaxRate          float64 `mapstructure:"tax_rate"`
	ShippingFee      float64 `mapstructure:"shipping_fee"`
	FreeShippingOver float64 `mapstructure:"free_shipping_over"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SHOPHUB_REDIS_URL overrides redis.url
	v.SetEnvPrefix("SHOPHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	v.SetDefault("admin.api_key", "")

	v.SetDefault("log.development", false)

	v.SetDefault("database.path", "./data/shophub.db")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 5*time.Second)
	v.SetDefault("redis.write_timeout", 5*time.Second)

	v.SetDefault("cart.ttl", 365*24*time.Hour)
	v.SetDefault("cart.max_retries", 5)

	v.SetDefault("catalog.url", "https://fakestoreapi.com/products")
	v.SetDefault("catalog.cache_ttl", 365*24*time.Hour)
	v.SetDefault("catalog.timeout", 10*time.Second)

	v.SetDefault("retrieval.qdrant_host", "localhost")
	v.SetDefault("retrieval.qdrant_port", 6334)
	v.SetDefault("retrieval.qdrant_api_key", "")
	v.SetDefault("retrieval.collection", "shophub")
	v.SetDefault("retrieval.dimensions", 768)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.timeout", 10*time.Second)
	v.SetDefault("retrieval.index_workers", 4)
	v.SetDefault("retrieval.index_on_startup", true)

	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "ollama")
	v.SetDefault("llm.embedding_model", "nomic-embed-text")

	v.SetDefault("checkout.tax_rate", 0.07)
	v.SetDefault("checkout.shipping_fee", 5.0)
	v.SetDefault("checkout.free_shipping_over", 50.0)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
