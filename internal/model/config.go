package model

import "time"

// DefaultBackendURL is where the client looks for the analysis backend
const DefaultBackendURL = "http://127.0.0.1:5000/"

// Config is the complete termslens configuration
type Config struct {
	Client       ClientConfig       `yaml:"client" mapstructure:"client"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// ClientConfig configures the analysis client
type ClientConfig struct {
	BackendURL string        `yaml:"backend_url" mapstructure:"backend_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	Workers    int           `yaml:"workers" mapstructure:"workers"` // batch concurrency
}

// ServerConfig configures the reference analysis backend
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ContextTTL     time.Duration `yaml:"context_ttl" mapstructure:"context_ttl"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// HTTPConfig configures outbound page fetching by the backend
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LLMConfig configures the model used by the backend
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`

	MemoryMaxEntries int `yaml:"memory_max_entries" mapstructure:"memory_max_entries"` // 0 is unbounded
}

// RateLimitingConfig limits outbound fetches per domain
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig configures logrus
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr or a file path
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BackendURL: DefaultBackendURL,
			Timeout:    2 * time.Minute,
			UserAgent:  "termslens/0.1",
			Workers:    4,
		},
		Server: ServerConfig{
			Addr:           "0.0.0.0:5000",
			AllowedOrigins: []string{"*"},
			ContextTTL:     6 * time.Hour,
			RespectRobots:  true,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   3 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "TermsLens/0.1 (+https://github.com/ppiankov/termslens)",
			MaxBodyBytes: 2_000_000,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   90,
			MaxTokens: 4000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,

			MemoryMaxEntries: 256,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
