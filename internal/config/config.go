package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	LLM struct {
		Provider    string        `yaml:"provider" default:"claude"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"claude-3-haiku-20240307"`
		MaxTokens   int           `yaml:"max_tokens" default:"8192"`
		Temperature float32       `yaml:"temperature" default:"0.1"`
		Timeout     time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"llm"`

	Gateway struct {
		MaxConcurrent  int           `yaml:"max_concurrent" default:"4"`
		RateLimit      int           `yaml:"rate_limit" default:"60"` // requests per minute
		MaxRetries     int           `yaml:"max_retries" default:"5"`
		InitialBackoff time.Duration `yaml:"initial_backoff" default:"1s"`
		MaxBackoff     time.Duration `yaml:"max_backoff" default:"30s"`
	} `yaml:"gateway"`

	Embeddings struct {
		BaseURL     string `yaml:"base_url" default:"http://localhost:8081/v1"`
		APIKey      string `yaml:"api_key"`
		Model       string `yaml:"model" default:"nomic-ai/nomic-embed-text-v1.5"`
		MaxDocChars int    `yaml:"max_doc_chars" default:"1000"`
	} `yaml:"embeddings"`

	VectorStore struct {
		PersistPath string `yaml:"persist_path" default:"./data/vectors"`
		Compress    bool   `yaml:"compress" default:"false"`
		TopK        int    `yaml:"top_k" default:"2"`
	} `yaml:"vectorstore"`

	Cache struct {
		OutputsBase string `yaml:"outputs_base" default:"./data/outputs"`
		Filename    string `yaml:"filename" default:"resume_cache.json"`
		RecordsPath string `yaml:"records_path" default:"./data/records.json"`
		ProfileDir  string `yaml:"profile_dir" default:"./data/profile_pics"`
	} `yaml:"cache"`

	Downloads struct {
		SigningSecret string        `yaml:"signing_secret"`
		TTL           time.Duration `yaml:"ttl" default:"15m"`
	} `yaml:"downloads"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"10"`
		QueueSize          int           `yaml:"queue_size" default:"100"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"300s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool          `yaml:"enabled" default:"false"`
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.LLM.Provider = "claude"
	config.LLM.Model = "claude-3-haiku-20240307"
	config.LLM.MaxTokens = 8192
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 120 * time.Second

	config.Gateway.MaxConcurrent = 4
	config.Gateway.RateLimit = 60
	config.Gateway.MaxRetries = 5
	config.Gateway.InitialBackoff = 1 * time.Second
	config.Gateway.MaxBackoff = 30 * time.Second

	config.Embeddings.BaseURL = "http://localhost:8081/v1"
	config.Embeddings.Model = "nomic-ai/nomic-embed-text-v1.5"
	config.Embeddings.MaxDocChars = 1000

	config.VectorStore.PersistPath = "./data/vectors"
	config.VectorStore.TopK = 2

	config.Cache.OutputsBase = "./data/outputs"
	config.Cache.Filename = "resume_cache.json"
	config.Cache.RecordsPath = "./data/records.json"
	config.Cache.ProfileDir = "./data/profile_pics"

	config.Downloads.TTL = 15 * time.Minute

	config.BackgroundTasks.MaxConcurrentTasks = 10
	config.BackgroundTasks.QueueSize = 100
	config.BackgroundTasks.TaskTimeout = 300 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if rateLimit := os.Getenv("GATEWAY_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			c.Gateway.RateLimit = rl
		}
	}

	if maxConcurrent := os.Getenv("GATEWAY_MAX_CONCURRENT"); maxConcurrent != "" {
		if mc, err := strconv.Atoi(maxConcurrent); err == nil {
			c.Gateway.MaxConcurrent = mc
		}
	}

	if embURL := os.Getenv("EMBEDDING_SERVICE_URL"); embURL != "" {
		c.Embeddings.BaseURL = embURL
	}

	if embKey := os.Getenv("EMBEDDING_API_KEY"); embKey != "" {
		c.Embeddings.APIKey = embKey
	}

	if embModel := os.Getenv("EMBEDDING_MODEL"); embModel != "" {
		c.Embeddings.Model = embModel
	}

	if persistPath := os.Getenv("VECTORSTORE_PERSIST_PATH"); persistPath != "" {
		c.VectorStore.PersistPath = persistPath
	}

	if outputsBase := os.Getenv("OUTPUTS_BASE"); outputsBase != "" {
		c.Cache.OutputsBase = outputsBase
	}

	if signingSecret := os.Getenv("DOWNLOAD_SIGNING_SECRET"); signingSecret != "" {
		c.Downloads.SigningSecret = signingSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisEnabled := os.Getenv("REDIS_ENABLED"); redisEnabled != "" {
		c.Redis.Enabled = redisEnabled == "true" || redisEnabled == "1"
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}
}
