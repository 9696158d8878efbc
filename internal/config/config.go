package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration. Values come from an optional
// YAML file with environment variables taking precedence.
type Config struct {
	Server struct {
		Port           string `yaml:"port"`
		DataDir        string `yaml:"data_dir"`
		RequestTimeout int    `yaml:"request_timeout_seconds"`
		AdminToken     string `yaml:"admin_token"`
	} `yaml:"server"`

	Analysis struct {
		MaxCodeLength      int      `yaml:"max_code_length"`
		Languages          []string `yaml:"languages"`
		DefaultLanguage    string   `yaml:"default_language"`
		MinRetrainExamples int      `yaml:"min_retrain_examples"`
		ConfirmThreshold   float64  `yaml:"confirm_threshold"`
		TieEpsilon         float64  `yaml:"tie_epsilon"`
		SeedOnStart        bool     `yaml:"seed_on_start"`
	} `yaml:"analysis"`

	LLM struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	RateLimit struct {
		RequestsPerMin int `yaml:"requests_per_min"`
		Burst          int `yaml:"burst"`
	} `yaml:"ratelimit"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.DataDir = "./data"
	cfg.Server.RequestTimeout = 30
	cfg.Analysis.MaxCodeLength = 10000
	cfg.Analysis.Languages = []string{"python", "cpp", "c", "java", "javascript"}
	cfg.Analysis.DefaultLanguage = "python"
	cfg.Analysis.MinRetrainExamples = 5
	cfg.Analysis.ConfirmThreshold = 0.60
	cfg.Analysis.TieEpsilon = 0.05
	cfg.Analysis.SeedOnStart = true
	cfg.LLM.Model = "gpt-3.5-turbo"
	cfg.LLM.TimeoutSeconds = 10
	cfg.RateLimit.RequestsPerMin = 60
	cfg.RateLimit.Burst = 2
	return cfg
}

// Load reads configuration from path (if it exists) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Server.AdminToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MAX_CODE_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Analysis.MaxCodeLength = n
		}
	}
	if v := os.Getenv("MIN_RETRAIN_EXAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Analysis.MinRetrainExamples = n
		}
	}
}

func (c *Config) validate() error {
	if c.Analysis.MaxCodeLength <= 0 {
		return fmt.Errorf("max_code_length must be positive, got %d", c.Analysis.MaxCodeLength)
	}
	if c.Analysis.MinRetrainExamples <= 0 {
		return fmt.Errorf("min_retrain_examples must be positive, got %d", c.Analysis.MinRetrainExamples)
	}
	if c.Analysis.ConfirmThreshold < 0 || c.Analysis.ConfirmThreshold > 1 {
		return fmt.Errorf("confirm_threshold must be in [0,1], got %f", c.Analysis.ConfirmThreshold)
	}
	if c.Analysis.DefaultLanguage == "" {
		return fmt.Errorf("default_language must not be empty")
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// LLMTimeout returns the augmented suggestion tier timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
