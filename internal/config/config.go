package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Env    string
	Server ServerConfig
	LLM    LLMConfig
	Logger LoggerConfig
	CORS   CORSConfig
	Limits LimitsConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    int
}

// LLMConfig describes the generation service the API forwards prompts to.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

type LoggerConfig struct {
	Level string
	Env   string
}

type CORSConfig struct {
	AllowOrigins string
}

// LimitsConfig bounds what a single request may ask for. Zero disables a
// limit.
type LimitsConfig struct {
	MaxQuestionCount int
	MaxFieldLength   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "90s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4-turbo-preview")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("limits.max_question_count", 50)
	v.SetDefault("limits.max_field_length", 100)
}

// bindEnv maps config keys to the flat environment variable names used in
// deployment.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"env":                       {"ENV"},
		"server.port":               {"PORT", "SERVER_PORT"},
		"llm.provider":              {"LLM_PROVIDER"},
		"llm.api_key":               {"LLM_API_KEY", "OPENAI_API_KEY"},
		"llm.base_url":              {"LLM_BASE_URL", "LLM_SERVER"},
		"llm.model":                 {"LLM_MODEL"},
		"llm.timeout":               {"LLM_TIMEOUT"},
		"llm.temperature":           {"LLM_TEMPERATURE"},
		"llm.max_tokens":            {"LLM_MAX_TOKENS"},
		"log.level":                 {"LOG_LEVEL"},
		"cors.allow_origins":        {"CORS_ALLOW_ORIGINS"},
		"server.read_timeout":       {"SERVER_READ_TIMEOUT"},
		"server.write_timeout":      {"SERVER_WRITE_TIMEOUT"},
		"limits.max_question_count": {"MAX_QUESTION_COUNT"},
		"limits.max_field_length":   {"MAX_FIELD_LENGTH"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// LoadConfig reads configuration once at startup: an optional config.yaml,
// then .env, then the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	env := v.GetString("env")
	return &Config{
		Env: env,
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("log.level"),
			Env:   env,
		},
		CORS: CORSConfig{
			AllowOrigins: v.GetString("cors.allow_origins"),
		},
		Limits: LimitsConfig{
			MaxQuestionCount: v.GetInt("limits.max_question_count"),
			MaxFieldLength:   v.GetInt("limits.max_field_length"),
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required for provider %q (set OPENAI_API_KEY)", c.LLM.Provider)
		}
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm base url is required for provider %q (set LLM_BASE_URL)", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.Limits.MaxQuestionCount < 0 {
		return fmt.Errorf("max question count cannot be negative, got %d", c.Limits.MaxQuestionCount)
	}
	if c.Limits.MaxFieldLength < 0 {
		return fmt.Errorf("max field length cannot be negative, got %d", c.Limits.MaxFieldLength)
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
