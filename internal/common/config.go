package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM        LLMConfig
	Chunk      ChunkConfig
	Pipeline   PipelineConfig
	LedgerPath string
}

// LLMConfig holds model-provider configuration
type LLMConfig struct {
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float32
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// ChunkConfig holds chunking configuration
type ChunkConfig struct {
	MaxChars int
}

// PipelineConfig holds aggregation configuration
type PipelineConfig struct {
	Workers int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:    getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("LLM_RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Chunk: ChunkConfig{
			MaxChars: getEnvAsInt("MAX_CHUNK_CHARS", 1800),
		},
		Pipeline: PipelineConfig{
			Workers: getEnvAsInt("WORKERS", 1),
		},
		LedgerPath: getEnv("LEDGER_PATH", ""),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrStartup)
	}
	if c.Chunk.MaxChars <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CHUNK_CHARS must be positive", ErrStartup)
	}
	if c.Pipeline.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "WORKERS must be positive", ErrStartup)
	}
	return nil
}
