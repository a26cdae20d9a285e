package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string           `mapstructure:"port"`
	UploadDir      string           `mapstructure:"upload_dir"`
	ChunkSize      int              `mapstructure:"chunk_size"`
	ChunkOverlap   int              `mapstructure:"chunk_overlap"`
	RetrievalK     int              `mapstructure:"retrieval_k"`
	AnswerLanguage string           `mapstructure:"answer_language"`
	Index          IndexConfig      `mapstructure:"index"`
	Embedding      EmbeddingConfig  `mapstructure:"embedding"`
	Generation     GenerationConfig `mapstructure:"generation"`
	Weaviate       WeaviateConfig   `mapstructure:"weaviate"`
}

type IndexConfig struct {
	// Store selects the vector index backend: "local" or "weaviate".
	Store string `mapstructure:"store"`
	// Dir is the local index directory. Self-contained and movable.
	Dir string `mapstructure:"dir"`
}

type EmbeddingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Model       string `mapstructure:"model"`
	Dimensions  int    `mapstructure:"dimensions"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

type GenerationConfig struct {
	// Backend selects the generation adapter: "openai" (any
	// OpenAI-compatible endpoint, including Ollama's /v1) or "gemini".
	Backend     string  `mapstructure:"backend"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"OPENAI_API_KEY"`
	Temperature float32 `mapstructure:"temperature"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
}

type WeaviateConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("upload_dir", "data/pdfs")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 150)
	v.SetDefault("retrieval_k", 4)
	v.SetDefault("answer_language", "mr")
	v.SetDefault("index.store", "local")
	v.SetDefault("index.dir", "data/index")
	v.SetDefault("embedding.endpoint", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.timeout_secs", 30)
	v.SetDefault("generation.backend", "openai")
	v.SetDefault("generation.endpoint", "http://localhost:11434/v1")
	v.SetDefault("generation.model", "llama3")
	v.SetDefault("generation.temperature", 0.1)
	v.SetDefault("generation.timeout_secs", 120)
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults + env cover everything.
		if !errors.Is(err, os.ErrNotExist) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.BindEnv("generation.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("weaviate.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
