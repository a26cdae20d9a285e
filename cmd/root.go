/*
Copyright © 2025 arqlabs
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arqlabs/voice-rag-be/config"
	"github.com/arqlabs/voice-rag-be/database"
	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voice-rag-be",
	Short: "Backend for a Marathi voice question-answering assistant",
	Long: `voice-rag-be answers spoken questions from a PDF knowledge base.

Documents are split into overlapping passages, embedded through a local
Ollama server and stored in a persistent vector index. Questions are
answered in Marathi, grounded in the most similar passages.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file")
}

// loadConfig reads the configured file, tolerating a missing one.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// newVectorStore selects the index backend from config.
func newVectorStore(cfg *config.Config) database.VectorDatabase {
	switch cfg.Index.Store {
	case "weaviate":
		store, err := database.NewWeaviateStore(cfg.Weaviate)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		return store
	case "", "local":
		return database.NewLocalStore(cfg.Index.Dir)
	default:
		log.Fatalf("Unknown index store %q", cfg.Index.Store)
		return nil
	}
}

// newAIService selects the generation backend from config.
func newAIService(cfg *config.Config) service.AIService {
	switch cfg.Generation.Backend {
	case "gemini":
		keys := splitKeys(os.Getenv("GEMINI_API_KEYS"))
		if len(keys) == 0 && cfg.Generation.APIKey != "" {
			keys = []string{cfg.Generation.APIKey}
		}
		ai, err := service.NewGeminiService(keys, cfg.Generation.Model)
		if err != nil {
			log.Fatalf("Failed to create Gemini service: %v", err)
		}
		return ai
	case "", "openai":
		apiKey := cfg.Generation.APIKey
		if apiKey == "" {
			// Local OpenAI-compatible servers accept any key.
			apiKey = "ollama"
		}
		return service.NewOpenAIService(cfg.Generation.Endpoint, apiKey, cfg.Generation.Model)
	default:
		log.Fatalf("Unknown generation backend %q", cfg.Generation.Backend)
		return nil
	}
}

// newRAGService assembles the full pipeline from config.
func newRAGService(cfg *config.Config) *service.RAGService {
	chunker, err := service.NewChunkerService(types.ChunkerConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	if err != nil {
		log.Fatalf("Invalid chunker configuration: %v", err)
	}
	return service.NewRAGService(
		service.NewPDFService(),
		chunker,
		service.SharedEmbedder(cfg.Embedding),
		newVectorStore(cfg),
		newAIService(cfg),
		service.RAGConfig{
			RetrievalK:        cfg.RetrievalK,
			AnswerLanguage:    cfg.AnswerLanguage,
			Temperature:       cfg.Generation.Temperature,
			GenerationTimeout: time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
		},
	)
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func printBuildStats(documents, pages, passages int, elapsedMs int64) {
	fmt.Printf("Indexed %d passages from %d pages across %d documents in %dms\n",
		passages, pages, documents, elapsedMs)
}
