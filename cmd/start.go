/*
Copyright © 2025 arqlabs
*/
package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arqlabs/voice-rag-be/handler"
	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the question-answering server",
	Long:  `Starts the HTTP server that answers questions from the PDF knowledge base.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		ragService := newRAGService(cfg)

		// A missing index is fine at startup; the first upload builds it.
		if err := ragService.LoadKnowledgeBase(context.Background()); err != nil {
			if errors.Is(err, types.ErrIndexNotFound) {
				log.Println("No knowledge base yet, upload documents to build one")
			} else {
				log.Fatalf("Failed to load knowledge base: %v", err)
			}
		}

		fileService := service.NewFileService(cfg.UploadDir, ragService)
		wsService := service.NewWebSocketService(ragService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		askHandler := handler.NewAskHandler(ragService)
		uploadHandler := handler.NewUploadHandler(fileService)
		statusHandler := handler.NewStatusHandler(ragService)
		pdfHandler := handler.NewDocumentHandler(cfg.UploadDir)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/ask", askHandler.HandleAsk)
			apiV1.POST("/retrieve", askHandler.HandleRetrieve)
			apiV1.GET("/kb/status", statusHandler.HandleStatus)
			apiV1.POST("/upload", uploadHandler.UploadDocumentHandler)
			apiV1.GET("/pdf", pdfHandler.ServeDocument)
		}

		router.GET("/ws/voice", gin.WrapF(wsService.HandleVoice))
		router.GET("/health", gin.WrapH(wsService.Health()))

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
