package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

type StatusHandler struct {
	ragService *service.RAGService
}

func NewStatusHandler(ragService *service.RAGService) *StatusHandler {
	return &StatusHandler{
		ragService: ragService,
	}
}

// HandleStatus reports whether the knowledge base is queryable and how many
// passages it holds.
func (h *StatusHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "ok",
		Data: types.KBStatusResponse{
			Ready:    h.ragService.IndexReady(),
			Passages: h.ragService.IndexCount(),
			Model:    h.ragService.EmbeddingModel(),
		},
	})
}
