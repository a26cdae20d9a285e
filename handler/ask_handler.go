package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

type AskHandler struct {
	ragService *service.RAGService
}

func NewAskHandler(ragService *service.RAGService) *AskHandler {
	return &AskHandler{
		ragService: ragService,
	}
}

// HandleAsk answers a question from the knowledge base.
func (h *AskHandler) HandleAsk(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	resp, err := h.ragService.Ask(c.Request.Context(), req.Question, req.K)
	if err != nil {
		c.JSON(askErrorStatus(err), types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "ok",
		Data:   resp,
	})
}

// HandleRetrieve returns the raw retrieval results without generation,
// mainly for debugging relevance.
func (h *AskHandler) HandleRetrieve(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	sources, err := h.ragService.Retrieve(c.Request.Context(), req.Question, req.K)
	if err != nil {
		c.JSON(askErrorStatus(err), types.DataResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "ok",
		Data:   sources,
	})
}

// askErrorStatus maps pipeline errors to HTTP statuses.
func askErrorStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, types.ErrEmbeddingUnavailable), errors.Is(err, types.ErrGenerationBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
