package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

type UploadHandler struct {
	fileService *service.FileService
}

func NewUploadHandler(fileService *service.FileService) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
	}
}

// UploadDocumentHandler saves the uploaded PDF, rebuilds the knowledge base
// and streams rebuild progress to the client as SSE events.
func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid file",
		})
		return
	}
	defer file.Close()

	var req types.UploadRequest
	if metadata := c.Request.FormValue("metadata"); metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &req); err != nil {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  "error",
				Message: "Invalid metadata",
			})
			return
		}
	}

	const maxSize = 50 << 20
	if header.Size > maxSize {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "File too large",
		})
		return
	}

	statusChan := make(chan types.ProcessingDocumentStatus, 16)
	// Buffered so the upload goroutine can always deliver its result, even
	// when the client disconnected and nobody reads it.
	resultChan := make(chan uploadResult, 1)
	go func() {
		stats, err := h.fileService.UploadFile(c.Request.Context(), req, header, statusChan)
		resultChan <- uploadResult{stats: stats, err: err}
	}()

	clientGone := c.Writer.CloseNotify()
	for {
		select {
		case <-clientGone:
			return // Client disconnected
		case status := <-statusChan:
			jsonStatus, err := json.Marshal(status)
			if err != nil {
				continue
			}
			c.SSEvent("message", string(jsonStatus))
			c.Writer.Flush()
		case res := <-resultChan:
			if res.err != nil {
				c.JSON(http.StatusInternalServerError, types.DataResponse{
					Status:  "error",
					Message: res.err.Error(),
				})
			} else {
				resp := types.UploadResponse{OriginalName: req.Title}
				if res.stats != nil {
					resp.Stats = *res.stats
				}
				c.JSON(http.StatusOK, types.DataResponse{
					Status: "ok",
					Data:   resp,
				})
			}
			return
		}
	}
}

type uploadResult struct {
	stats *types.BuildStats
	err   error
}
