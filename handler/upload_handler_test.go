package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqlabs/voice-rag-be/database"
	"github.com/arqlabs/voice-rag-be/service"
	"github.com/arqlabs/voice-rag-be/types"
)

// stubLoader yields one fixed page for any path, so uploads with
// timestamped filenames resolve without a real PDF toolchain.
type stubLoader struct{}

func (stubLoader) LoadPDF(path string) ([]types.PageUnit, error) {
	return []types.PageUnit{{DocumentID: path, PageIndex: 0, RawText: "Paris is the capital of France."}}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int   { return 3 }
func (stubEmbedder) ModelName() string { return "stub-embed" }

type stubAI struct{}

func (stubAI) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (types.GenerationResult, error) {
	return types.GenerationResult{Kind: types.GenerationText, Text: "ok"}, nil
}

func (stubAI) ModelName() string { return "stub-llm" }

func newUploadTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	chunker, err := service.NewChunkerService(types.ChunkerConfig{ChunkSize: 200, ChunkOverlap: 20})
	require.NoError(t, err)
	store := database.NewLocalStore(filepath.Join(dir, "index"))
	rag := service.NewRAGService(stubLoader{}, chunker, stubEmbedder{}, store, stubAI{}, service.RAGConfig{})
	fileService := service.NewFileService(filepath.Join(dir, "uploads"), rag)

	router := gin.New()
	router.POST("/upload", NewUploadHandler(fileService).UploadDocumentHandler)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func multipartPDF(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// The final response carries the build statistics of the rebuild the
// upload triggered.
func TestUploadDocumentHandlerReportsStats(t *testing.T) {
	srv := newUploadTestServer(t)
	body, contentType := multipartPDF(t, "geo.pdf")

	resp, err := http.Post(srv.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"documents":1`)
	assert.Contains(t, out, `"passages":1`)
}

func TestUploadDocumentHandlerRejectsNonPDF(t *testing.T) {
	srv := newUploadTestServer(t)
	body, contentType := multipartPDF(t, "notes.txt")

	resp, err := http.Post(srv.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
