package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arqlabs/voice-rag-be/types"
	"github.com/arqlabs/voice-rag-be/utils"
)

// FileService accepts uploaded PDFs and rebuilds the knowledge base over
// everything in the upload directory.
type FileService struct {
	uploadDir string
	rag       *RAGService
}

func NewFileService(uploadDir string, rag *RAGService) *FileService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		panic(err)
	}
	return &FileService{
		uploadDir: uploadDir,
		rag:       rag,
	}
}

// UploadFile saves the uploaded PDF and rebuilds the whole index so the new
// document is included. Status events are sent to c during the rebuild.
func (s *FileService) UploadFile(ctx context.Context, req types.UploadRequest, file *multipart.FileHeader, c chan<- types.ProcessingDocumentStatus) (*types.BuildStats, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Filename format: originalname_timestamp.pdf
	title := req.Title
	if title == "" {
		title = strings.TrimSuffix(file.Filename, ext)
	}
	originalName := utils.SanitizeFileName(strings.TrimSuffix(title, ext))
	filename := fmt.Sprintf("%s_%d%s", originalName, time.Now().Unix(), ext)

	dst, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return nil, err
	}

	return s.RebuildAll(ctx, c)
}

// RebuildAll rebuilds the knowledge base from every PDF currently in the
// upload directory.
func (s *FileService) RebuildAll(ctx context.Context, c chan<- types.ProcessingDocumentStatus) (*types.BuildStats, error) {
	paths, err := utils.ListPDFs(s.uploadDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no documents in %s", types.ErrDocumentRead, s.uploadDir)
	}

	progress := make(chan types.BuildProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			sendStatus(c, types.ProcessingDocumentStatus{
				Status:   "processing",
				Message:  fmt.Sprintf("Stage %s", p.Stage),
				Progress: p,
			})
		}
	}()

	stats, err := s.rag.BuildKnowledgeBase(ctx, paths, progress)
	close(progress)
	<-done
	if err != nil {
		return nil, err
	}

	sendStatus(c, types.ProcessingDocumentStatus{
		Status:  "completed",
		Message: fmt.Sprintf("Indexed %d passages from %d documents", stats.Passages, stats.Documents),
	})
	return stats, nil
}

// sendStatus never blocks: a consumer that stopped reading (a disconnected
// SSE client) must not stall the build. Status frames are advisory; the
// final result travels on the caller's error channel.
func sendStatus(c chan<- types.ProcessingDocumentStatus, st types.ProcessingDocumentStatus) {
	if c == nil {
		return
	}
	select {
	case c <- st:
	default:
	}
}

// UploadDir reports where uploaded documents are stored.
func (s *FileService) UploadDir() string {
	return s.uploadDir
}
