package service

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arqlabs/voice-rag-be/types"
)

// DocumentLoader reads a source document into ordered page units.
type DocumentLoader interface {
	LoadPDF(path string) ([]types.PageUnit, error)
}

// PDFService extracts page-level text from PDF files. It shells out to the
// poppler utilities (pdfinfo, pdftotext) and falls back to tesseract OCR for
// pages with no embedded text layer.
type PDFService struct {
	ocrEnabled bool
}

// NewPDFService creates a new PDF loader. OCR fallback is enabled when the
// tesseract binary is on PATH.
func NewPDFService() *PDFService {
	_, err := exec.LookPath("tesseract")
	return &PDFService{ocrEnabled: err == nil}
}

// LoadPDF reads the PDF at path into one PageUnit per physical page,
// preserving source order. It fails with types.ErrDocumentRead when the file
// is missing, corrupt, or yields no extractable text at all.
func (s *PDFService) LoadPDF(path string) ([]types.PageUnit, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDocumentRead, path, err)
	}

	totalPages, err := getNumPages(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDocumentRead, path, err)
	}

	pages := make([]types.PageUnit, 0, totalPages)
	extracted := 0
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := s.extractText(path, pageNum)
		if err != nil {
			log.Printf("LOADER: no text on page %d of %s: %v", pageNum, path, err)
			text = ""
		} else {
			extracted++
		}
		pages = append(pages, types.PageUnit{
			DocumentID: path,
			PageIndex:  pageNum - 1,
			RawText:    cleanText(text),
		})
	}

	if extracted == 0 {
		return nil, fmt.Errorf("%w: %s: no extractable text on any of %d pages", types.ErrDocumentRead, path, totalPages)
	}
	return pages, nil
}

// extractText attempts to extract text from a specific page, preferring the
// embedded text layer and falling back to OCR.
func (s *PDFService) extractText(filePath string, pageNumber int) (string, error) {
	text, err := extractTextWithPdftotext(filePath, pageNumber)
	if err == nil && text != "" {
		return text, nil
	}
	if s.ocrEnabled {
		return extractTextWithTesseract(filePath, pageNumber)
	}
	if err == nil {
		err = fmt.Errorf("page %d has no text layer", pageNumber)
	}
	return "", err
}

// extractTextWithPdftotext extracts a single page using the pdftotext utility.
func extractTextWithPdftotext(filePath string, pageNumber int) (string, error) {
	cmd := exec.Command("pdftotext",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed on page %d: %w", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// extractTextWithTesseract renders the page to an image with pdftoppm and
// runs tesseract OCR over it.
func extractTextWithTesseract(pdfPath string, pageNumber int) (string, error) {
	tempDir, err := os.MkdirTemp("", "voicerag-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	convertCmd := exec.Command("pdftoppm",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-png", pdfPath, filepath.Join(tempDir, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to render page %d: %w", pageNumber, err)
	}

	files, err := filepath.Glob(filepath.Join(tempDir, "page-*.png"))
	if err != nil || len(files) == 0 {
		return "", fmt.Errorf("no rendered image for page %d", pageNumber)
	}

	ocrCmd := exec.Command("tesseract",
		files[0],
		"stdout",
		"-l", "mar+eng",
		"--oem", "3",
		"--psm", "3",
	)
	var out bytes.Buffer
	ocrCmd.Stdout = &out
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(out.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

var pagesPattern = regexp.MustCompile(`Pages:\s+(\d+)`)

// getNumPages uses pdfinfo to get the total number of pages in a PDF file.
func getNumPages(pdfPath string) (int, error) {
	cmd := exec.Command("pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if matches := pagesPattern.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}

	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

// cleanText strips control characters and collapses whitespace artifacts
// common in PDF text layers.
func cleanText(text string) string {
	replacements := []struct{ old, new string }{
		{"\u0000", ""}, // Null character
		{"\ufffd", ""}, // Unicode replacement character
		{"\u001b", ""}, // Escape character
		{"\r", ""},
		{"\f", "\n"}, // Form feed to newline
	}
	cleaned := text
	for _, r := range replacements {
		cleaned = strings.ReplaceAll(cleaned, r.old, r.new)
	}
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return strings.TrimSpace(cleaned)
}
