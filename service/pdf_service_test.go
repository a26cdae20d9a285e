package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arqlabs/voice-rag-be/types"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips nulls", "a\x00b", "ab"},
		{"strips replacement char", "a\ufffdb", "ab"},
		{"form feed to newline", "a\fb", "a\nb"},
		{"drops carriage returns", "a\r\nb", "a\nb"},
		{"collapses spaces", "a    b", "a b"},
		{"trims", "  a b  ", "a b"},
		{"keeps devanagari", "मराठी मजकूर", "मराठी मजकूर"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}

func TestLoadPDFMissingFile(t *testing.T) {
	svc := NewPDFService()
	_, err := svc.LoadPDF("does/not/exist.pdf")
	assert.ErrorIs(t, err, types.ErrDocumentRead)
}
