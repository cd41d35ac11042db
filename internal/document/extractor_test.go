package document

import (
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, content, ext string) string {
	tmpFile, err := os.CreateTemp("", "docinsight-test-*"+ext)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func createTempPDF(t *testing.T, pages ...string) string {
	tmpFile, err := os.CreateTemp("", "docinsight-test-*.pdf")
	if err != nil {
		t.Fatalf("Failed to create temp PDF file: %v", err)
	}
	defer tmpFile.Close()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, text := range pages {
		pdf.AddPage()
		pdf.MultiCell(0, 10, text, "", "", false)
	}
	if err := pdf.Output(tmpFile); err != nil {
		t.Fatalf("Failed to write PDF: %v", err)
	}
	return tmpFile.Name()
}

func TestPlainTextExtractor(t *testing.T) {
	content := "INTRODUCTION\nThis is the body of the introduction section.\n\nDETAILS\nMore detail text follows."
	file := createTempFile(t, content, ".txt")
	defer os.Remove(file)

	extractor := NewPlainTextExtractor()
	blocks, err := extractor.Extract(file)
	require.NoError(t, err)
	require.Len(t, blocks, 4, "空行应被跳过")

	assert.Equal(t, "INTRODUCTION", blocks[0].Text)
	assert.Equal(t, 1, blocks[0].PageNumber)
}

func TestPlainTextExtractorEmpty(t *testing.T) {
	file := createTempFile(t, "   \n\n  ", ".txt")
	defer os.Remove(file)

	extractor := NewPlainTextExtractor()
	_, err := extractor.Extract(file)
	assert.ErrorIs(t, err, ErrNoTextContent)
}

func TestMarkdownExtractor(t *testing.T) {
	content := "# Getting Started\n\nThis is a **markdown** document body.\n\n## Usage\n\n- First item\n- Second item"
	file := createTempFile(t, content, ".md")
	defer os.Remove(file)

	extractor := NewMarkdownExtractor()
	blocks, err := extractor.Extract(file)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	// 标题块应加粗且字号高于正文
	assert.Equal(t, "Getting Started", blocks[0].Text)
	assert.True(t, blocks[0].IsBold)
	assert.Greater(t, blocks[0].FontSize, markdownBodyFontSize)

	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.Text)
	}
	joined := strings.Join(texts, " ")
	assert.Contains(t, joined, "markdown document body")
	assert.Contains(t, joined, "First item")

	// 二级标题字号低于一级标题
	var h1, h2 float64
	for _, b := range blocks {
		switch b.Text {
		case "Getting Started":
			h1 = b.FontSize
		case "Usage":
			h2 = b.FontSize
		}
	}
	assert.Greater(t, h1, h2)
}

func TestPDFExtractor(t *testing.T) {
	file := createTempPDF(t,
		"OVERVIEW\nThis page describes the overall system design.",
		"DETAILS\nThe second page holds the implementation details.",
	)
	defer os.Remove(file)

	extractor := NewPDFExtractor()
	blocks, err := extractor.Extract(file)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	// 页码应覆盖两页且单调不减
	lastPage := 0
	maxPage := 0
	for _, b := range blocks {
		assert.GreaterOrEqual(t, b.PageNumber, lastPage)
		lastPage = b.PageNumber
		if b.PageNumber > maxPage {
			maxPage = b.PageNumber
		}
	}
	assert.Equal(t, 2, maxPage)
}

func TestExtractorFactory(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"doc.pdf", false},
		{"notes.md", false},
		{"readme.markdown", false},
		{"plain.txt", false},
		{"image.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			extractor, err := ExtractorFactory(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, extractor)
			}
		})
	}
}
