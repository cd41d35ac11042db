package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// 常用错误定义
var (
	// ErrNoTextContent 文档中没有可用的文本内容（例如扫描件）
	ErrNoTextContent = errors.New("no text content found in document")
	// ErrUnsupportedType 不支持的文档类型
	ErrUnsupportedType = errors.New("unsupported document type")
)

// BlockExtractor 文本块提取器接口
// 负责将不同格式的文档解析为带版式提示的文本块序列
type BlockExtractor interface {
	// Extract 提取文档的文本块，按页码和阅读顺序排列
	Extract(filePath string) ([]analyzer.TextBlock, error)

	// ExtractReader 从Reader提取文本块，filename用于确定文档类型
	ExtractReader(r io.Reader, filename string) ([]analyzer.TextBlock, error)
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ExtractorFactory 提取器工厂函数，根据文件类型创建对应的提取器
func ExtractorFactory(filePath string) (BlockExtractor, error) {
	contentType := detectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFExtractor(), nil
	case Markdown:
		return NewMarkdownExtractor(), nil
	case PlainText:
		return NewPlainTextExtractor(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// detectContentType 根据文件扩展名检测内容类型
func detectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
