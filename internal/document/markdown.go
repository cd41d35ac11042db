package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// 各级标题映射到的虚拟字号，正文为基准字号
const (
	markdownBodyFontSize = 10.0
	markdownH1FontSize   = 22.0
)

// MarkdownExtractor Markdown文本块提取器
// 遍历语法树，标题节点转为加粗的大字号块，段落转为正文块
type MarkdownExtractor struct{}

// NewMarkdownExtractor 创建新的Markdown提取器
func NewMarkdownExtractor() BlockExtractor {
	return &MarkdownExtractor{}
}

// Extract 解析Markdown文件并提取文本块
func (m *MarkdownExtractor) Extract(filePath string) ([]analyzer.TextBlock, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open markdown file: %v", err)
	}
	defer file.Close()

	return m.ExtractReader(file, filePath)
}

// ExtractReader 从Reader提取Markdown文本块
func (m *MarkdownExtractor) ExtractReader(r io.Reader, filename string) ([]analyzer.TextBlock, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown content: %v", err)
	}

	// 创建Markdown解析器
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(content)

	var blocks []analyzer.TextBlock
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Heading:
			text := collectText(n)
			if text != "" {
				blocks = append(blocks, analyzer.TextBlock{
					Text:       text,
					PageNumber: 1,
					FontSize:   headingFontSize(n.Level),
					IsBold:     true,
				})
			}
			return ast.SkipChildren
		case *ast.Paragraph:
			text := collectText(n)
			if text != "" {
				blocks = append(blocks, analyzer.TextBlock{
					Text:       text,
					PageNumber: 1,
					FontSize:   markdownBodyFontSize,
				})
			}
			return ast.SkipChildren
		case *ast.ListItem:
			text := collectText(n)
			if text != "" {
				blocks = append(blocks, analyzer.TextBlock{
					Text:       text,
					PageNumber: 1,
					FontSize:   markdownBodyFontSize,
				})
			}
			return ast.SkipChildren
		}
		return ast.GoToNext
	})

	if len(blocks) == 0 {
		return nil, ErrNoTextContent
	}
	return blocks, nil
}

// headingFontSize 将标题层级映射为递减的虚拟字号
func headingFontSize(level int) float64 {
	size := markdownH1FontSize - float64(level-1)*2
	if size <= markdownBodyFontSize {
		size = markdownBodyFontSize + 2
	}
	return size
}

// collectText 收集节点下所有叶子文本
func collectText(node ast.Node) string {
	var sb strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch leaf := n.(type) {
		case *ast.Text:
			sb.Write(leaf.Literal)
		case *ast.Code:
			sb.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(strings.Join(strings.Fields(sb.String()), " "))
}
