package document

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// PlainTextExtractor 纯文本文件提取器
// 每个非空行产出一个文本块，没有版式信息可用
type PlainTextExtractor struct{}

// NewPlainTextExtractor 创建新的纯文本提取器
func NewPlainTextExtractor() BlockExtractor {
	return &PlainTextExtractor{}
}

// Extract 读取纯文本文件并提取文本块
func (p *PlainTextExtractor) Extract(filePath string) ([]analyzer.TextBlock, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open text file: %v", err)
	}
	defer file.Close()

	return p.ExtractReader(file, filePath)
}

// ExtractReader 从Reader提取文本块
func (p *PlainTextExtractor) ExtractReader(r io.Reader, filename string) ([]analyzer.TextBlock, error) {
	var blocks []analyzer.TextBlock

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		blocks = append(blocks, analyzer.TextBlock{
			Text:       line,
			PageNumber: 1,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text content: %v", err)
	}

	if len(blocks) == 0 {
		return nil, ErrNoTextContent
	}
	return blocks, nil
}
