package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// 提取结果文件名中的页码
var pageNumberRe = regexp.MustCompile(`(\d+)\.txt$`)

// PDFExtractor PDF文本块提取器
// 基于pdfcpu的内容提取，按页产出文本块
type PDFExtractor struct{}

// NewPDFExtractor 创建一个新的PDF提取器
func NewPDFExtractor() BlockExtractor {
	return &PDFExtractor{}
}

// Extract 解析PDF文件并提取文本块
func (p *PDFExtractor) Extract(filePath string) ([]analyzer.TextBlock, error) {
	// 创建临时目录用于存放提取的文本
	tmpDir, err := os.MkdirTemp("", "pdfcpu_extract_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 使用默认配置
	conf := model.NewDefaultConfiguration()

	// 按页提取内容到临时目录
	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF: %v", err)
	}

	// 读取所有提取出来的txt文件
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted text dir: %v", err)
	}

	// 按文件名中的页码排序
	type pageFile struct {
		name string
		page int
	}
	var pages []pageFile
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".txt") {
			continue
		}
		page := len(pages) + 1
		if m := pageNumberRe.FindStringSubmatch(f.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				page = n
			}
		}
		pages = append(pages, pageFile{name: f.Name(), page: page})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].page < pages[j].page })

	var blocks []analyzer.TextBlock
	for _, pf := range pages {
		data, err := os.ReadFile(filepath.Join(tmpDir, pf.name))
		if err != nil {
			continue
		}
		blocks = append(blocks, pageBlocks(string(data), pf.page)...)
	}

	if len(blocks) == 0 {
		return nil, ErrNoTextContent
	}
	return blocks, nil
}

// ExtractReader 从Reader提取文本块
// pdfcpu需要可寻址的输入，先落盘到临时文件再解析
func (p *PDFExtractor) ExtractReader(r io.Reader, filename string) ([]analyzer.TextBlock, error) {
	tmpFile, err := os.CreateTemp("", "pdf_extract_*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to buffer pdf content: %v", err)
	}
	tmpFile.Close()

	return p.Extract(tmpFile.Name())
}

// pageBlocks 将一页的文本拆分为文本块
// PDF内容提取不保留字体信息，标题识别依赖行长度和大小写特征
func pageBlocks(text string, page int) []analyzer.TextBlock {
	var blocks []analyzer.TextBlock
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, analyzer.TextBlock{
			Text:       line,
			PageNumber: page,
		})
	}
	return blocks
}
