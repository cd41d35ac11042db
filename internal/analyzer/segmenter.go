package analyzer

import (
	"sort"
	"strings"
	"unicode"
)

// 分段器默认参数
const (
	// 标题候选行的最大长度（字符数）
	defaultTitleMaxLength = 80
	// 判定为标题的大写字符占比阈值
	defaultUppercaseRatio = 0.7
	// 找不到标题时使用的占位标题
	placeholderTitle = "Introduction"
)

// Segmenter 章节分段器
// 依据版式启发式将一个文档的文本块序列划分为章节
type Segmenter struct {
	titleMaxLength int
	uppercaseRatio float64
}

// NewSegmenter 创建章节分段器
func NewSegmenter() *Segmenter {
	return &Segmenter{
		titleMaxLength: defaultTitleMaxLength,
		uppercaseRatio: defaultUppercaseRatio,
	}
}

// Segment 将一个文档的文本块划分为章节序列
// 文本块需按页码和阅读顺序排列；空输入返回零个章节
func (s *Segmenter) Segment(document string, blocks []TextBlock) []Section {
	if len(blocks) == 0 {
		return nil
	}

	median := medianFontSize(blocks)

	var sections []Section
	var current *Section

	for _, block := range blocks {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}

		if s.IsTitleCandidate(block, median) {
			// 标题候选开启新章节
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{
				Document:   document,
				Title:      text,
				PageNumber: block.PageNumber,
				Blocks:     []TextBlock{block},
			}
			continue
		}

		if current == nil {
			// 文档开头没有标题候选时使用占位标题
			current = &Section{
				Document:   document,
				Title:      placeholderTitle,
				PageNumber: block.PageNumber,
			}
		}

		if current.Body != "" {
			current.Body += " "
		}
		current.Body += text
		current.Blocks = append(current.Blocks, block)
	}

	if current != nil {
		sections = append(sections, *current)
	}

	// 标题章节没有任何正文时，退化为用标题充当正文，避免信息丢失
	for i := range sections {
		if sections[i].Body == "" {
			sections[i].Body = sections[i].Title
		}
	}

	return sections
}

// IsTitleCandidate 判定一个文本块是否为标题候选
// 规则：行足够短，且（加粗 或 字号高于文档中位数 或 大写占比高 或 以冒号结尾）
// 纯函数，便于独立测试
func (s *Segmenter) IsTitleCandidate(block TextBlock, medianFontSize float64) bool {
	text := strings.TrimSpace(block.Text)
	if text == "" || len(text) > s.titleMaxLength {
		return false
	}

	if block.IsBold {
		return true
	}
	if block.FontSize > 0 && medianFontSize > 0 && block.FontSize > medianFontSize {
		return true
	}
	if uppercaseRatio(text) >= s.uppercaseRatio {
		return true
	}
	if strings.HasSuffix(text, ":") {
		return true
	}
	return false
}

// medianFontSize 计算文本块字号的中位数，忽略未知字号（0值）
func medianFontSize(blocks []TextBlock) float64 {
	sizes := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		if b.FontSize > 0 {
			sizes = append(sizes, b.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

// uppercaseRatio 计算文本中大写字母占全部字母的比例
// 没有字母的文本返回0，避免纯数字行被误判为标题
func uppercaseRatio(text string) float64 {
	letters, uppers := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(uppers) / float64(letters)
}
