package analyzer

import (
	"regexp"
	"strings"
)

// 文本清洗用的正则表达式
var (
	// 连续空白字符
	whitespaceRe = regexp.MustCompile(`\s+`)
	// 常见标点和单词字符以外的噪声字符
	noiseRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:\-()]+`)
)

// CleanText 规范化文本
// 折叠空白、替换噪声字符并修剪首尾空白
// 查询文本和语料文本使用同一套清洗规则，保证相似度可比
func CleanText(text string) string {
	text = noiseRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Cleaner 章节内容清洗器
// 规范化章节标题和正文，并过滤正文过短的章节
type Cleaner struct {
	minContentLength int
}

// NewCleaner 创建内容清洗器
func NewCleaner(minContentLength int) *Cleaner {
	if minContentLength <= 0 {
		minContentLength = 20
	}
	return &Cleaner{minContentLength: minContentLength}
}

// Clean 清洗单个章节
// 返回清洗后的章节和是否保留的标志；正文长度不足时章节被丢弃
func (c *Cleaner) Clean(section Section) (Section, bool) {
	section.Title = CleanText(section.Title)
	section.Body = CleanText(section.Body)

	if len(section.Body) < c.minContentLength {
		return Section{}, false
	}
	return section, true
}

// CleanAll 批量清洗章节，丢弃的章节不出现在结果中
// 保留原有的先后顺序
func (c *Cleaner) CleanAll(sections []Section) []Section {
	result := make([]Section, 0, len(sections))
	for _, s := range sections {
		if cleaned, ok := c.Clean(s); ok {
			result = append(result, cleaned)
		}
	}
	return result
}
