package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsTitleCandidate 测试标题候选判定启发式
func TestIsTitleCandidate(t *testing.T) {
	segmenter := NewSegmenter()

	t.Run("bold short line", func(t *testing.T) {
		block := TextBlock{Text: "Getting Started", IsBold: true, FontSize: 10}
		assert.True(t, segmenter.IsTitleCandidate(block, 10))
	})

	t.Run("above median font size", func(t *testing.T) {
		block := TextBlock{Text: "Chapter One", FontSize: 16}
		assert.True(t, segmenter.IsTitleCandidate(block, 10))
	})

	t.Run("high uppercase ratio", func(t *testing.T) {
		block := TextBlock{Text: "INTRODUCTION TO THE SYSTEM", FontSize: 10}
		assert.True(t, segmenter.IsTitleCandidate(block, 10))
	})

	t.Run("colon suffix", func(t *testing.T) {
		block := TextBlock{Text: "Ingredients:", FontSize: 10}
		assert.True(t, segmenter.IsTitleCandidate(block, 10))
	})

	t.Run("plain body line", func(t *testing.T) {
		block := TextBlock{Text: "This is a regular body sentence with normal casing.", FontSize: 10}
		assert.False(t, segmenter.IsTitleCandidate(block, 10))
	})

	t.Run("long line never a title", func(t *testing.T) {
		long := ""
		for i := 0; i < 10; i++ {
			long += "VERY LONG HEADING TEXT "
		}
		block := TextBlock{Text: long, IsBold: true, FontSize: 20}
		assert.False(t, segmenter.IsTitleCandidate(block, 10), "超长行不应被识别为标题")
	})

	t.Run("numeric line not a title", func(t *testing.T) {
		block := TextBlock{Text: "12345", FontSize: 10}
		assert.False(t, segmenter.IsTitleCandidate(block, 10))
	})
}

// TestSegment 测试章节分段功能
func TestSegment(t *testing.T) {
	segmenter := NewSegmenter()

	t.Run("basic segmentation", func(t *testing.T) {
		blocks := []TextBlock{
			{Text: "OVERVIEW", PageNumber: 1, FontSize: 14},
			{Text: "The system processes documents in batches.", PageNumber: 1, FontSize: 10},
			{Text: "Each batch is independent.", PageNumber: 1, FontSize: 10},
			{Text: "DETAILS", PageNumber: 2, FontSize: 14},
			{Text: "Details follow here.", PageNumber: 2, FontSize: 10},
		}
		sections := segmenter.Segment("guide.pdf", blocks)
		require.Len(t, sections, 2)

		assert.Equal(t, "OVERVIEW", sections[0].Title)
		assert.Equal(t, 1, sections[0].PageNumber)
		assert.Contains(t, sections[0].Body, "processes documents")
		assert.Contains(t, sections[0].Body, "independent")

		assert.Equal(t, "DETAILS", sections[1].Title)
		assert.Equal(t, 2, sections[1].PageNumber)
		assert.Equal(t, "guide.pdf", sections[1].Document)
	})

	t.Run("no title candidates uses placeholder", func(t *testing.T) {
		blocks := []TextBlock{
			{Text: "Just some body text without any headings at all.", PageNumber: 3, FontSize: 10},
			{Text: "More body text follows here.", PageNumber: 3, FontSize: 10},
		}
		sections := segmenter.Segment("plain.pdf", blocks)
		require.Len(t, sections, 1)
		assert.Equal(t, placeholderTitle, sections[0].Title)
		assert.Equal(t, 3, sections[0].PageNumber)
	})

	t.Run("empty input yields zero sections", func(t *testing.T) {
		sections := segmenter.Segment("empty.pdf", nil)
		assert.Empty(t, sections)

		sections = segmenter.Segment("blank.pdf", []TextBlock{{Text: "   ", PageNumber: 1}})
		assert.Empty(t, sections)
	})

	t.Run("title only section falls back to title body", func(t *testing.T) {
		blocks := []TextBlock{
			{Text: "LONELY HEADING", PageNumber: 1, FontSize: 14},
		}
		sections := segmenter.Segment("doc.pdf", blocks)
		require.Len(t, sections, 1)
		assert.Equal(t, "LONELY HEADING", sections[0].Body)
	})
}

// TestMedianFontSize 测试字号中位数计算
func TestMedianFontSize(t *testing.T) {
	blocks := []TextBlock{
		{FontSize: 10}, {FontSize: 12}, {FontSize: 14},
	}
	assert.Equal(t, 12.0, medianFontSize(blocks))

	// 偶数个取中间两值的平均
	blocks = append(blocks, TextBlock{FontSize: 16})
	assert.Equal(t, 13.0, medianFontSize(blocks))

	// 未知字号被忽略
	assert.Equal(t, 0.0, medianFontSize([]TextBlock{{FontSize: 0}}))
}
