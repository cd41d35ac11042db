package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// BlockCache 文本块缓存
// 在通用缓存之上封装文本块的序列化，避免重复提取同一文档
type BlockCache struct {
	cache Cache
	ttl   time.Duration
}

// NewBlockCache 创建文本块缓存
func NewBlockCache(cache Cache, ttl time.Duration) *BlockCache {
	return &BlockCache{cache: cache, ttl: ttl}
}

// Get 获取文档的缓存文本块
// 缓存未命中或数据损坏时返回found=false，由调用方重新提取
func (b *BlockCache) Get(filePath string) ([]analyzer.TextBlock, bool) {
	value, found, err := b.cache.Get(DocumentKey(filePath))
	if err != nil || !found {
		return nil, false
	}

	var blocks []analyzer.TextBlock
	if err := json.Unmarshal([]byte(value), &blocks); err != nil {
		// 损坏的缓存条目当作未命中处理
		return nil, false
	}
	return blocks, true
}

// Set 缓存文档的文本块
func (b *BlockCache) Set(filePath string, blocks []analyzer.TextBlock) error {
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal text blocks: %v", err)
	}
	return b.cache.Set(DocumentKey(filePath), string(data), b.ttl)
}
