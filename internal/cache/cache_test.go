package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	}
	cache, err := NewMemoryCache(config)
	assert.NoError(t, err)
	assert.NotNil(t, cache)

	// 测试Set和Get
	err = cache.Set("key1", "value1", 0)
	assert.NoError(t, err)

	val, found, err := cache.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	// 测试不存在的键
	val, found, err = cache.Get("non-existent")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试删除
	err = cache.Set("to-delete", "delete-me", 0)
	assert.NoError(t, err)
	assert.NoError(t, cache.Delete("to-delete"))

	_, found, err = cache.Get("to-delete")
	assert.NoError(t, err)
	assert.False(t, found)

	// 测试清空
	assert.NoError(t, cache.Clear())
	_, found, _ = cache.Get("key1")
	assert.False(t, found)
}

// TestRedisCache 使用miniredis测试Redis缓存
func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
	})
	require.NoError(t, err)

	// 基本读写
	require.NoError(t, cache.Set("rkey", "rvalue", time.Minute))
	val, found, err := cache.Get("rkey")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "rvalue", val)

	// 过期
	require.NoError(t, cache.Set("short", "lived", time.Second))
	mr.FastForward(time.Second * 2)
	_, found, err = cache.Get("short")
	assert.NoError(t, err)
	assert.False(t, found)

	// 删除与清空
	require.NoError(t, cache.Set("gone", "soon", time.Minute))
	require.NoError(t, cache.Delete("gone"))
	_, found, _ = cache.Get("gone")
	assert.False(t, found)
}

// TestNewCacheFactory 测试缓存工厂
func TestNewCacheFactory(t *testing.T) {
	// 未知类型回退到内存缓存
	cache, err := NewCache(Config{Type: "unknown"})
	assert.NoError(t, err)
	assert.NotNil(t, cache)

	cache, err = NewCache(Config{Type: "memory"})
	assert.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, cache)
}

// TestBlockCache 测试文本块缓存的序列化往返
func TestBlockCache(t *testing.T) {
	inner, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	bc := NewBlockCache(inner, time.Minute)

	// 创建一个真实文件以获得稳定的mtime键
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0644))

	blocks := []analyzer.TextBlock{
		{Text: "HEADING", PageNumber: 1, FontSize: 14, IsBold: true},
		{Text: "Body line with content.", PageNumber: 1, FontSize: 10},
	}

	// 未命中
	_, found := bc.Get(path)
	assert.False(t, found)

	// 写入后命中
	require.NoError(t, bc.Set(path, blocks))
	got, found := bc.Get(path)
	require.True(t, found)
	assert.Equal(t, blocks, got)

	// 文件修改后键变化，旧缓存失效
	time.Sleep(time.Millisecond * 10)
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))
	_, found = bc.Get(path)
	assert.False(t, found, "文件变更后应视为缓存未命中")
}

// TestDocumentKey 测试缓存键生成
func TestDocumentKey(t *testing.T) {
	key := GenerateCacheKey("blocks", "a", "b")
	assert.Equal(t, "blocks:a:b", key)

	// 不存在的文件也能生成键
	key = DocumentKey("/no/such/file.pdf")
	assert.Contains(t, key, "/no/such/file.pdf")
}
