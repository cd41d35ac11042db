package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/collection"
)

func TestDiscoverCollections(t *testing.T) {
	root := t.TempDir()

	createTestCollection(t, root, "Collection 2", testInputJSON)
	createTestCollection(t, root, "Collection 1", testInputJSON)

	// 没有请求文件的目录应当被忽略
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-collection"), 0755))
	// 普通文件也应当被忽略
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0644))

	collections, err := DiscoverCollections(root)
	require.NoError(t, err)

	require.Len(t, collections, 2)
	assert.Equal(t, filepath.Join(root, "Collection 1"), collections[0])
	assert.Equal(t, filepath.Join(root, "Collection 2"), collections[1])
}

func TestBatchRunner_Run(t *testing.T) {
	root := t.TempDir()

	createTestCollection(t, root, "Collection 1", testInputJSON)
	createTestCollection(t, root, "Collection 2", testInputJSON)

	// 一个缺少角色的无效集合
	badInput := `{"documents": [], "persona": {"role": ""}, "job_to_be_done": {"task": "x"}}`
	createTestCollection(t, root, "Collection 3", badInput)

	service := NewAnalysisService()
	runner := NewBatchRunner(service, 2, nil)

	result, err := runner.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Collection 3")

	// 成功的集合应当产出结果文件
	for _, name := range []string{"Collection 1", "Collection 2"} {
		outputPath := filepath.Join(root, name, collection.OutputFileName)
		_, err := os.Stat(outputPath)
		assert.NoError(t, err, "missing output for %s", name)
	}

	// 失败的集合不应当产出结果文件
	_, err = os.Stat(filepath.Join(root, "Collection 3", collection.OutputFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestBatchRunner_Run_EmptyRoot(t *testing.T) {
	root := t.TempDir()

	service := NewAnalysisService()
	runner := NewBatchRunner(service, 2, nil)

	result, err := runner.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}
