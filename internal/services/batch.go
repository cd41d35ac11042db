package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fyerfyer/doc-insight-system/internal/collection"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// BatchRunner 批量分析运行器
// 扫描根目录下的所有集合并逐个分析，单个集合的失败不影响其他集合
type BatchRunner struct {
	service     *AnalysisService // 分析服务
	concurrency int              // 并发处理的集合数
	logger      *logrus.Logger   // 日志记录器
}

// BatchResult 批量运行的汇总结果
type BatchResult struct {
	Total     int      // 发现的集合数
	Succeeded int      // 成功的集合数
	Failed    int      // 失败的集合数
	Errors    []string // 失败集合的错误描述
}

// NewBatchRunner 创建批量分析运行器
func NewBatchRunner(service *AnalysisService, concurrency int, logger *logrus.Logger) *BatchRunner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &BatchRunner{
		service:     service,
		concurrency: concurrency,
		logger:      logger,
	}
}

// DiscoverCollections 扫描根目录，返回包含请求文件的集合目录
// 结果按目录名排序，保证运行顺序稳定
func DiscoverCollections(rootDir string) ([]string, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %v", err)
	}

	var collections []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(rootDir, entry.Name())
		inputPath := filepath.Join(dir, collection.InputFileName)
		if _, err := os.Stat(inputPath); err != nil {
			continue
		}

		collections = append(collections, dir)
	}

	sort.Strings(collections)
	return collections, nil
}

// Run 扫描并分析根目录下的所有集合
func (r *BatchRunner) Run(ctx context.Context, rootDir string) (*BatchResult, error) {
	collections, err := DiscoverCollections(rootDir)
	if err != nil {
		return nil, err
	}

	if len(collections) == 0 {
		r.logger.WithField("root", rootDir).Warn("No collections found")
		return &BatchResult{}, nil
	}

	r.logger.WithFields(logrus.Fields{
		"root":        rootDir,
		"collections": len(collections),
		"concurrency": r.concurrency,
	}).Info("Starting batch analysis")

	result := &BatchResult{Total: len(collections)}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.concurrency)
	)

	for _, dir := range collections {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(collectionPath string) {
			defer wg.Done()
			defer func() { <-sem }()

			name := filepath.Base(collectionPath)
			r.logger.WithField("collection", name).Info("Processing collection")

			_, err := r.service.RunCollection(ctx, taskqueue.CollectionAnalyzePayload{
				CollectionName: name,
				CollectionPath: collectionPath,
			})

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
				r.logger.WithError(err).WithField("collection", name).Error("Collection analysis failed")
				return
			}

			result.Succeeded++
		}(dir)
	}

	wg.Wait()

	r.logger.WithFields(logrus.Fields{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Batch analysis finished")

	return result, nil
}
