package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/cache"
	"github.com/fyerfyer/doc-insight-system/internal/collection"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/pkg/storage"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
)

const testInputJSON = `{
  "challenge_info": {"challenge_id": "round_1b_test", "test_case_name": "travel_planner"},
  "documents": [
    {"filename": "beaches.txt", "title": "Coastal Guide"},
    {"filename": "nightlife.txt", "title": "Nightlife Guide"}
  ],
  "persona": {"role": "Travel Planner"},
  "job_to_be_done": {"task": "Plan a trip of 4 days for a group of 10 college friends"}
}`

const beachesDoc = `Beach Activities for Groups:
College friends can plan a trip with beach volleyball, snorkeling and group surfing lessons along the coast. Booking group activities in advance keeps the trip affordable for students.
Packing Suggestions:
Pack light clothing, sunscreen and swimwear for four days of coastal weather. A shared packing checklist helps a large group of friends stay organized.
`

const nightlifeDoc = `Nightlife and Entertainment:
The city offers bars, clubs and live music venues where groups of college friends celebrate together. Many venues offer student discounts on weekday evenings.
Late Night Food:
Street food markets stay open past midnight and suit a group traveling on a budget. Local vendors serve quick meals that are popular with students.
`

// createTestCollection 在临时目录中创建一个可分析的集合
func createTestCollection(t *testing.T, root string, name string, inputJSON string) string {
	dir := filepath.Join(root, name)
	docsDir := filepath.Join(dir, collection.DocumentsDirName)
	require.NoError(t, os.MkdirAll(docsDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, collection.InputFileName), []byte(inputJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "beaches.txt"), []byte(beachesDoc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "nightlife.txt"), []byte(nightlifeDoc), 0644))

	return dir
}

func TestAnalysisService_AnalyzeCollection(t *testing.T) {
	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	service := NewAnalysisService()

	result, err := service.AnalyzeCollection(context.Background(), dir)
	require.NoError(t, err)

	// 元数据应当回显请求内容
	assert.Equal(t, []string{"beaches.txt", "nightlife.txt"}, result.Metadata.InputDocuments)
	assert.Equal(t, "Travel Planner", result.Metadata.Persona)
	assert.NotEmpty(t, result.Metadata.ProcessingTimestamp)

	// 章节排名应当从1开始连续递增
	require.NotEmpty(t, result.ExtractedSections)
	for i, section := range result.ExtractedSections {
		assert.Equal(t, i+1, section.ImportanceRank)
		assert.NotEmpty(t, section.SectionTitle)
	}

	// 子段落应当来自入选文档
	for _, sub := range result.SubsectionAnalysis {
		assert.NotEmpty(t, sub.RefinedText)
		assert.Contains(t, []string{"beaches.txt", "nightlife.txt"}, sub.Document)
	}
}

func TestAnalysisService_AnalyzeCollection_Deterministic(t *testing.T) {
	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	service := NewAnalysisService()

	first, err := service.AnalyzeCollection(context.Background(), dir)
	require.NoError(t, err)
	second, err := service.AnalyzeCollection(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, first.ExtractedSections, second.ExtractedSections)
	assert.Equal(t, first.SubsectionAnalysis, second.SubsectionAnalysis)
}

func TestAnalysisService_AnalyzeCollection_MissingDocument(t *testing.T) {
	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	// 删除一个文档，分析应当跳过它而不是失败
	require.NoError(t, os.Remove(filepath.Join(dir, collection.DocumentsDirName, "nightlife.txt")))

	service := NewAnalysisService()

	result, err := service.AnalyzeCollection(context.Background(), dir)
	require.NoError(t, err)

	for _, section := range result.ExtractedSections {
		assert.Equal(t, "beaches.txt", section.Document)
	}
}

func TestAnalysisService_AnalyzeCollection_InvalidRequest(t *testing.T) {
	root := t.TempDir()
	badInput := `{"documents": [], "persona": {"role": ""}, "job_to_be_done": {"task": "x"}}`
	dir := createTestCollection(t, root, "Collection 1", badInput)

	service := NewAnalysisService()

	_, err := service.AnalyzeCollection(context.Background(), dir)
	assert.ErrorIs(t, err, collection.ErrInvalidRequest)
}

func TestAnalysisService_SubmitCollection_Sync(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	service := NewAnalysisService()

	jobID, err := service.SubmitCollection(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	// 同步模式下返回时作业已是终态
	job, err := service.GetJobInfo(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, models.StageCompleted, job.Stage)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Collection 1", job.CollectionName)
	assert.Equal(t, "Travel Planner", job.Persona)
	assert.NotZero(t, job.SectionCount)
	assert.NotEmpty(t, job.Result)

	// 结果文件应当写入集合目录
	outputPath := filepath.Join(dir, collection.OutputFileName)
	_, err = os.Stat(outputPath)
	assert.NoError(t, err)
}

func TestAnalysisService_SubmitCollection_WithArchive(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	service := NewAnalysisService(WithStorage(store))

	_, err = service.SubmitCollection(context.Background(), dir)
	require.NoError(t, err)

	// 结果应当被归档到对象存储
	exists, err := store.Exists("Collection 1", collection.OutputFileName)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAnalysisService_SubmitCollection_InvalidRequest(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	root := t.TempDir()
	badInput := `{"persona": {"role": "HR professional"}, "job_to_be_done": {"task": ""}}`
	dir := createTestCollection(t, root, "Collection 1", badInput)

	service := NewAnalysisService()

	_, err := service.SubmitCollection(context.Background(), dir)
	assert.ErrorIs(t, err, collection.ErrInvalidRequest)
}

func TestAnalysisService_RunCollection_FailureMarksJob(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	service := NewAnalysisService()
	require.NoError(t, service.Init())

	job := &models.AnalysisJob{
		ID:             "job-fail",
		CollectionName: "Collection 1",
		CollectionPath: dir,
		Persona:        "Travel Planner",
		Task:           "Plan a trip",
	}
	require.NoError(t, service.GetStatusManager().CreateJob(context.Background(), job))

	// 请求文件损坏后运行应当失败
	require.NoError(t, os.WriteFile(filepath.Join(dir, collection.InputFileName), []byte("not json"), 0644))

	_, err := service.RunCollection(context.Background(), taskqueue.CollectionAnalyzePayload{
		JobID:          "job-fail",
		CollectionName: "Collection 1",
		CollectionPath: dir,
	})
	require.Error(t, err)

	got, err := service.GetJobInfo(context.Background(), "job-fail")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
}

func TestAnalysisService_BlockCache(t *testing.T) {
	root := t.TempDir()
	dir := createTestCollection(t, root, "Collection 1", testInputJSON)

	memCache, err := cache.NewCache(cache.DefaultConfig())
	require.NoError(t, err)
	blockCache := cache.NewBlockCache(memCache, time.Minute)

	service := NewAnalysisService(WithBlockCache(blockCache))

	_, err = service.AnalyzeCollection(context.Background(), dir)
	require.NoError(t, err)

	// 分析后文本块应当已进入缓存
	blocks, ok := blockCache.Get(filepath.Join(dir, collection.DocumentsDirName, "beaches.txt"))
	assert.True(t, ok)
	assert.NotEmpty(t, blocks)
}
