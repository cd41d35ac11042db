package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-insight-system/api/handler"
	"github.com/fyerfyer/doc-insight-system/api/model"
	"github.com/fyerfyer/doc-insight-system/internal/collection"
	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/services"
)

const apiTestInputJSON = `{
  "challenge_info": {"challenge_id": "round_1b_test", "test_case_name": "travel_planner"},
  "documents": [
    {"filename": "beaches.txt", "title": "Coastal Guide"}
  ],
  "persona": {"role": "Travel Planner"},
  "job_to_be_done": {"task": "Plan a trip of 4 days for a group of 10 college friends"}
}`

const apiTestDoc = `Beach Activities for Groups:
College friends can plan a trip with beach volleyball, snorkeling and group surfing lessons along the coast. Booking group activities in advance keeps the trip affordable for students.
Packing Suggestions:
Pack light clothing, sunscreen and swimwear for four days of coastal weather. A shared packing checklist helps a large group of friends stay organized.
`

// setupAPITest 初始化测试数据库和路由
func setupAPITest(t *testing.T) (*gin.Engine, func()) {
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:memdb_api_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")
	require.NoError(t, db.AutoMigrate(&models.AnalysisJob{}))

	originalDB := database.DB
	database.DB = db

	service := services.NewAnalysisService()
	router := SetupRouter(handler.NewAnalysisHandler(service))

	cleanup := func() {
		database.DB = originalDB
	}
	return router, cleanup
}

// createAPITestCollection 在临时目录中创建一个可分析的集合
func createAPITestCollection(t *testing.T, root string, name string) string {
	dir := filepath.Join(root, name)
	docsDir := filepath.Join(dir, collection.DocumentsDirName)
	require.NoError(t, os.MkdirAll(docsDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, collection.InputFileName), []byte(apiTestInputJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "beaches.txt"), []byte(apiTestDoc), 0644))

	return dir
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeResponse 解析通用响应结构，Data保持原始JSON
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (int, json.RawMessage) {
	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code, resp.Data
}

// submitTestCollection 通过API提交集合并返回作业ID
func submitTestCollection(t *testing.T, router *gin.Engine, dir string) string {
	w := performRequest(router, http.MethodPost, "/api/collections", model.CollectionSubmitRequest{Path: dir})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	code, data := decodeResponse(t, w)
	require.Equal(t, 0, code)

	var submit model.JobSubmitResponse
	require.NoError(t, json.Unmarshal(data, &submit))
	require.NotEmpty(t, submit.JobID)
	return submit.JobID
}

func TestHealthCheck(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSubmitCollectionAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	dir := createAPITestCollection(t, t.TempDir(), "Collection 1")

	w := performRequest(router, http.MethodPost, "/api/collections", model.CollectionSubmitRequest{Path: dir})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	code, data := decodeResponse(t, w)
	assert.Equal(t, 0, code)

	var submit model.JobSubmitResponse
	require.NoError(t, json.Unmarshal(data, &submit))
	assert.NotEmpty(t, submit.JobID)
	assert.Equal(t, "Collection 1", submit.Collection)
	// 同步模式下提交返回时作业已完成
	assert.Equal(t, string(models.JobStatusCompleted), submit.Status)

	// 结果文件应当写入集合目录
	_, err := os.Stat(filepath.Join(dir, collection.OutputFileName))
	assert.NoError(t, err)
}

func TestSubmitCollectionAPI_InvalidBody(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodPost, "/api/collections", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitCollectionAPI_MissingInputFile(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	// 目录存在但没有请求文件
	dir := t.TempDir()
	w := performRequest(router, http.MethodPost, "/api/collections", model.CollectionSubmitRequest{Path: dir})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobStatusAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	dir := createAPITestCollection(t, t.TempDir(), "Collection 1")
	jobID := submitTestCollection(t, router, dir)

	w := performRequest(router, http.MethodGet, "/api/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, data := decodeResponse(t, w)
	var status model.JobStatusResponse
	require.NoError(t, json.Unmarshal(data, &status))

	assert.Equal(t, jobID, status.JobID)
	assert.Equal(t, "Collection 1", status.Collection)
	assert.Equal(t, "Travel Planner", status.Persona)
	assert.Equal(t, string(models.JobStatusCompleted), status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.NotEmpty(t, status.CompletedAt)
}

func TestGetJobStatusAPI_NotFound(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodGet, "/api/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobResultAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	dir := createAPITestCollection(t, t.TempDir(), "Collection 1")
	jobID := submitTestCollection(t, router, dir)

	w := performRequest(router, http.MethodGet, "/api/jobs/"+jobID+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, data := decodeResponse(t, w)
	var result model.JobResultResponse
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, jobID, result.JobID)

	// 结果应当是完整的分析输出文档
	var doc struct {
		Metadata struct {
			Persona string `json:"persona"`
		} `json:"metadata"`
		ExtractedSections []json.RawMessage `json:"extracted_sections"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &doc))
	assert.Equal(t, "Travel Planner", doc.Metadata.Persona)
	assert.NotEmpty(t, doc.ExtractedSections)
}

func TestGetJobResultAPI_NotFound(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodGet, "/api/jobs/no-such-job/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobsAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	root := t.TempDir()
	dir1 := createAPITestCollection(t, root, "Collection 1")
	dir2 := createAPITestCollection(t, root, "Collection 2")
	submitTestCollection(t, router, dir1)
	submitTestCollection(t, router, dir2)

	w := performRequest(router, http.MethodGet, "/api/jobs?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, data := decodeResponse(t, w)
	var list model.JobListResponse
	require.NoError(t, json.Unmarshal(data, &list))

	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Jobs, 2)

	// 按集合名过滤
	w = performRequest(router, http.MethodGet, "/api/jobs?collection=Collection+2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, data = decodeResponse(t, w)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "Collection 2", list.Jobs[0].Collection)
}

func TestDeleteJobAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	dir := createAPITestCollection(t, t.TempDir(), "Collection 1")
	jobID := submitTestCollection(t, router, dir)

	w := performRequest(router, http.MethodDelete, "/api/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, data := decodeResponse(t, w)
	var del model.JobDeleteResponse
	require.NoError(t, json.Unmarshal(data, &del))
	assert.True(t, del.Success)

	// 删除后查询应当返回404
	w = performRequest(router, http.MethodGet, "/api/jobs/"+jobID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteJobAPI_NotFound(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodDelete, "/api/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobTasksAPI_QueueDisabled(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	dir := createAPITestCollection(t, t.TempDir(), "Collection 1")
	jobID := submitTestCollection(t, router, dir)

	// 未启用任务队列时无法查询队列任务
	w := performRequest(router, http.MethodGet, "/api/jobs/"+jobID+"/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchAPI(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	root := t.TempDir()
	createAPITestCollection(t, root, "Collection 1")
	createAPITestCollection(t, root, "Collection 2")

	w := performRequest(router, http.MethodPost, "/api/batch", model.BatchSubmitRequest{RootDir: root, Concurrency: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, data := decodeResponse(t, w)
	var batch model.BatchRunResponse
	require.NoError(t, json.Unmarshal(data, &batch))

	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
}

func TestBatchAPI_InvalidBody(t *testing.T) {
	router, cleanup := setupAPITest(t)
	defer cleanup()

	w := performRequest(router, http.MethodPost, "/api/batch", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
