package handler

import (
	"errors"
	"net/http"

	"github.com/fyerfyer/doc-insight-system/api/middleware"
	"github.com/fyerfyer/doc-insight-system/api/model"
	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/services"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalysisHandler 处理集合分析相关的API请求
type AnalysisHandler struct {
	analysisService *services.AnalysisService // 分析服务
	logger          *logrus.Logger            // 日志记录器
}

// NewAnalysisHandler 创建新的分析处理器
func NewAnalysisHandler(analysisService *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          middleware.GetLogger(),
	}
}

// SubmitCollection 提交集合分析作业
// POST /api/collections
func (h *AnalysisHandler) SubmitCollection(c *gin.Context) {
	// 绑定请求参数
	var req model.CollectionSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid collection submit request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	jobID, err := h.analysisService.SubmitCollection(c.Request.Context(), req.Path)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"path":  req.Path,
		}).Error("Failed to submit collection")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"提交集合失败: "+err.Error(),
		))
		return
	}

	job, err := h.analysisService.GetJobInfo(c.Request.Context(), jobID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": jobID,
		}).Error("Failed to get submitted job")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取作业信息失败",
		))
		return
	}

	resp := model.JobSubmitResponse{
		JobID:      jobID,
		Collection: job.CollectionName,
		Status:     string(job.Status),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetJobStatus 获取作业处理状态
// GET /api/jobs/:id
func (h *AnalysisHandler) GetJobStatus(c *gin.Context) {
	// 绑定路径参数
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	job, err := h.analysisService.GetJobInfo(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to get job info")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取作业信息失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertJob(job)))
}

// GetJobResult 获取作业的分析结果
// GET /api/jobs/:id/result
func (h *AnalysisHandler) GetJobResult(c *gin.Context) {
	// 绑定路径参数
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	job, err := h.analysisService.GetJobInfo(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to get job result")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取作业结果失败",
		))
		return
	}

	// 未完成的作业没有结果
	if job.Status != models.JobStatusCompleted {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"作业尚未完成",
		))
		return
	}

	resp := model.JobResultResponse{
		JobID:  job.ID,
		Result: []byte(job.Result),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListJobs 获取作业列表
// GET /api/jobs
func (h *AnalysisHandler) ListJobs(c *gin.Context) {
	// 绑定查询参数
	var req model.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 构建过滤条件
	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.Collection != "" {
		filters["collection_name"] = req.Collection
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	jobs, total, err := h.analysisService.ListJobs(c.Request.Context(), offset, req.GetPageSize(), filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取作业列表失败",
		))
		return
	}

	items := make([]model.JobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, model.ConvertJob(job))
	}

	resp := model.JobListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Jobs:     items,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteJob 删除作业
// DELETE /api/jobs/:id
func (h *AnalysisHandler) DeleteJob(c *gin.Context) {
	// 绑定路径参数
	var req model.JobDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	if err := h.analysisService.DeleteJob(c.Request.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to delete job")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除作业失败",
		))
		return
	}

	h.logger.WithField("job_id", req.ID).Info("Job deleted successfully")

	resp := model.JobDeleteResponse{
		Success: true,
		JobID:   req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetJobTasks 获取作业关联的队列任务
// GET /api/jobs/:id/tasks
func (h *AnalysisHandler) GetJobTasks(c *gin.Context) {
	// 绑定路径参数
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	queue := h.analysisService.GetTaskQueue()
	if queue == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "任务队列未启用"))
		return
	}

	tasks, err := queue.GetTasksByJob(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to get job tasks")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取作业任务失败",
		))
		return
	}

	items := make([]*taskqueue.TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, taskqueue.NewTaskInfo(task))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(items))
}

// RunBatch 对根目录下的所有集合执行批量分析
// POST /api/batch
func (h *AnalysisHandler) RunBatch(c *gin.Context) {
	// 绑定请求参数
	var req model.BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}

	runner := services.NewBatchRunner(h.analysisService, req.Concurrency, h.logger)
	result, err := runner.Run(c.Request.Context(), req.RootDir)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"root":  req.RootDir,
		}).Error("Batch analysis failed")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"批量分析失败: "+err.Error(),
		))
		return
	}

	resp := model.BatchRunResponse{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Errors:    result.Errors,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
