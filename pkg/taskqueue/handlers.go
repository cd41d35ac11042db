package taskqueue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AnalysisRunner 集合分析的执行接口
// 由服务层实现，处理器通过它触发实际的分析流程
type AnalysisRunner interface {
	// RunCollection 对一个集合执行完整分析并返回结果摘要
	RunCollection(ctx context.Context, payload CollectionAnalyzePayload) (*CollectionAnalyzeResult, error)
}

// AnalyzeHandler 集合分析任务处理器
type AnalyzeHandler struct {
	runner AnalysisRunner // 分析执行器
	queue  Queue          // 任务队列，用于写回结果
	logger *logrus.Logger // 日志记录器
}

// NewAnalyzeHandler 创建集合分析任务处理器
func NewAnalyzeHandler(runner AnalysisRunner, queue Queue, logger *logrus.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = logrus.New()
	}

	return &AnalyzeHandler{
		runner: runner,
		queue:  queue,
		logger: logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *AnalyzeHandler) GetTaskTypes() []TaskType {
	return []TaskType{TaskCollectionAnalyze}
}

// ProcessTask 处理集合分析任务
func (h *AnalyzeHandler) ProcessTask(ctx context.Context, task *Task) error {
	// 解析任务载荷
	var payload CollectionAnalyzePayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Error("Failed to unmarshal analyze payload")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if payload.CollectionPath == "" {
		return fmt.Errorf("%w: missing collection path", ErrInvalidPayload)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"job_id":     payload.JobID,
		"collection": payload.CollectionName,
	}).Info("Processing collection analysis task")

	// 执行分析流程
	result, err := h.runner.RunCollection(ctx, payload)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"task_id":    task.ID,
			"collection": payload.CollectionName,
		}).Error("Collection analysis failed")
		return err
	}

	// 将结果摘要写回任务记录，状态由工作者统一更新
	if h.queue != nil {
		if err := h.queue.UpdateTaskStatus(ctx, task.ID, StatusProcessing, result, ""); err != nil {
			h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to store analysis result on task")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":          task.ID,
		"job_id":           payload.JobID,
		"collection":       payload.CollectionName,
		"document_count":   result.DocumentCount,
		"section_count":    result.SectionCount,
		"subsection_count": result.SubsectionCount,
	}).Info("Collection analysis task completed")

	return nil
}
