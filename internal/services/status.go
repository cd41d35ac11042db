package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/models"
	"github.com/fyerfyer/doc-insight-system/internal/repository"
	"github.com/sirupsen/logrus"
)

// stageProgress 各处理阶段对应的进度值
var stageProgress = map[models.JobStage]int{
	models.StageExtracting: 10,
	models.StageSegmenting: 35,
	models.StageRanking:    60,
	models.StageRefining:   85,
	models.StageCompleted:  100,
}

// AnalysisStatusManager 分析作业状态管理器
// 负责管理作业处理的生命周期状态
type AnalysisStatusManager struct {
	repo   repository.JobRepository // 作业仓储接口
	logger *logrus.Logger           // 日志记录器
	mu     sync.Mutex               // 互斥锁，保证状态转换的原子性
}

// NewAnalysisStatusManager 创建分析作业状态管理器
func NewAnalysisStatusManager(repo repository.JobRepository, logger *logrus.Logger) *AnalysisStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &AnalysisStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// CreateJob 创建一条等待处理的作业记录
func (m *AnalysisStatusManager) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"collection": job.CollectionName,
	}).Info("Creating analysis job")

	job.Status = models.JobStatusPending
	job.Progress = 0
	return m.repo.Create(job)
}

// MarkAsProcessing 将作业标记为处理中状态
func (m *AnalysisStatusManager) MarkAsProcessing(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 检查状态转换的有效性，失败的作业允许重试
	if job.Status != models.JobStatusPending && job.Status != models.JobStatusFailed {
		return fmt.Errorf("invalid state transition: job %s is in %s state, expected %s or %s",
			jobID, job.Status, models.JobStatusPending, models.JobStatusFailed)
	}

	m.logger.WithField("job_id", jobID).Info("Marking job as processing")

	return m.repo.UpdateStatus(jobID, models.JobStatusProcessing, "")
}

// EnterStage 记录作业进入新的处理阶段
func (m *AnalysisStatusManager) EnterStage(ctx context.Context, jobID string, stage models.JobStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 只有处理中的作业才能推进阶段
	if job.Status != models.JobStatusProcessing {
		return fmt.Errorf("cannot enter stage %s: job %s is not in processing state", stage, jobID)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id": jobID,
		"stage":  stage,
	}).Debug("Job entering stage")

	return m.repo.UpdateStage(jobID, stage, stageProgress[stage])
}

// MarkAsCompleted 将作业标记为处理完成状态并保存结果
func (m *AnalysisStatusManager) MarkAsCompleted(ctx context.Context, jobID string, result []byte, sections, subsections int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if job.Status != models.JobStatusProcessing && job.Status != models.JobStatusPending {
		return fmt.Errorf("invalid state transition: job %s is in %s state, expected %s or %s",
			jobID, job.Status, models.JobStatusProcessing, models.JobStatusPending)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id":           jobID,
		"section_count":    sections,
		"subsection_count": subsections,
	}).Info("Marking job as completed")

	// 保存结果和统计数据
	if err := m.repo.SaveResult(jobID, result, sections, subsections); err != nil {
		return err
	}

	if err := m.repo.UpdateStage(jobID, models.StageCompleted, stageProgress[models.StageCompleted]); err != nil {
		m.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to update final stage")
	}

	return m.repo.UpdateStatus(jobID, models.JobStatusCompleted, "")
}

// MarkAsFailed 将作业标记为处理失败状态
func (m *AnalysisStatusManager) MarkAsFailed(ctx context.Context, jobID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	_, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id": jobID,
		"error":  errorMsg,
	}).Error("Marking job as failed")

	return m.repo.UpdateStatus(jobID, models.JobStatusFailed, errorMsg)
}

// GetJob 获取完整的作业对象
func (m *AnalysisStatusManager) GetJob(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	return m.repo.GetByID(jobID)
}

// GetStatus 获取作业当前状态
func (m *AnalysisStatusManager) GetStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return "", fmt.Errorf("failed to get job status: %w", err)
	}
	return job.Status, nil
}

// ListJobs 获取作业列表
func (m *AnalysisStatusManager) ListJobs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.AnalysisJob, int64, error) {
	return m.repo.List(offset, limit, filters)
}

// DeleteJob 删除作业记录
func (m *AnalysisStatusManager) DeleteJob(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithField("job_id", jobID).Info("Deleting analysis job record")
	return m.repo.Delete(jobID)
}

// WaitUntilTerminal 轮询等待作业到达终态
// timeout为0表示不设置超时
func (m *AnalysisStatusManager) WaitUntilTerminal(ctx context.Context, jobID string, timeout time.Duration) (*models.AnalysisJob, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := m.repo.GetByID(jobID)
		if err != nil {
			return nil, err
		}
		if job.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for job %s", jobID)
		case <-ticker.C:
		}
	}
}
