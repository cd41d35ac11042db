package repository

import "github.com/fyerfyer/doc-insight-system/internal/models"

// JobRepository 分析作业仓储接口
// 负责作业元数据和结果的存储与检索
type JobRepository interface {
	// Create 创建作业记录
	Create(job *models.AnalysisJob) error

	// Update 更新作业记录
	Update(job *models.AnalysisJob) error

	// GetByID 根据ID获取作业
	GetByID(id string) (*models.AnalysisJob, error)

	// List 列出作业，支持分页和状态筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.AnalysisJob, int64, error)

	// Delete 删除作业
	Delete(id string) error

	// UpdateStatus 更新作业状态
	UpdateStatus(id string, status models.JobStatus, errorMsg string) error

	// UpdateStage 更新作业的处理阶段和进度
	UpdateStage(id string, stage models.JobStage, progress int) error

	// SaveResult 保存作业的分析结果和统计数据
	SaveResult(id string, result []byte, sections, subsections int) error
}
