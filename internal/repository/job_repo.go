package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/models"
)

// jobRepository 分析作业仓储实现
type jobRepository struct {
	db *gorm.DB // 数据库连接
}

// NewJobRepository 创建作业仓储实例
func NewJobRepository() JobRepository {
	return &jobRepository{
		db: database.MustDB(),
	}
}

// NewJobRepositoryWithDB 使用指定的数据库连接创建作业仓储实例
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepository{db: db}
}

// Create 创建作业记录
func (r *jobRepository) Create(job *models.AnalysisJob) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	return r.db.Create(job).Error
}

// Update 更新作业记录
func (r *jobRepository) Update(job *models.AnalysisJob) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	return r.db.Save(job).Error
}

// GetByID 根据ID获取作业
func (r *jobRepository) GetByID(id string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
		}
		return nil, err
	}
	return &job, nil
}

// List 列出作业，按创建时间倒序
func (r *jobRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.AnalysisJob, int64, error) {
	var jobs []*models.AnalysisJob
	var total int64

	query := r.db.Model(&models.AnalysisJob{})
	for key, value := range filters {
		query = query.Where(key+" = ?", value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Offset(offset).Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// Delete 删除作业
func (r *jobRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.AnalysisJob{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}

// UpdateStatus 更新作业状态
// 进入processing时记录开始时间，到达终态时记录完成时间
func (r *jobRepository) UpdateStatus(id string, status models.JobStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"error":      errorMsg,
		"updated_at": time.Now(),
	}

	now := time.Now()
	switch status {
	case models.JobStatusProcessing:
		updates["started_at"] = &now
	case models.JobStatusCompleted, models.JobStatusFailed:
		updates["completed_at"] = &now
	}

	result := r.db.Model(&models.AnalysisJob{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}

// UpdateStage 更新作业的处理阶段和进度
func (r *jobRepository) UpdateStage(id string, stage models.JobStage, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	result := r.db.Model(&models.AnalysisJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stage":      stage,
		"progress":   progress,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}

// SaveResult 保存作业的分析结果和统计数据
func (r *jobRepository) SaveResult(id string, result []byte, sections, subsections int) error {
	res := r.db.Model(&models.AnalysisJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"result":           datatypes.JSON(result),
		"section_count":    sections,
		"subsection_count": subsections,
		"updated_at":       time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}
