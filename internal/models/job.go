package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus 分析作业状态类型
type JobStatus string

const (
	// JobStatusPending 作业已创建，等待处理
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing 作业处理中
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted 作业处理完成
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 作业处理失败
	JobStatusFailed JobStatus = "failed"
)

// JobStage 分析作业的处理阶段
type JobStage string

const (
	// StageExtracting 文本提取阶段
	StageExtracting JobStage = "extracting"
	// StageSegmenting 章节分段阶段
	StageSegmenting JobStage = "segmenting"
	// StageRanking 相关性排序阶段
	StageRanking JobStage = "ranking"
	// StageRefining 子段落精炼阶段
	StageRefining JobStage = "refining"
	// StageCompleted 处理完成
	StageCompleted JobStage = "completed"
)

// AnalysisJob 分析作业数据模型
// 记录一个集合从提交到产出结果的全过程
type AnalysisJob struct {
	ID              string         `gorm:"primaryKey"`         // 作业ID，主键
	CollectionName  string         `gorm:"not null;index"`     // 集合名称
	CollectionPath  string         `gorm:"not null"`           // 集合目录路径
	Persona         string         `gorm:"not null"`           // 角色描述
	Task            string         `gorm:"type:text;not null"` // 任务描述
	Status          JobStatus      `gorm:"not null;index"`     // 处理状态
	Stage           JobStage       `gorm:"size:20"`            // 当前处理阶段
	Progress        int            `gorm:"not null;default:0"` // 处理进度（0-100）
	DocumentCount   int            `gorm:"not null;default:0"` // 集合中的文档数量
	SectionCount    int            `gorm:"not null;default:0"` // 入选章节数量
	SubsectionCount int            `gorm:"not null;default:0"` // 精炼子段落数量
	Result          datatypes.JSON `gorm:"type:json"`          // 分析结果，JSON格式
	Error           string         `gorm:"type:text"`          // 错误信息
	CreatedAt       time.Time      `gorm:"not null;index"`     // 创建时间
	UpdatedAt       time.Time      `gorm:"not null"`           // 更新时间
	StartedAt       *time.Time     `gorm:"index"`              // 开始处理时间
	CompletedAt     *time.Time     `gorm:"index"`              // 处理完成时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (j *AnalysisJob) BeforeCreate(tx *gorm.DB) (err error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (j *AnalysisJob) BeforeUpdate(tx *gorm.DB) (err error) {
	j.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}

// IsTerminal 作业是否已到达终态
func (j *AnalysisJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
