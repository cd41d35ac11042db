package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskCollectionAnalyze 集合分析任务
	TaskCollectionAnalyze TaskType = "collection:analyze"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	JobID       string          `json:"job_id"`       // 关联的分析作业ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据，不同任务类型对应不同结构
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// CollectionAnalyzePayload 集合分析任务载荷
type CollectionAnalyzePayload struct {
	JobID          string `json:"job_id"`          // 分析作业ID
	CollectionName string `json:"collection_name"` // 集合名称
	CollectionPath string `json:"collection_path"` // 集合目录路径
	PersonaRole    string `json:"persona_role"`    // 角色描述
	Task           string `json:"task"`            // 待完成的任务描述
}

// CollectionAnalyzeResult 集合分析任务结果
type CollectionAnalyzeResult struct {
	JobID           string `json:"job_id"`           // 分析作业ID
	CollectionName  string `json:"collection_name"`  // 集合名称
	DocumentCount   int    `json:"document_count"`   // 处理的文档数
	SectionCount    int    `json:"section_count"`    // 选出的章节数
	SubsectionCount int    `json:"subsection_count"` // 精炼出的子片段数
	OutputPath      string `json:"output_path"`      // 结果文件路径
	Error           string `json:"error"`            // 错误信息（如果有）
}
