package model

import (
	"encoding/json"
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// JobSubmitResponse 作业提交响应
type JobSubmitResponse struct {
	JobID      string `json:"job_id"`     // 作业ID
	Collection string `json:"collection"` // 集合名称
	Status     string `json:"status"`     // 作业状态
}

// JobStatusResponse 作业状态查询响应
type JobStatusResponse struct {
	JobID           string `json:"job_id"`                 // 作业ID
	Collection      string `json:"collection"`             // 集合名称
	Persona         string `json:"persona"`                // 角色描述
	Task            string `json:"task"`                   // 任务描述
	Status          string `json:"status"`                 // 处理状态
	Stage           string `json:"stage,omitempty"`        // 当前处理阶段
	Progress        int    `json:"progress"`               // 处理进度（0-100）
	DocumentCount   int    `json:"document_count"`         // 文档数量
	SectionCount    int    `json:"section_count"`          // 入选章节数量
	SubsectionCount int    `json:"subsection_count"`       // 精炼子段落数量
	Error           string `json:"error,omitempty"`        // 错误信息（如果有）
	CreatedAt       string `json:"created_at"`             // 创建时间
	UpdatedAt       string `json:"updated_at"`             // 更新时间
	StartedAt       string `json:"started_at,omitempty"`   // 开始处理时间
	CompletedAt     string `json:"completed_at,omitempty"` // 处理完成时间
}

// JobListResponse 作业列表响应
type JobListResponse struct {
	Total    int64               `json:"total"`     // 总数量
	Page     int                 `json:"page"`      // 当前页码
	PageSize int                 `json:"page_size"` // 每页大小
	Jobs     []JobStatusResponse `json:"jobs"`      // 作业列表
}

// JobDeleteResponse 作业删除响应
type JobDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	JobID   string `json:"job_id"`  // 作业ID
}

// JobResultResponse 作业结果响应
// Result是分析产出的原始JSON文档
type JobResultResponse struct {
	JobID  string          `json:"job_id"` // 作业ID
	Result json.RawMessage `json:"result"` // 分析结果
}

// BatchRunResponse 批量分析响应
type BatchRunResponse struct {
	Total     int      `json:"total"`            // 发现的集合数
	Succeeded int      `json:"succeeded"`        // 成功的集合数
	Failed    int      `json:"failed"`           // 失败的集合数
	Errors    []string `json:"errors,omitempty"` // 失败集合的错误描述
}

// ConvertJob 将作业模型转换为状态响应
func ConvertJob(job *models.AnalysisJob) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:           job.ID,
		Collection:      job.CollectionName,
		Persona:         job.Persona,
		Task:            job.Task,
		Status:          string(job.Status),
		Stage:           string(job.Stage),
		Progress:        job.Progress,
		DocumentCount:   job.DocumentCount,
		SectionCount:    job.SectionCount,
		SubsectionCount: job.SubsectionCount,
		Error:           job.Error,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
	}

	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}

	return resp
}
