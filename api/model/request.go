package model

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// CollectionSubmitRequest 集合分析提交请求
type CollectionSubmitRequest struct {
	Path string `json:"path" binding:"required,dirpath"` // 集合目录路径
}

// BatchSubmitRequest 批量分析请求
type BatchSubmitRequest struct {
	RootDir     string `json:"root_dir" binding:"required,dirpath"`   // 集合根目录
	Concurrency int    `json:"concurrency" binding:"omitempty,min=1"` // 并发处理的集合数
}

// JobStatusRequest 作业状态查询请求
type JobStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 作业ID
}

// JobListRequest 作业列表请求
type JobListRequest struct {
	PaginationRequest
	Status     string `form:"status" json:"status" binding:"omitempty"`         // 作业状态过滤
	Collection string `form:"collection" json:"collection" binding:"omitempty"` // 集合名称过滤
}

// JobDeleteRequest 作业删除请求
type JobDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 作业ID
}
