package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// 集合目录中约定的输入输出文件名
const (
	// InputFileName 集合请求文件名
	InputFileName = "challenge1b_input.json"
	// OutputFileName 分析结果文件名
	OutputFileName = "challenge1b_output.json"
	// DocumentsDirName 集合中存放文档的子目录
	DocumentsDirName = "PDFs"
)

// ErrInvalidRequest 请求缺少必要字段
var ErrInvalidRequest = errors.New("invalid collection request")

// ChallengeInfo 挑战元数据，原样透传不参与处理
type ChallengeInfo struct {
	ChallengeID string `json:"challenge_id,omitempty"`
	TestCase    string `json:"test_case_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// DocumentRef 集合中单个文档的引用
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// Persona 角色描述
type Persona struct {
	Role string `json:"role"`
}

// JobToBeDone 任务描述
type JobToBeDone struct {
	Task string `json:"task"`
}

// Request 一个集合的分析请求
// 对应集合目录下的challenge1b_input.json
type Request struct {
	ChallengeInfo ChallengeInfo `json:"challenge_info"`
	Documents     []DocumentRef `json:"documents"`
	Persona       Persona       `json:"persona"`
	JobToBeDone   JobToBeDone   `json:"job_to_be_done"`
}

// Query 将请求中的角色和任务转换为分析查询
func (r *Request) Query() analyzer.Query {
	return analyzer.Query{
		PersonaRole: r.Persona.Role,
		Task:        r.JobToBeDone.Task,
	}
}

// Validate 校验请求的完整性
// 角色或任务缺失对该集合是致命错误，但不影响其他集合
func (r *Request) Validate() error {
	if r.Persona.Role == "" {
		return fmt.Errorf("%w: missing persona role", ErrInvalidRequest)
	}
	if r.JobToBeDone.Task == "" {
		return fmt.Errorf("%w: missing job task", ErrInvalidRequest)
	}
	return nil
}

// LoadRequest 从文件加载集合请求
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %v", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %v", err)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
