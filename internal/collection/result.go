package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// Metadata 结果元数据
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection 输出中的章节记录
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis 输出中的子段落记录
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Result 一个集合的分析结果
// 对应集合目录下的challenge1b_output.json
type Result struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

// Assemble 将分析输出与请求元数据组装为结果结构
// 章节按importance_rank升序，子段落按精炼得分降序（分析器已排好）
// 空结果得到空数组而不是null，保证输出结构稳定
func Assemble(req *Request, analysis *analyzer.Result, now time.Time) *Result {
	docs := make([]string, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, d.Filename)
	}

	sections := make([]ExtractedSection, 0, len(analysis.Sections))
	for _, s := range analysis.Sections {
		sections = append(sections, ExtractedSection{
			Document:       s.Document,
			SectionTitle:   s.Title,
			ImportanceRank: s.Rank,
			PageNumber:     s.PageNumber,
		})
	}

	subsections := make([]SubsectionAnalysis, 0, len(analysis.Subsections))
	for _, s := range analysis.Subsections {
		subsections = append(subsections, SubsectionAnalysis{
			Document:    s.Document,
			RefinedText: s.RefinedText,
			PageNumber:  s.PageNumber,
		})
	}

	return &Result{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             req.Persona.Role,
			JobToBeDone:         req.JobToBeDone.Task,
			ProcessingTimestamp: now.Format(time.RFC3339),
		},
		ExtractedSections:  sections,
		SubsectionAnalysis: subsections,
	}
}

// Encode 将结果编码为两空格缩进的JSON，不转义HTML字符
func (r *Result) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode result: %v", err)
	}
	return buf.Bytes(), nil
}

// WriteFile 将结果写入文件
func (r *Result) WriteFile(path string) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %v", err)
	}
	return nil
}
