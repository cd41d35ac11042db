package collection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
)

// TestLoadRequest 测试集合请求的加载与校验
func TestLoadRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		content := `{
			"challenge_info": {"challenge_id": "round_1b_002", "test_case_name": "travel_planner"},
			"documents": [{"filename": "cities.pdf", "title": "Cities"}],
			"persona": {"role": "Travel Planner"},
			"job_to_be_done": {"task": "Plan a trip of 4 days"}
		}`
		path := writeTempRequest(t, content)

		req, err := LoadRequest(path)
		require.NoError(t, err)
		assert.Equal(t, "Travel Planner", req.Persona.Role)
		assert.Equal(t, "round_1b_002", req.ChallengeInfo.ChallengeID)
		require.Len(t, req.Documents, 1)
		assert.Equal(t, "cities.pdf", req.Documents[0].Filename)

		query := req.Query()
		assert.Equal(t, "Travel Planner Plan a trip of 4 days", query.Text())
	})

	t.Run("missing persona is fatal for the collection", func(t *testing.T) {
		content := `{"documents": [], "persona": {}, "job_to_be_done": {"task": "anything"}}`
		path := writeTempRequest(t, content)

		_, err := LoadRequest(path)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("missing task is fatal for the collection", func(t *testing.T) {
		content := `{"documents": [], "persona": {"role": "Reader"}, "job_to_be_done": {}}`
		path := writeTempRequest(t, content)

		_, err := LoadRequest(path)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeTempRequest(t, "{not json")
		_, err := LoadRequest(path)
		assert.Error(t, err)
	})
}

// TestAssemble 测试结果组装
func TestAssemble(t *testing.T) {
	req := &Request{
		Documents:   []DocumentRef{{Filename: "a.pdf"}, {Filename: "b.pdf"}},
		Persona:     Persona{Role: "HR professional"},
		JobToBeDone: JobToBeDone{Task: "Create fillable forms"},
	}
	analysis := &analyzer.Result{
		Sections: []analyzer.ScoredSection{
			{Section: analyzer.Section{Document: "a.pdf", Title: "Forms", PageNumber: 3}, Score: 0.9, Rank: 1},
			{Section: analyzer.Section{Document: "b.pdf", Title: "Signatures", PageNumber: 7}, Score: 0.4, Rank: 2},
		},
		Subsections: []analyzer.RefinedSubsection{
			{Document: "a.pdf", PageNumber: 3, RefinedText: "To create a fillable form, open the tool.", Score: 0.8},
		},
	}
	now := time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC)

	result := Assemble(req, analysis, now)

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, result.Metadata.InputDocuments)
	assert.Equal(t, "HR professional", result.Metadata.Persona)
	assert.Equal(t, "2025-07-10T15:30:00Z", result.Metadata.ProcessingTimestamp)

	require.Len(t, result.ExtractedSections, 2)
	assert.Equal(t, 1, result.ExtractedSections[0].ImportanceRank)
	assert.Equal(t, "Forms", result.ExtractedSections[0].SectionTitle)
	assert.Equal(t, 3, result.ExtractedSections[0].PageNumber)

	require.Len(t, result.SubsectionAnalysis, 1)
	assert.Equal(t, "a.pdf", result.SubsectionAnalysis[0].Document)
}

// TestAssembleEmptyAnalysis 空分析结果组装为空数组而非null
func TestAssembleEmptyAnalysis(t *testing.T) {
	req := &Request{
		Persona:     Persona{Role: "Reader"},
		JobToBeDone: JobToBeDone{Task: "find"},
	}
	result := Assemble(req, &analyzer.Result{}, time.Now())

	data, err := result.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"extracted_sections": []`)
	assert.Contains(t, string(data), `"subsection_analysis": []`)
	assert.NotContains(t, string(data), "null")
}

// TestResultEncode 测试JSON编码格式
func TestResultEncode(t *testing.T) {
	result := &Result{
		Metadata: Metadata{
			InputDocuments:      []string{"doc.pdf"},
			Persona:             "Chef & Baker",
			JobToBeDone:         "Plan <weekly> menu",
			ProcessingTimestamp: "2025-07-10T15:30:00Z",
		},
		ExtractedSections:  []ExtractedSection{},
		SubsectionAnalysis: []SubsectionAnalysis{},
	}

	data, err := result.Encode()
	require.NoError(t, err)

	// 不转义HTML字符
	assert.Contains(t, string(data), "Plan <weekly> menu")
	// 两空格缩进
	assert.True(t, strings.Contains(string(data), "\n  \"metadata\""))

	// 可以解析回去
	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Metadata, decoded.Metadata)
}

// TestWriteFile 测试结果落盘
func TestWriteFile(t *testing.T) {
	result := &Result{
		ExtractedSections:  []ExtractedSection{},
		SubsectionAnalysis: []SubsectionAnalysis{},
	}
	path := filepath.Join(t.TempDir(), OutputFileName)
	require.NoError(t, result.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "extracted_sections")
}

func writeTempRequest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), InputFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
