package analyzer

import (
	"errors"
)

// 常用错误定义
var (
	ErrMissingPersona = errors.New("persona role is required")
	ErrMissingTask    = errors.New("task description is required")
)

// TextBlock 文本块
// 外部提取器产出的最小文本单元，携带版式提示信息
type TextBlock struct {
	Text       string  // 原始文本内容
	PageNumber int     // 页码（从1开始）
	FontSize   float64 // 字体大小（提取器无法确定时为0）
	IsBold     bool    // 是否加粗
}

// Section 文档章节
// 由分段器从连续的文本块聚合而成，粗粒度排序的基本单元
type Section struct {
	Document   string      // 所属文档标识符
	Title      string      // 章节标题（启发式识别）
	Body       string      // 章节正文
	PageNumber int         // 起始页码（取第一个文本块的页码）
	Blocks     []TextBlock // 构成该章节的文本块序列
}

// Query 查询信息
// 由角色描述和任务描述组合而成，代表一次分析的信息需求
type Query struct {
	PersonaRole string // 角色描述
	Task        string // 任务描述
}

// Text 返回用于向量化的查询文本
// 固定顺序：角色在前，任务在后，单个空格分隔
func (q Query) Text() string {
	return q.PersonaRole + " " + q.Task
}

// Validate 校验查询信息是否完整
func (q Query) Validate() error {
	if q.PersonaRole == "" {
		return ErrMissingPersona
	}
	if q.Task == "" {
		return ErrMissingTask
	}
	return nil
}

// ScoredSection 带评分的章节
// 排序后产生，Rank从1开始且在一次运行内唯一
type ScoredSection struct {
	Section         // 原章节
	Score   float64 // 与查询的相似度得分，范围[0,1]
	Rank    int     // 重要性排名，1为最高
}

// RefinedSubsection 精炼后的子段落
// 从高分章节的正文中按句子粒度重新评分选出
type RefinedSubsection struct {
	Document    string  // 所属文档标识符
	PageNumber  int     // 页码
	RefinedText string  // 精炼文本
	Score       float64 // 句子级相似度得分
}

// Config 分析器配置参数
type Config struct {
	MaxSections       int // 输出的最大章节数
	MaxSubsections    int // 输出的最大子段落数（全局，而非每章节）
	VocabularySize    int // 词汇表大小上限
	NgramMin          int // 最小n-gram长度
	NgramMax          int // 最大n-gram长度
	MinContentLength  int // 章节正文的最小长度（字符数）
	MinSentenceLength int // 精炼阶段句子的最小长度（字符数）
}

// DefaultConfig 返回默认分析器配置
func DefaultConfig() Config {
	return Config{
		MaxSections:       10,
		MaxSubsections:    5,
		VocabularySize:    500,
		NgramMin:          1,
		NgramMax:          2,
		MinContentLength:  20,
		MinSentenceLength: 25,
	}
}
