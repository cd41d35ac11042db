package analyzer

import (
	"github.com/sirupsen/logrus"
)

// DocumentBlocks 单个文档的文本块输入
type DocumentBlocks struct {
	Document string      // 文档标识符
	Blocks   []TextBlock // 按页码和阅读顺序排列的文本块
}

// Result 一次分析运行的输出
type Result struct {
	Sections    []ScoredSection     // 入选章节，按重要性排名升序
	Subsections []RefinedSubsection // 精炼子段落，按得分降序
}

// Analyzer 文档分析管线
// 串联分段、清洗、排序、选择和精炼五个阶段
// 每次处理一个集合时构造新实例，内部不持有跨运行的可变状态，
// 多个集合可以并行处理而无需加锁
type Analyzer struct {
	config    Config
	segmenter *Segmenter
	cleaner   *Cleaner
	ranker    *Ranker
	selector  *Selector
	refiner   *Refiner
	logger    *logrus.Logger
}

// Option 分析器配置选项
type Option func(*Analyzer)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New 创建文档分析管线
func New(cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		config:    cfg,
		segmenter: NewSegmenter(),
		cleaner:   NewCleaner(cfg.MinContentLength),
		ranker:    NewRanker(cfg),
		selector:  NewSelector(cfg.MaxSections),
		refiner:   NewRefiner(cfg),
		logger:    logrus.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 对一个集合执行完整的分析流程
// documents 的先后顺序决定章节的遭遇顺序，进而决定平分时的排名
// 查询信息缺失时返回错误；空集合返回空结果而非错误
func (a *Analyzer) Analyze(documents []DocumentBlocks, query Query) (*Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	// 排序器需要完整语料才能拟合向量空间，
	// 因此必须先完成所有文档的分段和清洗
	var sections []Section
	for _, doc := range documents {
		segmented := a.segmenter.Segment(doc.Document, doc.Blocks)
		if len(segmented) == 0 {
			// 无法提取文本的文档跳过，不中断整个集合
			a.logger.WithField("document", doc.Document).Warn("no sections extracted, skipping document")
			continue
		}
		sections = append(sections, a.cleaner.CleanAll(segmented)...)
	}

	a.logger.WithFields(logrus.Fields{
		"documents": len(documents),
		"sections":  len(sections),
	}).Debug("collection segmented")

	scored := a.ranker.Rank(sections, query)
	selected := a.selector.Select(scored)
	subsections := a.refiner.Refine(selected, query)

	a.logger.WithFields(logrus.Fields{
		"selected":    len(selected),
		"subsections": len(subsections),
	}).Info("collection analyzed")

	return &Result{
		Sections:    selected,
		Subsections: subsections,
	}, nil
}
