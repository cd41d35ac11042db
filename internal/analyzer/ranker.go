package analyzer

import (
	"sort"
)

// Ranker 相关性排序器
// 在整个集合的章节语料上拟合TF-IDF空间，对所有章节统一评分排序
type Ranker struct {
	vocabularySize int
	ngramMin       int
	ngramMax       int
}

// NewRanker 创建相关性排序器
func NewRanker(cfg Config) *Ranker {
	return &Ranker{
		vocabularySize: cfg.VocabularySize,
		ngramMin:       cfg.NgramMin,
		ngramMax:       cfg.NgramMax,
	}
}

// Rank 对章节按与查询的相似度评分并排序
// 输入章节需处于稳定的遭遇顺序（文档顺序、页码顺序、分段顺序），
// 得分相同的章节保持该顺序，保证排序结果确定
// 退化情形（少于2个章节或语料无有效词项）下全部得分为0，维持遭遇顺序
func (r *Ranker) Rank(sections []Section, query Query) []ScoredSection {
	scored := make([]ScoredSection, len(sections))
	for i, s := range sections {
		scored[i] = ScoredSection{Section: s}
	}
	if len(sections) == 0 {
		return scored
	}

	if len(sections) >= 2 {
		// 标题参与向量化，与正文共同描述章节内容
		corpus := make([]string, len(sections))
		for i, s := range sections {
			corpus[i] = s.Title + " " + s.Body
		}

		vectorizer := NewVectorizer(r.vocabularySize, r.ngramMin, r.ngramMax)
		vectorizer.Fit(corpus)

		if vectorizer.Fitted() {
			// 查询不参与拟合，仅投影到语料空间
			queryVec, err := vectorizer.Transform(CleanText(query.Text()))
			if err == nil {
				for i := range scored {
					sectionVec, err := vectorizer.Transform(corpus[i])
					if err != nil {
						continue
					}
					scored[i].Score = CosineSimilarity(queryVec, sectionVec)
				}
			}
		}
	}

	// 按得分降序稳定排序，平分时保持遭遇顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Selector 章节选择器
// 从全集合的评分章节中取前N个并赋予重要性排名
type Selector struct {
	maxSections int
}

// NewSelector 创建章节选择器
func NewSelector(maxSections int) *Selector {
	if maxSections <= 0 {
		maxSections = 10
	}
	return &Selector{maxSections: maxSections}
}

// Select 截取排名前N的章节并赋予1开始的连续排名
// 超出N的章节被整体丢弃
func (s *Selector) Select(scored []ScoredSection) []ScoredSection {
	limit := s.maxSections
	if limit > len(scored) {
		limit = len(scored)
	}
	selected := make([]ScoredSection, limit)
	copy(selected, scored[:limit])
	for i := range selected {
		selected[i].Rank = i + 1
	}
	return selected
}
