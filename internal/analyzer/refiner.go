package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// 句子切分用正则：以句号、问号或感叹号结尾的片段
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]`)

// Refiner 子段落精炼器
// 将入选章节的正文切分为句子粒度的片段，针对同一查询重新评分，
// 在全部章节范围内选出最相关的前M个片段
type Refiner struct {
	maxSubsections    int
	minSentenceLength int
	vocabularySize    int
	ngramMin          int
	ngramMax          int
}

// NewRefiner 创建子段落精炼器
func NewRefiner(cfg Config) *Refiner {
	maxSubs := cfg.MaxSubsections
	if maxSubs <= 0 {
		maxSubs = 5
	}
	minLen := cfg.MinSentenceLength
	if minLen <= 0 {
		minLen = 25
	}
	return &Refiner{
		maxSubsections:    maxSubs,
		minSentenceLength: minLen,
		vocabularySize:    cfg.VocabularySize,
		ngramMin:          cfg.NgramMin,
		ngramMax:          cfg.NgramMax,
	}
}

// 精炼池中的候选片段
type span struct {
	document   string
	pageNumber int
	text       string
	score      float64
}

// Refine 从入选章节中选出全局前M个最相关的句子片段
// 片段评分使用独立于章节级空间的全新TF-IDF空间，
// 因为句子粒度的词汇分布与章节粒度不同，复用会引入偏差
// 平分时按章节排名和片段出现顺序决定先后
func (r *Refiner) Refine(selected []ScoredSection, query Query) []RefinedSubsection {
	// 按章节排名顺序收集候选片段，天然形成稳定的平分顺序
	var pool []span
	for _, sec := range selected {
		for _, text := range r.splitSentences(sec.Body) {
			pool = append(pool, span{
				document:   sec.Document,
				pageNumber: sec.PageNumber,
				text:       text,
			})
		}
	}
	if len(pool) == 0 {
		return nil
	}

	// 句子池上的全新向量空间
	corpus := make([]string, len(pool))
	for i, sp := range pool {
		corpus[i] = sp.text
	}
	vectorizer := NewVectorizer(r.vocabularySize, r.ngramMin, r.ngramMax)
	vectorizer.Fit(corpus)

	if vectorizer.Fitted() {
		queryVec, err := vectorizer.Transform(CleanText(query.Text()))
		if err == nil {
			for i := range pool {
				vec, err := vectorizer.Transform(pool[i].text)
				if err != nil {
					continue
				}
				pool[i].score = CosineSimilarity(queryVec, vec)
			}
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})

	limit := r.maxSubsections
	if limit > len(pool) {
		limit = len(pool)
	}
	result := make([]RefinedSubsection, 0, limit)
	for _, sp := range pool[:limit] {
		result = append(result, RefinedSubsection{
			Document:    sp.document,
			PageNumber:  sp.pageNumber,
			RefinedText: sp.text,
			Score:       sp.score,
		})
	}
	return result
}

// splitSentences 将正文切分为句子片段，过滤过短的碎片
// 末尾没有终结标点的剩余文本同样作为一个片段参与评分
func (r *Refiner) splitSentences(body string) []string {
	indexes := sentencePattern.FindAllStringIndex(body, -1)

	end := 0
	var sentences []string
	for _, idx := range indexes {
		end = idx[1]
		m := strings.TrimSpace(body[idx[0]:idx[1]])
		if len(m) >= r.minSentenceLength {
			sentences = append(sentences, m)
		}
	}

	if rest := strings.TrimSpace(body[end:]); len(rest) >= r.minSentenceLength {
		sentences = append(sentences, rest)
	}
	return sentences
}
