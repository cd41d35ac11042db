package analyzer

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// 相似度低于该阈值时视为精确的0，保证结果确定性
const scoreEpsilon = 1e-9

// ErrNotFitted 向量化器未拟合时调用Transform返回的错误
var ErrNotFitted = errors.New("vectorizer has not been fitted")

// 分词用正则：连续的字母数字序列（含撇号连接）
var tokenPattern = regexp.MustCompile(`\p{L}[\p{L}\p{N}]*(?:['’][\p{L}]+)*`)

// Vectorizer TF-IDF向量化器
// 在语料上拟合出有界词汇表和IDF权重，将文本映射为稀疏向量
// 每次分析运行构造全新实例，不共享任何跨运行状态
type Vectorizer struct {
	vocabularySize int            // 词汇表大小上限
	ngramMin       int            // 最小n-gram长度
	ngramMax       int            // 最大n-gram长度
	vocabulary     map[string]int // 词项到维度下标的映射
	idf            []float64      // 各维度的IDF权重
	fitted         bool           // 是否已完成拟合
	stopwords      map[string]struct{}
}

// NewVectorizer 创建未拟合的TF-IDF向量化器
func NewVectorizer(vocabularySize, ngramMin, ngramMax int) *Vectorizer {
	if vocabularySize <= 0 {
		vocabularySize = 500
	}
	if ngramMin <= 0 {
		ngramMin = 1
	}
	if ngramMax < ngramMin {
		ngramMax = ngramMin
	}
	return &Vectorizer{
		vocabularySize: vocabularySize,
		ngramMin:       ngramMin,
		ngramMax:       ngramMax,
		stopwords:      defaultStopwords(),
	}
}

// Fit 在语料上拟合词汇表和IDF权重
// 词汇表按文档频率从高到低截断，频率相同时按字典序排列以保证可复现
// 空语料或无有效词项时向量化器保持未拟合状态（不报错，得分一律为0）
func (v *Vectorizer) Fit(corpus []string) {
	if len(corpus) == 0 {
		return
	}

	// 统计各词项的文档频率
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return
	}

	// 词汇表截断：文档频率优先，字典序兜底
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.vocabularySize {
		terms = terms[:v.vocabularySize]
	}
	// 维度下标按字典序分配，与截断顺序无关
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// 平滑IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.fitted = true
}

// Fitted 返回向量化器是否已完成拟合
func (v *Vectorizer) Fitted() bool { return v.fitted }

// Dimension 返回向量维度
func (v *Vectorizer) Dimension() int { return len(v.idf) }

// Transform 将文本映射为语料空间中的L2归一化TF-IDF向量
// 词汇表之外的词项贡献为0；未拟合时返回ErrNotFitted
func (v *Vectorizer) Transform(text string) ([]float64, error) {
	if !v.fitted {
		return nil, ErrNotFitted
	}

	vec := make([]float64, len(v.idf))
	tf := make(map[int]int)
	total := 0
	for _, term := range v.terms(text) {
		if idx, ok := v.vocabulary[term]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}

	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
	}

	// L2归一化
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// terms 生成文本的n-gram词项序列
// 先分词并去除停用词，再按配置的n-gram范围组合相邻词
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var terms []string
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// tokenize 小写化分词并过滤停用词和纯数字
func (v *Vectorizer) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := v.stopwords[t]; isStop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// CosineSimilarity 计算两个向量的余弦相似度
// 任一向量模长为0时返回0（定义的下限行为，不是错误）
// 低于epsilon的结果钳制为精确的0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < scoreEpsilon {
		return 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// defaultStopwords 返回英文停用词集合
func defaultStopwords() map[string]struct{} {
	words := []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
		"for", "of", "with", "by", "is", "are", "was", "were", "be",
		"been", "being", "have", "has", "had", "do", "does", "did",
		"will", "would", "could", "should", "this", "that", "these",
		"those", "i", "you", "he", "she", "it", "we", "they", "me",
		"him", "her", "us", "them", "my", "your", "his", "its", "our",
		"their", "from", "as", "so", "all", "any", "can", "may", "not",
		"if", "then", "else", "into", "about", "over", "under", "out",
		"up", "down", "than", "too", "very", "just", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
