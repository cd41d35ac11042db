package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRefine 测试子段落精炼
func TestRefine(t *testing.T) {
	cfg := DefaultConfig()
	query := Query{PersonaRole: "Food Contractor", Task: "Prepare a vegetarian buffet menu"}

	selected := []ScoredSection{
		{
			Section: Section{
				Document: "menu.pdf", PageNumber: 2,
				Body: "The vegetarian buffet menu includes roasted vegetables and fresh salads. " +
					"Guests often ask about gluten free options for the buffet. " +
					"Parking is available behind the venue for all visitors of the event.",
			},
			Score: 0.8, Rank: 1,
		},
		{
			Section: Section{
				Document: "logistics.pdf", PageNumber: 5,
				Body: "Tables should be arranged one hour before the event starts properly. " +
					"A vegetarian menu reduces preparation complexity for the kitchen staff.",
			},
			Score: 0.5, Rank: 2,
		},
	}

	t.Run("returns at most max subsections", func(t *testing.T) {
		limited := cfg
		limited.MaxSubsections = 2
		result := NewRefiner(limited).Refine(selected, query)
		assert.LessOrEqual(t, len(result), 2)
	})

	t.Run("most relevant sentence wins", func(t *testing.T) {
		result := NewRefiner(cfg).Refine(selected, query)
		require.NotEmpty(t, result)
		assert.Contains(t, strings.ToLower(result[0].RefinedText), "vegetarian")
	})

	t.Run("subsections keep document and page", func(t *testing.T) {
		result := NewRefiner(cfg).Refine(selected, query)
		sources := map[string]int{"menu.pdf": 2, "logistics.pdf": 5}
		for _, sub := range result {
			page, ok := sources[sub.Document]
			require.True(t, ok, "子段落必须来自入选章节")
			assert.Equal(t, page, sub.PageNumber)
		}
	})

	t.Run("scores sorted descending", func(t *testing.T) {
		result := NewRefiner(cfg).Refine(selected, query)
		for i := 1; i < len(result); i++ {
			assert.GreaterOrEqual(t, result[i-1].Score, result[i].Score)
		}
	})

	t.Run("empty selection yields no subsections", func(t *testing.T) {
		result := NewRefiner(cfg).Refine(nil, query)
		assert.Empty(t, result)
	})
}

// TestSplitSentences 测试句子切分与碎片过滤
func TestSplitSentences(t *testing.T) {
	refiner := NewRefiner(DefaultConfig())

	t.Run("splits on terminators", func(t *testing.T) {
		body := "This is the first complete sentence of the body. " +
			"Here comes the second complete sentence! " +
			"And is this the third complete sentence?"
		sentences := refiner.splitSentences(body)
		assert.Len(t, sentences, 3)
	})

	t.Run("short fragments filtered", func(t *testing.T) {
		body := "Ok. This sentence is clearly long enough to be kept around."
		sentences := refiner.splitSentences(body)
		require.Len(t, sentences, 1)
		assert.Contains(t, sentences[0], "long enough")
	})

	t.Run("trailing text without terminator kept", func(t *testing.T) {
		body := "A proper sentence ends with punctuation here. " +
			"this trailing clause has no terminator but enough length"
		sentences := refiner.splitSentences(body)
		assert.Len(t, sentences, 2)
	})
}
