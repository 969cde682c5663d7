package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNLP tags every token "NN" and reports capitalized words as entities
type fakeNLP struct {
	tagged   []string
	entities []string
	err      error
}

func (f *fakeNLP) Tag(text string) ([]Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tagged = append(f.tagged, text)
	var out []Token
	for _, w := range strings.Fields(text) {
		out = append(out, Token{Text: w, Tag: "NN"})
	}
	return out, nil
}

func (f *fakeNLP) Entities(text string) ([]Entity, error) {
	f.entities = append(f.entities, text)
	var out []Entity
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,")
		if w != "" && w[0] >= 'A' && w[0] <= 'Z' {
			out = append(out, Entity{Text: w, Label: "GPE"})
		}
	}
	return out, nil
}

// TestCleanText verifies the normalization rules
func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and punctuation", "Hello, World!", "hello world"},
		{"digits removed", "In 2024 prices rose 5%", "in prices rose"},
		{"intra-word hyphen kept", "A well-known long-term plan", "well-known long-term plan"},
		{"dangling hyphens dropped", "pre- and -post", "pre and post"},
		{"underscore removed", "snake_case value", "snake case value"},
		{"single letters dropped", "I saw a U S plane", "saw plane"},
		{"contractions split", "don't won't", "don won"},
		{"accents kept", "Café Niño", "café niño"},
		{"whitespace collapsed", "  many \n\t spaces  ", "many spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

// TestChunk verifies word-boundary splitting under the size limit
func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"aaa bbb", "ccc"}, Chunk("aaa bbb ccc", 7))
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, Chunk("aaa bbb ccc", 6))
	assert.Equal(t, []string{"toolongword", "x"}, Chunk("toolongword x", 5))
	assert.Nil(t, Chunk("   ", 10))

	for _, c := range Chunk(strings.Repeat("word ", 500), DefaultChunkSize) {
		assert.LessOrEqual(t, len(c), DefaultChunkSize)
	}
}

// TestMostCommon verifies ranking and first-seen tie order
func TestMostCommon(t *testing.T) {
	freqs := map[string]int{"a": 1, "b": 3, "c": 1, "d": 2}
	order := []string{"a", "b", "c", "d"}

	assert.Equal(t, map[string]int{"b": 3, "d": 2, "a": 1}, MostCommon(freqs, order, 3))
	assert.Len(t, MostCommon(freqs, order, 10), 4)
}

// TestDefaultStopWords verifies the custom additions
func TestDefaultStopWords(t *testing.T) {
	stop := DefaultStopWords()

	for _, w := range []string{"the", "and", "mr", "etc", "ll", "el"} {
		assert.True(t, stop[w], w)
	}
	assert.False(t, stop["minister"])
}

// TestAnalyze verifies frequencies, common words, tags and entities
func TestAnalyze(t *testing.T) {
	nlp := &fakeNLP{}
	analyzer := NewWithNLP(nlp)
	text := "The Senate voted. The Senate debated the budget, and Mr. Smith praised the budget vote in 2024."

	res, err := analyzer.Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "senate voted senate debated budget smith praised budget vote", res.Text)
	assert.Equal(t, 2, res.Frequencies["senate"])
	assert.Equal(t, 2, res.Frequencies["budget"])
	assert.NotContains(t, res.Frequencies, "the")
	assert.NotContains(t, res.Frequencies, "mr")
	assert.Len(t, res.CommonWords, 7)
	assert.Equal(t, "NN", res.POSTags["budget"])

	assert.Equal(t, 17, res.WordCount)
	assert.Equal(t, len(text), res.Length)

	gpe := res.Entities["GPE"]
	assert.Equal(t, 2, gpe.Entities["Senate"])
	assert.Equal(t, 1, gpe.Entities["Smith"])
	assert.Equal(t, 6, gpe.Total, "The x2, Senate x2, Mr, Smith")

	require.Len(t, nlp.entities, 1)
	assert.Equal(t, text, nlp.entities[0], "entities read the original text")
}

// TestAnalyze_CommonWordsCapped verifies the top-word limit
func TestAnalyze_CommonWordsCapped(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta theta kappa lambda sigma alpha"

	res, err := NewWithNLP(&fakeNLP{}).Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Len(t, res.CommonWords, DefaultTopWords)
	assert.Equal(t, 2, res.CommonWords["alpha"])
	assert.Contains(t, res.CommonWords, "theta")
	assert.NotContains(t, res.CommonWords, "lambda")
}

// TestAnalyze_LongTextIsChunked verifies tagging runs per chunk
func TestAnalyze_LongTextIsChunked(t *testing.T) {
	nlp := &fakeNLP{}
	text := strings.Repeat("parliament approved reforms ", 200)

	res, err := NewWithNLP(nlp).Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Greater(t, len(nlp.tagged), 1)
	assert.Greater(t, len(nlp.entities), 1)
	assert.Equal(t, 200, res.Frequencies["parliament"])
}

// TestAnalyze_NLPError verifies tagger failures are returned
func TestAnalyze_NLPError(t *testing.T) {
	_, err := NewWithNLP(&fakeNLP{err: errors.New("model unavailable")}).Analyze(context.Background(), "some words here")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

// TestAnalyze_Cancelled verifies a cancelled context stops analysis
func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithNLP(&fakeNLP{}).Analyze(ctx, "some words here")

	assert.ErrorIs(t, err, context.Canceled)
}

// TestProse verifies the prose-backed implementation end to end
func TestProse(t *testing.T) {
	analyzer, err := New()
	require.NoError(t, err)

	res, err := analyzer.Analyze(context.Background(), "President Obama visited Paris on Monday to discuss climate policy with European leaders.")
	require.NoError(t, err)

	assert.NotEmpty(t, res.POSTags)
	assert.Contains(t, res.Frequencies, "climate")
	assert.Greater(t, res.WordCount, 0)
}
