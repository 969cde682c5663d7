// Package analysis computes the linguistic profile of an article: cleaned
// text, word frequencies, part-of-speech tags and named entities.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

const (
	DefaultChunkSize = 800
	DefaultTopWords  = 8
)

// EntityGroup counts the entities of one label.
type EntityGroup struct {
	Total    int            `json:"_total"`
	Entities map[string]int `json:"entities"`
}

// Result is the analysis of one article.
type Result struct {
	// Text is the cleaned article with stop words removed.
	Text        string
	CommonWords map[string]int
	Frequencies map[string]int
	POSTags     map[string]string
	Entities    map[string]EntityGroup
	// WordCount and Length describe the original text.
	WordCount int
	Length    int
}

// Token is a tagged word.
type Token struct {
	Text string
	Tag  string
}

// Entity is a named entity with its label.
type Entity struct {
	Text  string
	Label string
}

// NLP tags tokens and recognizes entities in a piece of text.
type NLP interface {
	Tag(text string) ([]Token, error)
	Entities(text string) ([]Entity, error)
}

// Analyzer is a long-lived handle; build it once and reuse it for every
// article of a run.
type Analyzer struct {
	nlp       NLP
	stopWords map[string]bool
	chunkSize int
	topWords  int
}

// New creates an analyzer backed by the prose models.
func New() (*Analyzer, error) {
	nlp, err := NewProse()
	if err != nil {
		return nil, err
	}
	return NewWithNLP(nlp), nil
}

// NewWithNLP creates an analyzer over any NLP implementation.
func NewWithNLP(nlp NLP) *Analyzer {
	return &Analyzer{
		nlp:       nlp,
		stopWords: DefaultStopWords(),
		chunkSize: DefaultChunkSize,
		topWords:  DefaultTopWords,
	}
}

// Analyze profiles text. Frequencies and tags come from the cleaned,
// stop-word-free chunks; entities come from the original text so that
// capitalization survives.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	res := &Result{
		Frequencies: make(map[string]int),
		POSTags:     make(map[string]string),
		Entities:    make(map[string]EntityGroup),
		WordCount:   len(strings.Fields(text)),
		Length:      utf8.RuneCountInString(text),
	}

	var (
		kept  []string
		order []string
	)
	for _, chunk := range Chunk(CleanText(text), a.chunkSize) {
		words := a.removeStopWords(chunk)
		if len(words) == 0 {
			continue
		}
		for _, w := range words {
			if res.Frequencies[w] == 0 {
				order = append(order, w)
			}
			res.Frequencies[w]++
		}
		kept = append(kept, strings.Join(words, " "))
	}
	res.Text = strings.TrimSpace(strings.Join(kept, " "))
	res.CommonWords = MostCommon(res.Frequencies, order, a.topWords)

	for _, chunk := range kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens, err := a.nlp.Tag(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to tag text: %w", err)
		}
		for _, tok := range tokens {
			res.POSTags[tok.Text] = tok.Tag
		}
	}

	for _, chunk := range Chunk(text, a.chunkSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities, err := a.nlp.Entities(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to extract entities: %w", err)
		}
		for _, e := range entities {
			g, ok := res.Entities[e.Label]
			if !ok {
				g = EntityGroup{Entities: make(map[string]int)}
			}
			g.Total++
			g.Entities[e.Text]++
			res.Entities[e.Label] = g
		}
	}

	return res, nil
}

func (a *Analyzer) removeStopWords(chunk string) []string {
	var words []string
	for _, w := range strings.Fields(chunk) {
		if !a.stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

// MostCommon returns the n highest counts. Ties keep the order in which
// words were first seen.
func MostCommon(freqs map[string]int, order []string, n int) map[string]int {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return freqs[ranked[i]] > freqs[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make(map[string]int, len(ranked))
	for _, w := range ranked {
		out[w] = freqs[w]
	}
	return out
}

// Prose implements NLP with the prose tagger and entity extractor. The
// models are loaded once and shared by every document.
type Prose struct {
	model *prose.Model
}

// NewProse loads the prose models.
func NewProse() (*Prose, error) {
	seed, err := prose.NewDocument("Models are loaded once.", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to load language models: %w", err)
	}
	return &Prose{model: seed.Model}, nil
}

func (p *Prose) document(text string) (*prose.Document, error) {
	return prose.NewDocument(text, prose.WithSegmentation(false), prose.UsingModel(p.model))
}

// Tag returns the part-of-speech tag of every token.
func (p *Prose) Tag(text string) ([]Token, error) {
	doc, err := p.document(text)
	if err != nil {
		return nil, err
	}
	var out []Token
	for _, tok := range doc.Tokens() {
		out = append(out, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return out, nil
}

// Entities returns the named entities of text.
func (p *Prose) Entities(text string) ([]Entity, error) {
	doc, err := p.document(text)
	if err != nil {
		return nil, err
	}
	var out []Entity
	for _, ent := range doc.Entities() {
		out = append(out, Entity{Text: ent.Text, Label: ent.Label})
	}
	return out, nil
}
