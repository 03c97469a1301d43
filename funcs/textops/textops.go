// Package textops is a small library of text computations for the operations registry.
//
// Every computation reads the "text" value from working memory. Register them all with
//
//	reg.BulkDiscover(textops.Candidates())
package textops

import (
	"context"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

const (
	// TextInput is the name of the value every computation reads.
	TextInput = "text"
	// CountInput optionally bounds the number of words returned by FirstWords.
	CountInput = "count"

	DefaultFirstWords = 2

	// AnalysisSchema is the record schema of Analysis.
	AnalysisSchema = "textops.Analysis"
)

var version = semver.MustParse("1.1.0")

// Analysis summarizes a text.
type Analysis struct {
	Words      int      `json:"words"`
	Sentences  int      `json:"sentences"`
	FirstWords []string `json:"first_words"`
	Longest    string   `json:"longest_word"`
}

func (Analysis) Kind() content.Kind { return content.KindRecord }

func (Analysis) TypeName() string { return AnalysisSchema }

// Candidates returns the computations of the package for BulkDiscover. Names are derived from the
// function names.
func Candidates() operations.Library {
	return operations.Library{
		{Fn: FirstWords, Options: []operations.RegisterOption{
			operations.WithDescription("First words of the text"), operations.WithVersion(version),
		}},
		{Fn: WordCount, Options: []operations.RegisterOption{
			operations.WithDescription("Number of words in the text"), operations.WithVersion(version),
		}},
		{Fn: SplitSentences, Options: []operations.RegisterOption{
			operations.WithDescription("Sentences of the text"), operations.WithVersion(version),
		}},
		{Fn: Uppercase, Options: []operations.RegisterOption{
			operations.WithDescription("Text in upper case"), operations.WithVersion(version),
		}},
		{Fn: AnalyzeText, Options: []operations.RegisterOption{
			operations.WithDescription("Word and sentence statistics of the text"),
			operations.WithVersion(version),
			operations.Blocking(),
		}},
	}
}

// FirstWords returns the first words of the text. The number of words is read from the optional
// "count" Number and defaults to DefaultFirstWords.
func FirstWords(wm *memory.WorkingMemory) ([]content.Text, error) {
	text, err := wm.GetText(TextInput)
	if err != nil {
		return nil, err
	}

	n := DefaultFirstWords
	if _, ok := wm.GetOptional(CountInput); ok {
		count, err := memory.As[content.Number](wm, CountInput)
		if err != nil {
			return nil, err
		}
		n = max(int(count.Number), 0)
	}

	words := strings.Fields(text.Text)
	words = words[:min(n, len(words))]

	out := make([]content.Text, 0, len(words))
	for _, w := range words {
		out = append(out, content.NewText(w))
	}

	return out, nil
}

// WordCount returns the number of whitespace separated words.
func WordCount(wm *memory.WorkingMemory) (content.Number, error) {
	text, err := wm.GetText(TextInput)
	if err != nil {
		return content.Number{}, err
	}

	return content.NewNumber(float64(len(strings.Fields(text.Text)))), nil
}

// SplitSentences splits the text after '.', '!' and '?'. Empty sentences are dropped.
func SplitSentences(wm *memory.WorkingMemory) ([]content.Text, error) {
	text, err := wm.GetText(TextInput)
	if err != nil {
		return nil, err
	}

	out := make([]content.Text, 0)
	for _, s := range sentences(text.Text) {
		out = append(out, content.NewText(s))
	}

	return out, nil
}

// Uppercase returns the text in upper case.
func Uppercase(ctx context.Context, wm *memory.WorkingMemory) (content.Text, error) {
	if err := ctx.Err(); err != nil {
		return content.Text{}, err
	}
	text, err := wm.GetText(TextInput)
	if err != nil {
		return content.Text{}, err
	}

	return content.NewText(strings.ToUpper(text.Text)), nil
}

// AnalyzeText returns word and sentence statistics of the text.
func AnalyzeText(wm *memory.WorkingMemory) (Analysis, error) {
	text, err := wm.GetText(TextInput)
	if err != nil {
		return Analysis{}, err
	}

	words := strings.Fields(text.Text)
	a := Analysis{
		Words:      len(words),
		Sentences:  len(sentences(text.Text)),
		FirstWords: words[:min(DefaultFirstWords, len(words))],
	}
	for _, w := range words {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if len(w) > len(a.Longest) {
			a.Longest = w
		}
	}

	return a, nil
}

func sentences(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
