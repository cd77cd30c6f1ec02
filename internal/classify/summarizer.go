package classify

import (
	"sort"
	"strings"
)

const (
	defaultSummarySentences = 3
	minSummarySentenceLen   = 20
)

// Summarizer produces an extractive summary: the highest-salience sentences
// under document-level term-frequency weighting, emitted in original order.
type Summarizer struct {
	maxSentences int
}

func NewSummarizer() *Summarizer {
	return &Summarizer{maxSentences: defaultSummarySentences}
}

func (s *Summarizer) Summarize(text string) string {
	sentences := make([]string, 0, 8)
	for _, sent := range splitSentences(text) {
		if len(sent) >= minSummarySentenceLen {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) <= s.maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := map[string]int{}
	for _, tok := range tokenize(text) {
		if len(tok) < 3 || isStopword(tok) {
			continue
		}
		freq[tok]++
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		var score float64
		for _, tok := range tokenize(sent) {
			score += float64(freq[tok])
		}
		ranked = append(ranked, scored{index: i, score: score})
	}
	// Stable sort keeps earlier sentences ahead on equal salience, so the
	// output is deterministic for identical input.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[:s.maxSentences]
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	out := make([]string, 0, len(top))
	for _, sc := range top {
		out = append(out, sentences[sc.index])
	}
	return strings.Join(out, " ")
}
