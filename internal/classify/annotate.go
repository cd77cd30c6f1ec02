package classify

import (
	"sort"
	"strings"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

const maxTags = 10

// genericLegalTerms never become tags or client names; they appear in nearly
// every document in the corpus.
var genericLegalTerms = map[string]struct{}{
	"document": {}, "case": {}, "court": {}, "legal": {}, "law": {},
	"attorney": {}, "lawyer": {}, "counsel": {}, "judge": {},
	"plaintiff": {}, "defendant": {}, "state": {}, "government": {},
	"united states": {}, "district court": {}, "supreme court": {},
	"appellate court": {}, "superior court": {},
}

// Annotator derives tags and candidate client names from text plus extracted
// entities.
type Annotator struct{}

func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Tags returns up to maxTags lowercase key terms: frequent content words
// first, entity values appended, deduplicated in that order.
func (a *Annotator) Tags(text string, entities domain.Entities) []string {
	freq := map[string]int{}
	first := map[string]int{}
	for i, tok := range tokenize(text) {
		if len(tok) <= 3 || isStopword(tok) {
			continue
		}
		if _, generic := genericLegalTerms[tok]; generic {
			continue
		}
		freq[tok]++
		if _, ok := first[tok]; !ok {
			first[tok] = i
		}
	}

	termList := make([]string, 0, len(freq))
	for term, n := range freq {
		if n >= 2 {
			termList = append(termList, term)
		}
	}
	// Frequency descending, first occurrence ascending on ties: stable
	// output for identical text.
	sort.Slice(termList, func(i, j int) bool {
		if freq[termList[i]] != freq[termList[j]] {
			return freq[termList[i]] > freq[termList[j]]
		}
		return first[termList[i]] < first[termList[j]]
	})

	tags := []string{}
	seen := map[string]struct{}{}
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || len(tag) <= 3 || len(strings.Fields(tag)) > 3 {
			return
		}
		if _, generic := genericLegalTerms[tag]; generic {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, term := range termList {
		add(term)
	}
	for _, kind := range domain.EntityKinds() {
		for _, v := range entities[kind] {
			add(v)
		}
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// Clients returns candidate client names: extracted persons and
// organizations minus generic legal vocabulary, first-seen order preserved.
func (a *Annotator) Clients(entities domain.Entities) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, kind := range []string{domain.EntityPersons, domain.EntityOrganizations} {
		for _, name := range entities[kind] {
			name = strings.TrimSpace(name)
			if len(name) <= 2 {
				continue
			}
			key := strings.ToLower(name)
			if _, generic := genericLegalTerms[key]; generic {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
