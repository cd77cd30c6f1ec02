package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s*\d{4}\b`),
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+\d{1,2},\s*\d{4}\b`),
	}
	moneyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d{2})?(?:\s?(?:million|billion))?`),
		regexp.MustCompile(`\b\d[\d,]*(?:\.\d{2})?\s+dollars\b`),
	}
	personPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Hon|Judge|Justice)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`),
	}
	captionPattern = regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z&.,]*)*)\s+v\.\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z&.,]*)*)`)
	orgPatterns    = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:[A-Z][A-Za-z&]+\s+)+(?:Inc|LLC|LLP|Ltd|Corp|Co|Company|Corporation|Partners|Group|Associates)\.?\b`),
	}
	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s*§+\s*\d+[a-z]?(?:\([a-z0-9]+\))*`),
		regexp.MustCompile(`\b\d+\s+F\.\s?(?:2d|3d|4th)\s+\d+\b`),
		regexp.MustCompile(`\b\d+\s+U\.S\.\s+\d+\b`),
		regexp.MustCompile(`§+\s*\d+(?:\.\d+)*(?:\([a-z0-9]+\))*`),
	}

	orgSuffixPattern = regexp.MustCompile(`\b(?:Inc|LLC|LLP|Ltd|Corp|Co|Company|Corporation|Partners|Group|Associates)\.?$`)
)

// EntityExtractor derives structured entities from raw text with fixed
// pattern sets. Pure: same text, same output.
type EntityExtractor struct{}

func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{}
}

// Extract returns every entity kind, each holding distinct values in order of
// first occurrence. Empty text yields empty value lists, never an error.
func (e *EntityExtractor) Extract(text string) domain.Entities {
	entities := domain.Entities{}
	for _, kind := range domain.EntityKinds() {
		entities[kind] = []string{}
	}
	if strings.TrimSpace(text) == "" {
		return entities
	}

	entities[domain.EntityDates] = collectMatches(text, datePatterns)
	entities[domain.EntityMonetaryAmounts] = collectMatches(text, moneyPatterns)
	entities[domain.EntityLegalCitations] = collectMatches(text, citationPatterns)

	persons := matchesWithOffsets(text, personPatterns)
	orgs := matchesWithOffsets(text, orgPatterns)

	// Caption parties ("Smith v. Acme Corp") split between persons and
	// organizations on the corporate-suffix heuristic.
	for _, m := range captionPattern.FindAllStringSubmatchIndex(text, -1) {
		for _, g := range []int{1, 2} {
			start, end := m[2*g], m[2*g+1]
			if start < 0 {
				continue
			}
			party := offsetMatch{start: start, value: strings.TrimRight(text[start:end], ".,")}
			if orgSuffixPattern.MatchString(party.value) {
				orgs = append(orgs, party)
			} else {
				persons = append(persons, party)
			}
		}
	}

	entities[domain.EntityPersons] = dedupeOrdered(persons)
	entities[domain.EntityOrganizations] = dedupeOrdered(orgs)
	return entities
}

type offsetMatch struct {
	start int
	value string
}

func matchesWithOffsets(text string, patterns []*regexp.Regexp) []offsetMatch {
	var out []offsetMatch
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, offsetMatch{start: loc[0], value: text[loc[0]:loc[1]]})
		}
	}
	return out
}

// collectMatches merges the hits of several patterns in text order and
// deduplicates exact strings, keeping the first occurrence.
func collectMatches(text string, patterns []*regexp.Regexp) []string {
	return dedupeOrdered(matchesWithOffsets(text, patterns))
}

func dedupeOrdered(matches []offsetMatch) []string {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	seen := make(map[string]struct{}, len(matches))
	out := []string{}
	for _, m := range matches {
		v := strings.TrimSpace(m.value)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
