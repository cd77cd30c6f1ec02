package classify

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

// minCaseTypeScore is the floor below which the top case-type score yields
// an unclassified result instead of a weak guess.
const minCaseTypeScore = 0.05

// Urgency band cutoffs. The combined signal in [0,1] is thresholded into the
// four levels: <0.25 low, <0.50 medium, <0.75 high, otherwise critical.
const (
	urgencyMediumCutoff   = 0.25
	urgencyHighCutoff     = 0.50
	urgencyCriticalCutoff = 0.75
	urgencyBandHalfWidth  = 0.125

	urgencyKeywordWeight = 0.6
	urgencyDateWeight    = 0.4
)

type compiledTerm struct {
	re     *regexp.Regexp
	weight float64
}

var (
	caseTypePatterns = map[domain.CaseType][]compiledTerm{}
	urgencyPatterns  []compiledTerm
	nearDatePatterns []*regexp.Regexp
)

func init() {
	for ct, lex := range caseTypeLexicon {
		compiled := make([]compiledTerm, 0, len(lex))
		for _, t := range lex {
			compiled = append(compiled, compiledTerm{
				re:     compileTerm(t.phrase),
				weight: t.weight,
			})
		}
		caseTypePatterns[ct] = compiled
	}
	for _, t := range urgencyLexicon {
		urgencyPatterns = append(urgencyPatterns, compiledTerm{
			re:     compileTerm(t.phrase),
			weight: t.weight,
		})
	}
	for _, p := range urgencyDatePatterns {
		nearDatePatterns = append(nearDatePatterns, regexp.MustCompile(p))
	}
}

func compileTerm(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// RuleClassifier scores documents against fixed lexicons. It is a pure
// function of its input; the clock is injectable for date-proximity tests.
type RuleClassifier struct {
	now func() time.Time
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{now: time.Now}
}

// NewRuleClassifierAt pins the reference clock used for date proximity.
func NewRuleClassifierAt(now func() time.Time) *RuleClassifier {
	return &RuleClassifier{now: now}
}

func (c *RuleClassifier) Classify(text string, entities domain.Entities) (domain.CaseTypeResult, domain.UrgencyResult, error) {
	if !utf8.ValidString(text) {
		return domain.Unclassified(), domain.UrgencyResult{},
			domain.WrapError(domain.ErrClassification, "classify", errors.New("text is not valid utf-8"))
	}
	if strings.TrimSpace(text) == "" {
		// No signal at all: unclassified, default medium urgency.
		return domain.Unclassified(), domain.UrgencyResult{Level: domain.UrgencyMedium}, nil
	}

	caseResult := c.classifyCaseType(text)
	urgency := c.classifyUrgency(text, entities)
	return caseResult, urgency, nil
}

// classifyCaseType scores every candidate type and keeps the first maximum in
// lexicographic order, so ties resolve deterministically to the
// lexicographically-first case type.
func (c *RuleClassifier) classifyCaseType(text string) domain.CaseTypeResult {
	lengthFactor := math.Min(1, 1000/float64(len(text)))

	var (
		best      domain.CaseType
		bestScore float64
		total     float64
	)
	for _, ct := range domain.CaseTypes() {
		score := c.scoreCaseType(text, ct, lengthFactor)
		total += score
		if score > bestScore {
			best, bestScore = ct, score
		}
	}

	if bestScore < minCaseTypeScore {
		return domain.Unclassified()
	}
	confidence := clamp01(bestScore / total)
	return domain.ClassifiedAs(best, confidence)
}

func (c *RuleClassifier) scoreCaseType(text string, ct domain.CaseType, lengthFactor float64) float64 {
	lex := caseTypePatterns[ct]
	var hits float64
	matched := 0
	for _, t := range lex {
		n := len(t.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		hits += t.weight * float64(n)
		matched++
	}
	if matched == 0 {
		return 0
	}
	diversity := float64(matched) / float64(len(lex))
	return hits * diversity * lengthFactor
}

func (c *RuleClassifier) classifyUrgency(text string, entities domain.Entities) domain.UrgencyResult {
	keywordSignal := urgencyKeywordSignal(text)
	dateSignal := c.dateProximitySignal(entities)

	combined := urgencyKeywordWeight*keywordSignal + urgencyDateWeight*dateSignal
	level, confidence := urgencyFromScore(combined)
	return domain.UrgencyResult{Level: level, Confidence: confidence}
}

func urgencyKeywordSignal(text string) float64 {
	var signal float64
	for _, t := range urgencyPatterns {
		if t.re.MatchString(text) {
			signal += t.weight
		}
	}
	for _, re := range nearDatePatterns {
		if re.MatchString(text) {
			signal += 0.6
			break
		}
	}
	return clamp01(signal)
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
}

// dateProximitySignal maps the nearest future extracted date onto [0,1]:
// due within a day 1.0, a week 0.7, a month 0.4, anything later 0.1.
// Past dates and unparseable values contribute nothing.
func (c *RuleClassifier) dateProximitySignal(entities domain.Entities) float64 {
	today := c.now().UTC().Truncate(24 * time.Hour)

	var signal float64
	for _, raw := range entities[domain.EntityDates] {
		parsed, ok := parseDate(raw)
		if !ok {
			continue
		}
		days := int(parsed.Sub(today).Hours() / 24)
		var s float64
		switch {
		case days < 0:
			continue
		case days <= 1:
			s = 1.0
		case days <= 7:
			s = 0.7
		case days <= 30:
			s = 0.4
		default:
			s = 0.1
		}
		if s > signal {
			signal = s
		}
	}
	return signal
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// urgencyFromScore thresholds the combined signal and derives the confidence
// as the distance from the nearest band boundary, normalized by half the band
// width. Scores in the middle of a band are maximally decisive.
func urgencyFromScore(score float64) (domain.UrgencyLevel, float64) {
	switch {
	case score < urgencyMediumCutoff:
		return domain.UrgencyLow, clamp01((urgencyMediumCutoff - score) / urgencyBandHalfWidth)
	case score < urgencyHighCutoff:
		d := math.Min(score-urgencyMediumCutoff, urgencyHighCutoff-score)
		return domain.UrgencyMedium, clamp01(d / urgencyBandHalfWidth)
	case score < urgencyCriticalCutoff:
		d := math.Min(score-urgencyHighCutoff, urgencyCriticalCutoff-score)
		return domain.UrgencyHigh, clamp01(d / urgencyBandHalfWidth)
	default:
		return domain.UrgencyCritical, clamp01((score - urgencyCriticalCutoff) / urgencyBandHalfWidth)
	}
}
