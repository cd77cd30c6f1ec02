package classify

import "github.com/ekovalyov/docuscan/internal/core/domain"

// weightedTerm is one lexicon entry. Matches are word-boundary and
// case-insensitive; multiword phrases match as written.
type weightedTerm struct {
	phrase string
	weight float64
}

func terms(weight float64, phrases ...string) []weightedTerm {
	out := make([]weightedTerm, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, weightedTerm{phrase: p, weight: weight})
	}
	return out
}

// caseTypeLexicon holds the domain keywords per case type. Phrases that are
// near-unambiguous markers carry weight 2, generic vocabulary weight 1.
var caseTypeLexicon = map[domain.CaseType][]weightedTerm{
	domain.CaseTypeCriminal: append(
		terms(2, "criminal", "felony", "misdemeanor", "indictment", "arraignment", "acquittal", "parole"),
		terms(1, "arrest", "prosecution", "guilty", "plea", "sentence", "jail", "prison",
			"probation", "bail", "bond", "jury", "verdict", "conviction", "offense",
			"murder", "theft", "assault", "robbery", "dui", "dwi")...,
	),
	domain.CaseTypeCivil: append(
		terms(2, "plaintiff", "tort", "negligence", "injunction"),
		terms(1, "civil", "damages", "liability", "breach", "settlement", "mediation",
			"arbitration", "restraining order", "discovery", "deposition", "motion",
			"summary judgment", "litigation", "dispute", "appeal")...,
	),
	domain.CaseTypeCorporate: append(
		terms(2, "merger", "acquisition", "shareholder", "incorporation", "bylaws", "ipo"),
		terms(1, "corporate", "corporation", "securities", "stock", "board of directors",
			"compliance", "regulatory", "sec", "partnership", "llc", "due diligence",
			"intellectual property", "trademark", "patent", "copyright", "trade secret",
			"licensing", "joint venture")...,
	),
	domain.CaseTypeFamily: append(
		terms(2, "divorce", "custody", "child support", "alimony", "prenuptial", "annulment"),
		terms(1, "family", "spousal support", "adoption", "guardianship", "domestic violence",
			"postnuptial", "separation", "marital property", "visitation", "parenting plan")...,
	),
	domain.CaseTypeImmigration: append(
		terms(2, "visa", "green card", "naturalization", "deportation", "asylum", "uscis"),
		terms(1, "immigration", "citizenship", "removal", "refugee", "work permit", "h1b",
			"immigration court", "adjustment of status", "consular processing")...,
	),
	domain.CaseTypeEmployment: append(
		terms(2, "wrongful termination", "workers compensation", "eeoc", "osha", "fmla"),
		terms(1, "employment", "labor", "workplace", "discrimination", "harassment",
			"wage", "salary", "overtime", "benefits", "unemployment", "union",
			"collective bargaining", "workplace safety")...,
	),
	domain.CaseTypeRealEstate: append(
		terms(2, "foreclosure", "easement", "escrow", "eviction", "zoning"),
		terms(1, "real estate", "property", "deed", "title", "mortgage", "landlord",
			"tenant", "lease", "rent", "closing", "hoa", "condominium",
			"commercial property")...,
	),
	domain.CaseTypeTax: append(
		terms(2, "irs", "tax court", "estate tax", "gift tax"),
		terms(1, "tax", "audit", "deduction", "exemption", "penalty", "refund",
			"income tax", "property tax", "sales tax", "tax planning", "tax preparation")...,
	),
	domain.CaseTypeBankruptcy: append(
		terms(2, "bankruptcy", "chapter 7", "chapter 11", "chapter 13", "automatic stay"),
		terms(1, "debtor", "creditor", "discharge", "liquidation", "reorganization",
			"trustee", "proof of claim", "meeting of creditors", "reaffirmation")...,
	),
}

// urgencyLexicon drives the keyword component of the urgency signal. Weights
// sum freely and the total is clamped to [0,1].
var urgencyLexicon = []weightedTerm{
	{"emergency", 0.5},
	{"urgent", 0.5},
	{"asap", 0.5},
	{"statute of limitations", 0.6},
	{"appeal deadline", 0.6},
	{"time sensitive", 0.4},
	{"immediately", 0.4},
	{"immediate", 0.35},
	{"critical", 0.35},
	{"expires", 0.3},
	{"deadline", 0.3},
	{"due date", 0.25},
	{"time limit", 0.25},
	{"response required", 0.25},
	{"hearing", 0.15},
	{"trial", 0.15},
	{"deposition", 0.1},
}

// urgencyDatePatterns are phrase-level signals equivalent to a near deadline
// even when no parseable date appears in the text.
var urgencyDatePatterns = []string{
	`(?i)\b(?:due|expires?|deadline|hearing|trial|filing)\s+(?:today|tomorrow|this\s+week)\b`,
	`(?i)\bdeadline\s+today\b`,
	`(?i)\b(?:hearing|trial)\s+next\s+week\b`,
}
