package analyzer

import (
	"strings"
	"unicode/utf8"
)

// Criterion names a scoring rule
type Criterion string

const (
	CriterionTitle       Criterion = "title"
	CriterionDescription Criterion = "description"
	CriterionCanonical   Criterion = "canonical"
	CriterionH1          Criterion = "h1"
	CriterionImageAlt    Criterion = "image_alt"
	CriterionSchema      Criterion = "schema"
	CriterionNoindex     Criterion = "noindex"
)

// ScoreRules is the deduction table used by the score calculator.
// Lengths are counted in characters.
type ScoreRules struct {
	Base int `mapstructure:"base"`

	TitleMinLength int `mapstructure:"title_min_length"`
	TitleMaxLength int `mapstructure:"title_max_length"`
	TitlePenalty   int `mapstructure:"title_penalty"`

	DescriptionMinLength int `mapstructure:"description_min_length"`
	DescriptionMaxLength int `mapstructure:"description_max_length"`
	DescriptionPenalty   int `mapstructure:"description_penalty"`

	CanonicalPenalty int `mapstructure:"canonical_penalty"`

	ExpectedH1Count int `mapstructure:"expected_h1_count"`
	H1Penalty       int `mapstructure:"h1_penalty"`

	ImageAltPenalty    int `mapstructure:"image_alt_penalty"`
	ImageAltPenaltyCap int `mapstructure:"image_alt_penalty_cap"`

	SchemaPenalty  int `mapstructure:"schema_penalty"`
	NoindexPenalty int `mapstructure:"noindex_penalty"`
}

// DefaultScoreRules returns the shipped scoring table
func DefaultScoreRules() ScoreRules {
	return ScoreRules{
		Base: 100,

		TitleMinLength: 10,
		TitleMaxLength: 60,
		TitlePenalty:   10,

		DescriptionMinLength: 50,
		DescriptionMaxLength: 160,
		DescriptionPenalty:   10,

		CanonicalPenalty: 5,

		ExpectedH1Count: 1,
		H1Penalty:       10,

		ImageAltPenalty:    2,
		ImageAltPenaltyCap: 15,

		SchemaPenalty:  10,
		NoindexPenalty: 20,
	}
}

func outsideRange(n, lo, hi int) bool {
	return n < lo || n > hi
}

// Deductions evaluates every rule against the snapshot and returns the ones
// that fired, in table order. It only reads raw snapshot signals.
func (r ScoreRules) Deductions(s *PageSnapshot) []ScoreDeduction {
	deductions := []ScoreDeduction{}
	deduct := func(c Criterion, points int) {
		if points > 0 {
			deductions = append(deductions, ScoreDeduction{Criterion: c, Points: points})
		}
	}

	titleLen := utf8.RuneCountInString(s.Title)
	if titleLen == 0 || outsideRange(titleLen, r.TitleMinLength, r.TitleMaxLength) {
		deduct(CriterionTitle, r.TitlePenalty)
	}

	if desc, ok := s.description(); !ok || outsideRange(utf8.RuneCountInString(desc), r.DescriptionMinLength, r.DescriptionMaxLength) {
		deduct(CriterionDescription, r.DescriptionPenalty)
	}

	if !s.HasCanonical {
		deduct(CriterionCanonical, r.CanonicalPenalty)
	}

	if s.countLevel(1) != r.ExpectedH1Count {
		deduct(CriterionH1, r.H1Penalty)
	}

	if missing := s.imagesWithoutAlt(); missing > 0 {
		deduct(CriterionImageAlt, min(missing*r.ImageAltPenalty, r.ImageAltPenaltyCap))
	}

	// Any ld+json block counts, parseable or not.
	if len(s.JSONLD) == 0 {
		deduct(CriterionSchema, r.SchemaPenalty)
	}

	if strings.Contains(s.Robots, noindexToken) {
		deduct(CriterionNoindex, r.NoindexPenalty)
	}

	return deductions
}

// Score returns the final score for a set of deductions, clamped to 0..100.
// Nothing is floored per rule.
func (r ScoreRules) Score(deductions []ScoreDeduction) int {
	score := r.Base
	for _, d := range deductions {
		score -= d.Points
	}
	return max(0, min(score, 100))
}
