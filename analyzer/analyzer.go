package analyzer

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Analyzer turns page snapshots into SEO reports. It holds no per-run
// state and is safe for concurrent use.
type Analyzer struct {
	rules    ScoreRules
	hreflang HreflangRules
	log      logrus.FieldLogger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithScoreRules replaces the default scoring table
func WithScoreRules(rules ScoreRules) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithHreflangRules sets the hreflang validator rules
func WithHreflangRules(rules HreflangRules) Option {
	return func(a *Analyzer) {
		a.hreflang = rules
	}
}

// WithLogger sets the logger used for diagnostics such as skipped
// JSON-LD blocks
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.log = log
	}
}

// New creates a new Analyzer instance
func New(opts ...Option) *Analyzer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	a := &Analyzer{
		rules: DefaultScoreRules(),
		log:   discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns the scoring table in use
func (a *Analyzer) Rules() ScoreRules {
	return a.rules
}

// Analyze performs a complete SEO analysis of the snapshot. It never fails;
// missing page elements show up as empty values. A nil snapshot is
// analyzed as an empty page.
func (a *Analyzer) Analyze(s *PageSnapshot) *Report {
	if s == nil {
		s = &PageSnapshot{}
	}

	report := &Report{
		URL:      s.URL,
		General:  analyzeGeneral(s),
		Headings: analyzeHeadings(s),
		Links:    analyzeLinks(s),
		Hreflang: analyzeHreflang(s, a.hreflang),
		Images:   analyzeImages(s),
		Schema:   analyzeSchema(s, a.log),
	}

	report.ScoreDeductions = a.rules.Deductions(s)
	report.SEOScore = a.rules.Score(report.ScoreDeductions)
	report.Recommendations = generateRecommendations(report, a.rules)

	return report
}
