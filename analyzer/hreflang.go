package analyzer

import (
	"fmt"
	"regexp"
)

// XDefault is the reserved hreflang value for the fallback variant
const XDefault = "x-default"

// IssueKind identifies a class of hreflang problem
type IssueKind string

const (
	DuplicateLanguageCode     IssueKind = "duplicate_language_code"
	InvalidLanguageCodeFormat IssueKind = "invalid_language_code_format"
	MissingXDefault           IssueKind = "missing_x_default"
	MultipleXDefault          IssueKind = "multiple_x_default"
)

// HreflangIssue is a single hreflang problem. Code is empty for the
// x-default count issues.
type HreflangIssue struct {
	Kind    IssueKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

var languageCodePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

func newIssue(kind IssueKind, code string) HreflangIssue {
	var msg string
	switch kind {
	case DuplicateLanguageCode:
		msg = fmt.Sprintf("Duplicate language code: %s", code)
	case InvalidLanguageCodeFormat:
		msg = fmt.Sprintf("Invalid language code format: %s", code)
	case MissingXDefault:
		msg = "Missing x-default tag"
	case MultipleXDefault:
		msg = "Multiple x-default tags"
	}
	return HreflangIssue{Kind: kind, Code: code, Message: msg}
}

// HreflangRules tunes the hreflang validator
type HreflangRules struct {
	// AcceptXDefault exempts the literal x-default from the language code
	// format check. Off by default, so x-default is reported as invalid.
	AcceptXDefault bool `mapstructure:"accept_x_default"`
}

// analyzeHreflang collects alternate-language tags and reports issues in
// detection order: duplicates and format problems per tag, then the
// x-default count.
func analyzeHreflang(s *PageSnapshot, rules HreflangRules) HreflangAnalysis {
	result := HreflangAnalysis{
		Tags:   make([]HreflangTag, 0, len(s.Alternates)),
		Issues: []HreflangIssue{},
	}

	seen := make(map[string]bool, len(s.Alternates))
	xDefaults := 0

	for _, alt := range s.Alternates {
		result.Tags = append(result.Tags, HreflangTag{Lang: alt.Lang, Href: alt.Href})

		code := alt.Lang
		if code == "" {
			continue
		}

		if seen[code] {
			result.Issues = append(result.Issues, newIssue(DuplicateLanguageCode, code))
		}
		seen[code] = true

		if code == XDefault {
			xDefaults++
			if rules.AcceptXDefault {
				continue
			}
		}
		if !languageCodePattern.MatchString(code) {
			result.Issues = append(result.Issues, newIssue(InvalidLanguageCodeFormat, code))
		}
	}

	switch {
	case xDefaults == 0:
		result.Issues = append(result.Issues, newIssue(MissingXDefault, ""))
	case xDefaults > 1:
		result.Issues = append(result.Issues, newIssue(MultipleXDefault, ""))
	}

	return result
}
