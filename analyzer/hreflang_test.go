package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func alternates(codes ...string) *PageSnapshot {
	snap := &PageSnapshot{}
	for _, code := range codes {
		snap.Alternates = append(snap.Alternates, AlternateElement{Lang: code, Href: "https://example.com/" + code})
	}
	return snap
}

func TestAnalyzeHreflang(t *testing.T) {
	tests := []struct {
		name   string
		codes  []string
		rules  HreflangRules
		issues []HreflangIssue
	}{
		{
			name:   "no tags",
			codes:  nil,
			issues: []HreflangIssue{newIssue(MissingXDefault, "")},
		},
		{
			name:  "duplicate with x-default",
			codes: []string{"en", "en", "x-default"},
			issues: []HreflangIssue{
				newIssue(DuplicateLanguageCode, "en"),
				newIssue(InvalidLanguageCodeFormat, "x-default"),
			},
		},
		{
			name:  "every repeat is reported",
			codes: []string{"fr", "fr", "fr", "x-default"},
			issues: []HreflangIssue{
				newIssue(DuplicateLanguageCode, "fr"),
				newIssue(DuplicateLanguageCode, "fr"),
				newIssue(InvalidLanguageCodeFormat, "x-default"),
			},
		},
		{
			name:  "format rules",
			codes: []string{"en-US", "EN", "en-us", "eng", "pt_BR", "x-default"},
			issues: []HreflangIssue{
				newIssue(InvalidLanguageCodeFormat, "EN"),
				newIssue(InvalidLanguageCodeFormat, "en-us"),
				newIssue(InvalidLanguageCodeFormat, "eng"),
				newIssue(InvalidLanguageCodeFormat, "pt_BR"),
				newIssue(InvalidLanguageCodeFormat, "x-default"),
			},
		},
		{
			name:  "multiple x-default",
			codes: []string{"de", "x-default", "x-default"},
			issues: []HreflangIssue{
				newIssue(InvalidLanguageCodeFormat, "x-default"),
				newIssue(DuplicateLanguageCode, "x-default"),
				newIssue(InvalidLanguageCodeFormat, "x-default"),
				newIssue(MultipleXDefault, ""),
			},
		},
		{
			name:   "accept x-default",
			codes:  []string{"en", "x-default"},
			rules:  HreflangRules{AcceptXDefault: true},
			issues: []HreflangIssue{},
		},
		{
			name:   "empty code is listed but not checked",
			codes:  []string{"", "x-default"},
			rules:  HreflangRules{AcceptXDefault: true},
			issues: []HreflangIssue{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := alternates(tt.codes...)
			result := analyzeHreflang(snap, tt.rules)

			assert.Len(t, result.Tags, len(tt.codes))
			assert.Equal(t, tt.issues, result.Issues)
		})
	}
}

func TestAnalyzeHreflangTagOrder(t *testing.T) {
	result := analyzeHreflang(alternates("es", "x-default", "en-GB"), HreflangRules{})

	assert.Equal(t, []HreflangTag{
		{Lang: "es", Href: "https://example.com/es"},
		{Lang: "x-default", Href: "https://example.com/x-default"},
		{Lang: "en-GB", Href: "https://example.com/en-GB"},
	}, result.Tags)
}

func TestHreflangIssueMessages(t *testing.T) {
	assert.Equal(t, "Duplicate language code: en", newIssue(DuplicateLanguageCode, "en").Message)
	assert.Equal(t, "Invalid language code format: EN", newIssue(InvalidLanguageCodeFormat, "EN").Message)
	assert.Equal(t, "Missing x-default tag", newIssue(MissingXDefault, "").Message)
	assert.Equal(t, "Multiple x-default tags", newIssue(MultipleXDefault, "").Message)
}
