package analyzer

import (
	"fmt"
	"strconv"
)

func generateRecommendations(report *Report, rules ScoreRules) []string {
	recommendations := []string{}

	for _, d := range report.ScoreDeductions {
		switch d.Criterion {
		case CriterionTitle:
			if report.General.MetaTitle == "" {
				recommendations = append(recommendations, "Add a title tag to your page")
			} else {
				recommendations = append(recommendations,
					fmt.Sprintf("Keep the title between %d and %d characters", rules.TitleMinLength, rules.TitleMaxLength))
			}
		case CriterionDescription:
			if report.General.MetaDescription == "" {
				recommendations = append(recommendations, "Add a meta description")
			} else {
				recommendations = append(recommendations,
					fmt.Sprintf("Keep the meta description between %d and %d characters", rules.DescriptionMinLength, rules.DescriptionMaxLength))
			}
		case CriterionCanonical:
			recommendations = append(recommendations, "Declare a canonical URL with <link rel=\"canonical\">")
		case CriterionH1:
			recommendations = append(recommendations, "Use exactly one H1 heading")
		case CriterionImageAlt:
			recommendations = append(recommendations,
				"Add alt text to "+strconv.Itoa(len(report.Images.ImagesWithoutAlt))+" image(s)")
		case CriterionSchema:
			recommendations = append(recommendations, "Add structured data (JSON-LD) describing the page")
		case CriterionNoindex:
			recommendations = append(recommendations, "Remove the noindex robots directive if the page should be indexed")
		}
	}

	// One hint per hreflang issue kind
	seen := make(map[IssueKind]bool)
	for _, issue := range report.Hreflang.Issues {
		if seen[issue.Kind] {
			continue
		}
		seen[issue.Kind] = true

		switch issue.Kind {
		case DuplicateLanguageCode:
			recommendations = append(recommendations, "Declare each hreflang language code only once")
		case InvalidLanguageCodeFormat:
			recommendations = append(recommendations, "Use hreflang codes like \"en\" or \"en-US\"")
		case MissingXDefault:
			recommendations = append(recommendations, "Add an x-default hreflang tag")
		case MultipleXDefault:
			recommendations = append(recommendations, "Keep a single x-default hreflang tag")
		}
	}

	return recommendations
}
