package analyzer

import (
	"strings"
)

const noindexToken = "noindex"

// analyzeGeneral extracts the page-level metadata
func analyzeGeneral(s *PageSnapshot) GeneralAnalysis {
	general := GeneralAnalysis{
		MetaTitle:        s.Title,
		CanonicalURL:     s.CanonicalURL,
		Indexable:        !strings.Contains(s.Robots, noindexToken),
		RobotsTxtBlocked: false,
		MetaTags:         make([]string, 0, len(s.Meta)),
	}

	if desc, ok := s.description(); ok {
		general.MetaDescription = desc
	}

	for _, m := range s.Meta {
		key := m.Name
		if key == "" {
			key = m.Property
		}
		general.MetaTags = append(general.MetaTags, key+": "+m.Content)
	}

	return general
}

// description returns the content of the first meta description element
func (s *PageSnapshot) description() (string, bool) {
	for _, m := range s.Meta {
		if m.Name == "description" {
			return m.Content, true
		}
	}
	return "", false
}
