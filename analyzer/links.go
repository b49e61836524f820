package analyzer

import "strings"

// analyzeLinks partitions anchors into internal and external links.
//
// A link is internal when its URL contains the page hostname anywhere in
// the string. This is a plain substring test: a link to
// other.com/?ref=example.com counts as internal for example.com, and
// subdomains are not treated specially.
func analyzeLinks(s *PageSnapshot) LinkAnalysis {
	links := LinkAnalysis{
		Internal: []LinkEntry{},
		External: []LinkEntry{},
	}

	for _, a := range s.Anchors {
		if a.Href == "" {
			continue
		}

		entry := LinkEntry{
			URL:      a.Href,
			Internal: strings.Contains(a.Href, s.Hostname),
		}
		if entry.Internal {
			links.Internal = append(links.Internal, entry)
		} else {
			links.External = append(links.External, entry)
		}
	}

	return links
}
