package analyzer

import (
	"strconv"
	"strings"
)

// analyzeHeadings returns the heading outline and the short-phrase buckets.
// Headings longer than four words (or empty) only appear in the outline.
func analyzeHeadings(s *PageSnapshot) HeadingAnalysis {
	headings := HeadingAnalysis{
		Structure: make([]HeadingEntry, 0, len(s.Headings)),
		WordRelevance: WordRelevance{
			OneWord:    []string{},
			TwoWords:   []string{},
			ThreeWords: []string{},
			FourWords:  []string{},
		},
	}

	for _, h := range s.Headings {
		text := strings.TrimSpace(h.Text)
		headings.Structure = append(headings.Structure, HeadingEntry{
			Tag:   "H" + strconv.Itoa(h.Level),
			Level: h.Level,
			Text:  text,
		})

		words := strings.Fields(text)
		phrase := strings.Join(words, " ")
		switch len(words) {
		case 1:
			headings.WordRelevance.OneWord = append(headings.WordRelevance.OneWord, phrase)
		case 2:
			headings.WordRelevance.TwoWords = append(headings.WordRelevance.TwoWords, phrase)
		case 3:
			headings.WordRelevance.ThreeWords = append(headings.WordRelevance.ThreeWords, phrase)
		case 4:
			headings.WordRelevance.FourWords = append(headings.WordRelevance.FourWords, phrase)
		}
	}

	return headings
}

// countLevel returns how many headings of the given level the snapshot holds
func (s *PageSnapshot) countLevel(level int) int {
	count := 0
	for _, h := range s.Headings {
		if h.Level == level {
			count++
		}
	}
	return count
}
