// Package scan detects and neutralizes prompt-injection content in tool
// output. The scanner and redactor are stateless and share one pattern table.
package scan

// Match records one pattern hit found by the scanner.
type Match struct {
	Label       string
	Category    Category
	Confidence  Confidence
	MatchedText string
}

// ScanResult is the outcome of scanning one piece of text.
type ScanResult struct {
	Detected bool
	Matches  []Match
}

// Categories returns the distinct categories among the matches, in table order.
func (r ScanResult) Categories() []Category {
	seen := make(map[Category]bool, len(r.Matches))
	var cats []Category
	for _, m := range r.Matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			cats = append(cats, m.Category)
		}
	}
	return cats
}

// Scan runs the shared pattern table over the text and decides whether it
// contains injected instructions. At most one match is recorded per pattern
// definition, so a repeated phrase counts once.
//
// Detection rule: any HIGH-confidence match triggers on its own; MEDIUM
// matches only trigger when at least two distinct categories co-occur, so a
// single ambiguous phrase never flags alone.
func Scan(text string) ScanResult {
	if text == "" {
		return ScanResult{}
	}

	var matches []Match
	anyHigh := false
	mediumCats := make(map[Category]bool)

	for _, p := range Patterns {
		loc := p.Re.FindString(text)
		if loc == "" {
			continue
		}
		matches = append(matches, Match{
			Label:       p.Label,
			Category:    p.Category,
			Confidence:  p.Confidence,
			MatchedText: loc,
		})
		if p.Confidence == ConfidenceHigh {
			anyHigh = true
		} else {
			mediumCats[p.Category] = true
		}
	}

	return ScanResult{
		Detected: anyHigh || len(mediumCats) >= 2,
		Matches:  matches,
	}
}
