package scan

// Finding records one substring replaced by the redactor.
type Finding struct {
	RiskType    RiskType
	RiskContent string
	Reason      string
}

// RedactResult holds the neutralized text and one finding per replaced
// occurrence.
type RedactResult struct {
	Text     string
	Findings []Finding
}

// Placeholder returns the canonical replacement token for a risk type,
// e.g. "[REDACTED:PROMPT_INJECTION]".
func Placeholder(rt RiskType) string {
	return "[REDACTED:" + rt.String() + "]"
}

// Redact replaces every occurrence of every pattern in the shared table with
// the canonical placeholder for the pattern's collapsed risk type. Unlike the
// scanner, which records one match per pattern, the redactor neutralizes all
// occurrences and emits one finding each.
func Redact(text string) RedactResult {
	if text == "" {
		return RedactResult{Text: text}
	}

	var findings []Finding
	out := text
	for _, p := range Patterns {
		rt := RiskTypeFor(p.Category)
		placeholder := Placeholder(rt)
		out = p.Re.ReplaceAllStringFunc(out, func(matched string) string {
			findings = append(findings, Finding{
				RiskType:    rt,
				RiskContent: matched,
				Reason:      p.Label,
			})
			return placeholder
		})
	}

	return RedactResult{Text: out, Findings: findings}
}
