package analyzer

import "github.com/fairyhunter13/ai-code-reviewer/internal/domain"

var securityDeductions = map[string]float64{
	domain.SeverityCritical: 15,
	domain.SeverityHigh:     10,
	domain.SeverityMedium:   5,
	domain.SeverityLow:      2,
}

var performanceDeductions = map[string]float64{
	domain.SeverityCritical: 10,
	domain.SeverityHigh:     7,
	domain.SeverityMedium:   4,
	domain.SeverityLow:      1,
}

var aiDeductions = map[string]float64{
	domain.SeverityCritical: 8,
	domain.SeverityHigh:     5,
	domain.SeverityMedium:   3,
	domain.SeverityLow:      1,
}

const styleDeduction = 0.5

// qualityScore starts at 100 and deducts a per-issue weight by bucket and
// severity, clamped to [0,100].
func qualityScore(rep *domain.Report) float64 {
	score := 100.0
	for _, is := range rep.Security {
		score -= securityDeductions[is.Severity]
	}
	for _, is := range rep.Performance {
		score -= performanceDeductions[is.Severity]
	}
	score -= styleDeduction * float64(len(rep.Style))
	for _, sg := range rep.AISuggestions {
		score -= aiDeductions[sg.Severity]
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// qualityGrade maps a score onto the letter scale.
func qualityGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
