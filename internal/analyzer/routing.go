package analyzer

import "github.com/fairyhunter13/ai-code-reviewer/internal/domain"

// bucketFor routes a categorized issue to its report bucket. The mapping is
// part of the report contract.
func bucketFor(category string) string {
	switch category {
	case domain.CategorySecurity, domain.CategoryConcurrency, domain.CategoryReliability:
		return bucketSecurity
	case domain.CategoryPerformance, domain.CategoryMemoryLeak,
		domain.CategoryObservability, domain.CategoryTestability:
		return bucketPerformance
	case domain.CategoryDesign:
		return bucketStyle
	default:
		return bucketStyle
	}
}

// route wraps categorized issues as findings placed per bucketFor.
func route(issues []domain.Issue) []finding {
	out := make([]finding, 0, len(issues))
	for _, is := range issues {
		out = append(out, finding{Issue: is, Bucket: bucketFor(is.Category)})
	}
	return out
}
