// Package fallback holds the static answers served when the engine cannot be used.
// Every function builds a fresh value from literals: no I/O, no shared state.
package fallback

import (
	"strings"

	"stackbridge/internal/bridge/model"
)

const (
	recommendationScore = 0.88
	compatibilityScore  = 0.8
)

// Recommendation returns the canned stack recommendation.
func Recommendation() model.RecommendationResult {
	return model.RecommendationResult{
		RecommendedStack: map[string]model.TechnologyPick{
			model.CategoryFrontend: {
				Name:               "React",
				Category:           model.CategoryFrontend,
				Reason:             "Popular choice for web applications",
				Pros:               []string{"Large ecosystem", "Component-based"},
				Cons:               []string{"Learning curve", "Frequent updates"},
				LearningCurve:      model.LearningModerate,
				PopularityScore:    0.9,
				CompatibilityScore: 0.9,
			},
			model.CategoryBackend: {
				Name:               "Node.js",
				Category:           model.CategoryBackend,
				Reason:             "JavaScript ecosystem compatibility",
				Pros:               []string{"JavaScript everywhere", "Fast development"},
				Cons:               []string{"Single-threaded", "Callback complexity"},
				LearningCurve:      model.LearningModerate,
				PopularityScore:    0.85,
				CompatibilityScore: 0.9,
			},
			model.CategoryDatabase: {
				Name:               "PostgreSQL",
				Category:           model.CategoryDatabase,
				Reason:             "Reliable relational database",
				Pros:               []string{"ACID compliance", "Extensible"},
				Cons:               []string{"Complex setup", "Resource intensive"},
				LearningCurve:      model.LearningModerate,
				PopularityScore:    0.8,
				CompatibilityScore: 0.85,
			},
		},
		OverallScore:             recommendationScore,
		Reasoning:                "This stack provides a solid foundation for web applications with modern tooling and community support.",
		Alternatives:             []string{"Vue.js + Express + MongoDB", "Angular + Python/Django + MySQL"},
		EstimatedLearningTime:    "2-4 weeks",
		EstimatedDevelopmentTime: "6-10 weeks",
		Source:                   model.SourceFallback,
	}
}

// Compatibility scores every technology uniformly and classifies it by name.
func Compatibility(technologies []string) model.CompatibilityResult {
	matrix := make(map[string]model.CompatibilityEntry, len(technologies))
	for _, tech := range technologies {
		matrix[tech] = model.CompatibilityEntry{
			Score:    compatibilityScore,
			Notes:    tech + " is generally compatible with modern development stacks",
			Category: Classify(tech),
		}
	}
	return model.CompatibilityResult{
		CompatibilityMatrix: matrix,
		OverallScore:        compatibilityScore,
		Recommendations: []string{
			"Selected technologies are generally compatible",
			"Consider using TypeScript for better type safety",
			"Implement proper API design patterns",
		},
		Source: model.SourceFallback,
	}
}

var categoryHints = []struct {
	category string
	needles  []string
}{
	{model.CategoryFrontend, []string{"react", "vue", "angular"}},
	{model.CategoryBackend, []string{"node", "express", "django"}},
}

// Classify guesses a technology's category by case-insensitive substring.
// Anything unrecognized is treated as a database.
func Classify(tech string) string {
	lower := strings.ToLower(tech)
	for _, hint := range categoryHints {
		for _, needle := range hint.needles {
			if strings.Contains(lower, needle) {
				return hint.category
			}
		}
	}
	return model.CategoryDatabase
}

// SupportedTechnologies returns the static technology lists.
func SupportedTechnologies() model.SupportedTechnologies {
	return model.SupportedTechnologies{
		Frontend: []string{"React", "Vue.js", "Angular", "Svelte", "Solid.js"},
		Backend:  []string{"Node.js", "Express.js", "Hono", "Python/Django", "Python/FastAPI", "Go", "Rust"},
		Database: []string{"PostgreSQL", "MongoDB", "Redis", "SQLite", "MySQL", "Firebase"},
		Tools:    []string{"TypeScript", "Webpack", "Vite", "Docker", "Kubernetes"},
	}
}
