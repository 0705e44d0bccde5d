// Package model holds the request and result types shared by the bridge,
// its handlers, and the fallback catalog.
package model

const (
	OperationRecommend     = "recommend_stack"
	OperationCompatibility = "analyze_compatibility"
	OperationTechnologies  = "supported_technologies"
	OperationStatus        = "status"
)

const (
	SourceEngine   = "engine"
	SourceFallback = "fallback"
)

const (
	CategoryFrontend = "frontend"
	CategoryBackend  = "backend"
	CategoryDatabase = "database"
	CategoryOther    = "other"
)

const (
	LearningEasy     = "easy"
	LearningModerate = "moderate"
	LearningHard     = "hard"
)

const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceExpert       = "expert"
)

const (
	DefaultProjectType     = "web"
	DefaultTeamSize        = 3
	DefaultExperienceLevel = ExperienceIntermediate
)

type RecommendationRequest struct {
	ProjectType     string   `json:"project_type"`
	Requirements    []string `json:"requirements"`
	TeamSize        int      `json:"team_size"`
	ExperienceLevel string   `json:"experience_level"`
}

// WithDefaults fills every unset field.
func (r RecommendationRequest) WithDefaults() RecommendationRequest {
	if r.ProjectType == "" {
		r.ProjectType = DefaultProjectType
	}
	if r.TeamSize == 0 {
		r.TeamSize = DefaultTeamSize
	}
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = DefaultExperienceLevel
	}
	if r.Requirements == nil {
		r.Requirements = []string{}
	}
	return r
}

type TechnologyPick struct {
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	Reason             string   `json:"reason"`
	Pros               []string `json:"pros"`
	Cons               []string `json:"cons"`
	LearningCurve      string   `json:"learning_curve"`
	PopularityScore    float64  `json:"popularity_score"`
	CompatibilityScore float64  `json:"compatibility_score"`
}

type RecommendationResult struct {
	RecommendedStack         map[string]TechnologyPick `json:"recommended_stack"`
	OverallScore             float64                   `json:"overall_score"`
	Reasoning                string                    `json:"reasoning"`
	Alternatives             []string                  `json:"alternatives"`
	EstimatedLearningTime    string                    `json:"estimated_learning_time"`
	EstimatedDevelopmentTime string                    `json:"estimated_development_time"`
	Source                   string                    `json:"source"`
}

type CompatibilityRequest struct {
	Technologies []string `json:"technologies"`
}

type CompatibilityEntry struct {
	Score    float64 `json:"score"`
	Notes    string  `json:"notes"`
	Category string  `json:"category"`
}

type CompatibilityResult struct {
	CompatibilityMatrix map[string]CompatibilityEntry `json:"compatibility_matrix"`
	OverallScore        float64                       `json:"overall_score"`
	Recommendations     []string                      `json:"recommendations"`
	Source              string                        `json:"source"`
}

type SupportedTechnologies struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
	Database []string `json:"database"`
	Tools    []string `json:"tools"`
}

// Status describes engine availability. EngineVersion is null when the probe failed.
type Status struct {
	AIServiceAvailable bool            `json:"ai_service_available"`
	EngineVersion      *string         `json:"engine_version"`
	EngineStatus       string          `json:"engine_status"`
	Features           map[string]bool `json:"features"`
	Error              string          `json:"error,omitempty"`
}

const (
	EngineAvailable   = "available"
	EngineUnavailable = "unavailable"
)

// Features lists the capabilities advertised by the status endpoint.
func Features() map[string]bool {
	return map[string]bool{
		"basic_recommendations":  true,
		"compatibility_analysis": true,
		"technology_database":    true,
		"ai_enhanced":            false,
	}
}

// Envelope is the document written to the payload file for every engine call.
type Envelope struct {
	Operation string `json:"operation"`
	Request   any    `json:"request"`
}
