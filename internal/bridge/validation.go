package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stackbridge/internal/bridge/model"
)

// recommendBody mirrors model.RecommendationRequest with pointers so that an
// absent field can be told apart from an invalid one.
type recommendBody struct {
	ProjectType     *string  `json:"project_type" binding:"omitempty,notblank"`
	Requirements    []string `json:"requirements" binding:"omitempty,dive,notblank"`
	TeamSize        *int     `json:"team_size" binding:"omitempty,min=1,max=1000"`
	ExperienceLevel *string  `json:"experience_level" binding:"omitempty,oneof=beginner intermediate expert"`
}

func (b recommendBody) toModel() model.RecommendationRequest {
	req := model.RecommendationRequest{Requirements: b.Requirements}
	if b.ProjectType != nil {
		req.ProjectType = strings.TrimSpace(*b.ProjectType)
	}
	if b.TeamSize != nil {
		req.TeamSize = *b.TeamSize
	}
	if b.ExperienceLevel != nil {
		req.ExperienceLevel = *b.ExperienceLevel
	}
	return req
}

type compatibilityBody struct {
	Technologies []string `json:"technologies" binding:"required,min=1,max=50,dive,notblank"`
}

// FieldIssue names one failing request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError is a rejected request body.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Issue)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// errBodyTooLarge marks a body that exceeded the handler's limit.
var errBodyTooLarge = errors.New("request body too large")

var registerOnce sync.Once

// registerValidators installs the notblank rule and JSON field naming on gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(field.String()) != ""
		})
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// translateBindError turns a decode or validation failure into a
// ValidationError, or errBodyTooLarge when the body limit was hit.
func translateBindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		issues := make([]FieldIssue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, FieldIssue{Field: fe.Field(), Issue: describe(fe)})
		}
		return &ValidationError{Issues: issues}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return &ValidationError{Issues: []FieldIssue{{Field: "body", Issue: "must be a JSON object"}}}
		}
		return &ValidationError{Issues: []FieldIssue{{Field: typeErr.Field, Issue: "must be of type " + typeErr.Type.String()}}}
	}

	if errors.Is(err, io.EOF) {
		return &ValidationError{Issues: []FieldIssue{{Field: "body", Issue: "is required"}}}
	}
	return &ValidationError{Issues: []FieldIssue{{Field: "body", Issue: "must be valid JSON"}}}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
