package payload

import (
	"embed"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Schema is a compiled JSON Schema for one engine operation's output.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// Name returns the schema's short name.
func (s *Schema) Name() string { return s.name }

var (
	RecommendationSchema = mustSchema("recommendation")
	CompatibilitySchema  = mustSchema("compatibility")
	TechnologiesSchema   = mustSchema("technologies")
)

func mustSchema(name string) *Schema {
	raw, err := schemaFiles.ReadFile("schemas/" + name + ".json")
	if err != nil {
		panic("payload: missing embedded schema " + name + ": " + err.Error())
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic("payload: invalid embedded schema " + name + ": " + err.Error())
	}
	return &Schema{name: name, compiled: compiled}
}

// validate returns sorted violation descriptions, or nil when doc conforms.
func (s *Schema) validate(doc []byte) ([]string, error) {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s schema: %w", s.name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)
	return errs, nil
}
