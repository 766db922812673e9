package services

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// outputSchema pairs the raw schema sent to the model with its compiled validator.
type outputSchema struct {
	name     string
	raw      map[string]any
	compiled *jsonschema.Schema
}

var (
	personaSchema    = mustLoadSchema("persona")
	evaluationSchema = mustLoadSchema("evaluation")
)

func mustLoadSchema(name string) *outputSchema {
	path := "schemas/" + name + ".json"
	b, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", path, err))
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", path, err))
	}
	compiled, err := jsonschema.CompileString(name+".json", string(b))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", path, err))
	}
	return &outputSchema{name: name, raw: raw, compiled: compiled}
}

// decode validates v against the schema and copies it into out.
func (s *outputSchema) decode(v any, out any) error {
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("%s output invalid: %w", s.name, err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// decodeRaw is decode for an unparsed JSON document.
func (s *outputSchema) decodeRaw(raw []byte, out any) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s output is not JSON: %w", s.name, err)
	}
	return s.decode(v, out)
}
