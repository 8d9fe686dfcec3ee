package curriculum

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abhisek/motivsim/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaDoc []byte

const schemaURL = "schema://curriculum.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// document is the on-disk shape of a curriculum file.
type document struct {
	ID     string `json:"id"`
	Domain struct {
		ID  string       `json:"id"`
		KCs []*domain.KC `json:"kcs"`
	} `json:"domain"`
	Units []*Unit `json:"units"`
}

// Format identifies a curriculum file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the encoding from a file extension. Defaults to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads and parses a curriculum file.
func Load(path string) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum %s: %w", path, err)
	}
	c, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse curriculum %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a curriculum document, validates it against the embedded JSON
// schema, and builds the linked curriculum graph.
func Parse(data []byte, format Format) (*Curriculum, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := curriculumSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	dom, err := domain.New(doc.Domain.ID, doc.Domain.KCs)
	if err != nil {
		return nil, err
	}
	return New(doc.ID, dom, doc.Units)
}

// toJSON normalizes YAML input to JSON so both encodings share one schema.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert YAML to JSON: %w", err)
	}
	return out, nil
}

func curriculumSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaDoc, &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}
