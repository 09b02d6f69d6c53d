// Package schema validates raw configuration documents against embedded
// JSON Schemas before they are decoded into typed configs.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Kind identifies which configuration schema to validate against.
type Kind int

const (
	KindPerf Kind = iota
	KindAPI
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindPerf:
		return "performance"
	case KindAPI:
		return "api"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

var compiled = map[Kind]*jsonschema.Schema{}

func init() {
	sources := map[Kind]string{
		KindPerf:       perfSchema,
		KindAPI:        apiSchema,
		KindCollection: collectionSchema,
	}
	for kind, src := range sources {
		compiler := jsonschema.NewCompiler()
		name := kind.String() + ".schema.json"
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
		sch, err := compiler.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
		compiled[kind] = sch
	}
}

// Validate checks a raw JSON or YAML document against the schema for kind.
// format is "json" or "yaml".
func Validate(kind Kind, raw []byte, format string) error {
	var doc any
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(raw, &doc)
	default:
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return fmt.Errorf("parse %s document: %w", format, err)
	}
	doc = normalize(doc)

	if err := compiled[kind].Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("%s schema: %s", kind, flatten(ve))
		}
		return fmt.Errorf("%s schema: %w", kind, err)
	}
	return nil
}

// normalize converts YAML decoding artifacts into the shapes the schema
// validator expects, mainly map[any]any keys and integer values.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case int:
		return json.Number(fmt.Sprint(val))
	case int64:
		return json.Number(fmt.Sprint(val))
	case uint64:
		return json.Number(fmt.Sprint(val))
	case float64:
		return json.Number(fmt.Sprintf("%g", val))
	default:
		return v
	}
}

func flatten(err *jsonschema.ValidationError) string {
	var parts []string
	collect(err, &parts)
	return strings.Join(parts, "; ")
}

func collect(err *jsonschema.ValidationError, parts *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*parts = append(*parts, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collect(cause, parts)
	}
}
