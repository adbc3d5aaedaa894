package modconfig

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// globalSchema and boardSchema catch gross structural errors (wrong
// top-level kind, wrong field types, missing board address) before the
// hand-written pass in validate.go checks strictly-positive integers and
// the exact recognized moderationReasons key set. The filename-equals-
// address and duplicate-address checks are made in config.go.
var (
	globalSchema = mustResolve(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"rpcUrl":    {Type: "string"},
			"stateDir":  {Type: "string"},
			"userAgent": {Type: "string"},
			"defaults":  {Type: "object"},
		},
	})

	boardSchema = mustResolve(&jsonschema.Schema{
		Type:     "object",
		Required: []string{"address"},
		Properties: map[string]*jsonschema.Schema{
			"address":             {Type: "string"},
			"perPage":             {Type: "integer"},
			"pages":               {Type: "integer"},
			"bumpLimit":           {Type: "integer"},
			"archivePurgeSeconds": {Type: "integer"},
			"moderationReasons":   {Type: "object"},
		},
	})
)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		// These schemas are fixed, compile-time literals; a failure here
		// is a programming error, not a runtime condition.
		panic(fmt.Sprintf("modconfig: invalid built-in schema: %v", err))
	}
	return resolved
}

// validateShape runs doc (a decoded JSON object, typically map[string]any)
// against the given resolved schema and returns a validation error naming
// the file on failure.
func validateShape(file string, resolved *jsonschema.Resolved, doc any) error {
	if err := resolved.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}
