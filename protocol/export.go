package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateSchema produces the JSON Schema Draft 2020-12 document for the
// Verdict struct using invopop/jsonschema. The checked-in copy under
// schema/verdict.json is regenerated from this by scripts/gen-schema.go.
func GenerateSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	// The original tool ignored unknown fields in the verdict object, so the
	// schema must not reject them.
	r.AllowAdditionalProperties = true

	s := r.Reflect(&Verdict{})
	s.ID = "https://github.com/clbarnes/ome-zarr-conformance/protocol/schema/verdict.json"
	s.Title = "OME-Zarr conformance verdict"
	s.Description = "Schema for the JSON object a program under test prints to stdout (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
