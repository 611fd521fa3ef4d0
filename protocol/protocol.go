// Package protocol implements the contract between the harness and the
// program under test: a single JSON verdict object printed to stdout.
// It owns the verdict wire type, the JSON Schema it is checked against,
// and the strict parser that turns captured stdout into a Verdict.
package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/verdict.json
var verdictSchemaJSON []byte

// Verdict is the object the program under test must print to its standard
// output, exactly once, for every invocation.
type Verdict struct {
	// Valid reports whether the program accepted the payload as conformant
	// OME-Zarr metadata.
	Valid bool `json:"valid" jsonschema:"description=Whether the payload was judged to be valid OME-Zarr metadata"`
	// Message optionally explains the judgment. Null and absent are
	// equivalent.
	Message *string `json:"message,omitempty" jsonschema:"oneof_type=string;null,description=Optional human-readable explanation of the judgment"`
}

// Text returns the message or "" when it is null/absent.
func (v *Verdict) Text() string {
	if v.Message != nil {
		return *v.Message
	}
	return ""
}

// Parser validates captured stdout against the verdict schema and decodes
// it. A Parser is immutable and safe for concurrent use.
type Parser struct {
	schema *sjsonschema.Schema
}

// NewParser compiles the embedded verdict schema.
func NewParser() (*Parser, error) {
	var doc any
	if err := json.Unmarshal(verdictSchemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal verdict schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("verdict.json", doc); err != nil {
		return nil, fmt.Errorf("add verdict schema resource: %w", err)
	}

	sch, err := c.Compile("verdict.json")
	if err != nil {
		return nil, fmt.Errorf("compile verdict schema: %w", err)
	}

	return &Parser{schema: sch}, nil
}

// Parse interprets stdout as a verdict. The stream must contain exactly one
// JSON value, optionally surrounded by whitespace, and that value must
// satisfy the verdict schema. Any other content is a protocol violation.
func (p *Parser) Parse(stdout []byte) (*Verdict, error) {
	dec := json.NewDecoder(bytes.NewReader(stdout))

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("stdout is not a JSON document: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing content after the verdict object")
	}

	if err := p.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("verdict does not match the protocol schema: %s", schemaErrorDetail(err))
	}

	var v Verdict
	if err := json.Unmarshal(stdout, &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	return &v, nil
}

// schemaErrorDetail renders a validation error as a compact one-line list of
// leaf causes.
func schemaErrorDetail(err error) string {
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var msgs []string
	for _, cause := range flattenValidationErrors(ve) {
		loc := "/" + strings.Join(cause.InstanceLocation, "/")
		msgs = append(msgs, fmt.Sprintf("%s: %v", loc, cause.ErrorKind))
	}
	return strings.Join(msgs, "; ")
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
