package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TestCase is a single corpus test: one JSON payload plus the validity the
// OME-Zarr specification assigns to it. Instances are created while parsing
// a corpus archive and are read-only afterwards.
type TestCase struct {
	// OME-Zarr specification version the suite belongs to (e.g. "0.4")
	Version string `json:"version"`
	// Suite file name within the corpus tests/ directory (e.g. "strict_ome_suite.json")
	SuiteFile string `json:"suite_file"`
	// Free-text description of the suite, if present
	SuiteDescription string `json:"suite_description,omitempty"`
	// Identifier of the schema the suite exercises (e.g. "schemas/ome.schema")
	SchemaID string `json:"schema_id"`
	// Position of this test within its suite file
	Index int `json:"index"`
	// Path of the standalone example file this test was converted from, if any
	Formerly string `json:"formerly,omitempty"`
	// Free-text description of this test, if present
	Description string `json:"description,omitempty"`
	// Zarr attributes document, byte-for-byte as serialized in the suite file
	Payload json.RawMessage `json:"data"`
	// Whether the specification considers the payload valid
	Valid bool `json:"valid"`
}

// ID returns the deterministic composite identifier for this test:
// a normalized version token, the suite file stem, the index, and the slug
// when one can be derived, joined by colons. Stable across runs for the
// same corpus.
func (c *TestCase) ID() string {
	parts := []string{
		"v" + strings.ReplaceAll(c.Version, ".", "_"),
		c.FileStem(),
		strconv.Itoa(c.Index),
	}
	if slug := c.Slug(); slug != "" {
		parts = append(parts, slug)
	}
	return strings.Join(parts, ":")
}

// Slug derives a short human-readable token for the test: the final path
// segment of Formerly without its .json suffix, or the description with
// whitespace collapsed to underscores. Returns "" when neither is usable
// (a description of exactly "TBD" is treated as absent).
func (c *TestCase) Slug() string {
	if c.Formerly != "" {
		s := c.Formerly
		if i := strings.LastIndex(s, "/"); i >= 0 {
			s = s[i+1:]
		}
		return strings.TrimSuffix(strings.ToLower(s), ".json")
	}
	if c.Description != "" && c.Description != "TBD" {
		return strings.Join(strings.Fields(strings.ToLower(c.Description)), "_")
	}
	return ""
}

// FileStem returns the suite file name lowercased with the .json and _suite
// suffixes stripped, in that order.
func (c *TestCase) FileStem() string {
	s := strings.ToLower(c.SuiteFile)
	s = strings.TrimSuffix(s, ".json")
	s = strings.TrimSuffix(s, "_suite")
	return s
}

// SchemaName returns the schema identifier lowercased with the .json or
// .schema suffix and the schemas/ prefix stripped. Used for logging only;
// it is not part of the test identity.
func (c *TestCase) SchemaName() string {
	s := strings.ToLower(c.SchemaID)
	s = strings.TrimSuffix(s, ".json")
	s = strings.TrimSuffix(s, ".schema")
	s = strings.TrimPrefix(s, "schemas/")
	return s
}
