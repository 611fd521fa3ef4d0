package corpus

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

// Manifest is the loaded corpus for one run: every test case of the
// requested versions, in canonical order (versions by semver, suites by
// file name, tests by position in the suite).
type Manifest struct {
	// Versions actually loaded, in canonical order
	Versions []string
	// Cases in canonical report order
	Cases []model.TestCase
}

// suiteDoc mirrors one tests/*.json file in a corpus archive.
type suiteDoc struct {
	Description string `json:"description"`
	Schema      struct {
		ID string `json:"id"`
	} `json:"schema"`
	Tests []suiteTest `json:"tests"`
}

type suiteTest struct {
	Formerly    string          `json:"formerly"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
	Valid       bool            `json:"valid"`
}

// Fetch returns the manifest for the requested versions, downloading any
// archive not already cached. A fetch or parse failure for any requested
// version fails the whole call; the orchestrator treats that as fatal.
func (c *Cache) Fetch(ctx context.Context, versions []string) (*Manifest, error) {
	ordered := sortVersions(versions)

	manifest := &Manifest{Versions: ordered}
	for _, version := range ordered {
		path, err := c.ensure(ctx, version)
		if err != nil {
			return nil, err
		}
		cases, err := c.parseArchive(version, path)
		if err != nil {
			return nil, err
		}
		c.logger.Info().
			Str("version", version).
			Int("tests", len(cases)).
			Msg("Loaded corpus version")
		manifest.Cases = append(manifest.Cases, cases...)
	}
	return manifest, nil
}

// parseArchive reads every tests/*.json suite out of a corpus archive. The
// archive's single top-level directory (ngff-<tag>/) is stripped from entry
// names before matching.
func (c *Cache) parseArchive(version, path string) ([]model.TestCase, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus archive for %s: %w", version, err)
	}
	defer z.Close()

	const testPrefix = "tests/"

	suites := make(map[string]suiteDoc)
	for _, f := range z.File {
		_, name, found := strings.Cut(f.Name, "/")
		if !found || name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			c.logger.Debug().Str("file", name).Msg("Skipping non-JSON corpus file")
			continue
		}
		if !strings.HasPrefix(name, testPrefix) {
			c.logger.Debug().Str("file", name).Msg("Skipping non-test corpus file")
			continue
		}

		doc, err := parseSuite(f)
		if err != nil {
			return nil, fmt.Errorf("parse suite %s for %s: %w", name, version, err)
		}
		suites[strings.TrimPrefix(name, testPrefix)] = doc
	}

	fileNames := make([]string, 0, len(suites))
	for name := range suites {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	var cases []model.TestCase
	for _, fileName := range fileNames {
		doc := suites[fileName]
		for i, t := range doc.Tests {
			if len(t.Data) == 0 {
				return nil, fmt.Errorf("suite %s for %s: test %d has no data", fileName, version, i)
			}
			cases = append(cases, model.TestCase{
				Version:          version,
				SuiteFile:        fileName,
				SuiteDescription: doc.Description,
				SchemaID:         doc.Schema.ID,
				Index:            i,
				Formerly:         t.Formerly,
				Description:      t.Description,
				Payload:          t.Data,
				Valid:            t.Valid,
			})
		}
	}
	return cases, nil
}

func parseSuite(f *zip.File) (suiteDoc, error) {
	r, err := f.Open()
	if err != nil {
		return suiteDoc{}, err
	}
	defer r.Close()

	var doc suiteDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return suiteDoc{}, err
	}
	return doc, nil
}

// sortVersions deduplicates and orders version strings. OME-Zarr versions
// are major.minor, which semver understands once prefixed with "v";
// anything it cannot parse sorts after the parseable ones, alphabetically.
func sortVersions(versions []string) []string {
	seen := make(map[string]struct{}, len(versions))
	ordered := make([]string, 0, len(versions))
	for _, v := range versions {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		ordered = append(ordered, v)
	}

	sort.Slice(ordered, func(i, j int) bool {
		vi, vj := "v"+ordered[i], "v"+ordered[j]
		iOK, jOK := semver.IsValid(vi), semver.IsValid(vj)
		switch {
		case iOK && jOK:
			return semver.Compare(vi, vj) < 0
		case iOK != jOK:
			return iOK
		default:
			return ordered[i] < ordered[j]
		}
	})
	return ordered
}
