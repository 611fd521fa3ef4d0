package model

import "testing"

func TestTestCaseID(t *testing.T) {
	tests := []struct {
		name string
		c    TestCase
		want string
	}{
		{
			name: "slug from formerly path",
			c: TestCase{
				Version:   "0.4",
				SuiteFile: "strict_ome_suite.json",
				Index:     3,
				Formerly:  "examples/valid/Multiscales.JSON",
			},
			want: "v0_4:strict_ome:3:multiscales",
		},
		{
			name: "slug from description",
			c: TestCase{
				Version:     "0.5",
				SuiteFile:   "image_suite.json",
				Index:       0,
				Description: "Missing Axis  Names",
			},
			want: "v0_5:image:0:missing_axis_names",
		},
		{
			name: "formerly wins over description",
			c: TestCase{
				Version:     "0.4",
				SuiteFile:   "plate_suite.json",
				Index:       1,
				Formerly:    "tests/old/wells.json",
				Description: "some description",
			},
			want: "v0_4:plate:1:wells",
		},
		{
			name: "TBD description yields no slug segment",
			c: TestCase{
				Version:     "0.4",
				SuiteFile:   "label_suite.json",
				Index:       7,
				Description: "TBD",
			},
			want: "v0_4:label:7",
		},
		{
			name: "no slug sources at all",
			c: TestCase{
				Version:   "0.4",
				SuiteFile: "well_suite.json",
				Index:     12,
			},
			want: "v0_4:well:12",
		},
		{
			name: "suite file without _suite suffix",
			c: TestCase{
				Version:   "0.5",
				SuiteFile: "ome.json",
				Index:     0,
			},
			want: "v0_5:ome:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestCaseSlug(t *testing.T) {
	tests := []struct {
		name string
		c    TestCase
		want string
	}{
		{
			name: "formerly without directory",
			c:    TestCase{Formerly: "Image.json"},
			want: "image",
		},
		{
			name: "formerly with nested directories",
			c:    TestCase{Formerly: "examples/multiscales/valid/axes_001.json"},
			want: "axes_001",
		},
		{
			name: "formerly without json suffix",
			c:    TestCase{Formerly: "examples/raw_case"},
			want: "raw_case",
		},
		{
			name: "description whitespace collapsed",
			c:    TestCase{Description: "  axes\tmust be unique "},
			want: "axes_must_be_unique",
		},
		{
			name: "empty everything",
			c:    TestCase{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Slug(); got != tt.want {
				t.Errorf("Slug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestCaseSchemaName(t *testing.T) {
	tests := []struct {
		name string
		c    TestCase
		want string
	}{
		{
			name: "schema prefix and suffix stripped",
			c:    TestCase{SchemaID: "schemas/image.schema"},
			want: "image",
		},
		{
			name: "json suffix stripped",
			c:    TestCase{SchemaID: "schemas/plate.json"},
			want: "plate",
		},
		{
			name: "bare name unchanged",
			c:    TestCase{SchemaID: "Well"},
			want: "well",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.SchemaName(); got != tt.want {
				t.Errorf("SchemaName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTallyAdd(t *testing.T) {
	var tally Tally
	for _, s := range []Status{StatusPass, StatusPass, StatusFail, StatusError, StatusPass} {
		tally.Add(Result{Status: s})
	}

	if tally.Pass != 3 || tally.Fail != 1 || tally.Error != 1 {
		t.Errorf("tally = %+v, want 3 passes, 1 fail, 1 error", tally)
	}
	if got := tally.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}
