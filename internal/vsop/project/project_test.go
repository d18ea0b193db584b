package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vsop.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func Test_Load(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Manifest
		expectErr bool
	}{
		{
			name: "minimal manifest",
			input: `format = "vsop-project/1"
type = "PROJECT"
files = ["main.vsop"]
`,
			expect: Manifest{Files: []string{"main.vsop"}},
		},
		{
			name: "manifest with options",
			input: `format = "vsop-project/1"
type = "PROJECT"
files = ["lib.vsop", "main.vsop"]

[options]
column_width = 100
wide = true

[options.primitive_names]
Int32 = "int32"
`,
			expect: Manifest{
				Files:          []string{"lib.vsop", "main.vsop"},
				ColumnWidth:    100,
				Wide:           true,
				PrimitiveNames: map[string]string{"Int32": "int32"},
			},
		},
		{
			name: "wrong type",
			input: `format = "vsop-project/1"
type = "WORLD"
files = ["main.vsop"]
`,
			expectErr: true,
		},
		{
			name: "unsupported format version",
			input: `format = "vsop-project/2"
type = "PROJECT"
files = ["main.vsop"]
`,
			expectErr: true,
		},
		{
			name: "no files listed",
			input: `format = "vsop-project/1"
type = "PROJECT"
files = []
`,
			expectErr: true,
		},
		{
			name:      "not TOML at all",
			input:     "}{ not toml",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			path := writeManifest(t, tc.input)
			m, err := Load(path)

			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, m)
		})
	}
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
