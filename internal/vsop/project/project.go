// Package project reads the optional TOML project manifest (vsop.toml) that
// tells the vsopc driver which source files to analyze and how to render
// them.
package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FormatVersion is the only manifest format version currently understood.
const FormatVersion = "vsop-project/1"

// topLevelManifest is the on-disk shape of a vsop.toml file. The
// format/type pair is checked before any other field is trusted.
type topLevelManifest struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`

	Files   []string `toml:"files"`
	Options options  `toml:"options"`
}

type options struct {
	// ColumnWidth is the wrap width used by `vsopc --pretty-wide`; zero means
	// "use the driver's built-in default".
	ColumnWidth int `toml:"column_width"`

	// PrimitiveNames lets a project rename the primitive type spellings
	// accepted in declarations (e.g. for a dialect that writes "Int32"
	// instead of "int32"). An empty map means "use the canonical spellings".
	PrimitiveNames map[string]string `toml:"primitive_names"`

	// Wide turns on --pretty-wide rendering for every file listed, without
	// needing the flag to be repeated on the command line.
	Wide bool `toml:"wide"`
}

// Manifest is a parsed vsop.toml project file.
type Manifest struct {
	// Files is the ordered list of source paths to analyze, relative to the
	// directory the manifest was loaded from.
	Files []string

	// ColumnWidth is the configured wrap width, or 0 if unset.
	ColumnWidth int

	// PrimitiveNames maps a project-local primitive spelling to its
	// canonical one (e.g. "Int32" -> "int32"). Empty if unset.
	PrimitiveNames map[string]string

	// Wide reports whether wide (rosed-wrapped) pretty-printing is the
	// project's default rendering mode.
	Wide bool
}

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("could not read project manifest: %w", err)
	}

	var top topLevelManifest
	if _, err := toml.Decode(string(data), &top); err != nil {
		return Manifest{}, fmt.Errorf("could not parse project manifest: %w", err)
	}

	if top.Type != "PROJECT" {
		return Manifest{}, fmt.Errorf("manifest type must be \"PROJECT\", got %q", top.Type)
	}
	if top.Format != FormatVersion {
		return Manifest{}, fmt.Errorf("unsupported manifest format %q, expected %q", top.Format, FormatVersion)
	}
	if len(top.Files) == 0 {
		return Manifest{}, fmt.Errorf("project manifest lists no source files")
	}

	return Manifest{
		Files:          top.Files,
		ColumnWidth:    top.Options.ColumnWidth,
		PrimitiveNames: top.Options.PrimitiveNames,
		Wide:           top.Options.Wide,
	}, nil
}
