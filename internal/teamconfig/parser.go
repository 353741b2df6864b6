package teamconfig

import (
	"path/filepath"
	"strings"
)

const (
	yamlFileExtensionConstant          = ".yaml"
	alternateYAMLFileExtensionConstant = ".yml"
)

// Format selects the parser applied to a configuration document.
type Format int

// Supported document formats.
const (
	FormatFlatList Format = iota
	FormatStructured
)

// FormatForPath dispatches on the file extension: YAML paths are parsed as
// structured documents, everything else as a flat username list.
func FormatForPath(path string) Format {
	extension := strings.ToLower(filepath.Ext(path))
	if extension == yamlFileExtensionConstant || extension == alternateYAMLFileExtensionConstant {
		return FormatStructured
	}
	return FormatFlatList
}

// Parse turns raw document content into a normalized TeamConfig. The function
// is pure and fails only on malformed structured syntax or unparsable dates.
func Parse(content []byte, format Format) (*TeamConfig, error) {
	if format == FormatStructured {
		return ParseStructured(content)
	}
	return ParseFlatList(content)
}
