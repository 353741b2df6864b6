package teamconfig

import "strings"

const (
	commentLinePrefixConstant = "#"
	lineSeparatorConstant     = "\n"
)

// ParseFlatList parses a flat username list, one entry per line. Blank lines
// and comment lines are ignored, a leading mention prefix is stripped, and a
// second whitespace-separated token names the entry's permission. Duplicates
// are dropped in favor of the first occurrence.
func ParseFlatList(content []byte) (*TeamConfig, error) {
	configuration := NewTeamConfig(DefaultPermission)

	for _, rawLine := range strings.Split(string(content), lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(rawLine)
		if len(trimmedLine) == 0 || strings.HasPrefix(trimmedLine, commentLinePrefixConstant) {
			continue
		}

		lineFields := strings.Fields(trimmedLine)
		entryPermission := configuration.DefaultPermission
		if len(lineFields) > 1 {
			entryPermission = NormalizePermission(lineFields[1], configuration.DefaultPermission)
		}

		configuration.AddCollaborator(Collaborator{Username: lineFields[0], Permission: entryPermission})
	}

	return configuration, nil
}
