package summary

import (
	"fmt"
	"os"
	"strings"
)

const (
	readmeBeginMarkerConstant       = "<!-- BEGIN AUTO SUMMARY -->"
	readmeEndMarkerConstant         = "<!-- END AUTO SUMMARY -->"
	readmeFilePermissionsConstant   = 0o644
	readmeMarkerOrderDetailConstant = "summary markers in %s are out of order"
)

// UpdateReadmeFile replaces the content between the auto-summary markers in
// the named file with summaryText. A file without markers gets the block
// appended; a missing file is created containing only the block.
func UpdateReadmeFile(path string, summaryText string) error {
	markerBlock := strings.Join([]string{readmeBeginMarkerConstant, strings.TrimSpace(summaryText), readmeEndMarkerConstant}, "\n")

	existingContent, readError := os.ReadFile(path)
	if readError != nil {
		if os.IsNotExist(readError) {
			return os.WriteFile(path, []byte(markerBlock+"\n"), readmeFilePermissionsConstant)
		}
		return readError
	}

	content := string(existingContent)
	beginIndex := strings.Index(content, readmeBeginMarkerConstant)
	endIndex := strings.Index(content, readmeEndMarkerConstant)

	switch {
	case beginIndex < 0 || endIndex < 0:
		separator := "\n"
		if !strings.HasSuffix(content, "\n") && len(content) > 0 {
			separator = "\n\n"
		}
		content = content + separator + markerBlock + "\n"
	case endIndex < beginIndex:
		return fmt.Errorf(readmeMarkerOrderDetailConstant, path)
	default:
		content = content[:beginIndex] + markerBlock + content[endIndex+len(readmeEndMarkerConstant):]
	}

	return os.WriteFile(path, []byte(content), readmeFilePermissionsConstant)
}
