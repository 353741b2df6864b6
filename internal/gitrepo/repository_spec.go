package gitrepo

import (
	"fmt"
	"strings"
)

const (
	ownerRepositorySeparatorConstant           = "/"
	gitRepositorySuffixConstant                = ".git"
	repositorySpecTemplateConstant             = "%s/%s"
	invalidRepositorySpecTemplateConstant      = "invalid repository %q: expected owner/name"
	expectedRepositorySpecSegmentCountConstant = 2
)

// RepositorySpec identifies a repository by owner and name.
type RepositorySpec struct {
	Owner string
	Name  string
}

// String renders the canonical owner/name form.
func (spec RepositorySpec) String() string {
	return fmt.Sprintf(repositorySpecTemplateConstant, spec.Owner, spec.Name)
}

// IsZero reports whether the spec carries no repository identity.
func (spec RepositorySpec) IsZero() bool {
	return len(spec.Owner) == 0 && len(spec.Name) == 0
}

// InvalidRepositoryError indicates a repository string that is not owner/name shaped.
type InvalidRepositoryError struct {
	Input string
}

// Error describes the malformed repository identifier.
func (invalidError InvalidRepositoryError) Error() string {
	return fmt.Sprintf(invalidRepositorySpecTemplateConstant, invalidError.Input)
}

// ParseRepositorySpec converts an owner/name string into a RepositorySpec. A
// trailing .git suffix is tolerated and stripped.
func ParseRepositorySpec(value string) (RepositorySpec, error) {
	trimmedValue := strings.TrimSpace(value)
	segments := strings.Split(trimmedValue, ownerRepositorySeparatorConstant)
	if len(segments) != expectedRepositorySpecSegmentCountConstant {
		return RepositorySpec{}, InvalidRepositoryError{Input: value}
	}

	ownerSegment := strings.TrimSpace(segments[0])
	nameSegment := strings.TrimSuffix(strings.TrimSpace(segments[1]), gitRepositorySuffixConstant)
	if len(ownerSegment) == 0 || len(nameSegment) == 0 {
		return RepositorySpec{}, InvalidRepositoryError{Input: value}
	}

	return RepositorySpec{Owner: ownerSegment, Name: nameSegment}, nil
}
