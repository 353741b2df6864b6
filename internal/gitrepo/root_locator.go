package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/addteam/internal/execshell"
)

const (
	revParseSubcommandConstant                = "rev-parse"
	showTopLevelFlagConstant                  = "--show-toplevel"
	rootLocatorExecutorMissingMessageConstant = "repository root locator requires a git executor"
)

// ErrGitExecutorNotConfigured indicates the locator was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(rootLocatorExecutorMissingMessageConstant)

// GitExecutor runs git commands on behalf of the locator.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryRootLocator resolves the working tree root enclosing a directory.
type RepositoryRootLocator struct {
	executor GitExecutor
}

// NewRepositoryRootLocator constructs a locator backed by the supplied executor.
func NewRepositoryRootLocator(executor GitExecutor) (*RepositoryRootLocator, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryRootLocator{executor: executor}, nil
}

// LocateRoot returns the absolute path of the repository root containing the
// working directory, or an error when the directory is not inside a work tree.
func (locator *RepositoryRootLocator) LocateRoot(executionContext context.Context, workingDirectory string) (string, error) {
	executionResult, executionError := locator.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{revParseSubcommandConstant, showTopLevelFlagConstant},
		WorkingDirectory: workingDirectory,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}
