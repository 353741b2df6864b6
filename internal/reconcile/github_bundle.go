package reconcile

import (
	"context"

	"github.com/temirov/addteam/internal/execshell"
	"github.com/temirov/addteam/internal/githubauth"
	"github.com/temirov/addteam/internal/githubcli"
)

// githubClientBundle pairs the shell executor with the GitHub CLI client built
// on top of it so commands can hand out either piece.
type githubClientBundle struct {
	executor *execshell.ShellExecutor
	client   *githubcli.Client
}

func newGitHubClientBundle(executor *execshell.ShellExecutor) (*githubClientBundle, error) {
	client, clientError := githubcli.NewClient(tokenForwardingExecutor{executor: executor})
	if clientError != nil {
		return nil, clientError
	}
	return &githubClientBundle{executor: executor, client: client}, nil
}

// tokenForwardingExecutor injects the resolved GitHub token into each gh
// invocation so the CLI authenticates in environments without gh auth login.
type tokenForwardingExecutor struct {
	executor *execshell.ShellExecutor
}

func (forwarding tokenForwardingExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if token, tokenFound := githubauth.ResolveToken(details.EnvironmentVariables); tokenFound {
		if details.EnvironmentVariables == nil {
			details.EnvironmentVariables = map[string]string{}
		}
		if _, alreadySet := details.EnvironmentVariables[githubauth.EnvGitHubCLIToken]; !alreadySet {
			details.EnvironmentVariables[githubauth.EnvGitHubCLIToken] = token
		}
	}
	return forwarding.executor.ExecuteGitHubCLI(executionContext, details)
}
