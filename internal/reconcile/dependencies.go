package reconcile

import (
	"context"

	"github.com/temirov/addteam/internal/githubcli"
	"github.com/temirov/addteam/internal/gitrepo"
	"github.com/temirov/addteam/internal/teamconfig"
)

// RepositoryResolver resolves canonical repository metadata and the caller identity.
type RepositoryResolver interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
	ResolveAuthenticatedLogin(executionContext context.Context) (string, error)
}

// CollaboratorClient exposes the live-state reads and mutations reconciliation needs.
type CollaboratorClient interface {
	ListCollaborators(executionContext context.Context, owner string, repository string) ([]githubcli.RepositoryCollaborator, error)
	ListPendingInvitations(executionContext context.Context, owner string, repository string) ([]string, error)
	AddCollaborator(executionContext context.Context, owner string, repository string, username string, permission string) error
	RemoveCollaborator(executionContext context.Context, owner string, repository string, username string) error
}

// IssueCreator opens onboarding issues for newly invited collaborators.
type IssueCreator interface {
	CreateIssue(executionContext context.Context, repository string, title string, body string) (string, error)
}

// ConfigResolver locates and parses the team configuration document.
type ConfigResolver interface {
	Resolve(executionContext context.Context, spec string, targetRepository gitrepo.RepositorySpec) (*teamconfig.TeamConfig, error)
}

// TeamExpander flattens team references into collaborator entries.
type TeamExpander interface {
	ExpandInto(executionContext context.Context, configuration *teamconfig.TeamConfig)
}

// WelcomeComposer builds the onboarding issue for a newly invited collaborator.
type WelcomeComposer interface {
	ComposeWelcomeIssue(executionContext context.Context, repository string, username string, permission string, customMessage string) (string, string, error)
}

// RunReporter renders reconciliation progress for the terminal.
type RunReporter interface {
	Success(format string, arguments ...any)
	Pending(format string, arguments ...any)
	Skip(format string, arguments ...any)
	Failure(format string, arguments ...any)
	Header(format string, arguments ...any)
	Line(format string, arguments ...any)
}
