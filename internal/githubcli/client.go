package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/addteam/internal/execshell"
)

const (
	repoSubcommandConstant               = "repo"
	viewSubcommandConstant               = "view"
	apiSubcommandConstant                = "api"
	issueSubcommandConstant              = "issue"
	createSubcommandConstant             = "create"
	jsonFlagConstant                     = "--json"
	jqFlagConstant                       = "--jq"
	repoFlagConstant                     = "--repo"
	titleFlagConstant                    = "--title"
	bodyFlagConstant                     = "--body"
	methodFlagConstant                   = "-X"
	fieldFlagConstant                    = "-f"
	headerFlagConstant                   = "-H"
	hostnameFlagConstant                 = "--hostname"
	paginateFlagConstant                 = "--paginate"
	rawContentAcceptHeaderConstant       = "Accept: application/vnd.github.raw"
	repositoryFieldNameConstant          = "repository"
	usernameFieldNameConstant            = "username"
	pathFieldNameConstant                = "path"
	teamSlugFieldNameConstant            = "team"
	titleFieldNameConstant               = "title"
	requiredValueMessageConstant         = "value required"
	executorNotConfiguredMessageConstant = "github cli executor not configured"
	repoViewJSONFieldsConstant           = "defaultBranchRef,nameWithOwner,owner,description"
	authenticatedLoginJQFilterConstant   = ".login"
	permissionFieldTemplateConstant      = "permission=%s"
	collaboratorsEndpointTemplate        = "repos/%s/%s/collaborators?affiliation=direct&per_page=100"
	collaboratorEndpointTemplate         = "repos/%s/%s/collaborators/%s"
	invitationsEndpointTemplate          = "repos/%s/%s/invitations?per_page=100"
	repositoryContentsEndpointTemplate   = "repos/%s/%s/contents/%s"
	teamMembersEndpointTemplate          = "orgs/%s/teams/%s/members?per_page=100"
	authenticatedUserEndpointConstant    = "user"
	httpMethodPutConstant                = "PUT"
	httpMethodDeleteConstant             = "DELETE"
	notFoundMarkerConstant               = "HTTP 404"
	alternateNotFoundMarkerConstant      = "Not Found"
	roleNameReadConstant                 = "read"
	roleNameWriteConstant                = "write"
	permissionPullValueConstant          = "pull"
	permissionPushValueConstant          = "push"

	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	notFoundErrorTemplateConstant           = "%s: %s not found"
)

// Operation names surfaced in error values.
const (
	repositoryMetadataOperationNameConstant = OperationName("ResolveRepoMetadata")
	authenticatedLoginOperationNameConstant = OperationName("ResolveAuthenticatedLogin")
	repositoryFileOperationNameConstant     = OperationName("ReadRepositoryFile")
	listCollaboratorsOperationNameConstant  = OperationName("ListCollaborators")
	listInvitationsOperationNameConstant    = OperationName("ListPendingInvitations")
	addCollaboratorOperationNameConstant    = OperationName("AddCollaborator")
	removeCollaboratorOperationNameConstant = OperationName("RemoveCollaborator")
	listTeamMembersOperationNameConstant    = OperationName("ListTeamMembers")
	createIssueOperationNameConstant        = OperationName("CreateIssue")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Owner         string
	Name          string
	Description   string
	DefaultBranch string
}

// RepositoryCollaborator describes one direct collaborator with a normalized permission.
type RepositoryCollaborator struct {
	Login      string
	Permission string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NotFoundError indicates the requested resource does not exist on the host.
type NotFoundError struct {
	Operation OperationName
	Subject   string
}

// Error describes the missing resource.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundErrorTemplateConstant, notFoundError.Operation, notFoundError.Subject)
}

// IsNotFound reports whether the error chain contains a NotFoundError.
func IsNotFound(candidate error) bool {
	notFoundTarget := NotFoundError{}
	return errors.As(candidate, &notFoundTarget)
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ResolveRepoMetadata retrieves canonical metadata using gh repo view. An empty
// repository argument resolves the repository enclosing the working directory.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	commandArguments := []string{repoSubcommandConstant, viewSubcommandConstant}
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) > 0 {
		commandArguments = append(commandArguments, repositoryIdentifier)
	}
	commandArguments = append(commandArguments, jsonFlagConstant, repoViewJSONFieldsConstant)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: commandArguments})
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	var response struct {
		NameWithOwner string `json:"nameWithOwner"`
		Description   string `json:"description"`
		Owner         struct {
			Login string `json:"login"`
		} `json:"owner"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: repositoryMetadataOperationNameConstant, Cause: decodingError}
	}

	metadata := RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Owner:         response.Owner.Login,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
	}
	if separatorIndex := strings.Index(response.NameWithOwner, "/"); separatorIndex >= 0 {
		metadata.Name = response.NameWithOwner[separatorIndex+1:]
		if len(metadata.Owner) == 0 {
			metadata.Owner = response.NameWithOwner[:separatorIndex]
		}
	}

	return metadata, nil
}

// ResolveAuthenticatedLogin returns the login of the authenticated gh user.
func (client *Client) ResolveAuthenticatedLogin(executionContext context.Context) (string, error) {
	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, authenticatedUserEndpointConstant, jqFlagConstant, authenticatedLoginJQFilterConstant},
	})
	if executionError != nil {
		return "", OperationError{Operation: authenticatedLoginOperationNameConstant, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ReadRepositoryFile fetches a file's raw content from a repository. A missing
// file surfaces as a NotFoundError so source resolution can cascade.
func (client *Client) ReadRepositoryFile(executionContext context.Context, owner string, repository string, path string, hostname string) ([]byte, error) {
	if len(strings.TrimSpace(owner)) == 0 || len(strings.TrimSpace(repository)) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, InvalidInputError{FieldName: pathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandArguments := []string{
		apiSubcommandConstant,
		headerFlagConstant,
		rawContentAcceptHeaderConstant,
		fmt.Sprintf(repositoryContentsEndpointTemplate, owner, repository, trimmedPath),
	}
	if trimmedHostname := strings.TrimSpace(hostname); len(trimmedHostname) > 0 {
		commandArguments = append(commandArguments, hostnameFlagConstant, trimmedHostname)
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: commandArguments})
	if executionError != nil {
		if isNotFoundFailure(executionError) {
			return nil, NotFoundError{Operation: repositoryFileOperationNameConstant, Subject: trimmedPath}
		}
		return nil, OperationError{Operation: repositoryFileOperationNameConstant, Cause: executionError}
	}

	return []byte(executionResult.StandardOutput), nil
}

// ListCollaborators enumerates direct collaborators with normalized permissions.
func (client *Client) ListCollaborators(executionContext context.Context, owner string, repository string) ([]RepositoryCollaborator, error) {
	if len(strings.TrimSpace(owner)) == 0 || len(strings.TrimSpace(repository)) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			fmt.Sprintf(collaboratorsEndpointTemplate, owner, repository),
		},
	})
	if executionError != nil {
		return nil, OperationError{Operation: listCollaboratorsOperationNameConstant, Cause: executionError}
	}

	var entries []struct {
		Login    string `json:"login"`
		RoleName string `json:"role_name"`
	}
	if decodingError := decodeConcatenatedArrays(executionResult.StandardOutput, &entries); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listCollaboratorsOperationNameConstant, Cause: decodingError}
	}

	collaborators := make([]RepositoryCollaborator, 0, len(entries))
	for _, entry := range entries {
		collaborators = append(collaborators, RepositoryCollaborator{
			Login:      entry.Login,
			Permission: normalizeRoleName(entry.RoleName),
		})
	}

	return collaborators, nil
}

// ListPendingInvitations returns the logins of users with outstanding invitations.
func (client *Client) ListPendingInvitations(executionContext context.Context, owner string, repository string) ([]string, error) {
	if len(strings.TrimSpace(owner)) == 0 || len(strings.TrimSpace(repository)) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			fmt.Sprintf(invitationsEndpointTemplate, owner, repository),
		},
	})
	if executionError != nil {
		return nil, OperationError{Operation: listInvitationsOperationNameConstant, Cause: executionError}
	}

	var entries []struct {
		Invitee struct {
			Login string `json:"login"`
		} `json:"invitee"`
	}
	if decodingError := decodeConcatenatedArrays(executionResult.StandardOutput, &entries); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listInvitationsOperationNameConstant, Cause: decodingError}
	}

	inviteeLogins := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Invitee.Login) > 0 {
			inviteeLogins = append(inviteeLogins, entry.Invitee.Login)
		}
	}

	return inviteeLogins, nil
}

// AddCollaborator invites a user or updates an existing collaborator's permission.
func (client *Client) AddCollaborator(executionContext context.Context, owner string, repository string, username string, permission string) error {
	if len(strings.TrimSpace(owner)) == 0 || len(strings.TrimSpace(repository)) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedUsername := strings.TrimSpace(username)
	if len(trimmedUsername) == 0 {
		return InvalidInputError{FieldName: usernameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			httpMethodPutConstant,
			fmt.Sprintf(collaboratorEndpointTemplate, owner, repository, trimmedUsername),
			fieldFlagConstant,
			fmt.Sprintf(permissionFieldTemplateConstant, permission),
		},
	})
	if executionError != nil {
		return OperationError{Operation: addCollaboratorOperationNameConstant, Cause: executionError}
	}

	return nil
}

// RemoveCollaborator revokes a user's direct access to a repository.
func (client *Client) RemoveCollaborator(executionContext context.Context, owner string, repository string, username string) error {
	if len(strings.TrimSpace(owner)) == 0 || len(strings.TrimSpace(repository)) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedUsername := strings.TrimSpace(username)
	if len(trimmedUsername) == 0 {
		return InvalidInputError{FieldName: usernameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			httpMethodDeleteConstant,
			fmt.Sprintf(collaboratorEndpointTemplate, owner, repository, trimmedUsername),
		},
	})
	if executionError != nil {
		return OperationError{Operation: removeCollaboratorOperationNameConstant, Cause: executionError}
	}

	return nil
}

// ListTeamMembers returns the member logins of an organization team.
func (client *Client) ListTeamMembers(executionContext context.Context, organization string, teamSlug string) ([]string, error) {
	if len(strings.TrimSpace(organization)) == 0 || len(strings.TrimSpace(teamSlug)) == 0 {
		return nil, InvalidInputError{FieldName: teamSlugFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			fmt.Sprintf(teamMembersEndpointTemplate, organization, teamSlug),
		},
	})
	if executionError != nil {
		return nil, OperationError{Operation: listTeamMembersOperationNameConstant, Cause: executionError}
	}

	var entries []struct {
		Login string `json:"login"`
	}
	if decodingError := decodeConcatenatedArrays(executionResult.StandardOutput, &entries); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listTeamMembersOperationNameConstant, Cause: decodingError}
	}

	memberLogins := make([]string, 0, len(entries))
	for _, entry := range entries {
		memberLogins = append(memberLogins, entry.Login)
	}

	return memberLogins, nil
}

// CreateIssue opens an issue and returns its URL.
func (client *Client) CreateIssue(executionContext context.Context, repository string, title string, body string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(title)) == 0 {
		return "", InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{
			issueSubcommandConstant,
			createSubcommandConstant,
			repoFlagConstant,
			repositoryIdentifier,
			titleFlagConstant,
			title,
			bodyFlagConstant,
			body,
		},
	})
	if executionError != nil {
		return "", OperationError{Operation: createIssueOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// decodeConcatenatedArrays decodes gh --paginate output, which emits one JSON
// array per page back to back, appending every page's entries to target.
func decodeConcatenatedArrays[EntryType any](payload string, target *[]EntryType) error {
	trimmedPayload := strings.TrimSpace(payload)
	if len(trimmedPayload) == 0 {
		return nil
	}

	payloadDecoder := json.NewDecoder(strings.NewReader(trimmedPayload))
	for payloadDecoder.More() {
		var pageEntries []EntryType
		if decodeError := payloadDecoder.Decode(&pageEntries); decodeError != nil {
			return decodeError
		}
		*target = append(*target, pageEntries...)
	}

	return nil
}

func normalizeRoleName(roleName string) string {
	normalizedRoleName := strings.ToLower(strings.TrimSpace(roleName))
	switch normalizedRoleName {
	case roleNameReadConstant:
		return permissionPullValueConstant
	case roleNameWriteConstant:
		return permissionPushValueConstant
	default:
		return normalizedRoleName
	}
}

func isNotFoundFailure(candidate error) bool {
	commandFailure := execshell.CommandFailedError{}
	if !errors.As(candidate, &commandFailure) {
		return false
	}
	return strings.Contains(commandFailure.Result.StandardError, notFoundMarkerConstant) ||
		strings.Contains(commandFailure.Result.StandardError, alternateNotFoundMarkerConstant)
}
