package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
	endpointSegmentSeparatorConstant        = "/"
)

const (
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitTopLevelFlagConstant           = "--show-toplevel"
)

const (
	gitTopLevelStartTemplateConstant            = "Locating repository root"
	gitTopLevelSuccessTemplateConstant          = "Repository root resolved to %s"
	gitTopLevelFailureTemplateConstant          = "Could not locate a repository root (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant = "Unable to locate a repository root: %s"
)

const (
	githubRepoSubcommandNameConstant                   = "repo"
	githubRepoViewSubcommandNameConstant               = "view"
	githubAPISubcommandNameConstant                    = "api"
	githubIssueSubcommandNameConstant                  = "issue"
	githubIssueCreateSubcommandNameConstant            = "create"
	githubIssueRepositoryFlagConstant                  = "--repo"
	githubMethodFlagConstant                           = "-X"
	githubHeaderFlagConstant                           = "-H"
	githubJQFlagConstant                               = "--jq"
	githubFieldFlagConstant                            = "-f"
	githubHostnameFlagConstant                         = "--hostname"
	githubDeleteMethodConstant                         = "DELETE"
	githubUserEndpointConstant                         = "user"
	githubRepositoryEndpointPrefixConstant             = "repos/"
	githubOrganizationEndpointPrefixConstant           = "orgs/"
	githubCollaboratorsEndpointSegmentConstant         = "/collaborators"
	githubInvitationsEndpointSegmentConstant           = "/invitations"
	githubContentsEndpointSegmentConstant              = "/contents/"
	githubTeamMembersEndpointSuffixConstant            = "/members"
	githubCurrentRepositoryLabelConstant               = "current repository"
	githubRepoViewMinimumArgumentCountConstant         = 2
	githubRepoViewRepositoryArgumentPositionConstant   = 2
	githubCollaboratorEndpointSegmentCountConstant     = 4
	githubCollaboratorUsernameSegmentPositionConstant  = 3
	githubRepositoryEndpointOwnerRepoSegmentsConstant  = 2
	githubTeamEndpointMinimumSegmentCountConstant      = 4
	githubTeamEndpointOrganizationSegmentIndexConstant = 0
	githubRepositoryDescriptionSeparatorConstant       = "/"
	githubEndpointSearchStartArgumentPositionConstant  = 1
)

const (
	githubRepoViewStartTemplateConstant                 = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant               = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant               = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant      = "Unable to retrieve repository details for %s: %s"
	githubViewerStartMessageConstant                    = "Resolving authenticated GitHub user"
	githubViewerSuccessMessageConstant                  = "Resolved authenticated GitHub user"
	githubViewerFailureTemplateConstant                 = "Failed to resolve authenticated GitHub user (exit code %d%s)"
	githubViewerExecutionFailureTemplateConstant        = "Unable to resolve authenticated GitHub user: %s"
	githubCollaboratorListStartTemplateConstant         = "Listing collaborators for %s"
	githubCollaboratorListSuccessTemplateConstant       = "Listed collaborators for %s"
	githubCollaboratorListFailureTemplateConstant       = "Failed to list collaborators for %s (exit code %d%s)"
	githubCollaboratorListExecutionTemplateConstant     = "Unable to list collaborators for %s: %s"
	githubCollaboratorUpdateStartTemplateConstant       = "Updating collaborator %s on %s"
	githubCollaboratorUpdateSuccessTemplateConstant     = "Updated collaborator %s on %s"
	githubCollaboratorUpdateFailureTemplateConstant     = "Failed to update collaborator %s on %s (exit code %d%s)"
	githubCollaboratorUpdateExecutionTemplateConstant   = "Unable to update collaborator %s on %s: %s"
	githubCollaboratorRemovalStartTemplateConstant      = "Removing collaborator %s from %s"
	githubCollaboratorRemovalSuccessTemplateConstant    = "Removed collaborator %s from %s"
	githubCollaboratorRemovalFailureTemplateConstant    = "Failed to remove collaborator %s from %s (exit code %d%s)"
	githubCollaboratorRemovalExecutionTemplateConstant  = "Unable to remove collaborator %s from %s: %s"
	githubInvitationListStartTemplateConstant           = "Listing pending invitations for %s"
	githubInvitationListSuccessTemplateConstant         = "Listed pending invitations for %s"
	githubInvitationListFailureTemplateConstant         = "Failed to list pending invitations for %s (exit code %d%s)"
	githubInvitationListExecutionTemplateConstant       = "Unable to list pending invitations for %s: %s"
	githubRepositoryFileStartTemplateConstant           = "Reading %s from %s"
	githubRepositoryFileSuccessTemplateConstant         = "Read %s from %s"
	githubRepositoryFileFailureTemplateConstant         = "Failed to read %s from %s (exit code %d%s)"
	githubRepositoryFileExecutionTemplateConstant       = "Unable to read %s from %s: %s"
	githubTeamMembersStartTemplateConstant              = "Listing members of team %s"
	githubTeamMembersSuccessTemplateConstant            = "Listed members of team %s"
	githubTeamMembersFailureTemplateConstant            = "Failed to list members of team %s (exit code %d%s)"
	githubTeamMembersExecutionTemplateConstant          = "Unable to list members of team %s: %s"
	githubIssueCreationStartTemplateConstant            = "Creating issue in %s"
	githubIssueCreationSuccessTemplateConstant          = "Created issue in %s"
	githubIssueCreationFailureTemplateConstant          = "Failed to create issue in %s (exit code %d%s)"
	githubIssueCreationExecutionFailureTemplateConstant = "Unable to create issue in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a command that completed with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitCommand(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubCommand(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	if strings.TrimSpace(arguments[0]) == gitRevParseSubcommandNameConstant && containsArgument(arguments, gitTopLevelFlagConstant) {
		switch stage {
		case messageStageStart:
			return gitTopLevelStartTemplateConstant
		case messageStageSuccess:
			return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, formatter.ensureValue(result.StandardOutput))
		case messageStageFailure:
			return fmt.Sprintf(gitTopLevelFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitTopLevelExecutionFailureTemplateConstant, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubCommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case githubRepoSubcommandNameConstant:
		return formatter.describeRepositoryView(command, result, failure, stage)
	case githubAPISubcommandNameConstant:
		return formatter.describeAPICall(command, result, failure, stage)
	case githubIssueSubcommandNameConstant:
		return formatter.describeIssueCreation(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeRepositoryView(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < githubRepoViewMinimumArgumentCountConstant || strings.TrimSpace(arguments[1]) != githubRepoViewSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	repository := githubCurrentRepositoryLabelConstant
	if len(arguments) > githubRepoViewRepositoryArgumentPositionConstant {
		candidate := strings.TrimSpace(arguments[githubRepoViewRepositoryArgumentPositionConstant])
		if len(candidate) > 0 && !strings.HasPrefix(candidate, flagPrefixConstant) {
			repository = candidate
		}
	}

	return formatter.applySubjectTemplates(stage, result, failure, repository,
		githubRepoViewStartTemplateConstant,
		githubRepoViewSuccessTemplateConstant,
		githubRepoViewFailureTemplateConstant,
		githubRepoViewExecutionFailureTemplateConstant,
	)
}

func (formatter CommandMessageFormatter) describeIssueCreation(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < githubRepoViewMinimumArgumentCountConstant || strings.TrimSpace(arguments[1]) != githubIssueCreateSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	repository := formatter.ensureValue(findFlagValue(arguments, githubIssueRepositoryFlagConstant))

	return formatter.applySubjectTemplates(stage, result, failure, repository,
		githubIssueCreationStartTemplateConstant,
		githubIssueCreationSuccessTemplateConstant,
		githubIssueCreationFailureTemplateConstant,
		githubIssueCreationExecutionFailureTemplateConstant,
	)
}

func (formatter CommandMessageFormatter) describeAPICall(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	endpoint := formatter.extractEndpoint(arguments)
	requestMethod := strings.TrimSpace(findFlagValue(arguments, githubMethodFlagConstant))

	switch {
	case endpoint == githubUserEndpointConstant:
		return formatter.applyPlainTemplates(stage, result, failure,
			githubViewerStartMessageConstant,
			githubViewerSuccessMessageConstant,
			githubViewerFailureTemplateConstant,
			githubViewerExecutionFailureTemplateConstant,
		)
	case strings.Contains(endpoint, githubInvitationsEndpointSegmentConstant):
		return formatter.applySubjectTemplates(stage, result, failure, formatter.extractRepositoryFromEndpoint(endpoint),
			githubInvitationListStartTemplateConstant,
			githubInvitationListSuccessTemplateConstant,
			githubInvitationListFailureTemplateConstant,
			githubInvitationListExecutionTemplateConstant,
		)
	case strings.Contains(endpoint, githubCollaboratorsEndpointSegmentConstant):
		repository := formatter.extractRepositoryFromEndpoint(endpoint)
		username := formatter.extractCollaboratorFromEndpoint(endpoint)
		if len(username) == 0 {
			return formatter.applySubjectTemplates(stage, result, failure, repository,
				githubCollaboratorListStartTemplateConstant,
				githubCollaboratorListSuccessTemplateConstant,
				githubCollaboratorListFailureTemplateConstant,
				githubCollaboratorListExecutionTemplateConstant,
			)
		}
		if requestMethod == githubDeleteMethodConstant {
			return formatter.applySubjectPairTemplates(stage, result, failure, username, repository,
				githubCollaboratorRemovalStartTemplateConstant,
				githubCollaboratorRemovalSuccessTemplateConstant,
				githubCollaboratorRemovalFailureTemplateConstant,
				githubCollaboratorRemovalExecutionTemplateConstant,
			)
		}
		return formatter.applySubjectPairTemplates(stage, result, failure, username, repository,
			githubCollaboratorUpdateStartTemplateConstant,
			githubCollaboratorUpdateSuccessTemplateConstant,
			githubCollaboratorUpdateFailureTemplateConstant,
			githubCollaboratorUpdateExecutionTemplateConstant,
		)
	case strings.Contains(endpoint, githubContentsEndpointSegmentConstant):
		return formatter.applySubjectPairTemplates(stage, result, failure,
			formatter.extractFilePathFromEndpoint(endpoint),
			formatter.extractRepositoryFromEndpoint(endpoint),
			githubRepositoryFileStartTemplateConstant,
			githubRepositoryFileSuccessTemplateConstant,
			githubRepositoryFileFailureTemplateConstant,
			githubRepositoryFileExecutionTemplateConstant,
		)
	case strings.HasPrefix(endpoint, githubOrganizationEndpointPrefixConstant) && strings.HasSuffix(endpoint, githubTeamMembersEndpointSuffixConstant):
		return formatter.applySubjectTemplates(stage, result, failure, formatter.extractTeamReferenceFromEndpoint(endpoint),
			githubTeamMembersStartTemplateConstant,
			githubTeamMembersSuccessTemplateConstant,
			githubTeamMembersFailureTemplateConstant,
			githubTeamMembersExecutionTemplateConstant,
		)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) applyPlainTemplates(stage messageStage, result ExecutionResult, failure error, startMessage string, successMessage string, failureTemplate string, executionTemplate string) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) applySubjectTemplates(stage messageStage, result ExecutionResult, failure error, subject string, startTemplate string, successTemplate string, failureTemplate string, executionTemplate string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) applySubjectPairTemplates(stage messageStage, result ExecutionResult, failure error, firstSubject string, secondSubject string, startTemplate string, successTemplate string, failureTemplate string, executionTemplate string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, firstSubject, secondSubject)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, firstSubject, secondSubject)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, firstSubject, secondSubject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, firstSubject, secondSubject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func (formatter CommandMessageFormatter) extractEndpoint(arguments []string) string {
	flagsWithValues := map[string]struct{}{
		githubMethodFlagConstant:   {},
		githubHeaderFlagConstant:   {},
		githubJQFlagConstant:       {},
		githubFieldFlagConstant:    {},
		githubHostnameFlagConstant: {},
	}

	for argumentIndex := githubEndpointSearchStartArgumentPositionConstant; argumentIndex < len(arguments); argumentIndex++ {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			if _, requiresValue := flagsWithValues[trimmedArgument]; requiresValue {
				argumentIndex++
			}
			continue
		}
		return trimmedArgument
	}

	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractRepositoryFromEndpoint(endpoint string) string {
	trimmedEndpoint := strings.TrimPrefix(strings.TrimSpace(endpoint), githubRepositoryEndpointPrefixConstant)
	endpointSegments := strings.Split(trimmedEndpoint, endpointSegmentSeparatorConstant)
	if len(endpointSegments) < githubRepositoryEndpointOwnerRepoSegmentsConstant {
		return githubCurrentRepositoryLabelConstant
	}
	return strings.Join(endpointSegments[:githubRepositoryEndpointOwnerRepoSegmentsConstant], endpointSegmentSeparatorConstant)
}

func (formatter CommandMessageFormatter) extractCollaboratorFromEndpoint(endpoint string) string {
	trimmedEndpoint := strings.TrimPrefix(strings.TrimSpace(endpoint), githubRepositoryEndpointPrefixConstant)
	endpointSegments := strings.Split(trimmedEndpoint, endpointSegmentSeparatorConstant)
	if len(endpointSegments) < githubCollaboratorEndpointSegmentCountConstant {
		return emptyStringConstant
	}
	return endpointSegments[githubCollaboratorUsernameSegmentPositionConstant]
}

func (formatter CommandMessageFormatter) extractFilePathFromEndpoint(endpoint string) string {
	separatorIndex := strings.Index(endpoint, githubContentsEndpointSegmentConstant)
	if separatorIndex < 0 {
		return fallbackUnknownValueLabelConstant
	}
	return formatter.ensureValue(endpoint[separatorIndex+len(githubContentsEndpointSegmentConstant):])
}

func (formatter CommandMessageFormatter) extractTeamReferenceFromEndpoint(endpoint string) string {
	trimmedEndpoint := strings.TrimPrefix(strings.TrimSpace(endpoint), githubOrganizationEndpointPrefixConstant)
	trimmedEndpoint = strings.TrimSuffix(trimmedEndpoint, githubTeamMembersEndpointSuffixConstant)
	endpointSegments := strings.Split(trimmedEndpoint, endpointSegmentSeparatorConstant)
	if len(endpointSegments) < githubTeamEndpointMinimumSegmentCountConstant-1 {
		return formatter.ensureValue(trimmedEndpoint)
	}
	organizationName := endpointSegments[githubTeamEndpointOrganizationSegmentIndexConstant]
	teamSlug := endpointSegments[len(endpointSegments)-1]
	return organizationName + endpointSegmentSeparatorConstant + teamSlug
}

func containsArgument(arguments []string, expectedValue string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == expectedValue {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flagName string) string {
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flagName && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}
