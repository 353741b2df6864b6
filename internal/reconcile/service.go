package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/addteam/internal/gitrepo"
	"github.com/temirov/addteam/internal/teamconfig"
)

const (
	commandLineSourceLabelConstant            = "command line"
	isoDateDisplayLayoutConstant              = "2006-01-02"
	repositoryResolverMissingMessageConstant  = "reconcile service requires a repository resolver"
	collaboratorClientMissingMessageConstant  = "reconcile service requires a collaborator client"
	configResolverMissingMessageConstant      = "reconcile service requires a configuration resolver"
	reporterMissingMessageConstant            = "reconcile service requires a run reporter"
	malformedRepositoryReasonTemplateConstant = "malformed repository %q, expected owner/name"
	syncWithUserReasonConstant                = "--sync cannot be combined with --user"
	syncEmptyListReasonConstant               = "refusing to sync an empty collaborator list"
	welcomeIssueWarningMessageConstant        = "Could not create welcome issue"
	usernameLogFieldNameConstant              = "username"

	auditHeaderTemplateConstant          = "Audit for %s (source: %s)"
	missingSectionTemplateConstant       = "Missing (%d):"
	extraSectionTemplateConstant         = "Extra (%d):"
	driftSectionTemplateConstant         = "Permission drift (%d):"
	expiredSectionTemplateConstant       = "Expired (%d):"
	missingEntryTemplateConstant         = "  - %s (%s)"
	missingFromTeamEntryTemplateConstant = "  - %s (%s, from %s)"
	extraEntryTemplateConstant           = "  - %s (%s)"
	driftEntryTemplateConstant           = "  - %s: %s -> %s"
	expiredEntryTemplateConstant         = "  - %s (expired %s)"
	noDriftMessageConstant               = "No drift detected."
	driftTotalTemplateConstant           = "%d item(s) of drift."
	applyHeaderTemplateConstant          = "Applying %s to %s"
	skipOwnerTemplateConstant            = "%s: repository owner"
	skipCallerTemplateConstant           = "%s: authenticated user"
	skipExpiredTemplateConstant          = "%s: expired %s"
	skipPresentTemplateConstant          = "%s: already has %s access"
	skipPendingInviteTemplateConstant    = "%s: invitation pending"
	wouldInviteTemplateConstant          = "would invite %s (%s)"
	invitedTemplateConstant              = "invited %s (%s)"
	inviteFailureTemplateConstant        = "%s: %s"
	wouldRemoveTemplateConstant          = "would remove %s"
	removedTemplateConstant              = "removed %s"
	removeFailureTemplateConstant        = "remove %s: %s"
	applySummaryTemplateConstant         = "Summary: %d invited, %d skipped, %d failed, %d removed"
	applyDryRunSummaryTemplateConstant   = "Summary (dry run): %d to invite, %d to remove, %d skipped"
	welcomeIssueFailureTemplateConstant  = "welcome issue for %s: %s"
)

// Sentinel construction errors.
var (
	ErrRepositoryResolverNotConfigured = errors.New(repositoryResolverMissingMessageConstant)
	ErrCollaboratorClientNotConfigured = errors.New(collaboratorClientMissingMessageConstant)
	ErrConfigResolverNotConfigured     = errors.New(configResolverMissingMessageConstant)
	ErrReporterNotConfigured           = errors.New(reporterMissingMessageConstant)
)

// ServiceDependencies carries the collaborators a Service needs.
type ServiceDependencies struct {
	RepositoryResolver RepositoryResolver
	CollaboratorClient CollaboratorClient
	IssueCreator       IssueCreator
	ConfigResolver     ConfigResolver
	TeamExpander       TeamExpander
	WelcomeComposer    WelcomeComposer
	Reporter           RunReporter
	Logger             *zap.Logger
	Clock              Clock
}

// Service runs audit and apply reconciliation against one repository.
type Service struct {
	repositoryResolver RepositoryResolver
	collaboratorClient CollaboratorClient
	issueCreator       IssueCreator
	configResolver     ConfigResolver
	teamExpander       TeamExpander
	welcomeComposer    WelcomeComposer
	reporter           RunReporter
	logger             *zap.Logger
	clock              Clock
}

// NewService constructs a Service after validating required dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryResolver == nil {
		return nil, ErrRepositoryResolverNotConfigured
	}
	if dependencies.CollaboratorClient == nil {
		return nil, ErrCollaboratorClientNotConfigured
	}
	if dependencies.ConfigResolver == nil {
		return nil, ErrConfigResolverNotConfigured
	}
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}

	serviceLogger := dependencies.Logger
	if serviceLogger == nil {
		serviceLogger = zap.NewNop()
	}
	serviceClock := dependencies.Clock
	if serviceClock == nil {
		serviceClock = SystemClock{}
	}

	return &Service{
		repositoryResolver: dependencies.RepositoryResolver,
		collaboratorClient: dependencies.CollaboratorClient,
		issueCreator:       dependencies.IssueCreator,
		configResolver:     dependencies.ConfigResolver,
		teamExpander:       dependencies.TeamExpander,
		welcomeComposer:    dependencies.WelcomeComposer,
		reporter:           dependencies.Reporter,
		logger:             serviceLogger,
		clock:              serviceClock,
	}, nil
}

type runState struct {
	repository        gitrepo.RepositorySpec
	callerLogin       string
	configuration     *teamconfig.TeamConfig
	excludedUsernames []string
}

func (service *Service) prepare(executionContext context.Context, options CommandOptions) (runState, error) {
	trimmedRepository := strings.TrimSpace(options.Repository)
	if len(trimmedRepository) > 0 {
		if _, parseError := gitrepo.ParseRepositorySpec(trimmedRepository); parseError != nil {
			return runState{}, InvalidInvocationError{Reason: fmt.Sprintf(malformedRepositoryReasonTemplateConstant, trimmedRepository)}
		}
	}

	repositoryMetadata, metadataError := service.repositoryResolver.ResolveRepoMetadata(executionContext, trimmedRepository)
	if metadataError != nil {
		return runState{}, metadataError
	}
	repository := gitrepo.RepositorySpec{Owner: repositoryMetadata.Owner, Name: repositoryMetadata.Name}

	callerLogin, callerError := service.repositoryResolver.ResolveAuthenticatedLogin(executionContext)
	if callerError != nil {
		return runState{}, callerError
	}

	configuration, configurationError := service.loadConfiguration(executionContext, options, repository)
	if configurationError != nil {
		return runState{}, configurationError
	}

	if service.teamExpander != nil {
		service.teamExpander.ExpandInto(executionContext, configuration)
	}

	if options.Sync && len(configuration.Collaborators) == 0 {
		return runState{}, InvalidInvocationError{Reason: syncEmptyListReasonConstant}
	}

	return runState{
		repository:        repository,
		callerLogin:       callerLogin,
		configuration:     configuration,
		excludedUsernames: []string{repository.Owner, callerLogin},
	}, nil
}

func (service *Service) loadConfiguration(executionContext context.Context, options CommandOptions, repository gitrepo.RepositorySpec) (*teamconfig.TeamConfig, error) {
	singleUser := teamconfig.NormalizeUsername(options.SingleUser)
	if len(singleUser) > 0 {
		if options.Sync {
			return nil, InvalidInvocationError{Reason: syncWithUserReasonConstant}
		}
		configuration := teamconfig.NewTeamConfig(teamconfig.NormalizePermission(options.Permission, teamconfig.DefaultPermission))
		configuration.AddCollaborator(teamconfig.Collaborator{Username: singleUser, Permission: configuration.DefaultPermission})
		configuration.Source = commandLineSourceLabelConstant
		return configuration, nil
	}

	return service.configResolver.Resolve(executionContext, options.ConfigSpec, repository)
}

func (service *Service) fetchLiveCollaborators(executionContext context.Context, repository gitrepo.RepositorySpec) ([]LiveCollaborator, error) {
	repositoryCollaborators, listError := service.collaboratorClient.ListCollaborators(executionContext, repository.Owner, repository.Name)
	if listError != nil {
		return nil, listError
	}

	liveCollaborators := make([]LiveCollaborator, 0, len(repositoryCollaborators))
	for _, repositoryCollaborator := range repositoryCollaborators {
		liveCollaborators = append(liveCollaborators, LiveCollaborator{
			Login:      repositoryCollaborator.Login,
			Permission: repositoryCollaborator.Permission,
		})
	}

	return liveCollaborators, nil
}

// RunAudit renders the drift report. Drift alone never produces an error; only
// resolution and live-state fetch failures do.
func (service *Service) RunAudit(executionContext context.Context, options CommandOptions) error {
	state, prepareError := service.prepare(executionContext, options)
	if prepareError != nil {
		return prepareError
	}

	liveCollaborators, fetchError := service.fetchLiveCollaborators(executionContext, state.repository)
	if fetchError != nil {
		return fetchError
	}

	result := Compare(state.configuration.Collaborators, liveCollaborators, state.excludedUsernames, service.clock.Now())

	service.reporter.Header(auditHeaderTemplateConstant, state.repository.String(), state.configuration.Source)

	if len(result.Missing) > 0 {
		service.reporter.Line(missingSectionTemplateConstant, len(result.Missing))
		for _, missingCollaborator := range result.Missing {
			if len(missingCollaborator.FromTeam) > 0 {
				service.reporter.Line(missingFromTeamEntryTemplateConstant, missingCollaborator.Username, missingCollaborator.Permission, missingCollaborator.FromTeam)
				continue
			}
			service.reporter.Line(missingEntryTemplateConstant, missingCollaborator.Username, missingCollaborator.Permission)
		}
	}

	if len(result.Extra) > 0 {
		service.reporter.Line(extraSectionTemplateConstant, len(result.Extra))
		for _, extraCollaborator := range result.Extra {
			service.reporter.Line(extraEntryTemplateConstant, extraCollaborator.Login, extraCollaborator.Permission)
		}
	}

	if len(result.PermissionDrift) > 0 {
		service.reporter.Line(driftSectionTemplateConstant, len(result.PermissionDrift))
		for _, drift := range result.PermissionDrift {
			service.reporter.Line(driftEntryTemplateConstant, drift.Username, drift.ActualPermission, drift.DesiredPermission)
		}
	}

	if len(result.Expired) > 0 {
		service.reporter.Line(expiredSectionTemplateConstant, len(result.Expired))
		for _, expiredCollaborator := range result.Expired {
			service.reporter.Line(expiredEntryTemplateConstant, expiredCollaborator.Username, expiredCollaborator.Expires.Format(isoDateDisplayLayoutConstant))
		}
	}

	if result.DriftCount() == 0 {
		service.reporter.Line(noDriftMessageConstant)
	} else {
		service.reporter.Line(driftTotalTemplateConstant, result.DriftCount())
	}

	return nil
}

// RunApply reconciles live state toward the desired configuration. The overall
// result fails when any invite call failed; sync removal failures only warn.
func (service *Service) RunApply(executionContext context.Context, options CommandOptions) error {
	state, prepareError := service.prepare(executionContext, options)
	if prepareError != nil {
		return prepareError
	}

	liveCollaborators, fetchError := service.fetchLiveCollaborators(executionContext, state.repository)
	if fetchError != nil {
		return fetchError
	}

	pendingInvitations, invitationError := service.collaboratorClient.ListPendingInvitations(executionContext, state.repository.Owner, state.repository.Name)
	if invitationError != nil {
		return invitationError
	}

	referenceTime := service.clock.Now()
	livePermissions := map[string]string{}
	for _, liveCollaborator := range liveCollaborators {
		livePermissions[strings.ToLower(liveCollaborator.Login)] = liveCollaborator.Permission
	}
	pendingSet := buildCaseFoldedSet(pendingInvitations)

	service.reporter.Header(applyHeaderTemplateConstant, state.configuration.Source, state.repository.String())

	ownerFolded := strings.ToLower(strings.TrimSpace(state.repository.Owner))
	callerFolded := strings.ToLower(strings.TrimSpace(state.callerLogin))

	invitedCount := 0
	skippedCount := 0
	failedCount := 0
	removedCount := 0
	plannedInviteCount := 0

	for _, desiredCollaborator := range state.configuration.Collaborators {
		foldedUsername := strings.ToLower(desiredCollaborator.Username)

		switch {
		case foldedUsername == ownerFolded:
			service.reporter.Skip(skipOwnerTemplateConstant, desiredCollaborator.Username)
			skippedCount++
			continue
		case len(callerFolded) > 0 && foldedUsername == callerFolded:
			service.reporter.Skip(skipCallerTemplateConstant, desiredCollaborator.Username)
			skippedCount++
			continue
		case desiredCollaborator.IsExpired(referenceTime):
			service.reporter.Skip(skipExpiredTemplateConstant, desiredCollaborator.Username, desiredCollaborator.Expires.Format(isoDateDisplayLayoutConstant))
			skippedCount++
			continue
		}

		if livePermission, presentLive := livePermissions[foldedUsername]; presentLive && livePermission == string(desiredCollaborator.Permission) {
			service.reporter.Skip(skipPresentTemplateConstant, desiredCollaborator.Username, livePermission)
			skippedCount++
			continue
		}

		if _, invitePending := pendingSet[foldedUsername]; invitePending {
			service.reporter.Skip(skipPendingInviteTemplateConstant, desiredCollaborator.Username)
			skippedCount++
			continue
		}

		if options.DryRun {
			service.reporter.Pending(wouldInviteTemplateConstant, desiredCollaborator.Username, desiredCollaborator.Permission)
			plannedInviteCount++
			continue
		}

		additionError := service.collaboratorClient.AddCollaborator(executionContext, state.repository.Owner, state.repository.Name, desiredCollaborator.Username, string(desiredCollaborator.Permission))
		if additionError != nil {
			service.reporter.Failure(inviteFailureTemplateConstant, desiredCollaborator.Username, additionError)
			failedCount++
			continue
		}

		service.reporter.Success(invitedTemplateConstant, desiredCollaborator.Username, desiredCollaborator.Permission)
		invitedCount++

		if options.Welcome || state.configuration.WelcomeIssue {
			service.createWelcomeIssue(executionContext, state, desiredCollaborator)
		}
	}

	plannedRemovalCount := 0
	if options.Sync {
		refetchedLive, refetchError := service.fetchLiveCollaborators(executionContext, state.repository)
		if refetchError != nil {
			return refetchError
		}

		for _, removalLogin := range removalCandidates(state.configuration.Collaborators, refetchedLive, state.excludedUsernames, referenceTime) {
			if options.DryRun {
				service.reporter.Pending(wouldRemoveTemplateConstant, removalLogin)
				plannedRemovalCount++
				continue
			}

			removalError := service.collaboratorClient.RemoveCollaborator(executionContext, state.repository.Owner, state.repository.Name, removalLogin)
			if removalError != nil {
				service.reporter.Failure(removeFailureTemplateConstant, removalLogin, removalError)
				continue
			}
			service.reporter.Success(removedTemplateConstant, removalLogin)
			removedCount++
		}
	}

	if options.DryRun {
		service.reporter.Line(applyDryRunSummaryTemplateConstant, plannedInviteCount, plannedRemovalCount, skippedCount)
	} else {
		service.reporter.Line(applySummaryTemplateConstant, invitedCount, skippedCount, failedCount, removedCount)
	}

	if failedCount > 0 {
		return ApplyFailedError{FailedCount: failedCount}
	}

	return nil
}

func (service *Service) createWelcomeIssue(executionContext context.Context, state runState, collaborator teamconfig.Collaborator) {
	if service.welcomeComposer == nil || service.issueCreator == nil {
		return
	}

	issueTitle, issueBody, composeError := service.welcomeComposer.ComposeWelcomeIssue(executionContext, state.repository.String(), collaborator.Username, string(collaborator.Permission), state.configuration.WelcomeMessage)
	if composeError != nil {
		service.logger.Warn(welcomeIssueWarningMessageConstant, zap.String(usernameLogFieldNameConstant, collaborator.Username), zap.Error(composeError))
		return
	}

	if _, creationError := service.issueCreator.CreateIssue(executionContext, state.repository.String(), issueTitle, issueBody); creationError != nil {
		service.logger.Warn(welcomeIssueWarningMessageConstant, zap.String(usernameLogFieldNameConstant, collaborator.Username), zap.Error(creationError))
		service.reporter.Failure(welcomeIssueFailureTemplateConstant, collaborator.Username, creationError)
	}
}
