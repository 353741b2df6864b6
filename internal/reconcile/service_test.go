package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/addteam/internal/githubcli"
	"github.com/temirov/addteam/internal/gitrepo"
	"github.com/temirov/addteam/internal/reconcile"
	"github.com/temirov/addteam/internal/teamconfig"
)

const (
	serviceTestOwnerConstant      = "octo"
	serviceTestRepositoryConstant = "widgets"
	serviceTestCallerConstant     = "operator"
	serviceTestSourceConstant     = "local:team.yaml"
)

var serviceReferenceTime = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

type fixedClock struct {
	currentTime time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.currentTime
}

type stubRepositoryResolver struct {
	metadata      githubcli.RepositoryMetadata
	metadataError error
	callerLogin   string
	callerError   error
}

func (resolver *stubRepositoryResolver) ResolveRepoMetadata(context.Context, string) (githubcli.RepositoryMetadata, error) {
	return resolver.metadata, resolver.metadataError
}

func (resolver *stubRepositoryResolver) ResolveAuthenticatedLogin(context.Context) (string, error) {
	return resolver.callerLogin, resolver.callerError
}

type collaboratorAddition struct {
	username   string
	permission string
}

type stubCollaboratorClient struct {
	collaboratorPages  [][]githubcli.RepositoryCollaborator
	listCallCount      int
	listError          error
	pendingInvitations []string
	pendingError       error
	additionErrors     map[string]error
	recordedAdditions  []collaboratorAddition
	removalErrors      map[string]error
	recordedRemovals   []string
}

func (client *stubCollaboratorClient) ListCollaborators(context.Context, string, string) ([]githubcli.RepositoryCollaborator, error) {
	if client.listError != nil {
		return nil, client.listError
	}
	pageIndex := client.listCallCount
	client.listCallCount++
	if pageIndex >= len(client.collaboratorPages) {
		if len(client.collaboratorPages) == 0 {
			return nil, nil
		}
		pageIndex = len(client.collaboratorPages) - 1
	}
	return client.collaboratorPages[pageIndex], nil
}

func (client *stubCollaboratorClient) ListPendingInvitations(context.Context, string, string) ([]string, error) {
	if client.pendingError != nil {
		return nil, client.pendingError
	}
	return client.pendingInvitations, nil
}

func (client *stubCollaboratorClient) AddCollaborator(_ context.Context, _ string, _ string, username string, permission string) error {
	if additionError, failureConfigured := client.additionErrors[strings.ToLower(username)]; failureConfigured {
		return additionError
	}
	client.recordedAdditions = append(client.recordedAdditions, collaboratorAddition{username: username, permission: permission})
	return nil
}

func (client *stubCollaboratorClient) RemoveCollaborator(_ context.Context, _ string, _ string, username string) error {
	if removalError, failureConfigured := client.removalErrors[strings.ToLower(username)]; failureConfigured {
		return removalError
	}
	client.recordedRemovals = append(client.recordedRemovals, username)
	return nil
}

type stubConfigResolver struct {
	configuration   *teamconfig.TeamConfig
	resolutionError error
	recordedSpecs   []string
	recordedTargets []gitrepo.RepositorySpec
}

func (resolver *stubConfigResolver) Resolve(_ context.Context, spec string, targetRepository gitrepo.RepositorySpec) (*teamconfig.TeamConfig, error) {
	resolver.recordedSpecs = append(resolver.recordedSpecs, spec)
	resolver.recordedTargets = append(resolver.recordedTargets, targetRepository)
	if resolver.resolutionError != nil {
		return nil, resolver.resolutionError
	}
	return resolver.configuration, nil
}

type stubTeamExpander struct {
	expandedConfigurations []*teamconfig.TeamConfig
}

func (expander *stubTeamExpander) ExpandInto(_ context.Context, configuration *teamconfig.TeamConfig) {
	expander.expandedConfigurations = append(expander.expandedConfigurations, configuration)
}

type composedIssue struct {
	repository string
	username   string
	permission string
	message    string
}

type stubWelcomeComposer struct {
	composeError   error
	composedIssues []composedIssue
}

func (composer *stubWelcomeComposer) ComposeWelcomeIssue(_ context.Context, repository string, username string, permission string, customMessage string) (string, string, error) {
	composer.composedIssues = append(composer.composedIssues, composedIssue{repository: repository, username: username, permission: permission, message: customMessage})
	if composer.composeError != nil {
		return "", "", composer.composeError
	}
	return "Welcome @" + username + "!", "welcome body", nil
}

type createdIssue struct {
	repository string
	title      string
}

type stubIssueCreator struct {
	creationError error
	createdIssues []createdIssue
}

func (creator *stubIssueCreator) CreateIssue(_ context.Context, repository string, title string, _ string) (string, error) {
	if creator.creationError != nil {
		return "", creator.creationError
	}
	creator.createdIssues = append(creator.createdIssues, createdIssue{repository: repository, title: title})
	return "https://github.com/" + repository + "/issues/1", nil
}

type recordingReporter struct {
	entries []string
}

func (reporter *recordingReporter) record(kind string, format string, arguments ...any) {
	reporter.entries = append(reporter.entries, kind+": "+fmt.Sprintf(format, arguments...))
}

func (reporter *recordingReporter) Success(format string, arguments ...any) {
	reporter.record("success", format, arguments...)
}

func (reporter *recordingReporter) Pending(format string, arguments ...any) {
	reporter.record("pending", format, arguments...)
}

func (reporter *recordingReporter) Skip(format string, arguments ...any) {
	reporter.record("skip", format, arguments...)
}

func (reporter *recordingReporter) Failure(format string, arguments ...any) {
	reporter.record("failure", format, arguments...)
}

func (reporter *recordingReporter) Header(format string, arguments ...any) {
	reporter.record("header", format, arguments...)
}

func (reporter *recordingReporter) Line(format string, arguments ...any) {
	reporter.record("line", format, arguments...)
}

func (reporter *recordingReporter) joined() string {
	return strings.Join(reporter.entries, "\n")
}

type serviceFixture struct {
	repositoryResolver *stubRepositoryResolver
	collaboratorClient *stubCollaboratorClient
	configResolver     *stubConfigResolver
	teamExpander       *stubTeamExpander
	welcomeComposer    *stubWelcomeComposer
	issueCreator       *stubIssueCreator
	reporter           *recordingReporter
}

func newServiceFixture(configuration *teamconfig.TeamConfig, livePages ...[]githubcli.RepositoryCollaborator) *serviceFixture {
	return &serviceFixture{
		repositoryResolver: &stubRepositoryResolver{
			metadata: githubcli.RepositoryMetadata{
				NameWithOwner: serviceTestOwnerConstant + "/" + serviceTestRepositoryConstant,
				Owner:         serviceTestOwnerConstant,
				Name:          serviceTestRepositoryConstant,
			},
			callerLogin: serviceTestCallerConstant,
		},
		collaboratorClient: &stubCollaboratorClient{collaboratorPages: livePages},
		configResolver:     &stubConfigResolver{configuration: configuration},
		teamExpander:       &stubTeamExpander{},
		welcomeComposer:    &stubWelcomeComposer{},
		issueCreator:       &stubIssueCreator{},
		reporter:           &recordingReporter{},
	}
}

func (fixture *serviceFixture) buildService(testInstance *testing.T) *reconcile.Service {
	service, constructionError := reconcile.NewService(reconcile.ServiceDependencies{
		RepositoryResolver: fixture.repositoryResolver,
		CollaboratorClient: fixture.collaboratorClient,
		IssueCreator:       fixture.issueCreator,
		ConfigResolver:     fixture.configResolver,
		TeamExpander:       fixture.teamExpander,
		WelcomeComposer:    fixture.welcomeComposer,
		Reporter:           fixture.reporter,
		Clock:              fixedClock{currentTime: serviceReferenceTime},
	})
	require.NoError(testInstance, constructionError)
	return service
}

func newTestConfiguration(collaborators ...teamconfig.Collaborator) *teamconfig.TeamConfig {
	configuration := teamconfig.NewTeamConfig(teamconfig.DefaultPermission)
	for _, collaborator := range collaborators {
		configuration.AddCollaborator(collaborator)
	}
	configuration.Source = serviceTestSourceConstant
	return configuration
}

func TestRunAudit(testInstance *testing.T) {
	testInstance.Run("reports_combined_drift", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
			teamconfig.Collaborator{Username: "carol", Permission: teamconfig.PermissionAdmin},
			teamconfig.Collaborator{Username: "dave", Permission: teamconfig.PermissionPush, Expires: datePointerTest(2026, time.January, 1)},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "carol", Permission: "pull"},
			{Login: "mallory", Permission: "push"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunAudit(context.Background(), reconcile.CommandOptions{}))

		report := fixture.reporter.joined()
		require.Contains(testInstance, report, "header: Audit for octo/widgets (source: local:team.yaml)")
		require.Contains(testInstance, report, "alice (push)")
		require.Contains(testInstance, report, "mallory (push)")
		require.Contains(testInstance, report, "carol: pull -> admin")
		require.Contains(testInstance, report, "dave (expired 2026-01-01)")
		require.Contains(testInstance, report, "4 item(s) of drift.")
	})

	testInstance.Run("case_permutations_report_no_drift", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "Alice", Permission: teamconfig.PermissionPush},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "ALICE", Permission: "push"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunAudit(context.Background(), reconcile.CommandOptions{}))

		require.Contains(testInstance, fixture.reporter.joined(), "No drift detected.")
	})

	testInstance.Run("owner_and_caller_excluded", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: serviceTestOwnerConstant, Permission: teamconfig.PermissionAdmin},
			teamconfig.Collaborator{Username: serviceTestCallerConstant, Permission: teamconfig.PermissionPush},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: serviceTestCallerConstant, Permission: "pull"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunAudit(context.Background(), reconcile.CommandOptions{}))

		require.Contains(testInstance, fixture.reporter.joined(), "No drift detected.")
	})

	testInstance.Run("malformed_repository_flag_rejected", func(testInstance *testing.T) {
		fixture := newServiceFixture(newTestConfiguration())
		service := fixture.buildService(testInstance)

		auditError := service.RunAudit(context.Background(), reconcile.CommandOptions{Repository: "not-a-repo"})

		var invocationError reconcile.InvalidInvocationError
		require.ErrorAs(testInstance, auditError, &invocationError)
	})

	testInstance.Run("live_fetch_failure_is_fatal", func(testInstance *testing.T) {
		fixture := newServiceFixture(newTestConfiguration(
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
		))
		fixture.collaboratorClient.listError = errors.New("network unavailable")
		service := fixture.buildService(testInstance)

		require.Error(testInstance, service.RunAudit(context.Background(), reconcile.CommandOptions{}))
	})
}

func TestRunApply(testInstance *testing.T) {
	testInstance.Run("invites_missing_and_skips_settled", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: serviceTestOwnerConstant, Permission: teamconfig.PermissionAdmin},
			teamconfig.Collaborator{Username: serviceTestCallerConstant, Permission: teamconfig.PermissionPush},
			teamconfig.Collaborator{Username: "dave", Permission: teamconfig.PermissionPush, Expires: datePointerTest(2026, time.January, 1)},
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
			teamconfig.Collaborator{Username: "pending-user", Permission: teamconfig.PermissionPull},
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "Alice", Permission: "push"},
		})
		fixture.collaboratorClient.pendingInvitations = []string{"Pending-User"}
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{}))

		require.Equal(testInstance, []collaboratorAddition{{username: "bob", permission: "maintain"}}, fixture.collaboratorClient.recordedAdditions)
		report := fixture.reporter.joined()
		require.Contains(testInstance, report, "skip: octo: repository owner")
		require.Contains(testInstance, report, "skip: operator: authenticated user")
		require.Contains(testInstance, report, "skip: dave: expired 2026-01-01")
		require.Contains(testInstance, report, "skip: alice: already has push access")
		require.Contains(testInstance, report, "skip: pending-user: invitation pending")
		require.Contains(testInstance, report, "success: invited bob (maintain)")
		require.Contains(testInstance, report, "line: Summary: 1 invited, 5 skipped, 0 failed, 0 removed")
	})

	testInstance.Run("dry_run_plans_without_mutations", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
			teamconfig.Collaborator{Username: "carol", Permission: teamconfig.PermissionAdmin},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "mallory", Permission: "push"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{DryRun: true, Sync: true}))

		require.Empty(testInstance, fixture.collaboratorClient.recordedAdditions)
		require.Empty(testInstance, fixture.collaboratorClient.recordedRemovals)
		report := fixture.reporter.joined()
		require.Contains(testInstance, report, "pending: would invite bob (maintain)")
		require.Contains(testInstance, report, "pending: would invite carol (admin)")
		require.Contains(testInstance, report, "pending: would remove mallory")
		require.Contains(testInstance, report, "line: Summary (dry run): 2 to invite, 1 to remove, 0 skipped")
	})

	testInstance.Run("failed_invite_continues_and_fails_overall", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
			teamconfig.Collaborator{Username: "carol", Permission: teamconfig.PermissionAdmin},
		)
		fixture := newServiceFixture(configuration)
		fixture.collaboratorClient.additionErrors = map[string]error{"bob": errors.New("blocked")}
		service := fixture.buildService(testInstance)

		applyError := service.RunApply(context.Background(), reconcile.CommandOptions{})

		var failedError reconcile.ApplyFailedError
		require.ErrorAs(testInstance, applyError, &failedError)
		require.Equal(testInstance, 1, failedError.FailedCount)
		require.Equal(testInstance, []collaboratorAddition{{username: "carol", permission: "admin"}}, fixture.collaboratorClient.recordedAdditions)
	})

	testInstance.Run("sync_removes_unlisted_and_expired", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
			teamconfig.Collaborator{Username: "dave", Permission: teamconfig.PermissionPush, Expires: datePointerTest(2026, time.January, 1)},
		)
		livePage := []githubcli.RepositoryCollaborator{
			{Login: "alice", Permission: "push"},
			{Login: "dave", Permission: "push"},
			{Login: "mallory", Permission: "pull"},
		}
		fixture := newServiceFixture(configuration, livePage, livePage)
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{Sync: true}))

		require.ElementsMatch(testInstance, []string{"dave", "mallory"}, fixture.collaboratorClient.recordedRemovals)
		require.NotContains(testInstance, fixture.collaboratorClient.recordedRemovals, "alice")
	})

	testInstance.Run("sync_removal_failure_is_not_fatal", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
		)
		livePage := []githubcli.RepositoryCollaborator{
			{Login: "alice", Permission: "push"},
			{Login: "mallory", Permission: "pull"},
			{Login: "trudy", Permission: "pull"},
		}
		fixture := newServiceFixture(configuration, livePage, livePage)
		fixture.collaboratorClient.removalErrors = map[string]error{"mallory": errors.New("forbidden")}
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{Sync: true}))

		require.Equal(testInstance, []string{"trudy"}, fixture.collaboratorClient.recordedRemovals)
		require.Contains(testInstance, fixture.reporter.joined(), "failure: remove mallory: forbidden")
	})

	testInstance.Run("sync_rejects_empty_collaborator_list", func(testInstance *testing.T) {
		fixture := newServiceFixture(newTestConfiguration())
		service := fixture.buildService(testInstance)

		applyError := service.RunApply(context.Background(), reconcile.CommandOptions{Sync: true})

		var invocationError reconcile.InvalidInvocationError
		require.ErrorAs(testInstance, applyError, &invocationError)
	})

	testInstance.Run("single_user_bypasses_config_resolution", func(testInstance *testing.T) {
		fixture := newServiceFixture(nil)
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{SingleUser: "@Eve", Permission: "maintain"}))

		require.Empty(testInstance, fixture.configResolver.recordedSpecs)
		require.Equal(testInstance, []collaboratorAddition{{username: "Eve", permission: "maintain"}}, fixture.collaboratorClient.recordedAdditions)
	})

	testInstance.Run("single_user_with_sync_rejected", func(testInstance *testing.T) {
		fixture := newServiceFixture(nil)
		service := fixture.buildService(testInstance)

		applyError := service.RunApply(context.Background(), reconcile.CommandOptions{SingleUser: "eve", Sync: true})

		var invocationError reconcile.InvalidInvocationError
		require.ErrorAs(testInstance, applyError, &invocationError)
	})

	testInstance.Run("welcome_issue_created_for_new_invites_only", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionPush},
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "alice", Permission: "push"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{Welcome: true}))

		require.Len(testInstance, fixture.welcomeComposer.composedIssues, 1)
		require.Equal(testInstance, "bob", fixture.welcomeComposer.composedIssues[0].username)
		require.Equal(testInstance, "octo/widgets", fixture.welcomeComposer.composedIssues[0].repository)
		require.Len(testInstance, fixture.issueCreator.createdIssues, 1)
		require.Equal(testInstance, "Welcome @bob!", fixture.issueCreator.createdIssues[0].title)
	})

	testInstance.Run("welcome_issue_failure_is_not_fatal", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
		)
		configuration.WelcomeIssue = true
		fixture := newServiceFixture(configuration)
		fixture.issueCreator.creationError = errors.New("issues disabled")
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{}))

		require.Equal(testInstance, []collaboratorAddition{{username: "bob", permission: "maintain"}}, fixture.collaboratorClient.recordedAdditions)
	})

	testInstance.Run("second_run_is_idempotent", func(testInstance *testing.T) {
		configuration := newTestConfiguration(
			teamconfig.Collaborator{Username: "bob", Permission: teamconfig.PermissionMaintain},
		)
		fixture := newServiceFixture(configuration, []githubcli.RepositoryCollaborator{
			{Login: "bob", Permission: "maintain"},
		})
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{}))

		require.Empty(testInstance, fixture.collaboratorClient.recordedAdditions)
		require.Contains(testInstance, fixture.reporter.joined(), "line: Summary: 0 invited, 1 skipped, 0 failed, 0 removed")
	})

	testInstance.Run("team_expansion_runs_before_comparison", func(testInstance *testing.T) {
		configuration := newTestConfiguration()
		configuration.AddTeamReference(teamconfig.TeamReference{Slug: "octo/platform", Permission: teamconfig.PermissionPush})
		fixture := newServiceFixture(configuration)
		service := fixture.buildService(testInstance)

		require.NoError(testInstance, service.RunApply(context.Background(), reconcile.CommandOptions{}))

		require.Len(testInstance, fixture.teamExpander.expandedConfigurations, 1)
		require.Same(testInstance, configuration, fixture.teamExpander.expandedConfigurations[0])
	})
}

func datePointerTest(year int, month time.Month, day int) *time.Time {
	value := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &value
}
