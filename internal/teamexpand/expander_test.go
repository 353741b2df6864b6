package teamexpand_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/addteam/internal/teamconfig"
	"github.com/temirov/addteam/internal/teamexpand"
)

type stubMembershipLister struct {
	membersBySlug map[string][]string
	failingSlugs  map[string]error
	recordedSlugs []string
}

func (lister *stubMembershipLister) ListTeamMembers(executionContext context.Context, organization string, teamSlug string) ([]string, error) {
	fullSlug := organization + "/" + teamSlug
	lister.recordedSlugs = append(lister.recordedSlugs, fullSlug)
	if listError, failing := lister.failingSlugs[fullSlug]; failing {
		return nil, listError
	}
	return lister.membersBySlug[fullSlug], nil
}

func TestNewExpanderRequiresLister(testInstance *testing.T) {
	expander, creationError := teamexpand.NewExpander(nil, zap.NewNop())
	require.Nil(testInstance, expander)
	require.ErrorIs(testInstance, creationError, teamexpand.ErrMembershipListerNotConfigured)
}

func TestExpandIntoAppendsMembersWithProvenance(testInstance *testing.T) {
	lister := &stubMembershipLister{membersBySlug: map[string][]string{
		"octo/platform": {"frank", "grace"},
	}}

	expander, creationError := teamexpand.NewExpander(lister, zap.NewNop())
	require.NoError(testInstance, creationError)

	configuration := teamconfig.NewTeamConfig(teamconfig.DefaultPermission)
	configuration.AddTeamReference(teamconfig.TeamReference{Slug: "octo/platform", Permission: teamconfig.PermissionMaintain})

	expander.ExpandInto(context.Background(), configuration)

	require.Len(testInstance, configuration.Collaborators, 2)
	for _, collaborator := range configuration.Collaborators {
		require.Equal(testInstance, teamconfig.PermissionMaintain, collaborator.Permission)
		require.Equal(testInstance, "octo/platform", collaborator.FromTeam)
	}
}

func TestExpandIntoDropsMembersAlreadyListed(testInstance *testing.T) {
	lister := &stubMembershipLister{membersBySlug: map[string][]string{
		"octo/platform": {"Alice", "bob"},
	}}

	expander, creationError := teamexpand.NewExpander(lister, zap.NewNop())
	require.NoError(testInstance, creationError)

	configuration := teamconfig.NewTeamConfig(teamconfig.DefaultPermission)
	configuration.AddCollaborator(teamconfig.Collaborator{Username: "alice", Permission: teamconfig.PermissionAdmin})
	configuration.AddTeamReference(teamconfig.TeamReference{Slug: "octo/platform", Permission: teamconfig.PermissionPull})

	expander.ExpandInto(context.Background(), configuration)

	require.Len(testInstance, configuration.Collaborators, 2)
	require.Equal(testInstance, "alice", configuration.Collaborators[0].Username)
	require.Equal(testInstance, teamconfig.PermissionAdmin, configuration.Collaborators[0].Permission)
	require.Equal(testInstance, "bob", configuration.Collaborators[1].Username)
}

func TestExpandIntoLookupFailureWarnsAndContinues(testInstance *testing.T) {
	lister := &stubMembershipLister{
		membersBySlug: map[string][]string{"octo/docs": {"dave"}},
		failingSlugs:  map[string]error{"octo/platform": errors.New("insufficient privileges")},
	}

	observerCore, observedLogs := observer.New(zap.WarnLevel)
	expander, creationError := teamexpand.NewExpander(lister, zap.New(observerCore))
	require.NoError(testInstance, creationError)

	configuration := teamconfig.NewTeamConfig(teamconfig.DefaultPermission)
	configuration.AddTeamReference(teamconfig.TeamReference{Slug: "octo/platform", Permission: teamconfig.PermissionPush})
	configuration.AddTeamReference(teamconfig.TeamReference{Slug: "octo/docs", Permission: teamconfig.PermissionPull})

	expander.ExpandInto(context.Background(), configuration)

	require.Len(testInstance, configuration.Collaborators, 1)
	require.Equal(testInstance, "dave", configuration.Collaborators[0].Username)
	require.Len(testInstance, observedLogs.All(), 1)
	require.Equal(testInstance, []string{"octo/platform", "octo/docs"}, lister.recordedSlugs)
}

func TestExpandIntoMalformedReferenceSkipsLookup(testInstance *testing.T) {
	lister := &stubMembershipLister{}

	observerCore, observedLogs := observer.New(zap.WarnLevel)
	expander, creationError := teamexpand.NewExpander(lister, zap.New(observerCore))
	require.NoError(testInstance, creationError)

	configuration := teamconfig.NewTeamConfig(teamconfig.DefaultPermission)
	configuration.AddTeamReference(teamconfig.TeamReference{Slug: "missing-separator", Permission: teamconfig.PermissionPush})

	expander.ExpandInto(context.Background(), configuration)

	require.Empty(testInstance, configuration.Collaborators)
	require.Empty(testInstance, lister.recordedSlugs)
	require.Len(testInstance, observedLogs.All(), 1)
}
