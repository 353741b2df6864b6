package teamexpand

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/addteam/internal/teamconfig"
)

const (
	teamSlugSeparatorConstant                = "/"
	expectedTeamSlugSegmentCountConstant     = 2
	listerNotConfiguredMessageConstant       = "team expander requires a membership lister"
	expansionFailedWarningMessageConstant    = "Could not expand team; skipping its members"
	malformedReferenceWarningMessageConstant = "Ignoring malformed team reference"
	teamLogFieldNameConstant                 = "team"
)

// ErrMembershipListerNotConfigured indicates the expander was built without a lister.
var ErrMembershipListerNotConfigured = errors.New(listerNotConfiguredMessageConstant)

// TeamMembershipLister retrieves the member logins of an organization team.
type TeamMembershipLister interface {
	ListTeamMembers(executionContext context.Context, organization string, teamSlug string) ([]string, error)
}

// Expander resolves team references into collaborator entries.
type Expander struct {
	lister TeamMembershipLister
	logger *zap.Logger
}

// NewExpander constructs an Expander.
func NewExpander(lister TeamMembershipLister, logger *zap.Logger) (*Expander, error) {
	if lister == nil {
		return nil, ErrMembershipListerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{lister: lister, logger: logger}, nil
}

// ExpandInto appends each referenced team's members to the configuration as
// collaborators carrying the reference's permission and provenance. Lookup
// failures and malformed references are logged and skipped; duplicates are
// dropped by the configuration's first-seen-wins rule.
func (expander *Expander) ExpandInto(executionContext context.Context, configuration *teamconfig.TeamConfig) {
	for _, teamReference := range configuration.TeamReferences {
		slugSegments := strings.SplitN(teamReference.Slug, teamSlugSeparatorConstant, expectedTeamSlugSegmentCountConstant)
		if len(slugSegments) != expectedTeamSlugSegmentCountConstant || len(strings.TrimSpace(slugSegments[0])) == 0 || len(strings.TrimSpace(slugSegments[1])) == 0 {
			expander.logger.Warn(malformedReferenceWarningMessageConstant, zap.String(teamLogFieldNameConstant, teamReference.Slug))
			continue
		}

		memberLogins, listError := expander.lister.ListTeamMembers(executionContext, strings.TrimSpace(slugSegments[0]), strings.TrimSpace(slugSegments[1]))
		if listError != nil {
			expander.logger.Warn(expansionFailedWarningMessageConstant,
				zap.String(teamLogFieldNameConstant, teamReference.Slug),
				zap.Error(listError),
			)
			continue
		}

		for _, memberLogin := range memberLogins {
			configuration.AddCollaborator(teamconfig.Collaborator{
				Username:   memberLogin,
				Permission: teamReference.Permission,
				FromTeam:   teamReference.Slug,
			})
		}
	}
}
