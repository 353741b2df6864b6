package teamconfig

import (
	"strings"
	"time"
)

const (
	usernameMentionPrefixConstant = "@"
)

// Collaborator describes one desired membership grant.
type Collaborator struct {
	Username   string
	Permission Permission
	Expires    *time.Time
	FromTeam   string
}

// IsExpired reports whether the grant's expiration date lies strictly before the
// reference date. Grants without an expiration never expire. The predicate is
// derived at use time and never cached.
func (collaborator Collaborator) IsExpired(referenceTime time.Time) bool {
	if collaborator.Expires == nil {
		return false
	}
	return truncateToDate(*collaborator.Expires).Before(truncateToDate(referenceTime))
}

func truncateToDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

// TeamReference names a team whose membership is expanded into collaborators later.
type TeamReference struct {
	Slug       string
	Permission Permission
}

// TeamConfig holds the fully parsed desired state for one resolution.
type TeamConfig struct {
	Collaborators     []Collaborator
	TeamReferences    []TeamReference
	DefaultPermission Permission
	WelcomeIssue      bool
	WelcomeMessage    string
	Source            string

	seenUsernames map[string]struct{}
}

// NewTeamConfig constructs an empty desired state with the supplied default permission.
func NewTeamConfig(defaultPermission Permission) *TeamConfig {
	return &TeamConfig{
		DefaultPermission: defaultPermission,
		seenUsernames:     map[string]struct{}{},
	}
}

// AddCollaborator normalizes the username and appends the grant unless a grant
// for the same case-folded username was already recorded. The first occurrence
// wins; later duplicates are dropped silently. Empty usernames are discarded.
func (configuration *TeamConfig) AddCollaborator(collaborator Collaborator) bool {
	normalizedUsername := NormalizeUsername(collaborator.Username)
	if len(normalizedUsername) == 0 {
		return false
	}

	if configuration.seenUsernames == nil {
		configuration.seenUsernames = map[string]struct{}{}
	}

	caseFoldedUsername := strings.ToLower(normalizedUsername)
	if _, alreadySeen := configuration.seenUsernames[caseFoldedUsername]; alreadySeen {
		return false
	}

	collaborator.Username = normalizedUsername
	configuration.Collaborators = append(configuration.Collaborators, collaborator)
	configuration.seenUsernames[caseFoldedUsername] = struct{}{}
	return true
}

// AddTeamReference records a team reference for later expansion.
func (configuration *TeamConfig) AddTeamReference(reference TeamReference) {
	trimmedSlug := strings.TrimSpace(reference.Slug)
	if len(trimmedSlug) == 0 {
		return
	}
	reference.Slug = trimmedSlug
	configuration.TeamReferences = append(configuration.TeamReferences, reference)
}

// NormalizeUsername trims whitespace and strips a leading mention prefix.
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), usernameMentionPrefixConstant)
}
