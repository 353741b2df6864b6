package reconcile

import (
	"strings"
	"time"

	"github.com/temirov/addteam/internal/teamconfig"
)

// Compare categorizes drift between desired and live collaborators. The
// repository owner and the authenticated caller are excluded from both sides,
// usernames match case-insensitively, and an expired desired entry lands in
// Expired regardless of live presence instead of Missing or PermissionDrift.
func Compare(desired []teamconfig.Collaborator, live []LiveCollaborator, excludedUsernames []string, referenceTime time.Time) AuditResult {
	excludedSet := buildCaseFoldedSet(excludedUsernames)

	livePermissions := map[string]string{}
	orderedLive := make([]LiveCollaborator, 0, len(live))
	for _, liveCollaborator := range live {
		foldedLogin := strings.ToLower(liveCollaborator.Login)
		if _, excluded := excludedSet[foldedLogin]; excluded {
			continue
		}
		livePermissions[foldedLogin] = liveCollaborator.Permission
		orderedLive = append(orderedLive, liveCollaborator)
	}

	result := AuditResult{}
	activeDesiredSet := map[string]struct{}{}

	for _, desiredCollaborator := range desired {
		foldedUsername := strings.ToLower(desiredCollaborator.Username)
		if _, excluded := excludedSet[foldedUsername]; excluded {
			continue
		}

		if desiredCollaborator.IsExpired(referenceTime) {
			result.Expired = append(result.Expired, desiredCollaborator)
			continue
		}

		activeDesiredSet[foldedUsername] = struct{}{}

		livePermission, presentLive := livePermissions[foldedUsername]
		if !presentLive {
			result.Missing = append(result.Missing, desiredCollaborator)
			continue
		}
		if livePermission != string(desiredCollaborator.Permission) {
			result.PermissionDrift = append(result.PermissionDrift, PermissionDrift{
				Username:          desiredCollaborator.Username,
				ActualPermission:  livePermission,
				DesiredPermission: string(desiredCollaborator.Permission),
			})
		}
	}

	for _, liveCollaborator := range orderedLive {
		if _, desiredActive := activeDesiredSet[strings.ToLower(liveCollaborator.Login)]; !desiredActive {
			result.Extra = append(result.Extra, liveCollaborator)
		}
	}

	return result
}

// removalCandidates lists the live logins sync mode should revoke: live users
// no non-expired desired entry matches, plus expired desired users still
// holding access. Excluded usernames are never candidates.
func removalCandidates(desired []teamconfig.Collaborator, live []LiveCollaborator, excludedUsernames []string, referenceTime time.Time) []string {
	excludedSet := buildCaseFoldedSet(excludedUsernames)

	activeDesiredSet := map[string]struct{}{}
	for _, desiredCollaborator := range desired {
		if desiredCollaborator.IsExpired(referenceTime) {
			continue
		}
		activeDesiredSet[strings.ToLower(desiredCollaborator.Username)] = struct{}{}
	}

	candidates := make([]string, 0)
	for _, liveCollaborator := range live {
		foldedLogin := strings.ToLower(liveCollaborator.Login)
		if _, excluded := excludedSet[foldedLogin]; excluded {
			continue
		}
		if _, desiredActive := activeDesiredSet[foldedLogin]; desiredActive {
			continue
		}
		candidates = append(candidates, liveCollaborator.Login)
	}

	return candidates
}

func buildCaseFoldedSet(values []string) map[string]struct{} {
	foldedSet := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		foldedSet[strings.ToLower(trimmedValue)] = struct{}{}
	}
	return foldedSet
}
