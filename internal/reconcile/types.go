package reconcile

import (
	"fmt"
	"time"

	"github.com/temirov/addteam/internal/teamconfig"
)

const (
	invalidInvocationTemplateConstant = "invalid invocation: %s"
	applyFailureTemplateConstant      = "%d collaborator addition(s) failed"
)

// CommandOptions captures the reconciliation settings shared by audit and apply.
type CommandOptions struct {
	ConfigSpec     string
	Repository     string
	SingleUser     string
	Permission     string
	DryRun         bool
	Sync           bool
	Welcome        bool
	DisableSummary bool
	Provider       string
	WriteReadme    bool
}

// PermissionDrift records a collaborator present on both sides with differing permissions.
type PermissionDrift struct {
	Username          string
	ActualPermission  string
	DesiredPermission string
}

// LiveCollaborator pairs a live username with its normalized permission.
type LiveCollaborator struct {
	Login      string
	Permission string
}

// AuditResult categorizes the drift between desired and live state.
type AuditResult struct {
	Missing         []teamconfig.Collaborator
	Extra           []LiveCollaborator
	PermissionDrift []PermissionDrift
	Expired         []teamconfig.Collaborator
}

// DriftCount totals the categorized discrepancies.
func (result AuditResult) DriftCount() int {
	return len(result.Missing) + len(result.Extra) + len(result.PermissionDrift) + len(result.Expired)
}

// InvalidInvocationError reports flag or argument combinations the commands reject.
type InvalidInvocationError struct {
	Reason string
}

// Error describes the rejected invocation.
func (invocationError InvalidInvocationError) Error() string {
	return fmt.Sprintf(invalidInvocationTemplateConstant, invocationError.Reason)
}

// ApplyFailedError reports that one or more collaborator additions failed.
type ApplyFailedError struct {
	FailedCount int
}

// Error describes the partial failure.
func (applyError ApplyFailedError) Error() string {
	return fmt.Sprintf(applyFailureTemplateConstant, applyError.FailedCount)
}

// Clock supplies the current time for expiry evaluation.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
