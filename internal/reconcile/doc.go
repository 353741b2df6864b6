// Package reconcile compares desired collaborator membership against live
// repository state and executes the resulting plan.
//
// The audit command renders drift without mutating anything; the apply command
// invites missing collaborators, optionally creates welcome issues, and in sync
// mode removes collaborators that are unlisted or expired.
package reconcile
