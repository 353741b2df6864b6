// Package teamexpand flattens organization team references into collaborator
// entries. Membership lookups are best effort: a failed lookup logs a warning
// and contributes no members instead of aborting the run.
package teamexpand
