// Package summary composes onboarding content for newly invited
// collaborators. It generates an optional AI repository summary through
// configured LLM providers and renders welcome issues and README blocks
// from it. Every generation failure degrades to plain content instead of
// failing the surrounding command.
package summary
