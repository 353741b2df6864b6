package summary_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/addteam/internal/githubcli"
	"github.com/temirov/addteam/internal/summary"
)

const (
	composerTestRepositoryConstant    = "octo/widgets"
	composerTestUsernameConstant      = "alice"
	composerTestPermissionConstant    = "push"
	composerTestCustomMessageConstant = "Join #widgets-dev for questions."
	composerTestSummaryConstant       = "Widgets renders dashboards for internal tools."
	composerTestDescriptionConstant   = "Dashboard widgets"
)

type stubSummaryGenerator struct {
	summaryText     string
	generationError error
	descriptions    []string
}

func (generator *stubSummaryGenerator) GenerateSummary(_ context.Context, _ string, description string) (string, error) {
	generator.descriptions = append(generator.descriptions, description)
	if generator.generationError != nil {
		return "", generator.generationError
	}
	return generator.summaryText, nil
}

type stubRepositoryDescriber struct {
	metadata      githubcli.RepositoryMetadata
	metadataError error
}

func (describer *stubRepositoryDescriber) ResolveRepoMetadata(context.Context, string) (githubcli.RepositoryMetadata, error) {
	return describer.metadata, describer.metadataError
}

func TestComposeWelcomeIssue(testInstance *testing.T) {
	testInstance.Run("plain_issue_without_generator", func(testInstance *testing.T) {
		composer := summary.NewComposer(summary.ComposerOptions{})

		issueTitle, issueBody, composeError := composer.ComposeWelcomeIssue(context.Background(), composerTestRepositoryConstant, composerTestUsernameConstant, composerTestPermissionConstant, "")

		require.NoError(testInstance, composeError)
		require.Equal(testInstance, "Welcome @alice!", issueTitle)
		require.Contains(testInstance, issueBody, "Hi @alice, you now have push access to octo/widgets.")
		require.Contains(testInstance, issueBody, "You can push branches and open pull requests.")
		require.Contains(testInstance, issueBody, "git clone https://github.com/octo/widgets.git")
		require.NotContains(testInstance, issueBody, "## About this repository")
	})

	testInstance.Run("custom_message_included", func(testInstance *testing.T) {
		composer := summary.NewComposer(summary.ComposerOptions{})

		_, issueBody, composeError := composer.ComposeWelcomeIssue(context.Background(), composerTestRepositoryConstant, composerTestUsernameConstant, composerTestPermissionConstant, composerTestCustomMessageConstant)

		require.NoError(testInstance, composeError)
		require.Contains(testInstance, issueBody, composerTestCustomMessageConstant)
	})

	testInstance.Run("summary_section_uses_repository_description", func(testInstance *testing.T) {
		generator := &stubSummaryGenerator{summaryText: composerTestSummaryConstant}
		describer := &stubRepositoryDescriber{metadata: githubcli.RepositoryMetadata{Description: composerTestDescriptionConstant}}
		composer := summary.NewComposer(summary.ComposerOptions{Describer: describer, Generator: generator})

		_, issueBody, composeError := composer.ComposeWelcomeIssue(context.Background(), composerTestRepositoryConstant, composerTestUsernameConstant, composerTestPermissionConstant, "")

		require.NoError(testInstance, composeError)
		require.Contains(testInstance, issueBody, "## About this repository")
		require.Contains(testInstance, issueBody, composerTestSummaryConstant)
		require.Equal(testInstance, []string{composerTestDescriptionConstant}, generator.descriptions)
	})

	testInstance.Run("generation_failure_omits_summary_section", func(testInstance *testing.T) {
		generator := &stubSummaryGenerator{generationError: errors.New("providers exhausted")}
		composer := summary.NewComposer(summary.ComposerOptions{Generator: generator})

		_, issueBody, composeError := composer.ComposeWelcomeIssue(context.Background(), composerTestRepositoryConstant, composerTestUsernameConstant, composerTestPermissionConstant, "")

		require.NoError(testInstance, composeError)
		require.NotContains(testInstance, issueBody, "## About this repository")
		require.Contains(testInstance, issueBody, "## Getting started")
	})

	testInstance.Run("describer_failure_still_generates", func(testInstance *testing.T) {
		generator := &stubSummaryGenerator{summaryText: composerTestSummaryConstant}
		describer := &stubRepositoryDescriber{metadataError: errors.New("network unavailable")}
		composer := summary.NewComposer(summary.ComposerOptions{Describer: describer, Generator: generator})

		_, issueBody, composeError := composer.ComposeWelcomeIssue(context.Background(), composerTestRepositoryConstant, composerTestUsernameConstant, composerTestPermissionConstant, "")

		require.NoError(testInstance, composeError)
		require.Contains(testInstance, issueBody, composerTestSummaryConstant)
		require.Equal(testInstance, []string{""}, generator.descriptions)
	})
}

func TestUpdateReadmeFile(testInstance *testing.T) {
	testInstance.Run("replaces_existing_marker_block", func(testInstance *testing.T) {
		readmePath := filepath.Join(testInstance.TempDir(), "README.md")
		originalContent := strings.Join([]string{
			"# Widgets",
			"",
			"<!-- BEGIN AUTO SUMMARY -->",
			"stale summary",
			"<!-- END AUTO SUMMARY -->",
			"",
			"## License",
			"",
		}, "\n")
		require.NoError(testInstance, os.WriteFile(readmePath, []byte(originalContent), 0o644))

		require.NoError(testInstance, summary.UpdateReadmeFile(readmePath, composerTestSummaryConstant))

		updatedContent, readError := os.ReadFile(readmePath)
		require.NoError(testInstance, readError)
		require.Contains(testInstance, string(updatedContent), composerTestSummaryConstant)
		require.NotContains(testInstance, string(updatedContent), "stale summary")
		require.Contains(testInstance, string(updatedContent), "# Widgets")
		require.Contains(testInstance, string(updatedContent), "## License")
	})

	testInstance.Run("appends_block_when_markers_absent", func(testInstance *testing.T) {
		readmePath := filepath.Join(testInstance.TempDir(), "README.md")
		require.NoError(testInstance, os.WriteFile(readmePath, []byte("# Widgets\n"), 0o644))

		require.NoError(testInstance, summary.UpdateReadmeFile(readmePath, composerTestSummaryConstant))

		updatedContent, readError := os.ReadFile(readmePath)
		require.NoError(testInstance, readError)
		require.Contains(testInstance, string(updatedContent), "<!-- BEGIN AUTO SUMMARY -->")
		require.Contains(testInstance, string(updatedContent), composerTestSummaryConstant)
		require.Contains(testInstance, string(updatedContent), "<!-- END AUTO SUMMARY -->")
	})

	testInstance.Run("creates_missing_file", func(testInstance *testing.T) {
		readmePath := filepath.Join(testInstance.TempDir(), "README.md")

		require.NoError(testInstance, summary.UpdateReadmeFile(readmePath, composerTestSummaryConstant))

		createdContent, readError := os.ReadFile(readmePath)
		require.NoError(testInstance, readError)
		require.Contains(testInstance, string(createdContent), composerTestSummaryConstant)
	})
}
