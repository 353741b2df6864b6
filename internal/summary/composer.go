package summary

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/addteam/internal/githubcli"
)

const (
	welcomeTitleTemplateConstant    = "Welcome @%s!"
	welcomeGreetingTemplateConstant = "Hi @%s, you now have %s access to %s."
	aboutSectionHeadingConstant     = "## About this repository"
	gettingStartedHeadingConstant   = "## Getting started"
	cloneStepTemplateConstant       = "- [ ] Clone the repository: `git clone https://github.com/%s.git`"
	readmeStepConstant              = "- [ ] Read the README and any contributing guidelines"
	issuesStepConstant              = "- [ ] Browse the open issues to find a place to start"
	welcomeFooterConstant           = "If anything is unclear, reply here and a maintainer will help you out."
	sectionSeparatorConstant        = "\n\n"
	summaryUnavailableMessage       = "Skipping AI summary in welcome issue"
	repositoryLogFieldNameConstant  = "repository"
)

var permissionNotes = map[string]string{
	"pull":     "You can read the code and clone the repository.",
	"triage":   "You can read the code and manage issues and pull requests.",
	"push":     "You can push branches and open pull requests.",
	"maintain": "You can push, manage issues, and tune repository settings.",
	"admin":    "You have full administrative access, including settings and collaborators.",
}

// RepositoryDescriber supplies repository metadata for summary prompts.
type RepositoryDescriber interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
}

// ComposerOptions configures welcome issue composition.
type ComposerOptions struct {
	// Describer enriches the summary prompt with the repository description.
	// Optional; prompts fall back to the repository name alone.
	Describer RepositoryDescriber
	// Generator produces the AI summary section. Nil omits the section.
	Generator SummaryGenerator
	Logger    *zap.Logger
}

// Composer renders welcome issues for newly invited collaborators.
type Composer struct {
	describer RepositoryDescriber
	generator SummaryGenerator
	logger    *zap.Logger
}

// NewComposer constructs a Composer.
func NewComposer(options ComposerOptions) *Composer {
	composerLogger := options.Logger
	if composerLogger == nil {
		composerLogger = zap.NewNop()
	}
	return &Composer{
		describer: options.Describer,
		generator: options.Generator,
		logger:    composerLogger,
	}
}

// ComposeWelcomeIssue builds the title and body of the onboarding issue. The
// AI summary section is best effort; generation failures leave it out.
func (composer *Composer) ComposeWelcomeIssue(executionContext context.Context, repository string, username string, permission string, customMessage string) (string, string, error) {
	issueTitle := fmt.Sprintf(welcomeTitleTemplateConstant, username)

	sections := []string{
		fmt.Sprintf(welcomeGreetingTemplateConstant, username, permission, repository),
	}

	if permissionNote, noteKnown := permissionNotes[strings.ToLower(permission)]; noteKnown {
		sections = append(sections, permissionNote)
	}

	if trimmedMessage := strings.TrimSpace(customMessage); len(trimmedMessage) > 0 {
		sections = append(sections, trimmedMessage)
	}

	if summarySection := composer.buildSummarySection(executionContext, repository); len(summarySection) > 0 {
		sections = append(sections, summarySection)
	}

	sections = append(sections, strings.Join([]string{
		gettingStartedHeadingConstant,
		fmt.Sprintf(cloneStepTemplateConstant, repository),
		readmeStepConstant,
		issuesStepConstant,
	}, "\n"))

	sections = append(sections, welcomeFooterConstant)

	return issueTitle, strings.Join(sections, sectionSeparatorConstant), nil
}

func (composer *Composer) buildSummarySection(executionContext context.Context, repository string) string {
	if composer.generator == nil {
		return ""
	}

	repositoryDescription := ""
	if composer.describer != nil {
		metadata, metadataError := composer.describer.ResolveRepoMetadata(executionContext, repository)
		if metadataError == nil {
			repositoryDescription = metadata.Description
		}
	}

	summaryText, generationError := composer.generator.GenerateSummary(executionContext, repository, repositoryDescription)
	if generationError != nil {
		composer.logger.Warn(summaryUnavailableMessage,
			zap.String(repositoryLogFieldNameConstant, repository),
			zap.Error(generationError))
		return ""
	}
	if len(summaryText) == 0 {
		return ""
	}

	return aboutSectionHeadingConstant + "\n\n" + summaryText
}
