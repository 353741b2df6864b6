package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/openai"
	"go.uber.org/zap"
)

const (
	// ProviderAuto tries every backend with credentials present, in order.
	ProviderAuto = "auto"
	// ProviderOpenAI selects the OpenAI backend for summary generation.
	ProviderOpenAI = "openai"
	// ProviderAnthropic selects the Anthropic backend for summary generation.
	ProviderAnthropic = "anthropic"

	openaiAPIKeyEnvironmentNameConstant    = "OPENAI_API_KEY"
	anthropicAPIKeyEnvironmentNameConstant = "ANTHROPIC_API_KEY"
	openaiSummaryModelConstant             = "gpt-4o-mini"
	anthropicSummaryModelConstant          = "claude-3-5-haiku-latest"
	generationTimeoutConstant              = 30 * time.Second
	noProviderAvailableMessageConstant     = "no summary provider produced a result"
	providerAttemptFailedMessageConstant   = "Summary provider attempt failed"
	providerLogFieldNameConstant           = "provider"
	summaryPromptTemplateConstant          = "Write a short, friendly summary of the GitHub repository %s for a new collaborator. " +
		"Cover what the project does and where to start reading, in at most three sentences of plain prose without headings or lists."
	summaryPromptDescriptionTemplateConstant = " The repository describes itself as: %q."
)

// ErrNoSummaryAvailable indicates every configured provider attempt failed or
// no provider credentials were present.
var ErrNoSummaryAvailable = errors.New(noProviderAvailableMessageConstant)

// SummaryGenerator produces a short natural-language repository summary.
type SummaryGenerator interface {
	GenerateSummary(executionContext context.Context, repository string, description string) (string, error)
}

type generationSession interface {
	GenerateContent(executionContext context.Context, inputs ...gollem.Input) (*gollem.Response, error)
}

type sessionFactory func(executionContext context.Context, apiKey string) (generationSession, error)

type providerDescriptor struct {
	name              string
	apiKeyEnvironment string
	newSession        sessionFactory
}

func newOpenAISession(executionContext context.Context, apiKey string) (generationSession, error) {
	client, clientError := openai.New(executionContext, apiKey, openai.WithModel(openaiSummaryModelConstant))
	if clientError != nil {
		return nil, clientError
	}
	return client.NewSession(executionContext)
}

func newAnthropicSession(executionContext context.Context, apiKey string) (generationSession, error) {
	client, clientError := claude.New(executionContext, apiKey, claude.WithModel(anthropicSummaryModelConstant))
	if clientError != nil {
		return nil, clientError
	}
	return client.NewSession(executionContext)
}

func defaultProviderDescriptors() []providerDescriptor {
	return []providerDescriptor{
		{name: ProviderOpenAI, apiKeyEnvironment: openaiAPIKeyEnvironmentNameConstant, newSession: newOpenAISession},
		{name: ProviderAnthropic, apiKeyEnvironment: anthropicAPIKeyEnvironmentNameConstant, newSession: newAnthropicSession},
	}
}

// GeneratorOptions configures provider selection for a Generator.
type GeneratorOptions struct {
	// Provider pins a single backend by name. Empty or ProviderAuto tries
	// every backend with credentials present, in declaration order.
	Provider string
	Logger   *zap.Logger
}

// Generator walks the configured providers until one returns a summary.
type Generator struct {
	requestedProvider string
	descriptors       []providerDescriptor
	environmentLookup func(string) string
	logger            *zap.Logger
}

// NewGenerator constructs a Generator backed by the known LLM providers.
func NewGenerator(options GeneratorOptions) *Generator {
	generatorLogger := options.Logger
	if generatorLogger == nil {
		generatorLogger = zap.NewNop()
	}

	requestedProvider := strings.ToLower(strings.TrimSpace(options.Provider))
	if requestedProvider == ProviderAuto {
		requestedProvider = ""
	}

	return &Generator{
		requestedProvider: requestedProvider,
		descriptors:       defaultProviderDescriptors(),
		environmentLookup: os.Getenv,
		logger:            generatorLogger,
	}
}

// GenerateSummary asks the first credentialed provider for a repository
// summary. Provider failures fall through to the next candidate; exhausting
// every candidate returns ErrNoSummaryAvailable.
func (generator *Generator) GenerateSummary(executionContext context.Context, repository string, description string) (string, error) {
	prompt := buildSummaryPrompt(repository, description)

	for _, descriptor := range generator.descriptors {
		if len(generator.requestedProvider) > 0 && descriptor.name != generator.requestedProvider {
			continue
		}

		apiKey := strings.TrimSpace(generator.environmentLookup(descriptor.apiKeyEnvironment))
		if len(apiKey) == 0 {
			continue
		}

		summaryText, attemptError := generator.attemptProvider(executionContext, descriptor, apiKey, prompt)
		if attemptError != nil {
			generator.logger.Warn(providerAttemptFailedMessageConstant,
				zap.String(providerLogFieldNameConstant, descriptor.name),
				zap.Error(attemptError))
			continue
		}
		if len(summaryText) > 0 {
			return summaryText, nil
		}
	}

	return "", ErrNoSummaryAvailable
}

func (generator *Generator) attemptProvider(executionContext context.Context, descriptor providerDescriptor, apiKey string, prompt string) (string, error) {
	attemptContext, cancelAttempt := context.WithTimeout(executionContext, generationTimeoutConstant)
	defer cancelAttempt()

	session, sessionError := descriptor.newSession(attemptContext, apiKey)
	if sessionError != nil {
		return "", sessionError
	}

	response, generationError := session.GenerateContent(attemptContext, gollem.Text(prompt))
	if generationError != nil {
		return "", generationError
	}
	if response == nil || len(response.Texts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(strings.Join(response.Texts, "\n")), nil
}

func buildSummaryPrompt(repository string, description string) string {
	prompt := fmt.Sprintf(summaryPromptTemplateConstant, repository)
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) > 0 {
		prompt += fmt.Sprintf(summaryPromptDescriptionTemplateConstant, trimmedDescription)
	}
	return prompt
}
