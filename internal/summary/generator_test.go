package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	fallbackProviderTestCaseNameConstant  = "falls_back_to_next_credentialed_provider"
	pinnedProviderTestCaseNameConstant    = "pinned_provider_ignores_other_credentials"
	attemptFailureTestCaseNameConstant    = "failed_attempt_tries_next_provider"
	noCredentialsTestCaseNameConstant     = "no_credentials_reports_unavailable"
	promptDescriptionTestCaseNameConstant = "prompt_carries_repository_description"
	generatorTestRepositoryConstant       = "octo/widgets"
	generatorTestSummaryConstant          = "Widgets renders dashboards."
	generatorTestSecondarySummaryConstant = "Widgets is a dashboard toolkit."
	generatorTestDescriptionConstant      = "Dashboard widgets for internal tools"
)

type stubGenerationSession struct {
	response        *gollem.Response
	generationError error
	prompts         []string
}

func (session *stubGenerationSession) GenerateContent(_ context.Context, inputs ...gollem.Input) (*gollem.Response, error) {
	for _, input := range inputs {
		if textInput, isText := input.(gollem.Text); isText {
			session.prompts = append(session.prompts, string(textInput))
		}
	}
	if session.generationError != nil {
		return nil, session.generationError
	}
	return session.response, nil
}

func stubDescriptor(name string, environmentName string, session *stubGenerationSession, sessionError error) providerDescriptor {
	return providerDescriptor{
		name:              name,
		apiKeyEnvironment: environmentName,
		newSession: func(context.Context, string) (generationSession, error) {
			if sessionError != nil {
				return nil, sessionError
			}
			return session, nil
		},
	}
}

func newTestGenerator(requestedProvider string, descriptors []providerDescriptor, environment map[string]string) *Generator {
	return &Generator{
		requestedProvider: requestedProvider,
		descriptors:       descriptors,
		environmentLookup: func(key string) string { return environment[key] },
		logger:            zap.NewNop(),
	}
}

func TestGeneratorProviderSelection(testInstance *testing.T) {
	testInstance.Run(fallbackProviderTestCaseNameConstant, func(testInstance *testing.T) {
		anthropicSession := &stubGenerationSession{response: &gollem.Response{Texts: []string{generatorTestSummaryConstant}}}
		generator := newTestGenerator("", []providerDescriptor{
			stubDescriptor(ProviderOpenAI, "OPENAI_TEST_KEY", nil, errors.New("should not be attempted")),
			stubDescriptor(ProviderAnthropic, "ANTHROPIC_TEST_KEY", anthropicSession, nil),
		}, map[string]string{"ANTHROPIC_TEST_KEY": "token"})

		summaryText, generationError := generator.GenerateSummary(context.Background(), generatorTestRepositoryConstant, "")

		require.NoError(testInstance, generationError)
		require.Equal(testInstance, generatorTestSummaryConstant, summaryText)
	})

	testInstance.Run(pinnedProviderTestCaseNameConstant, func(testInstance *testing.T) {
		openaiSession := &stubGenerationSession{response: &gollem.Response{Texts: []string{generatorTestSummaryConstant}}}
		anthropicSession := &stubGenerationSession{response: &gollem.Response{Texts: []string{generatorTestSecondarySummaryConstant}}}
		generator := newTestGenerator(ProviderAnthropic, []providerDescriptor{
			stubDescriptor(ProviderOpenAI, "OPENAI_TEST_KEY", openaiSession, nil),
			stubDescriptor(ProviderAnthropic, "ANTHROPIC_TEST_KEY", anthropicSession, nil),
		}, map[string]string{"OPENAI_TEST_KEY": "token", "ANTHROPIC_TEST_KEY": "token"})

		summaryText, generationError := generator.GenerateSummary(context.Background(), generatorTestRepositoryConstant, "")

		require.NoError(testInstance, generationError)
		require.Equal(testInstance, generatorTestSecondarySummaryConstant, summaryText)
		require.Empty(testInstance, openaiSession.prompts)
	})

	testInstance.Run(attemptFailureTestCaseNameConstant, func(testInstance *testing.T) {
		failingSession := &stubGenerationSession{generationError: errors.New("rate limited")}
		recoveringSession := &stubGenerationSession{response: &gollem.Response{Texts: []string{generatorTestSummaryConstant}}}
		generator := newTestGenerator("", []providerDescriptor{
			stubDescriptor(ProviderOpenAI, "OPENAI_TEST_KEY", failingSession, nil),
			stubDescriptor(ProviderAnthropic, "ANTHROPIC_TEST_KEY", recoveringSession, nil),
		}, map[string]string{"OPENAI_TEST_KEY": "token", "ANTHROPIC_TEST_KEY": "token"})

		summaryText, generationError := generator.GenerateSummary(context.Background(), generatorTestRepositoryConstant, "")

		require.NoError(testInstance, generationError)
		require.Equal(testInstance, generatorTestSummaryConstant, summaryText)
		require.Len(testInstance, failingSession.prompts, 1)
	})

	testInstance.Run(noCredentialsTestCaseNameConstant, func(testInstance *testing.T) {
		generator := newTestGenerator("", []providerDescriptor{
			stubDescriptor(ProviderOpenAI, "OPENAI_TEST_KEY", nil, nil),
			stubDescriptor(ProviderAnthropic, "ANTHROPIC_TEST_KEY", nil, nil),
		}, map[string]string{})

		_, generationError := generator.GenerateSummary(context.Background(), generatorTestRepositoryConstant, "")

		require.ErrorIs(testInstance, generationError, ErrNoSummaryAvailable)
	})

	testInstance.Run(promptDescriptionTestCaseNameConstant, func(testInstance *testing.T) {
		recordingSession := &stubGenerationSession{response: &gollem.Response{Texts: []string{generatorTestSummaryConstant}}}
		generator := newTestGenerator("", []providerDescriptor{
			stubDescriptor(ProviderOpenAI, "OPENAI_TEST_KEY", recordingSession, nil),
		}, map[string]string{"OPENAI_TEST_KEY": "token"})

		_, generationError := generator.GenerateSummary(context.Background(), generatorTestRepositoryConstant, generatorTestDescriptionConstant)

		require.NoError(testInstance, generationError)
		require.Len(testInstance, recordingSession.prompts, 1)
		require.True(testInstance, strings.Contains(recordingSession.prompts[0], generatorTestRepositoryConstant))
		require.True(testInstance, strings.Contains(recordingSession.prompts[0], generatorTestDescriptionConstant))
	})
}

func TestNewGeneratorTreatsAutoAsUnpinned(t *testing.T) {
	generator := NewGenerator(GeneratorOptions{Provider: "Auto"})
	require.Empty(t, generator.requestedProvider)

	pinnedGenerator := NewGenerator(GeneratorOptions{Provider: "OpenAI"})
	require.Equal(t, ProviderOpenAI, pinnedGenerator.requestedProvider)
}
