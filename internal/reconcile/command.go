package reconcile

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/addteam/internal/execshell"
	"github.com/temirov/addteam/internal/gitrepo"
	"github.com/temirov/addteam/internal/summary"
	"github.com/temirov/addteam/internal/teamconfig"
	"github.com/temirov/addteam/internal/teamconfig/resolve"
	"github.com/temirov/addteam/internal/teamexpand"
	"github.com/temirov/addteam/internal/ui"
	"github.com/temirov/addteam/internal/utils"
	flagutils "github.com/temirov/addteam/internal/utils/flags"
)

const (
	auditCommandUseConstant           = "audit"
	auditCommandShortDescription      = "Report drift between the collaborator list and live repository access"
	auditCommandLongDescription       = "Audit resolves the collaborator configuration, expands team references, and reports missing, extra, drifted, and expired collaborators without changing anything."
	applyCommandUseConstant           = "apply"
	applyCommandShortDescription      = "Invite listed collaborators and optionally remove unlisted ones"
	applyCommandLongDescription       = "Apply resolves the collaborator configuration, invites collaborators that are missing or hold a different permission, and with --sync removes collaborators the configuration no longer lists."
	configFileFlagNameConstant        = "file"
	configFileFlagShorthandConstant   = "f"
	configFileFlagDescriptionConstant = "collaborator configuration file or repository path"
	repositoryFlagNameConstant        = "repo"
	repositoryFlagShorthandConstant   = "r"
	repositoryFlagDescriptionConstant = "target repository as owner/name (defaults to the current repository)"
	singleUserFlagNameConstant        = "user"
	singleUserFlagShorthandConstant   = "u"
	singleUserFlagDescriptionConstant = "invite a single username instead of reading a configuration file"
	permissionFlagNameConstant        = "permission"
	permissionFlagShorthandConstant   = "p"
	permissionFlagDescriptionConstant = "permission for --user invitations"
	dryRunFlagNameConstant            = "dry-run"
	dryRunFlagShorthandConstant       = "n"
	dryRunFlagDescriptionConstant     = "print the plan without inviting or removing anyone"
	syncFlagNameConstant              = "sync"
	syncFlagShorthandConstant         = "s"
	syncFlagDescriptionConstant       = "remove direct collaborators the configuration does not list"
	welcomeFlagNameConstant           = "welcome"
	welcomeFlagShorthandConstant      = "w"
	welcomeFlagDescriptionConstant    = "open a welcome issue for each newly invited collaborator"
	disableSummaryFlagNameConstant    = "no-ai"
	disableSummaryFlagDescription     = "skip the AI-generated repository summary in welcome issues"
	providerFlagNameConstant          = "provider"
	providerFlagDescriptionConstant   = "AI provider for summaries"
	writeReadmeFlagNameConstant       = "write-readme"
	writeReadmeFlagDescription        = "refresh the generated summary block in README.md"
	configurationFileInUseMessage     = "Using configuration file"
	configurationFileLogFieldName     = "configuration_file"
	readmeFileNameConstant            = "README.md"
	readmeUpdateWarningConstant       = "Could not update README summary"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandSettings carries configuration resolved outside the command flags.
type CommandSettings struct {
	FallbackRepository string
	Hostname           string
	Provider           string
}

// SettingsProvider supplies settings after configuration loading has run.
type SettingsProvider func() CommandSettings

// CommandBuilder assembles the audit and apply cobra commands with
// configurable dependencies. Unset fields fall back to GitHub CLI-backed
// implementations.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	RepositoryResolver    RepositoryResolver
	CollaboratorClient    CollaboratorClient
	IssueCreator          IssueCreator
	ConfigResolver        ConfigResolver
	TeamExpander          TeamExpander
	WelcomeComposer       WelcomeComposer
	Reporter              RunReporter
	Clock                 Clock
	CommandEventsObserver execshell.CommandEventObserver
	SettingsProvider      SettingsProvider
}

func (builder *CommandBuilder) resolveSettings() CommandSettings {
	if builder.SettingsProvider == nil {
		return CommandSettings{}
	}
	return builder.SettingsProvider()
}

// BuildAuditCommand constructs the read-only drift report command.
func (builder *CommandBuilder) BuildAuditCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   auditCommandUseConstant,
		Short: auditCommandShortDescription,
		Long:  auditCommandLongDescription,
		RunE:  builder.runAudit,
	}

	command.Flags().StringP(configFileFlagNameConstant, configFileFlagShorthandConstant, "", configFileFlagDescriptionConstant)
	command.Flags().StringP(repositoryFlagNameConstant, repositoryFlagShorthandConstant, "", repositoryFlagDescriptionConstant)

	return command, nil
}

// BuildApplyCommand constructs the reconciliation command.
func (builder *CommandBuilder) BuildApplyCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   applyCommandUseConstant,
		Short: applyCommandShortDescription,
		Long:  applyCommandLongDescription,
		RunE:  builder.runApply,
	}

	command.Flags().StringP(configFileFlagNameConstant, configFileFlagShorthandConstant, "", configFileFlagDescriptionConstant)
	command.Flags().StringP(repositoryFlagNameConstant, repositoryFlagShorthandConstant, "", repositoryFlagDescriptionConstant)
	command.Flags().StringP(singleUserFlagNameConstant, singleUserFlagShorthandConstant, "", singleUserFlagDescriptionConstant)
	permissionUsage := flagutils.FormatChoiceUsage(string(teamconfig.DefaultPermission), teamconfig.PermissionNames(), permissionFlagDescriptionConstant)
	command.Flags().StringP(permissionFlagNameConstant, permissionFlagShorthandConstant, "", permissionUsage)
	flagutils.AddToggleFlag(command.Flags(), nil, dryRunFlagNameConstant, dryRunFlagShorthandConstant, false, dryRunFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, syncFlagNameConstant, syncFlagShorthandConstant, false, syncFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, welcomeFlagNameConstant, welcomeFlagShorthandConstant, false, welcomeFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, disableSummaryFlagNameConstant, "", false, disableSummaryFlagDescription)
	providerUsage := flagutils.FormatChoiceUsage(summary.ProviderAuto, []string{summary.ProviderAuto, summary.ProviderOpenAI, summary.ProviderAnthropic}, providerFlagDescriptionConstant)
	command.Flags().String(providerFlagNameConstant, summary.ProviderAuto, providerUsage)
	flagutils.AddToggleFlag(command.Flags(), nil, writeReadmeFlagNameConstant, "", false, writeReadmeFlagDescription)

	return command, nil
}

func (builder *CommandBuilder) runAudit(command *cobra.Command, _ []string) error {
	options := builder.parseAuditOptions(command)

	service, serviceError := builder.buildService(command, options)
	if serviceError != nil {
		return serviceError
	}

	return service.RunAudit(command.Context(), options)
}

func (builder *CommandBuilder) runApply(command *cobra.Command, _ []string) error {
	options := builder.parseApplyOptions(command)
	if options.Sync && len(options.SingleUser) > 0 {
		return InvalidInvocationError{Reason: syncWithUserReasonConstant}
	}

	service, serviceError := builder.buildService(command, options)
	if serviceError != nil {
		return serviceError
	}

	applyError := service.RunApply(command.Context(), options)
	if applyError != nil {
		return applyError
	}

	if options.WriteReadme {
		builder.refreshReadmeSummary(command, options)
	}

	return nil
}

func (builder *CommandBuilder) parseAuditOptions(command *cobra.Command) CommandOptions {
	configSpec, _ := command.Flags().GetString(configFileFlagNameConstant)
	repository, _ := command.Flags().GetString(repositoryFlagNameConstant)

	return CommandOptions{ConfigSpec: configSpec, Repository: repository}
}

func (builder *CommandBuilder) parseApplyOptions(command *cobra.Command) CommandOptions {
	configSpec, _ := command.Flags().GetString(configFileFlagNameConstant)
	repository, _ := command.Flags().GetString(repositoryFlagNameConstant)
	singleUser, _ := command.Flags().GetString(singleUserFlagNameConstant)
	permission, _ := command.Flags().GetString(permissionFlagNameConstant)
	dryRun, _ := command.Flags().GetBool(dryRunFlagNameConstant)
	syncMode, _ := command.Flags().GetBool(syncFlagNameConstant)
	welcome, _ := command.Flags().GetBool(welcomeFlagNameConstant)
	disableSummary, _ := command.Flags().GetBool(disableSummaryFlagNameConstant)
	provider, _ := command.Flags().GetString(providerFlagNameConstant)
	writeReadme, _ := command.Flags().GetBool(writeReadmeFlagNameConstant)

	return CommandOptions{
		ConfigSpec:     configSpec,
		Repository:     repository,
		SingleUser:     singleUser,
		Permission:     permission,
		DryRun:         dryRun,
		Sync:           syncMode,
		Welcome:        welcome,
		DisableSummary: disableSummary,
		Provider:       provider,
		WriteReadme:    writeReadme,
	}
}

func (builder *CommandBuilder) buildService(command *cobra.Command, options CommandOptions) (*Service, error) {
	logger := builder.resolveLogger()

	if configurationFilePath, configurationFileAvailable := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context()); configurationFileAvailable && len(configurationFilePath) > 0 {
		logger.Debug(configurationFileInUseMessage, zap.String(configurationFileLogFieldName, configurationFilePath))
	}

	githubClient, clientError := builder.resolveGitHubClient(logger)
	if clientError != nil {
		return nil, clientError
	}

	repositoryResolver := builder.RepositoryResolver
	if repositoryResolver == nil {
		repositoryResolver = githubClient.client
	}
	collaboratorClient := builder.CollaboratorClient
	if collaboratorClient == nil {
		collaboratorClient = githubClient.client
	}
	issueCreator := builder.IssueCreator
	if issueCreator == nil {
		issueCreator = githubClient.client
	}

	configResolver, resolverError := builder.resolveConfigResolver(logger, githubClient)
	if resolverError != nil {
		return nil, resolverError
	}

	teamExpander, expanderError := builder.resolveTeamExpander(logger, githubClient)
	if expanderError != nil {
		return nil, expanderError
	}

	reporter := builder.Reporter
	if reporter == nil {
		reporter = ui.NewRunReporter(utils.NewFlushingWriter(command.OutOrStdout()))
	}

	return NewService(ServiceDependencies{
		RepositoryResolver: repositoryResolver,
		CollaboratorClient: collaboratorClient,
		IssueCreator:       issueCreator,
		ConfigResolver:     configResolver,
		TeamExpander:       teamExpander,
		WelcomeComposer:    builder.resolveWelcomeComposer(logger, githubClient, options),
		Reporter:           reporter,
		Logger:             logger,
		Clock:              builder.Clock,
	})
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveGitHubClient(logger *zap.Logger) (*githubClientBundle, error) {
	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
	if executorError != nil {
		return nil, executorError
	}
	if builder.CommandEventsObserver != nil {
		shellExecutor.SetCommandEventObserver(builder.CommandEventsObserver)
	}

	return newGitHubClientBundle(shellExecutor)
}

func (builder *CommandBuilder) resolveConfigResolver(logger *zap.Logger, bundle *githubClientBundle) (ConfigResolver, error) {
	if builder.ConfigResolver != nil {
		return builder.ConfigResolver, nil
	}

	rootLocator, locatorError := gitrepo.NewRepositoryRootLocator(bundle.executor)
	if locatorError != nil {
		return nil, locatorError
	}

	settings := builder.resolveSettings()
	return resolve.NewResolver(resolve.Options{
		RemoteReader:       bundle.client,
		RootLocator:        rootLocator,
		Logger:             logger,
		FallbackRepository: settings.FallbackRepository,
		Hostname:           settings.Hostname,
	})
}

func (builder *CommandBuilder) resolveTeamExpander(logger *zap.Logger, bundle *githubClientBundle) (TeamExpander, error) {
	if builder.TeamExpander != nil {
		return builder.TeamExpander, nil
	}
	return teamexpand.NewExpander(bundle.client, logger)
}

func (builder *CommandBuilder) resolveWelcomeComposer(logger *zap.Logger, bundle *githubClientBundle, options CommandOptions) WelcomeComposer {
	if builder.WelcomeComposer != nil {
		return builder.WelcomeComposer
	}

	var summaryGenerator summary.SummaryGenerator
	if !options.DisableSummary {
		summaryGenerator = summary.NewGenerator(summary.GeneratorOptions{
			Provider: builder.resolveProviderName(options),
			Logger:   logger,
		})
	}

	return summary.NewComposer(summary.ComposerOptions{
		Describer: bundle.client,
		Generator: summaryGenerator,
		Logger:    logger,
	})
}

func (builder *CommandBuilder) resolveProviderName(options CommandOptions) string {
	requestedProvider := strings.TrimSpace(options.Provider)
	if len(requestedProvider) > 0 && !strings.EqualFold(requestedProvider, summary.ProviderAuto) {
		return requestedProvider
	}
	return builder.resolveSettings().Provider
}

func (builder *CommandBuilder) refreshReadmeSummary(command *cobra.Command, options CommandOptions) {
	logger := builder.resolveLogger()

	bundle, clientError := builder.resolveGitHubClient(logger)
	if clientError != nil {
		logger.Warn(readmeUpdateWarningConstant, zap.Error(clientError))
		return
	}

	if options.DisableSummary {
		return
	}
	summaryGenerator := summary.NewGenerator(summary.GeneratorOptions{
		Provider: builder.resolveProviderName(options),
		Logger:   logger,
	})

	metadata, metadataError := bundle.client.ResolveRepoMetadata(command.Context(), options.Repository)
	if metadataError != nil {
		logger.Warn(readmeUpdateWarningConstant, zap.Error(metadataError))
		return
	}

	summaryText, generationError := summaryGenerator.GenerateSummary(command.Context(), metadata.NameWithOwner, metadata.Description)
	if generationError != nil {
		logger.Warn(readmeUpdateWarningConstant, zap.Error(generationError))
		return
	}

	if updateError := summary.UpdateReadmeFile(readmeFileNameConstant, summaryText); updateError != nil {
		logger.Warn(readmeUpdateWarningConstant, zap.Error(updateError))
	}
}
