package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/temirov/addteam/internal/githubcli"
	"github.com/temirov/addteam/internal/gitrepo"
	"github.com/temirov/addteam/internal/teamconfig"
	pathutils "github.com/temirov/addteam/internal/utils/path"
)

const (
	repositorySpecPrefixConstant            = "repo:"
	localSpecPrefixConstant                 = "local:"
	defaultSpecConstant                     = "team.yaml"
	localProvenanceTemplateConstant         = "local:%s"
	repositoryProvenanceTemplateConstant    = "%s:%s"
	fallbackProvenanceTemplateConstant      = "%s:%s (fallback)"
	sourceNotFoundTemplateConstant          = "team configuration not found for %q"
	remoteReaderMissingMessageConstant      = "source resolver requires a repository file reader"
	malformedFallbackWarningMessageConstant = "Ignoring malformed fallback repository"
	fallbackRepositoryLogFieldNameConstant  = "fallback_repository"
	driveLetterPathMinimumLengthConstant    = 2
	driveLetterSeparatorConstant            = ':'
)

// defaultCandidateFiles is the fixed cascade of configuration filenames.
var defaultCandidateFiles = []string{
	"team.yaml",
	"team.yml",
	"collaborators.yaml",
	"collaborators.yml",
	"collaborators.txt",
}

var localPathIndicatorPrefixes = []string{"~", "/", "./", "../", "\\"}

// ErrRemoteReaderNotConfigured indicates the resolver was built without a repository file reader.
var ErrRemoteReaderNotConfigured = errors.New(remoteReaderMissingMessageConstant)

// SourceNotFoundError indicates no candidate source produced a configuration.
type SourceNotFoundError struct {
	Spec string
}

// Error names the spec that could not be resolved.
func (notFoundError SourceNotFoundError) Error() string {
	return fmt.Sprintf(sourceNotFoundTemplateConstant, notFoundError.Spec)
}

// RemoteFileReader fetches file content from a hosted repository.
type RemoteFileReader interface {
	ReadRepositoryFile(executionContext context.Context, owner string, repository string, path string, hostname string) ([]byte, error)
}

// RepositoryRootLocator finds the enclosing version-control root for local lookups.
type RepositoryRootLocator interface {
	LocateRoot(executionContext context.Context, workingDirectory string) (string, error)
}

// LocalFileReader reads files from the local filesystem.
type LocalFileReader func(path string) ([]byte, error)

// Options configures a Resolver.
type Options struct {
	RemoteReader       RemoteFileReader
	RootLocator        RepositoryRootLocator
	HomeExpander       *pathutils.HomeExpander
	LocalReader        LocalFileReader
	Logger             *zap.Logger
	FallbackRepository string
	Hostname           string
}

// Resolver locates and parses the team configuration document.
type Resolver struct {
	remoteReader       RemoteFileReader
	rootLocator        RepositoryRootLocator
	homeExpander       *pathutils.HomeExpander
	localReader        LocalFileReader
	logger             *zap.Logger
	fallbackRepository gitrepo.RepositorySpec
	hostname           string
}

// NewResolver constructs a Resolver. A malformed fallback repository value is
// logged and ignored rather than failing construction.
func NewResolver(options Options) (*Resolver, error) {
	if options.RemoteReader == nil {
		return nil, ErrRemoteReaderNotConfigured
	}

	resolverLogger := options.Logger
	if resolverLogger == nil {
		resolverLogger = zap.NewNop()
	}

	localReader := options.LocalReader
	if localReader == nil {
		localReader = os.ReadFile
	}

	homeExpander := options.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	resolver := &Resolver{
		remoteReader: options.RemoteReader,
		rootLocator:  options.RootLocator,
		homeExpander: homeExpander,
		localReader:  localReader,
		logger:       resolverLogger,
		hostname:     strings.TrimSpace(options.Hostname),
	}

	trimmedFallback := strings.TrimSpace(options.FallbackRepository)
	if len(trimmedFallback) > 0 {
		fallbackSpec, parseError := gitrepo.ParseRepositorySpec(trimmedFallback)
		if parseError != nil {
			resolverLogger.Warn(malformedFallbackWarningMessageConstant, zap.String(fallbackRepositoryLogFieldNameConstant, trimmedFallback))
		} else {
			resolver.fallbackRepository = fallbackSpec
		}
	}

	return resolver, nil
}

// Resolve locates the configuration named by the spec for the target repository
// and parses it. The returned configuration carries a provenance string in its
// Source field.
func (resolver *Resolver) Resolve(executionContext context.Context, spec string, targetRepository gitrepo.RepositorySpec) (*teamconfig.TeamConfig, error) {
	trimmedSpec := strings.TrimSpace(spec)
	if len(trimmedSpec) == 0 {
		trimmedSpec = defaultSpecConstant
	}

	if strings.HasPrefix(trimmedSpec, repositorySpecPrefixConstant) {
		repositoryPath := strings.TrimSpace(strings.TrimPrefix(trimmedSpec, repositorySpecPrefixConstant))
		return resolver.readFromRepository(executionContext, trimmedSpec, targetRepository, repositoryPath, repositoryProvenanceTemplateConstant)
	}

	if strings.HasPrefix(trimmedSpec, localSpecPrefixConstant) {
		localPath := strings.TrimSpace(strings.TrimPrefix(trimmedSpec, localSpecPrefixConstant))
		configuration, found, readError := resolver.readLocalCandidate(executionContext, localPath)
		if readError != nil {
			return nil, readError
		}
		if !found {
			return nil, SourceNotFoundError{Spec: trimmedSpec}
		}
		return configuration, nil
	}

	candidateFiles := buildCandidateFiles(trimmedSpec)

	for _, candidateFile := range candidateFiles {
		configuration, found, readError := resolver.readLocalCandidate(executionContext, candidateFile)
		if readError != nil {
			return nil, readError
		}
		if found {
			return configuration, nil
		}
	}

	if looksLikeLocalPath(trimmedSpec) {
		return nil, SourceNotFoundError{Spec: trimmedSpec}
	}

	for _, candidateFile := range candidateFiles {
		configuration, resolutionError := resolver.readFromRepository(executionContext, trimmedSpec, targetRepository, candidateFile, repositoryProvenanceTemplateConstant)
		if resolutionError == nil {
			return configuration, nil
		}
		if !isSourceNotFound(resolutionError) {
			return nil, resolutionError
		}
	}

	if resolver.fallbackApplies(targetRepository) {
		for _, candidateFile := range candidateFiles {
			configuration, resolutionError := resolver.readFromRepository(executionContext, trimmedSpec, resolver.fallbackRepository, candidateFile, fallbackProvenanceTemplateConstant)
			if resolutionError == nil {
				return configuration, nil
			}
			if !isSourceNotFound(resolutionError) {
				return nil, resolutionError
			}
		}
	}

	return nil, SourceNotFoundError{Spec: trimmedSpec}
}

func (resolver *Resolver) fallbackApplies(targetRepository gitrepo.RepositorySpec) bool {
	if resolver.fallbackRepository.IsZero() {
		return false
	}
	return !strings.EqualFold(resolver.fallbackRepository.String(), targetRepository.String())
}

func (resolver *Resolver) readFromRepository(executionContext context.Context, spec string, repository gitrepo.RepositorySpec, path string, provenanceTemplate string) (*teamconfig.TeamConfig, error) {
	fileContent, readError := resolver.remoteReader.ReadRepositoryFile(executionContext, repository.Owner, repository.Name, path, resolver.hostname)
	if readError != nil {
		if githubcli.IsNotFound(readError) {
			return nil, SourceNotFoundError{Spec: spec}
		}
		return nil, readError
	}

	configuration, parseError := teamconfig.Parse(fileContent, teamconfig.FormatForPath(path))
	if parseError != nil {
		return nil, parseError
	}

	configuration.Source = fmt.Sprintf(provenanceTemplate, repository.String(), path)
	return configuration, nil
}

// readLocalCandidate tries the candidate as an absolute path, relative to the
// working directory, and relative to the enclosing repository root. Missing
// files report found=false; any other read or parse failure is returned.
func (resolver *Resolver) readLocalCandidate(executionContext context.Context, candidatePath string) (*teamconfig.TeamConfig, bool, error) {
	expandedPath := resolver.homeExpander.Expand(candidatePath)

	searchPaths := []string{expandedPath}
	if !filepath.IsAbs(expandedPath) && resolver.rootLocator != nil {
		repositoryRoot, locateError := resolver.rootLocator.LocateRoot(executionContext, "")
		if locateError == nil && len(repositoryRoot) > 0 {
			searchPaths = append(searchPaths, filepath.Join(repositoryRoot, expandedPath))
		}
	}

	for _, searchPath := range searchPaths {
		fileContent, readError := resolver.localReader(searchPath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				continue
			}
			return nil, false, readError
		}

		configuration, parseError := teamconfig.Parse(fileContent, teamconfig.FormatForPath(searchPath))
		if parseError != nil {
			return nil, false, parseError
		}

		configuration.Source = fmt.Sprintf(localProvenanceTemplateConstant, searchPath)
		return configuration, true, nil
	}

	return nil, false, nil
}

func buildCandidateFiles(spec string) []string {
	candidateFiles := []string{spec}
	for _, defaultFile := range defaultCandidateFiles {
		if defaultFile != spec {
			candidateFiles = append(candidateFiles, defaultFile)
		}
	}
	return candidateFiles
}

func looksLikeLocalPath(spec string) bool {
	for _, indicatorPrefix := range localPathIndicatorPrefixes {
		if strings.HasPrefix(spec, indicatorPrefix) {
			return true
		}
	}
	if len(spec) >= driveLetterPathMinimumLengthConstant && unicode.IsLetter(rune(spec[0])) && rune(spec[1]) == driveLetterSeparatorConstant {
		return true
	}
	return false
}

func isSourceNotFound(candidate error) bool {
	notFoundTarget := SourceNotFoundError{}
	return errors.As(candidate, &notFoundTarget)
}
