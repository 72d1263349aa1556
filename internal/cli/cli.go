// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scmls/scmls/internal/config"
	"github.com/scmls/scmls/internal/finder"
	"github.com/scmls/scmls/internal/output"
	"github.com/scmls/scmls/internal/services/clipboard"
	"github.com/scmls/scmls/internal/types"
	"github.com/scmls/scmls/internal/utils"
)

const (
	manifestFlagName    = "manifest"
	allFlagName         = "all"
	formatFlagName      = "format"
	copyFlagName        = "copy"
	configFlagName      = "config"
	ignoreRootsFlagName = "ignore-roots"
	versionFlagName     = "version"
	versionTemplate     = "scmls version: %s\n"
	defaultPath         = "."
	rootUse             = "scmls"
	rootShortDescription = "scmls command line interface"
	rootLongDescription  = `scmls lists the files a version-control system tracks beneath a root, selected for source packaging.
Tracked membership is supplied through a manifest file; the VCS itself is never invoked.
Use --format to select raw or json output, and --version to print the application version.`
	versionFlagDescription = "display application version"

	listUse               = "list [paths...]"
	checkUse              = "check [paths...]"
	listAlias             = "l"
	checkAlias            = "c"
	listShortDescription  = "list tracked files under each root (" + listAlias + ")"
	checkShortDescription = "check roots against the configured deny-list (" + checkAlias + ")"

	// listLongDescription provides detailed help for the list command.
	listLongDescription = `Walk each root and list the files that belong in a source package.
Symlinked directories inside the root appear as single opaque entries; symlinks into
untracked territory are excluded, and symlink cycles terminate the descent.
Use --manifest to supply the tracked files and directories, or --all to list everything.`
	// listUsageExample demonstrates list command usage.
	listUsageExample = `  # List tracked files using a manifest
  scmls list --manifest tracked.txt .

  # List every file regardless of tracking
  scmls list --all --format json ./project`

	// checkLongDescription provides detailed help for the check command.
	checkLongDescription = `Report whether each root is acceptable given the configured deny-list.
The deny-list is a platform list-separated value from configuration or the
SCMLS_IGNORE_VCS_ROOTS environment variable, overridable with --ignore-roots.`
	// checkUsageExample demonstrates check command usage.
	checkUsageExample = `  # Check the current directory
  scmls check

  # Check against an explicit deny-list
  scmls check --ignore-roots /mnt/vendored:/mnt/mirror ./project`

	manifestFlagDescription    = "tracked-path manifest file"
	allFlagDescription         = "list everything, ignoring tracked sets"
	formatFlagDescription      = "output format"
	copyFlagDescription        = "copy rendered output to the clipboard"
	configFlagDescription      = "explicit configuration file path"
	ignoreRootsFlagDescription = "deny-list of VCS roots (platform list-separated)"

	invalidFormatMessage        = "Invalid format value '%s'"
	warningSkipPathFormat       = "Warning: skipping %s: %v\n"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorPathMissingFormat reports a missing path.
	errorPathMissingFormat = "path '%s' does not exist"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNoValidPaths indicates that all paths are invalid.
	errorNoValidPaths = "no valid paths"
	// errorManifestRequired indicates that neither a manifest nor force mode was provided.
	errorManifestRequired = "a --manifest is required unless --all is set"

	debugAdmissibilityMessage = "root admissibility"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON:
		return true
	default:
		return false
	}
}

// Execute runs the scmls application.
func Execute(applicationLogger *zap.Logger) error {
	rootCommand := createRootCommand(applicationLogger)
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(applicationLogger *zap.Logger) *cobra.Command {
	var showVersion bool
	var configFilePath string

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createListCommand(&configFilePath),
		createCheckCommand(applicationLogger, &configFilePath),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createListCommand returns the list subcommand.
func createListCommand(configFilePath *string) *cobra.Command {
	var manifestPath string
	var forceAll bool
	var outputFormat string = types.FormatRaw
	var copyToClipboard bool

	listCommand := &cobra.Command{
		Use:     listUse,
		Aliases: []string{listAlias},
		Short:   listShortDescription,
		Long:    listLongDescription,
		Example: listUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: *configFilePath})
			if configurationError != nil {
				return configurationError
			}
			listConfiguration := applicationConfiguration.List
			if !command.Flags().Changed(formatFlagName) && listConfiguration.Format != "" {
				outputFormat = listConfiguration.Format
			}
			if !command.Flags().Changed(allFlagName) && listConfiguration.All != nil {
				forceAll = *listConfiguration.All
			}
			if !command.Flags().Changed(manifestFlagName) && listConfiguration.Manifest != "" {
				manifestPath = listConfiguration.Manifest
			}
			if !command.Flags().Changed(copyFlagName) && listConfiguration.Clipboard != nil {
				copyToClipboard = *listConfiguration.Clipboard
			}

			outputFormatLower := strings.ToLower(outputFormat)
			if !isSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			return runListCommand(arguments, manifestPath, forceAll, outputFormatLower, copyToClipboard)
		},
	}

	listCommand.Flags().StringVarP(&manifestPath, manifestFlagName, "m", "", manifestFlagDescription)
	listCommand.Flags().BoolVar(&forceAll, allFlagName, false, allFlagDescription)
	listCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	listCommand.Flags().BoolVar(&copyToClipboard, copyFlagName, false, copyFlagDescription)
	return listCommand
}

// createCheckCommand returns the check subcommand.
func createCheckCommand(applicationLogger *zap.Logger, configFilePath *string) *cobra.Command {
	var ignoreRootsValue string
	var outputFormat string = types.FormatRaw

	checkCommand := &cobra.Command{
		Use:     checkUse,
		Aliases: []string{checkAlias},
		Short:   checkShortDescription,
		Long:    checkLongDescription,
		Example: checkUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: *configFilePath})
			if configurationError != nil {
				return configurationError
			}
			checkConfiguration := applicationConfiguration.Check
			if !command.Flags().Changed(formatFlagName) && checkConfiguration.Format != "" {
				outputFormat = checkConfiguration.Format
			}
			if !command.Flags().Changed(ignoreRootsFlagName) {
				ignoreRootsValue = checkConfiguration.IgnoreRoots
			}

			outputFormatLower := strings.ToLower(outputFormat)
			if !isSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			return runCheckCommand(applicationLogger, arguments, ignoreRootsValue, outputFormatLower)
		},
	}

	checkCommand.Flags().StringVar(&ignoreRootsValue, ignoreRootsFlagName, "", ignoreRootsFlagDescription)
	checkCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	return checkCommand
}

// runListCommand walks every validated root and renders the combined listings.
// Roots are processed concurrently; each finder call owns all of its state.
func runListCommand(paths []string, manifestPath string, forceAll bool, format string, copyToClipboard bool) error {
	if manifestPath == "" && !forceAll {
		return fmt.Errorf(errorManifestRequired)
	}

	validatedPaths, validationError := resolveAndValidatePaths(paths, true)
	if validationError != nil {
		return validationError
	}

	listings := make([]types.DirectoryListing, len(validatedPaths))
	var group errgroup.Group
	for pathIndex, validatedPath := range validatedPaths {
		group.Go(func() error {
			trackedFiles := finder.NewPathSet()
			trackedDirs := finder.NewPathSet()
			if !forceAll {
				loadedFiles, loadedDirs, manifestError := config.LoadTrackedManifest(manifestPath, validatedPath.AbsolutePath)
				if manifestError != nil {
					return manifestError
				}
				trackedFiles = loadedFiles
				trackedDirs = loadedDirs
			}
			foundFiles, findError := finder.Find(validatedPath.OriginalPath, trackedFiles, trackedDirs, forceAll)
			if findError != nil {
				return findError
			}
			listings[pathIndex] = types.DirectoryListing{
				Root:  validatedPath.OriginalPath,
				Files: foundFiles,
			}
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	var renderedOutput string
	if format == types.FormatJSON {
		renderedJSON, renderError := output.RenderListingJSON(listings)
		if renderError != nil {
			return renderError
		}
		renderedOutput = renderedJSON + "\n"
	} else {
		renderedOutput = output.RenderListingRaw(listings)
	}
	fmt.Print(renderedOutput)

	if copyToClipboard {
		clipboardService := clipboard.NewService()
		if copyError := clipboardService.Copy(renderedOutput); copyError != nil {
			return fmt.Errorf("copying output to clipboard: %w", copyError)
		}
	}
	return nil
}

// runCheckCommand evaluates the deny-list predicate for every validated root.
func runCheckCommand(applicationLogger *zap.Logger, paths []string, ignoreRootsValue string, format string) error {
	validatedPaths, validationError := resolveAndValidatePaths(paths, false)
	if validationError != nil {
		return validationError
	}

	ignoredRoots := finder.ParseIgnoredRoots(ignoreRootsValue)

	checks := make([]types.RootCheck, 0, len(validatedPaths))
	for _, validatedPath := range validatedPaths {
		canonicalRoot, canonicalRootError := utils.CanonicalPath(validatedPath.AbsolutePath)
		if canonicalRootError != nil {
			return canonicalRootError
		}
		if applicationLogger != nil {
			applicationLogger.Debug(debugAdmissibilityMessage,
				zap.String("toplevel", canonicalRoot),
				zap.Strings("ignored", ignoredRoots))
		}
		matchedEntry, isIgnored := finder.MatchIgnoredRoot(canonicalRoot, ignoredRoots)
		checks = append(checks, types.RootCheck{
			Root:         validatedPath.OriginalPath,
			Acceptable:   !isIgnored,
			MatchedEntry: matchedEntry,
		})
	}

	if format == types.FormatJSON {
		renderedJSON, renderError := output.RenderCheckJSON(checks)
		if renderError != nil {
			return renderError
		}
		fmt.Println(renderedJSON)
		return nil
	}
	fmt.Print(output.RenderCheckRaw(checks))
	return nil
}

// resolveAndValidatePaths converts input paths to absolute paths, checks
// existence, and removes duplicates. With requireDirectory set, paths that
// are not directories are skipped with a warning.
func resolveAndValidatePaths(inputPaths []string, requireDirectory bool) ([]types.ValidatedPath, error) {
	uniquePaths := make(map[string]struct{})
	var validatedPaths []types.ValidatedPath
	for _, inputPath := range inputPaths {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, exists := uniquePaths[cleanPath]; exists {
			continue
		}
		fileInformation, statError := os.Stat(cleanPath)
		if statError != nil {
			if os.IsNotExist(statError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, statError)
		}
		if requireDirectory && !fileInformation.IsDir() {
			fmt.Fprintf(os.Stderr, warningSkipPathFormat, inputPath, fmt.Errorf("not a directory"))
			continue
		}
		uniquePaths[cleanPath] = struct{}{}
		validatedPaths = append(validatedPaths, types.ValidatedPath{
			OriginalPath: inputPath,
			AbsolutePath: cleanPath,
			IsDir:        fileInformation.IsDir(),
		})
	}
	if len(validatedPaths) == 0 {
		return nil, fmt.Errorf(errorNoValidPaths)
	}
	return validatedPaths, nil
}
