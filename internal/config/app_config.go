package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/scmls/scmls/internal/utils"
)

const (
	// ignoreRootsConfigurationKey addresses the deny-list value inside the configuration tree.
	ignoreRootsConfigurationKey = "check.ignore_roots"
	// ignoreRootsEnvironmentVariable overrides the configured deny-list value.
	ignoreRootsEnvironmentVariable = "SCMLS_IGNORE_VCS_ROOTS"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	List  ListCommandConfiguration  `mapstructure:"list"`
	Check CheckCommandConfiguration `mapstructure:"check"`
}

// ListCommandConfiguration defines defaults for the list command.
type ListCommandConfiguration struct {
	Format    string `mapstructure:"format"`
	All       *bool  `mapstructure:"all"`
	Manifest  string `mapstructure:"manifest"`
	Clipboard *bool  `mapstructure:"clipboard"`
}

// CheckCommandConfiguration defines defaults for the check command.
type CheckCommandConfiguration struct {
	Format      string `mapstructure:"format"`
	IgnoreRoots string `mapstructure:"ignore_roots"`
}

// LoadApplicationConfiguration loads configuration from global and local
// files, then applies the deny-list environment override.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeDirectoryError := os.UserHomeDir(); homeDirectoryError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfig, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfig)
	}

	environmentValue, environmentError := readIgnoreRootsEnvironment()
	if environmentError != nil {
		return ApplicationConfiguration{}, environmentError
	}
	if environmentValue != "" {
		merged.Check.IgnoreRoots = environmentValue
	}

	return merged, nil
}

// readIgnoreRootsEnvironment reads the deny-list environment override
// through viper so key handling matches the file-based configuration.
func readIgnoreRootsEnvironment() (string, error) {
	environmentReader := viper.New()
	if bindError := environmentReader.BindEnv(ignoreRootsConfigurationKey, ignoreRootsEnvironmentVariable); bindError != nil {
		return "", fmt.Errorf("bind %s: %w", ignoreRootsEnvironmentVariable, bindError)
	}
	return environmentReader.GetString(ignoreRootsConfigurationKey), nil
}

func resolveLocalConfigPath(workingDirectory string, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolutePath, absoluteError := filepath.Abs(explicitPath)
			if absoluteError != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, absoluteError)
			}
			return absolutePath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	pathInfo, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if pathInfo.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	result.List = result.List.merge(override.List)
	result.Check = result.Check.merge(override.Check)
	return result
}

func (configuration ListCommandConfiguration) merge(override ListCommandConfiguration) ListCommandConfiguration {
	result := configuration
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.All != nil {
		result.All = cloneBool(override.All)
	}
	if override.Manifest != "" {
		result.Manifest = override.Manifest
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (configuration CheckCommandConfiguration) merge(override CheckCommandConfiguration) CheckCommandConfiguration {
	result := configuration
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.IgnoreRoots != "" {
		result.IgnoreRoots = override.IgnoreRoots
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
