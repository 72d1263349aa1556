package utils

// ConfigFileName is the name of the local configuration file.
const ConfigFileName = ".scmls.yaml"

// GlobalConfigDirectoryName is the directory under the user home that holds the global configuration file.
const GlobalConfigDirectoryName = ".scmls"

// GitDirectoryName is the name of the Git repository directory.
const GitDirectoryName = ".git"

// LoggerInitializationFailedMessageFormat reports a logger construction failure.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage reports a fatal application error.
const ApplicationExecutionFailedMessage = "application execution failed"
