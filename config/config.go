// Package config provides configuration for the filedock server: build metadata,
// environment-driven getters and the full server Config loaded from TOML and env.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const envPrefix = "FILEDOCK_"

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv(envPrefix + "LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv(envPrefix+"DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv(envPrefix + "DB_FOLDER")
	if dbFolderPath == "" {
		if IsDebug() {
			return "db"
		}
		dbFolderPath = "/etc/filedock"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv(envPrefix + "LOG_FOLDER")
	if logFolderPath == "" {
		if IsDebug() {
			return "log"
		}
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

// GetConfigFile returns the TOML file consulted by Load. An explicit
// FILEDOCK_CONFIG must exist; the implicit ./filedock.toml is optional.
func GetConfigFile() (path string, explicit bool) {
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return GetName() + ".toml", false
}
