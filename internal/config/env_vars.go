package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/oa-client/internal/utils"
)

const (
	appNameVar    = "OA_APP_NAME"
	envVar        = "ENV"
	baseURLVar    = "OA_BASE_URL"
	logLevelVar   = "LOG_LEVEL"
	dataFolderVar = "OA_DATA_FOLDER"
)

// DefaultAppName is shown when a route has no title of its own.
const DefaultAppName = "SoonWin OA系统"

type EnvVars struct {
	file *FileConfig
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, utils.FirstNonEmpty(e.fc().App.Name, DefaultAppName))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, utils.FirstNonEmpty(e.fc().App.Env, "DEV")))
}

// GetBaseURL returns the OA backend origin (e.g. "http://oa.example.com:5000").
// Request paths already carry the /api prefix.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, utils.FirstNonEmpty(e.fc().App.BaseURL, "http://localhost:5000")), "/")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, utils.FirstNonEmpty(e.fc().App.LogLevel, "info")))
}

func (e EnvVars) GetDataFolder() string {
	if folder := GetEnv(dataFolderVar, e.fc().App.DataFolder); folder != "" {
		return folder
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "oa")
	}
	return "./data"
}

func (e EnvVars) fc() *FileConfig {
	if e.file == nil {
		return &FileConfig{}
	}
	return e.file
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(envVar string, fileValue string, defaultValue time.Duration) time.Duration {
	if d, err := parseDuration(GetEnv(envVar, fileValue)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getEnvAsInt(envVar string, fileValue int64, defaultValue int64) int64 {
	if value := os.Getenv(envVar); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

// parseDuration accepts Go durations ("10s") and bare seconds ("10").
func parseDuration(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}
