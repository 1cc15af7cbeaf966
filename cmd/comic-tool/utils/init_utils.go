package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// AppConfig holds the application configuration
type AppConfig struct {
	UploadDir     string // Directory where uploaded comic files are stored
	TempDir       string // Scratch space for conversion jobs
	DataDir       string // Process history persistence
	Port          string
	SessionKey    string // Key for the settings cookie store
	RetentionDays int    // How long finished processes are kept, configurable via RETENTION_DAYS
}

// createRequiredDirectories creates all necessary directories for the application
func createRequiredDirectories(appConfig *AppConfig) error {
	if err := os.MkdirAll(appConfig.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %v", appConfig.UploadDir, err)
	}

	if err := os.MkdirAll(appConfig.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory %s: %v", appConfig.TempDir, err)
	}

	if err := os.MkdirAll(appConfig.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %v", appConfig.DataDir, err)
	}

	log.Printf("Created directories: uploads=%s, temp=%s, data=%s", appConfig.UploadDir, appConfig.TempDir, appConfig.DataDir)
	return nil
}

// Initialize initializes the application
func Initialize(appConfig *AppConfig) error {
	// Override with environment variables if set
	appConfig.UploadDir = GetEnv("COMIC_TOOL_UPLOAD_DIR", appConfig.UploadDir)
	appConfig.TempDir = GetEnv("COMIC_TOOL_TEMP_DIR", appConfig.TempDir)
	appConfig.DataDir = GetEnv("COMIC_TOOL_DATA_DIR", appConfig.DataDir)
	appConfig.Port = GetEnv("COMIC_TOOL_PORT", appConfig.Port)
	appConfig.SessionKey = GetEnv("COMIC_TOOL_SESSION_KEY", appConfig.SessionKey)
	appConfig.RetentionDays = GetEnvInt("RETENTION_DAYS", appConfig.RetentionDays)

	if appConfig.RetentionDays <= 0 {
		appConfig.RetentionDays = 14
	}

	// Create necessary directories automatically
	if err := createRequiredDirectories(appConfig); err != nil {
		return fmt.Errorf("failed to create required directories: %v", err)
	}

	log.Printf("Using process retention setting: %d days", appConfig.RetentionDays)

	return nil
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an environment variable as an integer or returns a default value
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
