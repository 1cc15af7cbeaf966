package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Constants
var (
	// File extensions
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}
	RarExtensions   = []string{".rar", ".cbr"}
	ZipExtensions   = []string{".zip", ".cbz"}
	PdfExtensions   = []string{".pdf"}
)

// Logger interface for handling logs
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// SimpleLogger is a basic logger that outputs to stdout via a log function
type SimpleLogger struct {
	ProcessID string
	LogFunc   func(level, message string)
}

// NewSimpleLogger creates a new simple logger
func NewSimpleLogger(processID string, logFunc func(level, message string)) *SimpleLogger {
	return &SimpleLogger{
		ProcessID: processID,
		LogFunc:   logFunc,
	}
}

// Info logs an informational message
func (l *SimpleLogger) Info(msg string) {
	if l.LogFunc != nil {
		l.LogFunc("INFO", msg)
	}
}

// Warning logs a warning message
func (l *SimpleLogger) Warning(msg string) {
	if l.LogFunc != nil {
		l.LogFunc("WARNING", msg)
	}
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string) {
	if l.LogFunc != nil {
		l.LogFunc("ERROR", msg)
	}
}

// NoopLogger is a logger that does nothing
type NoopLogger struct{}

func (l *NoopLogger) Info(msg string)    {}
func (l *NoopLogger) Warning(msg string) {}
func (l *NoopLogger) Error(msg string)   {}

// hasSuffixIn checks a lowercased filename against a list of extensions
func hasSuffixIn(filename string, extensions []string) bool {
	lowerName := strings.ToLower(filename)
	for _, ext := range extensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}
	return false
}

// IsImageFile checks if a filename has an image extension
func IsImageFile(filename string) bool {
	return hasSuffixIn(filename, ImageExtensions)
}

// IsRarFile checks if a filename has a RAR extension
func IsRarFile(filename string) bool {
	return hasSuffixIn(filename, RarExtensions)
}

// IsZipFile checks if a filename has a ZIP extension
func IsZipFile(filename string) bool {
	return hasSuffixIn(filename, ZipExtensions)
}

// IsPdfFile checks if a filename has a PDF extension
func IsPdfFile(filename string) bool {
	return hasSuffixIn(filename, PdfExtensions)
}

// IsComicFile checks if a filename has a convertible comic file extension.
func IsComicFile(filename string) bool {
	return IsZipFile(filename) || IsRarFile(filename) || IsPdfFile(filename)
}

// SanitizeForFilesystem sanitizes a string for use in filenames
func SanitizeForFilesystem(title string) string {
	invalidChars := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := title
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	return strings.TrimSpace(result)
}

// FindComicFiles finds all convertible comic files in a directory
func FindComicFiles(directory string) ([]string, error) {
	var files []string

	// Verify directory exists and is accessible
	if _, err := os.Stat(directory); err != nil {
		return nil, fmt.Errorf("directory error: %v", err)
	}

	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !info.IsDir() && IsComicFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// DeleteFileWithRetry attempts to delete a file with retries, useful for network mounts
func DeleteFileWithRetry(path string, maxRetries int, logger Logger) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := os.Remove(path)
		if err == nil {
			return nil
		}

		lastErr = err

		// Log retry attempt
		if logger != nil && i < maxRetries-1 {
			logger.Info(fmt.Sprintf("Retry %d/%d deleting file %s: %v",
				i+1, maxRetries, filepath.Base(path), err))
		}

		// Wait before retry
		time.Sleep(time.Duration(100*(i+1)) * time.Millisecond)
	}

	return fmt.Errorf("failed to delete file after %d attempts: %v", maxRetries, lastErr)
}

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt retrieves an environment variable as an integer or returns a default value
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
