package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"comic-tool/cmd/comic-tool/utils"
)

// main is the entry point of the application
func main() {
	// Create default configuration
	appConfig := &utils.AppConfig{
		UploadDir:     utils.GetEnv("UPLOAD_DIR", "/config/uploads"),
		TempDir:       utils.GetEnv("TEMP_DIR", "/config/temp"),
		DataDir:       utils.GetEnv("DATA_DIR", "./data"),
		Port:          utils.GetEnv("PORT", "25100"),
		SessionKey:    utils.GetEnv("SESSION_KEY", "comic-tool-session-key"),
		RetentionDays: 14,
	}

	// Initialize application context
	ctx, err := NewAppContext(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Log configuration settings
	log.Printf("Starting with configuration: UploadDir=%s", appConfig.UploadDir)

	// Periodically drop finished processes past the retention window
	go func() {
		logger := utils.NewSimpleLogger("")
		retention := time.Duration(appConfig.RetentionDays) * 24 * time.Hour
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx.ProcessManager.CleanupOldProcesses(retention)
			logger.Info("Cleaned up old processes")
		}
	}()

	// Set up routes
	r := mux.NewRouter()
	RegisterRoutes(r, ctx)

	// Start server
	log.Printf("Starting server on port %s", appConfig.Port)
	if err := http.ListenAndServe(":"+appConfig.Port, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
