package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/gorilla/sessions"

	"comic-tool/cmd/comic-tool/handlers"
	"comic-tool/cmd/comic-tool/utils"
	"comic-tool/internal"
)

// AppContext holds all the application state and dependencies
type AppContext struct {
	// Configuration
	Config *utils.AppConfig

	// Core services
	ProcessManager *internal.ProcessManager
	SessionStore   *sessions.CookieStore

	// State
	CurrentProcessID string
	StartTime        time.Time

	// Handlers
	ConvertHandler *handlers.ConvertHandler
	ProcessHandler *handlers.ProcessHandler
}

// NewAppContext creates a new application context with all dependencies initialized
func NewAppContext(config *utils.AppConfig) (*AppContext, error) {
	if err := utils.Initialize(config); err != nil {
		return nil, err
	}

	processManager := internal.NewProcessManager(filepath.Join(config.DataDir, "processes.json"))
	sessionStore := sessions.NewCookieStore([]byte(config.SessionKey))

	ctx := &AppContext{
		Config:         config,
		ProcessManager: processManager,
		SessionStore:   sessionStore,
		StartTime:      time.Now(),
	}

	ctx.ConvertHandler = &handlers.ConvertHandler{
		Config:         config,
		ProcessManager: processManager,
		SessionStore:   sessionStore,
		Logger:         logMessage,
		CurrentProcess: &ctx.CurrentProcessID,
	}

	ctx.ProcessHandler = &handlers.ProcessHandler{
		ProcessManager: processManager,
		Logger:         logMessage,
	}

	return ctx, nil
}

// logMessage logs a message to stdout for Docker logs
func logMessage(level, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	log.Printf("[%s] [%s] %s", timestamp, level, message)
}
