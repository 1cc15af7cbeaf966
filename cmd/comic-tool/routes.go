package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouteConfig holds information for registering a route
type RouteConfig struct {
	Path    string
	Handler http.HandlerFunc
	Methods []string
}

// RegisterRoutes registers all application routes with the router
func RegisterRoutes(r *mux.Router, ctx *AppContext) {
	routes := []RouteConfig{
		// Conversion routes
		{"/api/upload", ctx.ConvertHandler.UploadHandler, []string{"POST"}},
		{"/api/files", ctx.ConvertHandler.ListFilesHandler, []string{"GET"}},
		{"/api/convert", ctx.ConvertHandler.StartConvertHandler, []string{"POST"}},
		{"/api/validate", ctx.ConvertHandler.ValidateHandler, []string{"POST"}},
		{"/api/settings", ctx.ConvertHandler.SettingsHandler, []string{"GET", "POST"}},

		// Process routes
		{"/api/status", ctx.ProcessHandler.StatusHandler, []string{"GET"}},
		{"/api/processes", ctx.ProcessHandler.ProcessesAPIHandler, []string{"GET"}},
		{"/api/processes/{id}/delete", ctx.ProcessHandler.ProcessDeleteHandler, []string{"POST"}},
	}

	for _, route := range routes {
		r.HandleFunc(route.Path, route.Handler).Methods(route.Methods...)
	}
}
