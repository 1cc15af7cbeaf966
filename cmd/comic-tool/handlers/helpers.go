package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
)

// respondJSON sends a JSON response with the given data
func respondJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// respondJSONError sends a JSON error response
func respondJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondJSONSuccess sends a JSON success response
func respondJSONSuccess(w http.ResponseWriter, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["success"] = true
	respondJSON(w, data)
}

// resolveComicPath resolves a client-supplied file reference against the
// upload directory. Absolute paths are passed through so the tool can
// convert files in place on a mounted library.
func resolveComicPath(uploadDir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(uploadDir, filepath.Base(name))
}
