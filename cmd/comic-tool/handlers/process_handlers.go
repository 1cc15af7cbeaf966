package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"comic-tool/internal"
	"comic-tool/internal/convert"
)

// ProcessHandler contains dependencies for process history handlers
type ProcessHandler struct {
	ProcessManager *internal.ProcessManager
	Logger         func(level, message string)
}

// StatusHandler returns the status of a single process
func (h *ProcessHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	processID := r.URL.Query().Get("id")
	if processID == "" {
		respondJSONError(w, http.StatusBadRequest, "Process ID required")
		return
	}

	proc, exists := h.ProcessManager.GetProcess(processID)
	if !exists {
		respondJSONError(w, http.StatusNotFound, "Process not found")
		return
	}

	// Response shape the frontend polls against
	response := struct {
		Status      string           `json:"status"`
		Progress    int              `json:"progress"`
		Total       int              `json:"total"`
		Message     string           `json:"message"`
		Error       string           `json:"error"`
		ProcessID   string           `json:"process_id"`
		ProcessType string           `json:"process_type"`
		StartTime   string           `json:"start_time"`
		Duration    string           `json:"duration"`
		Results     []convert.Result `json:"results,omitempty"`
	}{
		Status:      string(proc.Status),
		Progress:    proc.Progress,
		Total:       proc.Total,
		Message:     proc.Message,
		Error:       proc.Error,
		ProcessID:   proc.ID,
		ProcessType: string(proc.Type),
		StartTime:   proc.StartTime.Format(time.RFC3339),
		Duration:    proc.Duration().String(),
	}

	respondJSON(w, response)
}

// ProcessesAPIHandler returns all processes as JSON for AJAX calls
func (h *ProcessHandler) ProcessesAPIHandler(w http.ResponseWriter, r *http.Request) {
	allProcesses := h.ProcessManager.ListProcesses()

	type ProcessResponse struct {
		ID                 string           `json:"id"`
		Type               string           `json:"type"`
		Title              string           `json:"title"`
		Status             string           `json:"status"`
		Progress           int              `json:"progress"`
		Total              int              `json:"total"`
		ProgressPercentage int              `json:"progress_percentage"`
		Message            string           `json:"message"`
		Error              string           `json:"error"`
		StartTime          time.Time        `json:"start_time"`
		EndTime            time.Time        `json:"end_time"`
		TargetFormat       string           `json:"target_format"`
		DeleteOriginal     bool             `json:"delete_original"`
		FileCount          int              `json:"file_count"`
		FailedCount        int              `json:"failed_count"`
		Results            []convert.Result `json:"results,omitempty"`
	}

	responseProcesses := make([]ProcessResponse, 0, len(allProcesses))
	for _, proc := range allProcesses {
		responseProcesses = append(responseProcesses, ProcessResponse{
			ID:                 proc.ID,
			Type:               string(proc.Type),
			Title:              proc.Title,
			Status:             string(proc.Status),
			Progress:           proc.Progress,
			Total:              proc.Total,
			ProgressPercentage: proc.ProgressPercentage(),
			Message:            proc.Message,
			Error:              proc.Error,
			StartTime:          proc.StartTime,
			EndTime:            proc.EndTime,
			TargetFormat:       proc.TargetFormat,
			DeleteOriginal:     proc.DeleteOriginal,
			FileCount:          len(proc.Files),
			FailedCount:        proc.FailedCount(),
			Results:            proc.Results,
		})
	}

	respondJSON(w, map[string]interface{}{
		"processes": responseProcesses,
	})
}

// ProcessDeleteHandler removes a finished process from history
func (h *ProcessHandler) ProcessDeleteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	processID := vars["id"]
	if processID == "" {
		respondJSONError(w, http.StatusBadRequest, "Process ID required")
		return
	}

	if !h.ProcessManager.DeleteProcess(processID) {
		respondJSONError(w, http.StatusConflict, "Process not found or still running")
		return
	}

	h.Logger("INFO", "Deleted process from history: "+processID)
	respondJSONSuccess(w, nil)
}
