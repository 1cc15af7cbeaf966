package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/sessions"

	"comic-tool/cmd/comic-tool/utils"
	"comic-tool/internal"
	"comic-tool/internal/convert"
	"comic-tool/internal/util"
)

const settingsSessionName = "comic-tool-settings"

var supportedTargets = map[string]bool{
	"cbz": true,
	"cbr": true,
	"pdf": true,
}

// ConvertHandler contains dependencies for conversion handlers
type ConvertHandler struct {
	Config         *utils.AppConfig
	ProcessManager *internal.ProcessManager
	SessionStore   *sessions.CookieStore
	Logger         func(level, message string)
	CurrentProcess *string
}

// UploadHandler handles comic file upload requests
func (h *ConvertHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	// Parse form (max 500MB, comic archives are large)
	if err := r.ParseMultipartForm(500 << 20); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Error parsing form: %v", err))
		return
	}

	files := r.MultipartForm.File["comic_files"]
	if len(files) == 0 {
		respondJSONError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	saved := make([]string, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Filename == "" {
			continue
		}

		name := util.SanitizeForFilesystem(filepath.Base(fileHeader.Filename))
		if !util.IsComicFile(name) {
			respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", name))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			h.Logger("ERROR", fmt.Sprintf("Error opening uploaded file: %v", err))
			respondJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Error opening uploaded file: %v", err))
			return
		}

		dstPath := filepath.Join(h.Config.UploadDir, name)
		dst, err := os.Create(dstPath)
		if err != nil {
			file.Close()
			h.Logger("ERROR", fmt.Sprintf("Error creating file: %v", err))
			respondJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Error creating file: %v", err))
			return
		}

		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			file.Close()
			h.Logger("ERROR", fmt.Sprintf("Error copying file: %v", err))
			respondJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Error copying file: %v", err))
			return
		}
		dst.Close()
		file.Close()

		h.Logger("INFO", fmt.Sprintf("Uploaded file saved: %s (%d bytes)", name, fileHeader.Size))
		saved = append(saved, dstPath)
	}

	respondJSONSuccess(w, map[string]interface{}{
		"files": saved,
	})
}

// StartConvertHandler starts a conversion batch
func (h *ConvertHandler) StartConvertHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Error parsing form: %v", err))
		return
	}

	targetFormat := strings.ToLower(r.FormValue("target_format"))
	if !supportedTargets[targetFormat] {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported target format: %s", targetFormat))
		return
	}

	deleteOriginal := r.FormValue("delete_original") == "true"

	fileRefs := r.Form["files"]
	if len(fileRefs) == 0 {
		respondJSONError(w, http.StatusBadRequest, "No files selected")
		return
	}

	filePaths := make([]string, 0, len(fileRefs))
	for _, ref := range fileRefs {
		filePaths = append(filePaths, resolveComicPath(h.Config.UploadDir, ref))
	}

	// One conversion batch at a time
	if active := h.ProcessManager.ListActiveProcesses(); len(active) > 0 {
		respondJSONError(w, http.StatusConflict, "Another conversion is already running")
		return
	}

	// Remember the caller's settings for the next visit
	h.saveSettings(w, r, targetFormat, deleteOriginal)

	title := fmt.Sprintf("Convert %d file(s) to %s", len(filePaths), strings.ToUpper(targetFormat))
	proc := h.ProcessManager.NewProcess(internal.ProcessTypeConvert, title)
	h.ProcessManager.UpdateProcess(proc.ID, func(p *internal.Process) {
		p.Files = filePaths
		p.TargetFormat = targetFormat
		p.DeleteOriginal = deleteOriginal
		p.Total = 100
		p.Message = "Queued"
	})

	if h.CurrentProcess != nil {
		*h.CurrentProcess = proc.ID
	}

	h.Logger("INFO", fmt.Sprintf("Starting conversion process %s: %s", proc.ID, title))

	h.startWorker(proc.ID, filePaths, targetFormat, deleteOriginal)

	respondJSONSuccess(w, map[string]interface{}{
		"process_id": proc.ID,
	})
}

// startWorker launches the batch worker and wires its callbacks into the
// process registry.
func (h *ConvertHandler) startWorker(processID string, filePaths []string, targetFormat string, deleteOriginal bool) {
	worker := convert.NewWorker(filePaths, targetFormat, deleteOriginal)
	worker.Logger = util.NewSimpleLogger(processID, h.Logger)

	worker.OnProgress = func(current, total int) {
		h.ProcessManager.UpdateProcess(processID, func(p *internal.Process) {
			p.Progress = current
			p.Total = total
		})
	}
	worker.OnStatus = func(message string) {
		h.ProcessManager.UpdateProcess(processID, func(p *internal.Process) {
			p.Message = message
		})
	}
	worker.OnComplete = func(results []convert.Result) {
		h.ProcessManager.UpdateProcess(processID, func(p *internal.Process) {
			p.Results = results
		})
	}
	worker.OnFinished = func() {
		proc, exists := h.ProcessManager.GetProcess(processID)
		if !exists {
			return
		}
		failed := proc.FailedCount()
		if len(proc.Results) > 0 && failed == len(proc.Results) {
			h.ProcessManager.FailProcess(processID, "All files failed to convert")
		} else {
			h.ProcessManager.CompleteProcess(processID)
			if failed > 0 {
				h.ProcessManager.UpdateProcess(processID, func(p *internal.Process) {
					p.Message = fmt.Sprintf("Conversion complete, %d file(s) failed", failed)
				})
			}
		}
		h.Logger("INFO", fmt.Sprintf("Conversion process %s finished (%d failed)", processID, failed))
	}

	go worker.Run()
}

// ListFilesHandler lists the convertible files currently in the upload
// directory.
func (h *ConvertHandler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := util.FindComicFiles(h.Config.UploadDir)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing files: %v", err))
		return
	}

	respondJSONSuccess(w, map[string]interface{}{
		"files": files,
	})
}

// ValidateHandler deep-validates a comic file and returns its report
func (h *ConvertHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Error parsing form: %v", err))
		return
	}

	ref := r.FormValue("file")
	if ref == "" {
		respondJSONError(w, http.StatusBadRequest, "File is required")
		return
	}

	path := resolveComicPath(h.Config.UploadDir, ref)
	if _, err := os.Stat(path); err != nil {
		respondJSONError(w, http.StatusNotFound, fmt.Sprintf("File not found: %s", ref))
		return
	}

	report := convert.Validate(path)

	// Validations show up in process history like conversions do.
	proc := h.ProcessManager.NewProcess(internal.ProcessTypeValidate, fmt.Sprintf("Validate %s", filepath.Base(path)))
	h.ProcessManager.CompleteProcess(proc.ID)
	h.ProcessManager.UpdateProcess(proc.ID, func(p *internal.Process) {
		p.Files = []string{path}
		p.Update(100, 100, fmt.Sprintf("%s, %d image(s)", report.Format, report.ImageCount))
	})

	respondJSON(w, report)
}

// SettingsHandler reads or updates the caller's saved conversion settings
func (h *ConvertHandler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Error parsing form: %v", err))
			return
		}

		targetFormat := strings.ToLower(r.FormValue("target_format"))
		if targetFormat != "" && !supportedTargets[targetFormat] {
			respondJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported target format: %s", targetFormat))
			return
		}

		h.saveSettings(w, r, targetFormat, r.FormValue("delete_original") == "true")
		respondJSONSuccess(w, nil)
		return
	}

	session, _ := h.SessionStore.Get(r, settingsSessionName)

	targetFormat, _ := session.Values["target_format"].(string)
	if targetFormat == "" {
		targetFormat = "cbz"
	}
	deleteOriginal, _ := session.Values["delete_original"].(bool)

	respondJSON(w, map[string]interface{}{
		"target_format":   targetFormat,
		"delete_original": deleteOriginal,
	})
}

// saveSettings stores conversion settings in the cookie session
func (h *ConvertHandler) saveSettings(w http.ResponseWriter, r *http.Request, targetFormat string, deleteOriginal bool) {
	session, _ := h.SessionStore.Get(r, settingsSessionName)
	if targetFormat != "" {
		session.Values["target_format"] = targetFormat
	}
	session.Values["delete_original"] = deleteOriginal
	if err := session.Save(r, w); err != nil {
		h.Logger("WARNING", fmt.Sprintf("Failed to save settings session: %v", err))
	}
}
