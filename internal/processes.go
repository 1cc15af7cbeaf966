package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"comic-tool/internal/convert"
)

// ProcessType represents different types of processes
type ProcessType string

const (
	ProcessTypeConvert  ProcessType = "convert"
	ProcessTypeValidate ProcessType = "validate"
)

// ProcessStatus represents the current status of a process
type ProcessStatus string

const (
	ProcessStatusRunning  ProcessStatus = "running"
	ProcessStatusComplete ProcessStatus = "complete"
	ProcessStatusFailed   ProcessStatus = "failed"
)

// Process represents one conversion batch in the system
type Process struct {
	ID             string           `json:"id"`              // Unique identifier for the process
	Type           ProcessType      `json:"type"`            // Type of process
	Title          string           `json:"title"`           // Short description of the batch
	Status         ProcessStatus    `json:"status"`          // Current status
	Progress       int              `json:"progress"`        // Current progress (0-100)
	Total          int              `json:"total"`           // Progress scale, conventionally 100
	Message        string           `json:"message"`         // Current status message
	Error          string           `json:"error"`           // Error message if failed
	StartTime      time.Time        `json:"start_time"`      // When the process started
	EndTime        time.Time        `json:"end_time"`        // When the process completed/failed
	Files          []string         `json:"files"`           // Input file paths, in dispatch order
	TargetFormat   string           `json:"target_format"`   // Requested target format token
	DeleteOriginal bool             `json:"delete_original"` // Whether originals are removed on success
	Results        []convert.Result `json:"results"`         // Per-file outcomes, one per input
}

// ProcessManager handles all running processes
type ProcessManager struct {
	processes   map[string]*Process
	mu          sync.RWMutex
	storagePath string
}

// NewProcessManager creates a process manager persisting to storagePath and
// loads any history found there. Processes left running by a previous
// instance are marked failed since their batches were interrupted.
func NewProcessManager(storagePath string) *ProcessManager {
	pm := &ProcessManager{
		processes:   make(map[string]*Process),
		storagePath: storagePath,
	}

	if err := pm.LoadProcesses(); err != nil {
		fmt.Printf("Warning: Failed to load process history: %v\n", err)
	}

	for _, p := range pm.processes {
		if p.Status == ProcessStatusRunning {
			p.Status = ProcessStatusFailed
			p.Message = "Process interrupted by service restart"
			p.EndTime = time.Now()
		}
	}

	if err := pm.SaveProcesses(); err != nil {
		fmt.Printf("Warning: Failed to save updated process states: %v\n", err)
	}

	return pm
}

// SaveProcesses persists all processes to disk
func (pm *ProcessManager) SaveProcesses() error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processes := make([]*Process, 0, len(pm.processes))
	for _, p := range pm.processes {
		processes = append(processes, p)
	}

	data, err := json.MarshalIndent(processes, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling processes: %v", err)
	}

	if err := os.WriteFile(pm.storagePath, data, 0644); err != nil {
		return fmt.Errorf("error writing processes to file: %v", err)
	}

	return nil
}

// LoadProcesses loads processes from disk
func (pm *ProcessManager) LoadProcesses() error {
	if _, err := os.Stat(pm.storagePath); os.IsNotExist(err) {
		// No file exists yet, not an error
		return nil
	}

	data, err := os.ReadFile(pm.storagePath)
	if err != nil {
		return fmt.Errorf("error reading processes file: %v", err)
	}

	var processes []*Process
	if err := json.Unmarshal(data, &processes); err != nil {
		return fmt.Errorf("error unmarshaling processes: %v", err)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, p := range processes {
		pm.processes[p.ID] = p
	}

	return nil
}

// clone returns a detached copy safe to hand out while the original keeps
// mutating under the manager's lock.
func (p *Process) clone() Process {
	c := *p
	c.Files = append([]string(nil), p.Files...)
	c.Results = append([]convert.Result(nil), p.Results...)
	return c
}

// NewProcess creates a new process and registers it with the manager. The
// returned value is a snapshot; further changes go through UpdateProcess.
func (pm *ProcessManager) NewProcess(processType ProcessType, title string) Process {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	// Generate unique ID using timestamp and type
	id := fmt.Sprintf("%s-%d", processType, time.Now().UnixNano())

	process := &Process{
		ID:        id,
		Type:      processType,
		Title:     title,
		Status:    ProcessStatusRunning,
		StartTime: time.Now(),
	}

	pm.processes[id] = process

	go pm.SaveProcesses()

	return process.clone()
}

// GetProcess returns a snapshot of a process by ID. Callers never see the
// live registry entry, so reads need no further locking.
func (pm *ProcessManager) GetProcess(id string) (Process, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	process, exists := pm.processes[id]
	if !exists {
		return Process{}, false
	}
	return process.clone(), true
}

// ListProcesses returns snapshots of all processes
func (pm *ProcessManager) ListProcesses() []Process {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processes := make([]Process, 0, len(pm.processes))
	for _, p := range pm.processes {
		processes = append(processes, p.clone())
	}
	return processes
}

// ListActiveProcesses returns snapshots of the running processes
func (pm *ProcessManager) ListActiveProcesses() []Process {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processes := make([]Process, 0)
	for _, p := range pm.processes {
		if p.Status == ProcessStatusRunning {
			processes = append(processes, p.clone())
		}
	}
	return processes
}

// UpdateProcess updates a process's status
func (pm *ProcessManager) UpdateProcess(id string, update func(*Process)) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if process, exists := pm.processes[id]; exists {
		update(process)

		go pm.SaveProcesses()

		return true
	}
	return false
}

// CompleteProcess marks a process as complete
func (pm *ProcessManager) CompleteProcess(id string) bool {
	return pm.UpdateProcess(id, func(p *Process) {
		p.Status = ProcessStatusComplete
		p.Progress = p.Total
		p.EndTime = time.Now()
		p.Message = "Conversion complete!"
	})
}

// FailProcess marks a process as failed
func (pm *ProcessManager) FailProcess(id string, err string) bool {
	return pm.UpdateProcess(id, func(p *Process) {
		p.Status = ProcessStatusFailed
		p.Error = err
		p.EndTime = time.Now()
	})
}

// DeleteProcess removes a process from history
func (pm *ProcessManager) DeleteProcess(id string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if process, exists := pm.processes[id]; exists {
		// Only allow deletion of non-running processes
		if process.Status != ProcessStatusRunning {
			delete(pm.processes, id)

			go pm.SaveProcesses()

			return true
		}
	}
	return false
}

// CleanupOldProcesses removes completed/failed processes older than the given duration
func (pm *ProcessManager) CleanupOldProcesses(age time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := time.Now()
	deleted := false

	for id, process := range pm.processes {
		if process.Status != ProcessStatusRunning {
			if now.Sub(process.EndTime) > age {
				delete(pm.processes, id)
				deleted = true
			}
		}
	}

	if deleted {
		go pm.SaveProcesses()
	}
}

// Update updates a process's progress and message
func (p *Process) Update(progress int, total int, message string) {
	p.Progress = progress
	p.Total = total
	p.Message = message
}

// Duration returns the duration of the process
func (p *Process) Duration() time.Duration {
	if p.Status == ProcessStatusRunning {
		return time.Since(p.StartTime)
	}
	return p.EndTime.Sub(p.StartTime)
}

// ProgressPercentage returns the progress as a percentage
func (p *Process) ProgressPercentage() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Progress * 100) / p.Total
}

// FailedCount returns how many per-file results in the batch failed
func (p *Process) FailedCount() int {
	failed := 0
	for _, r := range p.Results {
		if !r.Success {
			failed++
		}
	}
	return failed
}
