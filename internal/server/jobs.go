package server

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ac1965/music2score/internal/pipeline"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// jobTTL is how long artifacts stay downloadable after a job finishes
const jobTTL = 30 * time.Minute

// Job represents one uploaded recording being converted
type Job struct {
	ID        string
	Status    JobStatus
	Stage     string
	Filename  string
	InputPath string
	WorkDir   string
	Result    *pipeline.Result
	Error     string
	CreatedAt time.Time
}

// JobManager manages conversion jobs
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	base   pipeline.Config // per-job copies get InputPath/OutputDir filled in
	python string
}

// NewJobManager creates a job manager; base carries the operator's
// pipeline settings (MuseScore command, sample rate, backend).
func NewJobManager(base pipeline.Config, python string) *JobManager {
	return &JobManager{
		jobs:   make(map[string]*Job),
		base:   base,
		python: python,
	}
}

// Create registers a new job with its own work directory
func (m *JobManager) Create(filename string) (*Job, error) {
	workDir, err := os.MkdirTemp("", "music2score-job-*")
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Stage:     "Uploading...",
		Filename:  filename,
		WorkDir:   workDir,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job, nil
}

// Get retrieves a snapshot of a job by ID
func (m *JobManager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Process runs the conversion pipeline for a job. Intended to run in its
// own goroutine; the pipeline itself stays synchronous.
func (m *JobManager) Process(job *Job) {
	defer time.AfterFunc(jobTTL, func() {
		os.RemoveAll(job.WorkDir)
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
	})

	m.update(job.ID, func(j *Job) {
		j.Status = StatusProcessing
		j.Stage = "Starting pipeline..."
	})

	cfg := m.base
	cfg.InputPath = job.InputPath
	cfg.OutputDir = filepath.Join(job.WorkDir, "out")

	orch := pipeline.NewOrchestrator(m.python, &stageWriter{manager: m, jobID: job.ID}, false)
	result, err := orch.Execute(context.Background(), cfg)

	m.update(job.ID, func(j *Job) {
		if err != nil {
			j.Status = StatusFailed
			j.Error = err.Error()
			return
		}
		j.Status = StatusComplete
		j.Stage = "Done"
		j.Result = result
	})
}

// update applies fn to the live job under the manager lock
func (m *JobManager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		fn(job)
	}
}

// stageWriter feeds the orchestrator's progress output into the job's
// Stage field so the UI can poll it. Only the last non-empty line is
// kept.
type stageWriter struct {
	manager *JobManager
	jobID   string
}

func (w *stageWriter) Write(p []byte) (int, error) {
	lines := bytes.Split(bytes.TrimSpace(p), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := string(bytes.TrimSpace(lines[i]))
		if line == "" {
			continue
		}
		w.manager.update(w.jobID, func(j *Job) { j.Stage = line })
		break
	}
	return len(p), nil
}
