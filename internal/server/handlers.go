package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 200 * 1024 * 1024

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("render index", slog.Any("error", err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleUpload accepts a WAV upload, registers a job and starts the
// pipeline in the background.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".wav") {
		http.Error(w, "please upload a WAV file", http.StatusBadRequest)
		return
	}

	job, err := s.jobs.Create(name)
	if err != nil {
		http.Error(w, "create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	inputPath := filepath.Join(job.WorkDir, name)
	dst, err := os.Create(inputPath)
	if err != nil {
		http.Error(w, "store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		http.Error(w, "store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	dst.Close()

	s.jobs.update(job.ID, func(j *Job) { j.InputPath = inputPath })
	job.InputPath = inputPath
	go s.jobs.Process(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": job.ID})
}

// statusResponse is what the UI polls
type statusResponse struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	Stage     string            `json:"stage"`
	Error     string            `json:"error,omitempty"`
	Downloads map[string]string `json:"downloads,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.Get(id)
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	resp := statusResponse{ID: job.ID, Status: job.Status, Stage: job.Stage, Error: job.Error}
	if job.Status == StatusComplete && job.Result != nil {
		resp.Downloads = map[string]string{
			"midi":     "/download/" + job.ID + "/midi",
			"musicxml": "/download/" + job.ID + "/musicxml",
		}
		if job.Result.PDF != "" {
			resp.Downloads["pdf"] = "/download/" + job.ID + "/pdf"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := chi.URLParam(r, "kind")

	job, ok := s.jobs.Get(id)
	if !ok || job.Result == nil {
		http.Error(w, "unknown job or not finished", http.StatusNotFound)
		return
	}

	var path, contentType string
	switch kind {
	case "midi":
		path, contentType = job.Result.MIDI, "audio/midi"
	case "musicxml":
		path, contentType = job.Result.MusicXML, "application/vnd.recordare.musicxml+xml"
	case "pdf":
		path, contentType = job.Result.PDF, "application/pdf"
	default:
		http.Error(w, "unknown artifact kind", http.StatusNotFound)
		return
	}
	if path == "" {
		http.Error(w, "artifact not generated", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

// sanitizeFilename keeps just the base name and replaces anything that
// could escape the work directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.wav"
	}
	return name
}
