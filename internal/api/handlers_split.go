package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/links"
	"github.com/dgallion1/booksplit/internal/parser"
	"github.com/dgallion1/booksplit/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// formError reports a failed multipart parse. A body cut off by
// http.MaxBytesReader is a 413, anything else a 400.
func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := splitOptions(r, s.orchestrator.Options())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(filename, r.FormValue("title"), data)
	job.SetOptions(opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"book_id":  job.BookID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/split/%s/status", job.ID),
	})
}

// splitOptions applies per-request form overrides on top of base.
func splitOptions(r *http.Request, base config.Options) (config.Options, error) {
	opts := base
	for field, dst := range map[string]*int{
		"min_tags": &opts.MinTags,
		"max_tags": &opts.MaxTags,
	} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s must be an integer", field)
		}
		*dst = n
	}
	for field, dst := range map[string]*bool{
		"sections":    &opts.CreateSections,
		"tags":        &opts.GenerateTags,
		"navigation":  &opts.AddNavigation,
		"images":      &opts.PreserveImages,
		"frontmatter": &opts.FrontMatter,
	} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%s must be a boolean", field)
		}
		*dst = b
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// lookupJob writes a 404 and returns nil when the job is unknown.
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
	}
	return job
}

// finishedResult writes a 409 and returns nil while the job has no result.
func finishedResult(w http.ResponseWriter, job *pipeline.Job) *pipeline.Result {
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job has no result",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
	}
	return res
}

func (s *Server) handleSplitStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":   snap.ID,
		"book_id":  snap.BookID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func (s *Server) handleSplitResult(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	res := finishedResult(w, job)
	if res == nil {
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":    snap.ID,
		"book_id":   snap.BookID,
		"status":    snap.Status,
		"hierarchy": res.Hierarchy,
		"tags":      res.Tags,
		"links":     res.Links,
		"warnings":  res.Warnings,
		"stats":     res.Stats,
	})
}

func (s *Server) handleSplitFiles(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	res := finishedResult(w, job)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": job.ID,
		"files":  res.Book.Map(),
	})
}

var exportContentTypes = map[string]string{
	"json": "application/json",
	"yaml": "application/yaml",
	"yml":  "application/yaml",
	"csv":  "text/csv; charset=utf-8",
}

func (s *Server) handleSplitLinks(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	res := finishedResult(w, job)
	if res == nil {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	ct, ok := exportContentTypes[format]
	if !ok {
		jsonError(w, "format must be json, yaml or csv", http.StatusBadRequest)
		return
	}
	data, err := links.Export(res.Links, format)
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

func (s *Server) handleBatchSplit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := splitOptions(r, s.orchestrator.Options())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	batchID := pipeline.NewBatchID()
	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		data, err := s.readUpload(fh, filename)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, "", data)
		job.BatchID = batchID
		job.SetOptions(opts)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"book_id":  job.BookID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/split/%s/status", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": batchID,
		"poll_url": fmt.Sprintf("/api/split/batch/%s", batchID),
		"jobs":     results,
	})
}

func (s *Server) readUpload(fh *multipart.FileHeader, filename string) ([]byte, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file too large or read error")
	}
	return data, nil
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.GetBatch(chi.URLParam(r, "batchID"))
	if len(jobs) == 0 {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	snaps := make([]pipeline.JobSnapshot, 0, len(jobs))
	done := 0
	for _, j := range jobs {
		snap := j.Snapshot()
		if snap.Status.Terminal() {
			done++
		}
		snaps = append(snaps, snap)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": chi.URLParam(r, "batchID"),
		"total":    len(snaps),
		"done":     done,
		"jobs":     snaps,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
