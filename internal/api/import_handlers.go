package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ignite/crm-import/internal/domain"
	"github.com/ignite/crm-import/internal/importer"
	"github.com/ignite/crm-import/internal/pkg/httputil"
)

// ContactStore provides the read-only existing-contacts list the import
// pipeline validates and deduplicates against.
type ContactStore interface {
	List(ctx context.Context) ([]domain.Contact, error)
}

// ImportHandlers exposes the CSV import pipeline over HTTP.
type ImportHandlers struct {
	contacts       ContactStore
	runner         *importer.Runner
	maxUploadBytes int64
	rowTimeout     time.Duration
}

// NewImportHandlers creates the import handler set.
func NewImportHandlers(contacts ContactStore, runner *importer.Runner, maxUploadBytes int64, rowTimeout time.Duration) *ImportHandlers {
	return &ImportHandlers{
		contacts:       contacts,
		runner:         runner,
		maxUploadBytes: maxUploadBytes,
		rowTimeout:     rowTimeout,
	}
}

// HandlePreview accepts a multipart CSV upload, parses it and returns the
// headers, suggested field mapping and a handful of sample rows.
func (h *ImportHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		httputil.InternalError(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	headers, rows, err := importer.ParseCSV(string(raw))
	if err != nil {
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sample := rows
	if len(sample) > 5 {
		sample = sample[:5]
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"headers":     headers,
		"mappings":    importer.SuggestMapping(headers),
		"row_count":   len(rows),
		"sample_rows": sample,
	})
}

type validateRequest struct {
	CSV      string                  `json:"csv"`
	Mappings []importer.FieldMapping `json:"mappings"`
}

// HandleValidate re-parses the CSV under an edited mapping and returns the
// per-row validation preview. Mapping errors short-circuit with an empty
// preview.
func (h *ImportHandlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	_, rows, err := importer.ParseCSV(req.CSV)
	if err != nil {
		httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	existing, err := h.contacts.List(r.Context())
	if err != nil {
		httputil.InternalError(w, fmt.Errorf("failed to load existing contacts: %w", err))
		return
	}

	httputil.JSON(w, http.StatusOK, importer.ValidateAndPreview(rows, req.Mappings, existing))
}

type detectRequest struct {
	Candidates []domain.ContactInput `json:"candidates"`
}

// HandleDetectDuplicates scores candidates against the existing contacts.
func (h *ImportHandlers) HandleDetectDuplicates(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	existing, err := h.contacts.List(r.Context())
	if err != nil {
		httputil.InternalError(w, fmt.Errorf("failed to load existing contacts: %w", err))
		return
	}

	httputil.JSON(w, http.StatusOK, importer.DetectDuplicates(req.Candidates, existing))
}

type runRequest struct {
	Candidates      []domain.ContactInput  `json:"candidates"`
	MergeDuplicates bool                   `json:"merge_duplicates"`
	MergeOptions    *importer.MergeOptions `json:"merge_options,omitempty"`
}

// HandleRun kicks off an import run in the background and returns its ID.
// Progress and the final result are polled via HandleRunStatus.
func (h *ImportHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Candidates) == 0 {
		httputil.BadRequest(w, "no candidates to import")
		return
	}

	opts := importer.RunOptions{
		MergeDuplicates: req.MergeDuplicates,
		Merge:           importer.DefaultMergeOptions(),
		RowTimeout:      h.rowTimeout,
	}
	if req.MergeOptions != nil {
		opts.Merge = *req.MergeOptions
	}
	if err := opts.Merge.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	existing, err := h.contacts.List(r.Context())
	if err != nil {
		httputil.InternalError(w, fmt.Errorf("failed to load existing contacts: %w", err))
		return
	}
	detection := importer.DetectDuplicates(req.Candidates, existing)

	runID := uuid.New().String()
	go func() {
		// Detached from the request context: the run outlives the response.
		if _, err := h.runner.Run(context.Background(), runID, detection, opts); err != nil {
			log.Printf("[ImportAPI] Run %s failed: %v", runID, err)
		}
	}()

	httputil.JSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": "processing",
	})
}

// HandleRunStatus returns run progress, with the final result attached once
// the run completes.
func (h *ImportHandlers) HandleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	progress, err := h.runner.GetProgress(r.Context(), runID)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}

	resp := map[string]interface{}{"progress": progress}
	if progress.Status != "processing" {
		if result, err := h.runner.GetResult(r.Context(), runID); err == nil {
			resp["result"] = result
		}
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// HandleSampleCSV serves the canonical sample file as a download.
func (h *ImportHandlers) HandleSampleCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts_sample.csv"`)
	io.WriteString(w, importer.SampleCSV())
}

// HandleDuplicateReport runs detection and streams the plain-text report.
func (h *ImportHandlers) HandleDuplicateReport(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	existing, err := h.contacts.List(r.Context())
	if err != nil {
		httputil.InternalError(w, fmt.Errorf("failed to load existing contacts: %w", err))
		return
	}

	result := importer.DetectDuplicates(req.Candidates, existing)

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", importer.DuplicateReportFilename(time.Now())))
	io.WriteString(w, importer.DuplicateReport(result))
}
