package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/meridianfin/brs/internal/api/middleware"
	"github.com/meridianfin/brs/internal/jobs"
	"github.com/meridianfin/brs/internal/pipeline"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/rs/zerolog"
)

// ProcessHandler triggers reconciliation runs. The default is a
// synchronous run so the operator's HTTP response carries the outcome;
// async=true enqueues the run instead and returns the job ID.
type ProcessHandler struct {
	runner    *pipeline.Runner
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(runner *pipeline.Runner, publisher jobs.Publisher, log zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{
		runner:    runner,
		publisher: publisher,
		log:       log,
	}
}

// ProcessAccount handles POST /process/account_{id}.
//
// The optional date query parameter (YYYY-MM-DD) selects the processing
// date; it defaults to the previous calendar day, which is the normal
// morning-run case.
func (h *ProcessHandler) ProcessAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	ctx := r.Context()

	processing := time.Now().AddDate(0, 0, -1)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		processing = parsed
	}
	processing = recon.DayOf(processing)

	requestedBy := middleware.CallerEmail(ctx)

	if r.URL.Query().Get("async") == "true" {
		job := &jobs.ReconRunJob{
			Account:        accountID,
			ProcessingDate: processing,
			RequestedBy:    requestedBy,
		}
		if err := h.publisher.PublishReconRun(ctx, job); err != nil {
			h.log.Error().Err(err).Str("account", accountID).Msg("Failed to enqueue reconciliation run")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue reconciliation run")
			return
		}

		h.log.Info().Str("job_id", job.JobID).Str("account", accountID).Msg("Reconciliation run enqueued")
		middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"job_id":  job.JobID,
			"status":  string(job.Status),
		})
		return
	}

	result, status, err := h.runner.Run(ctx, accountID, processing, requestedBy)
	if err != nil {
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
			"status":  status,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
		"status":  status,
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		Account: query.Get("account"),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
