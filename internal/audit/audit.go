// Package audit persists the run trail: one coarse status row per
// reconciliation run and fine-grained detail log rows, both in BigQuery.
// Audit writes are best-effort throughout; losing a log row must never
// fail a reconciliation that otherwise succeeded.
package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"google.golang.org/api/option"
)

const (
	runsTable   = "process_runs"
	detailTable = "detail_logs"
)

// Run statuses.
const (
	StatusStarted = "Started"
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// Detail log levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// Recorder writes run status and detail rows. A Recorder built without a
// usable BigQuery client degrades to logging only.
type Recorder struct {
	client  *bigquery.Client
	dataset string
	seq     atomic.Int64
}

// NewRecorder connects to the audit dataset. Connection problems disable
// persistence rather than failing the caller.
func NewRecorder(ctx context.Context, cfg config.GCPConfig) *Recorder {
	log := logger.FromContext(ctx)

	r := &Recorder{dataset: cfg.Dataset}
	if cfg.ProjectID == "" {
		log.Warn().Msg("No GCP project configured, audit trail disabled")
		return r
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Audit BigQuery client unavailable, audit trail disabled")
		return r
	}
	r.client = client
	return r
}

// Close releases the BigQuery client.
func (r *Recorder) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

// NewRunID builds a date-scoped run identifier, YYYYMMDD plus a
// three-digit sequence.
func NewRunID(processing time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", processing.Format("20060102"), seq)
}

// StartRun inserts the Started row and returns the run ID. The sequence
// is taken from the day's existing rows when the dataset is reachable and
// from a process-local counter otherwise, so IDs stay usable offline.
func (r *Recorder) StartRun(ctx context.Context, account string, processing time.Time) string {
	log := logger.FromContext(ctx)

	seq := r.nextSequence(ctx, processing)
	runID := NewRunID(processing, seq)

	if r.client == nil {
		return runID
	}

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (run_id, account, run_date, started_ts, status, description)
		VALUES (@run_id, @account, @run_date, @started_ts, @status, @description)
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "account", Value: account},
		{Name: "run_date", Value: civil.DateOf(processing)},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: StatusStarted},
		{Name: "description", Value: "Reconciliation started"},
	}
	if err := r.run(ctx, q); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("StartRun: insert failed")
	}
	return runID
}

// FinishRun updates the run row with the terminal status and description.
func (r *Recorder) FinishRun(ctx context.Context, runID, status, description string) {
	if r.client == nil {
		return
	}
	log := logger.FromContext(ctx)

	const maxLen = 2000
	if len(description) > maxLen {
		description = description[:maxLen]
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    description = @description
		WHERE run_id = @run_id
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "description", Value: description},
		{Name: "run_id", Value: runID},
	}
	if err := r.run(ctx, q); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("FinishRun: update failed")
	}
}

// Detail appends one fine-grained log row for the run.
func (r *Recorder) Detail(ctx context.Context, runID, task, level, description string) {
	if r.client == nil {
		return
	}
	log := logger.FromContext(ctx)

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (run_id, task, log_level, description, logged_ts)
		VALUES (@run_id, @task, @log_level, @description, @logged_ts)
	`, r.dataset, detailTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "task", Value: task},
		{Name: "log_level", Value: level},
		{Name: "description", Value: description},
		{Name: "logged_ts", Value: time.Now()},
	}
	if err := r.run(ctx, q); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("Detail: insert failed")
	}
}

func (r *Recorder) run(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (r *Recorder) nextSequence(ctx context.Context, processing time.Time) int {
	if r.client != nil {
		q := r.client.Query(fmt.Sprintf(
			`SELECT COUNT(*) AS n FROM %s.%s WHERE run_date = @run_date`,
			r.dataset, runsTable))
		q.Parameters = []bigquery.QueryParameter{
			{Name: "run_date", Value: civil.DateOf(processing)},
		}
		it, err := q.Read(ctx)
		if err == nil {
			var row struct{ N int64 }
			if err := it.Next(&row); err == nil {
				return int(row.N) + 1
			}
		}
	}
	return int(r.seq.Add(1))
}
