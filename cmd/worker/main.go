// The worker runs the daily batch: one reconciliation per account,
// parallel across accounts. It is meant to be invoked by the morning
// scheduler and exits when every account has been processed.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/meridianfin/brs/internal/audit"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/jobs"
	"github.com/meridianfin/brs/internal/jobs/inmemory"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/meridianfin/brs/internal/notify"
	"github.com/meridianfin/brs/internal/pipeline"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/rs/zerolog"
)

func main() {
	var (
		dateFlag     = flag.String("date", "", "processing date (YYYY-MM-DD), defaults to yesterday")
		accountsFlag = flag.String("accounts", "", "comma-separated account IDs, defaults to all")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	processing := recon.DayOf(time.Now().AddDate(0, 0, -1))
	if *dateFlag != "" {
		processing, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatal().Err(err).Str("date", *dateFlag).Msg("Invalid processing date")
		}
	}

	accounts := config.AccountIDs()
	if *accountsFlag != "" {
		accounts = strings.Split(*accountsFlag, ",")
		for i := range accounts {
			accounts[i] = strings.TrimSpace(accounts[i])
		}
	}

	ctx := logger.WithContext(context.Background(), log)

	recorder := audit.NewRecorder(ctx, cfg.GCP)
	defer recorder.Close()

	mailer := notify.NewMailer(cfg.SMTP, cfg.Mail)
	runner := pipeline.NewRunner(cfg, log, mailer, recorder)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(len(accounts), jobStore)

	handler := func(ctx context.Context, job jobs.Job) error {
		runJob, ok := job.(*jobs.ReconRunJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		result, _, err := runner.Run(ctx, runJob.Account, runJob.ProcessingDate, runJob.RequestedBy)
		runJob.Result = result
		return err
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().
		Time("processing_date", processing).
		Strs("accounts", accounts).
		Msg("Daily batch starting")

	published := make([]string, 0, len(accounts))
	for _, account := range accounts {
		job := &jobs.ReconRunJob{Account: account, ProcessingDate: processing}
		if err := jobQueue.PublishReconRun(ctx, job); err != nil {
			log.Error().Err(err).Str("account", account).Msg("Failed to enqueue run")
			continue
		}
		published = append(published, job.JobID)
	}

	// Stopping the queue only waits for in-flight runs, so the batch
	// waits for every published job to reach a terminal status first.
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Hour)
	defer cancel()

	failures := waitForJobs(waitCtx, log, jobStore, published)

	if err := jobQueue.Stop(waitCtx); err != nil {
		log.Error().Err(err).Msg("Batch did not drain cleanly")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().
		Int("accounts", len(published)).
		Int("failures", failures).
		Msg("Daily batch finished")
}

// waitForJobs polls the store until every job finishes or the context
// expires, and returns the number of failed runs.
func waitForJobs(ctx context.Context, log zerolog.Logger, store jobs.JobStore, jobIDs []string) int {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		pending := 0
		failures := 0
		for _, jobID := range jobIDs {
			job, err := store.GetJob(ctx, jobID)
			if err != nil {
				continue
			}
			switch job.GetStatus() {
			case jobs.JobStatusFailed:
				failures++
			case jobs.JobStatusCompleted:
			default:
				pending++
			}
		}
		if pending == 0 {
			return failures
		}

		select {
		case <-ctx.Done():
			log.Error().Int("pending", pending).Msg("Batch timed out with runs still pending")
			return failures
		case <-ticker.C:
		}
	}
}
