package pipeline

import (
	"context"
	"time"

	"github.com/meridianfin/brs/internal/audit"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/meridianfin/brs/internal/notify"
	"github.com/rs/zerolog"
)

// Run outcome statuses reported back to callers and the audit trail.
const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// Runner executes reconciliation runs end to end for any configured
// account: it resolves the account profile, stamps a run identity,
// records the run in the audit trail and walks the pipeline stages.
type Runner struct {
	cfg      config.Config
	log      zerolog.Logger
	mailer   *notify.Mailer
	recorder *audit.Recorder
}

// NewRunner wires a runner from its dependencies.
func NewRunner(cfg config.Config, log zerolog.Logger, mailer *notify.Mailer, recorder *audit.Recorder) *Runner {
	return &Runner{cfg: cfg, log: log, mailer: mailer, recorder: recorder}
}

// Run reconciles one account for the given processing date. requestedBy,
// when set, is added to the notification recipients for this run. The
// returned message and status describe the outcome; err is non-nil only
// when the run failed.
func (r *Runner) Run(ctx context.Context, accountID string, processing time.Time, requestedBy string) (string, string, error) {
	profile, err := config.ProfileFor(accountID)
	if err != nil {
		return err.Error(), StatusFailure, err
	}

	runID := r.recorder.StartRun(ctx, accountID, processing)
	log := logger.WithRun(r.log, runID, accountID)
	ctx = logger.WithContext(ctx, log)

	log.Info().Time("processing_date", processing).Msg("Reconciliation run started")
	if r.mailer != nil {
		r.mailer.RunStarted(ctx, accountID, processing, requestedBy)
	}
	r.recorder.Detail(ctx, runID, "started", audit.LevelInfo, "run accepted")

	state := &State{
		Profile:        profile,
		ProcessingDate: processing,
		RunID:          runID,
		RequestedBy:    requestedBy,
		InputDir:       r.cfg.Folders.InputDir,
		OutputDir:      r.cfg.Folders.OutputDir,
	}

	p := NewPipeline(
		&FetchInputsStep{SFTP: r.cfg.SFTP},
		&LoadInputsStep{Mailer: r.mailer},
		&ReconcileStep{},
		&RenderStep{},
		&ShipOutputsStep{SFTP: r.cfg.SFTP, GCP: r.cfg.GCP},
		&NotifySuccessStep{Mailer: r.mailer},
	)

	if err := p.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Reconciliation run failed")
		r.recorder.FinishRun(ctx, runID, audit.StatusFailure, err.Error())
		if r.mailer != nil {
			r.mailer.RunFailed(ctx, accountID, processing, err, requestedBy)
		}
		return err.Error(), StatusFailure, err
	}

	r.recorder.FinishRun(ctx, runID, audit.StatusSuccess, "reconciliation completed")
	log.Info().Str("output", state.OutputPath).Msg("Reconciliation run completed")
	return "Reconciliation completed", StatusSuccess, nil
}
