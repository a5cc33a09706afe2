// Package pipeline drives one account's reconciliation run through its
// stages: fetch inputs, load them, reconcile, render the workbook, ship
// the outputs and notify. Each stage is a Step; any step error
// short-circuits the run to Failed with the stage recorded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/meridianfin/brs/internal/archive"
	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/loader"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/meridianfin/brs/internal/notify"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/meridianfin/brs/internal/report"
	"github.com/meridianfin/brs/internal/transfer"
)

// Step represents a single stage in the reconciliation pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps for one run.
type State struct {
	Profile        config.AccountProfile
	ProcessingDate time.Time
	RunID          string
	RequestedBy    string

	InputDir  string
	OutputDir string

	Inputs     recon.Inputs
	Result     *recon.Result
	OutputPath string
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	for _, step := range p.steps {
		log.Info().Str("stage", step.Name()).Msg("Pipeline stage starting")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline stage %s failed: %w", step.Name(), err)
		}
	}
	return nil
}

// FetchInputsStep pulls the account's input files off the bank SFTP. With
// no SFTP endpoint configured the step is a no-op and the run works off
// whatever is already in the input directory.
type FetchInputsStep struct {
	SFTP config.SFTPConfig
}

func (s *FetchInputsStep) Name() string { return "fetching" }

func (s *FetchInputsStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	if s.SFTP.Host == "" {
		log.Info().Msg("No SFTP endpoint configured, using local input directory")
		return nil
	}

	client, err := transfer.Dial(ctx, s.SFTP)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.FetchInputs(ctx, state.Profile.ID, state.InputDir)
	return err
}

// LoadInputsStep reads the delivered files into tables. The statement is
// mandatory; the prior BRS and channel ledgers degrade to warnings when
// absent. A file with missing required columns fails the run hard and
// triggers the missing-columns alert.
type LoadInputsStep struct {
	Mailer *notify.Mailer
}

func (s *LoadInputsStep) Name() string { return "loading" }

func (s *LoadInputsStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	load := func(fileKey string) (*loader.Table, error) {
		spec, ok := state.Profile.Files[fileKey]
		if !ok {
			return nil, nil
		}
		path, err := findInputFile(state.InputDir, fileKey, state.Profile.ID)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, nil
		}

		opts := loader.Options{
			Anchor:   spec.Anchor,
			Sheet:    spec.Sheet,
			Required: spec.Columns,
		}
		if spec.DateSheet {
			// Prior BRS sheets are named after the reconciled date; the
			// previous run's sheet is normally T-1, and the loader's
			// last-sheet fallback covers weekend and holiday gaps.
			opts.Sheet = report.SheetName(state.ProcessingDate.AddDate(0, 0, -1))
		}

		table, err := loader.ReadFile(ctx, path, opts)
		if err != nil {
			var verr *loader.ValidationError
			if errors.As(err, &verr) && s.Mailer != nil {
				s.Mailer.ColumnsMissing(ctx, state.Profile.ID, verr.File, verr.Missing, state.RequestedBy)
			}
			return nil, err
		}
		return table, nil
	}

	stmt, err := load("statement")
	if err != nil {
		return err
	}
	if stmt == nil {
		return fmt.Errorf("statement file not delivered for account %s", state.Profile.ID)
	}
	state.Inputs.Statement = stmt

	if state.Inputs.PriorBRS, err = load("brs"); err != nil {
		return err
	}
	if state.Inputs.PriorBRS == nil {
		log.Warn().Msg("Prior BRS not delivered, starting with an empty carryover")
	}

	if state.Inputs.BankBook, err = load("bankbook"); err != nil {
		return err
	}

	state.Inputs.Channels = make(map[string]*loader.Table)
	for _, ch := range state.Profile.Channels {
		table, err := load(ch.FileKey)
		if err != nil {
			return err
		}
		if table != nil {
			state.Inputs.Channels[ch.FileKey] = table
		}
	}
	return nil
}

// ReconcileStep runs the engine: classify, match, roll, age, summarize.
type ReconcileStep struct{}

func (s *ReconcileStep) Name() string { return "reconciling" }

func (s *ReconcileStep) Execute(ctx context.Context, state *State) error {
	engine := recon.NewEngine(state.Profile)
	result, err := engine.Run(ctx, state.Inputs, state.ProcessingDate)
	if err != nil {
		return err
	}
	state.Result = result
	return nil
}

// RenderStep writes the day's sheet into the account workbook.
type RenderStep struct{}

func (s *RenderStep) Name() string { return "rendering" }

func (s *RenderStep) Execute(ctx context.Context, state *State) error {
	state.OutputPath = filepath.Join(state.OutputDir, fmt.Sprintf("BRS_%s.xlsx", state.Profile.ID))
	return report.Render(ctx, state.OutputPath, state.Profile, state.Result)
}

// ShipOutputsStep uploads the workbook back to the bank SFTP and archives
// it to the GCS bucket. Both are best-effort: the reconciliation already
// succeeded and its result exists locally.
type ShipOutputsStep struct {
	SFTP config.SFTPConfig
	GCP  config.GCPConfig
}

func (s *ShipOutputsStep) Name() string { return "uploading" }

func (s *ShipOutputsStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	if s.SFTP.Host != "" {
		client, err := transfer.Dial(ctx, s.SFTP)
		if err != nil {
			log.Error().Err(err).Msg("SFTP unreachable for upload, output kept locally")
		} else {
			client.UploadOutputs(ctx, state.Profile.ID, []string{state.OutputPath})
			client.Close()
		}
	}

	archive.Store(ctx, s.GCP, state.Profile.ID, state.ProcessingDate, []string{state.OutputPath})
	return nil
}

// NotifySuccessStep sends the completion mail with the workbook attached.
type NotifySuccessStep struct {
	Mailer *notify.Mailer
}

func (s *NotifySuccessStep) Name() string { return "notifying" }

func (s *NotifySuccessStep) Execute(ctx context.Context, state *State) error {
	if s.Mailer != nil {
		s.Mailer.RunSucceeded(ctx, state.Profile.ID, state.ProcessingDate,
			[]string{state.OutputPath}, state.RequestedBy)
	}
	return nil
}
