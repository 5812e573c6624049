package syncfix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lecturesync/internal/config"
	"lecturesync/internal/fileutil"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// Prober measures audio-stream durations.
type Prober interface {
	AudioDuration(ctx context.Context, path string) (float64, error)
}

// Transcoder produces the correction artifacts.
type Transcoder interface {
	SynthesizeLeader(ctx context.Context, reference string, duration float64, output string) error
	Normalize(ctx context.Context, input, output string) error
	Concat(ctx context.Context, first, second, output string) error
}

// Mode selects how far a run goes after evaluation.
type Mode string

const (
	// ModeEvaluateOnly probes and evaluates, then writes the status record to
	// the output path.
	ModeEvaluateOnly Mode = "evaluate-only"
	// ModeEvaluateAndFix additionally produces a verified media output.
	ModeEvaluateAndFix Mode = "evaluate-and-fix"
)

// State is a step of the run state machine.
type State string

const (
	StateStart       State = "start"
	StateProbed      State = "probed"
	StateEvaluated   State = "evaluated"
	StatePassThrough State = "passthrough"
	StateFixing      State = "fixing"
	StateFixed       State = "fixed"
	StateVerified    State = "verified"
	StateDone        State = "done"
	StateAborted     State = "aborted"
)

const (
	intermediateExt = ".mp4"
	lockDirName     = "locks"
)

// Options tunes a Pipeline.
type Options struct {
	// WorkDir holds the per-run directories for intermediates.
	WorkDir string
	// Threshold is the no-fix offset bound in seconds.
	Threshold float64
	// MinOutputBytes is the smallest media output accepted by verification.
	MinOutputBytes int64
	// PassthroughSource picks the input copied to the output when no fix is
	// needed.
	PassthroughSource string
	// StepTimeout bounds each prober and transcoder call. Zero disables it.
	StepTimeout time.Duration
}

// OptionsFromConfig maps configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return Options{
		WorkDir:           cfg.Paths.WorkDir,
		Threshold:         cfg.Sync.ThresholdSeconds,
		MinOutputBytes:    cfg.Sync.MinOutputBytes,
		PassthroughSource: cfg.Sync.PassthroughSource,
		StepTimeout:       time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
	}
}

// Request names the inputs and outputs of one run.
type Request struct {
	Mode         Mode
	Presenter    string
	Presentation string
	// Output is the media output in ModeEvaluateAndFix and the status record
	// in ModeEvaluateOnly.
	Output string
	// StatusPath optionally receives the status record in ModeEvaluateAndFix.
	StatusPath string
}

func (r Request) statusPath() string {
	if r.Mode == ModeEvaluateOnly {
		return r.Output
	}
	return r.StatusPath
}

// Result describes a run. It is populated as far as the run progressed, so
// aborted runs still report their probed durations and states.
type Result struct {
	RunID        string
	Mode         Mode
	Presenter    Input
	Presentation Input
	Decision     Decision
	// Evaluated is false when the run aborted before a decision was made.
	Evaluated   bool
	Output      string
	OutputBytes int64
	StatusPath  string
	States      []State
	StartedAt   time.Time
	Elapsed     time.Duration
}

// State returns the last state the run reached.
func (r Result) State() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Pipeline sequences one sync run.
type Pipeline struct {
	prober     Prober
	transcoder Transcoder
	opts       Options
	logger     *slog.Logger
}

// NewPipeline wires a pipeline. transcoder may be nil when only
// ModeEvaluateOnly runs are issued.
func NewPipeline(prober Prober, transcoder Transcoder, opts Options, logger *slog.Logger) *Pipeline {
	if strings.TrimSpace(opts.WorkDir) == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.PassthroughSource == "" {
		opts.PassthroughSource = config.PassthroughPresenter
	}
	return &Pipeline{
		prober:     prober,
		transcoder: transcoder,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "syncfix"),
	}
}

// Run executes req to completion or to the first failure. Failures carry a
// services marker; the pipeline never retries.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	res := Result{
		RunID:        runID,
		Mode:         req.Mode,
		Presenter:    Input{Path: req.Presenter},
		Presentation: Input{Path: req.Presentation},
		Output:       req.Output,
		StatusPath:   req.statusPath(),
		StartedAt:    time.Now(),
	}
	logger := logging.WithContext(ctx, p.logger)
	p.advance(ctx, &res, StateStart)

	if wd, err := os.Getwd(); err == nil {
		logger.Debug("sync run inputs",
			logging.String("working_dir", wd),
			logging.String("presenter", req.Presenter),
			logging.String("presentation", req.Presentation),
			logging.String("output", req.Output),
			logging.String("mode", string(req.Mode)),
		)
	}

	err := p.run(ctx, req, &res)
	res.Elapsed = time.Since(res.StartedAt)
	if err != nil {
		p.advance(ctx, &res, StateAborted)
		logging.ErrorWithContext(logger, "sync run aborted", "run_aborted",
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String("last_state", string(res.States[len(res.States)-2])),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, errorHint(err)),
		)
		return res, err
	}

	logger.Info("sync run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("sync_status", string(res.Decision.Status)),
		logging.String("sync_video", string(res.Decision.Defective)),
		logging.String("offset_seconds", res.Decision.FormatOffset()),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, res *Result) error {
	if err := p.validate(req); err != nil {
		return err
	}

	release, err := p.acquireOutputLock(req.Output)
	if err != nil {
		return err
	}
	defer release()

	if err := p.probe(ctx, res); err != nil {
		return err
	}

	evaluator := Evaluator{Threshold: p.opts.Threshold}
	var decision PathDecision
	if req.Mode == ModeEvaluateOnly {
		decision = PathDecision{Decision: evaluator.Evaluate(res.Presenter.Duration, res.Presentation.Duration)}
	} else {
		decision = evaluator.EvaluatePaths(res.Presenter, res.Presentation)
	}
	res.Decision = decision.Decision
	res.Evaluated = true
	p.advance(ctx, res, StateEvaluated)
	p.logDecision(ctx, decision)

	if req.Mode == ModeEvaluateOnly {
		if err := p.writeRecord(ctx, res); err != nil {
			return err
		}
		p.advance(ctx, res, StateDone)
		return nil
	}

	if decision.FixNeeded() {
		if err := p.fix(ctx, res, decision); err != nil {
			return err
		}
	} else if err := p.passThrough(ctx, res); err != nil {
		return err
	}

	if err := p.verify(ctx, res); err != nil {
		return err
	}
	if res.StatusPath != "" {
		if err := p.writeRecord(ctx, res); err != nil {
			return err
		}
	}
	p.advance(ctx, res, StateDone)
	return nil
}

func (p *Pipeline) validate(req Request) error {
	const stage, op = "start", "validate request"
	switch req.Mode {
	case ModeEvaluateOnly, ModeEvaluateAndFix:
	default:
		return services.Wrap(services.ErrUsage, stage, op, fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}
	if strings.TrimSpace(req.Presenter) == "" || strings.TrimSpace(req.Presentation) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrUsage, stage, op, "presenter, presentation, and output paths are required", nil)
	}
	if p.prober == nil {
		return services.Wrap(services.ErrConfiguration, stage, op, "prober not configured", nil)
	}
	if req.Mode == ModeEvaluateOnly {
		return nil
	}
	if p.transcoder == nil {
		return services.Wrap(services.ErrConfiguration, stage, op, "transcoder not configured", nil)
	}
	for _, path := range []string{req.Presenter, req.Presentation} {
		info, err := os.Stat(path)
		if err != nil {
			return services.Wrap(services.ErrUsage, stage, op, "input not found: "+path, err)
		}
		if info.IsDir() {
			return services.Wrap(services.ErrUsage, stage, op, "input is a directory: "+path, nil)
		}
		if absPath(path) == absPath(req.Output) {
			return services.Wrap(services.ErrUsage, stage, op, "output would overwrite input "+path, nil)
		}
	}
	return nil
}

// outputLockPath keys the lock for output under the work directory so the
// output's own directory only ever receives the output.
func (p *Pipeline) outputLockPath(output string) string {
	sum := sha256.Sum256([]byte(absPath(output)))
	return filepath.Join(p.opts.WorkDir, lockDirName, hex.EncodeToString(sum[:12])+".lock")
}

func (p *Pipeline) acquireOutputLock(output string) (func(), error) {
	path := p.outputLockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "start", "lock output", path, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "start", "lock output", output, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "start", "lock output", "another run is writing "+output, nil)
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}

func (p *Pipeline) probe(ctx context.Context, res *Result) error {
	ctx = services.WithStage(ctx, "probe")
	for _, target := range []struct {
		role  Role
		input *Input
	}{
		{RolePresenter, &res.Presenter},
		{RolePresentation, &res.Presentation},
	} {
		stepCtx, cancel := p.stepContext(services.WithRole(ctx, string(target.role)))
		duration, err := p.prober.AudioDuration(stepCtx, target.input.Path)
		cancel()
		if err != nil {
			return ensureMarker(err, services.ErrProbe, "probe", "audio duration "+string(target.role))
		}
		target.input.Duration = duration
	}
	logging.WithContext(ctx, p.logger).Info("audio durations probed",
		logging.String(logging.FieldEventType, "durations_probed"),
		logging.Float64("presenter_seconds", res.Presenter.Duration),
		logging.Float64("presentation_seconds", res.Presentation.Duration),
	)
	p.advance(ctx, res, StateProbed)
	return nil
}

func (p *Pipeline) logDecision(ctx context.Context, decision PathDecision) {
	reason := fmt.Sprintf("offset %ss below threshold", decision.FormatOffset())
	if decision.FixNeeded() {
		reason = fmt.Sprintf("offset %ss, %s stream is short", decision.FormatOffset(), decision.Defective)
	}
	attrs := logging.DecisionAttrs("sync", string(decision.Status), reason)
	attrs = append(attrs, logging.String("sync_video", string(decision.Defective)))
	if decision.Defective == RoleUnknown {
		attrs = append(attrs, logging.Alert("defective stream matches neither role path"))
	}
	logging.WithContext(services.WithStage(ctx, "evaluate"), p.logger).Info("sync decision", logging.Args(attrs...)...)
}

func (p *Pipeline) passThrough(ctx context.Context, res *Result) error {
	ctx = services.WithStage(ctx, "passthrough")
	p.advance(ctx, res, StatePassThrough)
	source := res.Presenter.Path
	if p.opts.PassthroughSource == config.PassthroughPresentation {
		source = res.Presentation.Path
	}
	if _, err := fileutil.CopyFileAtomic(source, res.Output, 0o644); err != nil {
		return services.Wrap(services.ErrOutputVerification, "passthrough", "copy source", source, err)
	}
	logging.WithContext(ctx, p.logger).Info("passthrough output written",
		logging.String(logging.FieldEventType, "passthrough_copied"),
		logging.String("source", source),
		logging.String("output", res.Output),
	)
	return nil
}

func (p *Pipeline) fix(ctx context.Context, res *Result, decision PathDecision) error {
	ctx = services.WithStage(ctx, "fixing")
	p.advance(ctx, res, StateFixing)

	runDir := filepath.Join(p.opts.WorkDir, "run-"+res.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "fixing", "create run directory", runDir, err)
	}
	defer p.removeRunDir(ctx, runDir)

	leader := filepath.Join(runDir, "leader"+intermediateExt)
	normalized := filepath.Join(runDir, "normalized"+intermediateExt)

	stepCtx, cancel := p.stepContext(ctx)
	err := p.transcoder.SynthesizeLeader(stepCtx, decision.ReferencePath, decision.Offset, leader)
	cancel()
	if err != nil {
		return ensureMarker(err, services.ErrLeaderSynthesis, "fixing", "synthesize leader")
	}

	stepCtx, cancel = p.stepContext(services.WithRole(ctx, string(decision.Defective)))
	err = p.transcoder.Normalize(stepCtx, decision.DefectivePath, normalized)
	cancel()
	if err != nil {
		return ensureMarker(err, services.ErrNormalization, "fixing", "normalize")
	}

	stepCtx, cancel = p.stepContext(ctx)
	err = p.transcoder.Concat(stepCtx, leader, normalized, res.Output)
	cancel()
	if err != nil {
		if rmErr := os.Remove(res.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "failed to remove partial output", "partial_output_cleanup_failed",
				logging.String("path", res.Output),
				logging.Error(rmErr),
			)
		}
		return ensureMarker(err, services.ErrConcatenation, "fixing", "concat")
	}

	logging.WithContext(ctx, p.logger).Info("sync correction applied",
		logging.String(logging.FieldEventType, "correction_applied"),
		logging.String("reference", decision.ReferencePath),
		logging.String("defective", decision.DefectivePath),
		logging.String("offset_seconds", decision.FormatOffset()),
		logging.String("output", res.Output),
	)
	p.advance(ctx, res, StateFixed)
	return nil
}

func (p *Pipeline) verify(ctx context.Context, res *Result) error {
	ctx = services.WithStage(ctx, "verify")
	size, err := fileutil.SizeOf(res.Output)
	if err != nil {
		return services.Wrap(services.ErrOutputVerification, "verify", "stat output", res.Output, err)
	}
	if size < p.opts.MinOutputBytes {
		return services.Wrap(services.ErrOutputVerification, "verify", "check output size",
			fmt.Sprintf("%s is %d bytes, want at least %d", res.Output, size, p.opts.MinOutputBytes), nil)
	}
	res.OutputBytes = size
	p.advance(ctx, res, StateVerified)
	return nil
}

func (p *Pipeline) writeRecord(ctx context.Context, res *Result) error {
	if err := WriteRecord(res.StatusPath, res.Decision); err != nil {
		return fmt.Errorf("status record %s: %w", res.StatusPath, err)
	}
	logging.WithContext(services.WithStage(ctx, "record"), p.logger).Info("status record written",
		logging.String(logging.FieldEventType, "status_record_written"),
		logging.String("path", res.StatusPath),
	)
	return nil
}

func (p *Pipeline) advance(ctx context.Context, res *Result, state State) {
	res.States = append(res.States, state)
	logging.WithContext(ctx, p.logger).Debug("run state changed",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("state", string(state)),
	)
}

func (p *Pipeline) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.StepTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.StepTimeout)
	}
	return ctx, func() {}
}

func (p *Pipeline) removeRunDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "failed to remove run directory", "run_dir_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "intermediates left in work directory"),
		)
	}
}

// ensureMarker tags err with marker unless a collaborator already did.
func ensureMarker(err, marker error, stage, op string) error {
	if errors.Is(err, marker) {
		return err
	}
	return services.Wrap(marker, stage, op, "", err)
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrUsage):
		return "check the input and output arguments"
	case errors.Is(err, services.ErrProbe):
		return "input is unreadable or has no audio stream; inspect it with lecturesync probe"
	case errors.Is(err, services.ErrLeaderSynthesis), errors.Is(err, services.ErrNormalization), errors.Is(err, services.ErrConcatenation):
		return "ffmpeg failed; rerun with --log-level debug to see the command"
	case errors.Is(err, services.ErrOutputVerification):
		return "output missing or too small; check free space and ffmpeg output"
	case errors.Is(err, context.DeadlineExceeded):
		return "external tool exceeded tools.timeout_seconds"
	default:
		return "check logs for details"
	}
}
