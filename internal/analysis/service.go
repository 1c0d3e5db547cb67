// Package analysis orchestrates the run-analysis pipeline: ingestion,
// metric aggregation, risk evaluation, and optional narrative generation.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
	"github.com/jbustamante27/Fitness-AI-agent/internal/ingest"
	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	"github.com/jbustamante27/Fitness-AI-agent/internal/observability"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

// ErrNoFiles is returned when an upload carries no file parts.
var ErrNoFiles = errors.New("no files provided")

// Analysis entry points recorded on metrics.
const (
	SourceJSON   = "json"
	SourceUpload = "upload"
	SourceCLI    = "cli"
)

// Generator produces a narrative for a computed snapshot and assessment.
type Generator interface {
	Generate(ctx context.Context, snap metrics.Snapshot, assessment risk.Assessment) (narrative.Narrative, error)
}

// Request carries one analysis invocation.
type Request struct {
	RunnerName    string
	LookbackDays  int // Zero means the service default.
	Runs          []domain.Run
	Source        string
	WithNarrative bool
}

// Result is the complete outcome of one analysis. Narrative is nil when it
// was not requested or could not be produced; NarrativeError explains the
// latter without failing the analysis.
type Result struct {
	ID             string
	RunnerName     string
	GeneratedAt    time.Time
	Metrics        metrics.Snapshot
	Risk           risk.Assessment
	Narrative      *narrative.Narrative
	NarrativeError string
}

// Service runs analyses and assessments for every transport.
type Service struct {
	lookbackDays     int
	distanceUnit     string
	generator        Generator
	narrativeTimeout time.Duration
	archiveDir       string
	logger           *log.Logger
	now              func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithNarrativeGenerator enables narrative generation.
func WithNarrativeGenerator(g Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithNarrativeTimeout bounds a single narrative call. Zero removes the bound.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.narrativeTimeout = d
	}
}

// WithLookbackDays overrides the default analysis window.
func WithLookbackDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// WithDistanceUnit sets the unit assumed for bare CSV distance columns.
func WithDistanceUnit(unit string) Option {
	return func(s *Service) {
		if unit != "" {
			s.distanceUnit = unit
		}
	}
}

// WithArchiveDir enables archiving of uploaded files. The directory must
// already exist.
func WithArchiveDir(dir string) Option {
	return func(s *Service) {
		s.archiveDir = dir
	}
}

// WithLogger overrides the logger used to report degraded operations.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service with local-dev defaults.
func NewService(opts ...Option) *Service {
	s := &Service{
		lookbackDays:     metrics.DefaultLookbackDays,
		distanceUnit:     "km",
		narrativeTimeout: 30 * time.Second,
		logger:           log.New(log.Writer(), "[analysis] ", log.LstdFlags),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the full pipeline over the provided history. It always
// produces a result; a failed narrative degrades to NarrativeError rather
// than failing the analysis.
func (s *Service) Analyze(ctx context.Context, req Request) *Result {
	started := time.Now()

	runs := domain.NormalizeRuns(req.Runs)
	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = s.lookbackDays
	}

	snap := metrics.Compute(runs, lookback)
	verdict := risk.Evaluate(risk.FromSnapshot(snap))

	res := &Result{
		ID:          uuid.NewString(),
		RunnerName:  req.RunnerName,
		GeneratedAt: s.now().UTC(),
		Metrics:     snap,
		Risk:        verdict,
	}

	if req.WithNarrative {
		s.generateNarrative(ctx, res)
	}

	source := req.Source
	if source == "" {
		source = SourceJSON
	}
	observability.RecordAnalysis(source, verdict.RiskLevel, time.Since(started))
	observability.RecordRunsAnalyzed(len(runs))
	observability.RecordLastAnalysis(res.GeneratedAt)
	return res
}

func (s *Service) generateNarrative(ctx context.Context, res *Result) {
	if s.generator == nil {
		res.NarrativeError = "narrative generation is not configured"
		return
	}
	if s.narrativeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.narrativeTimeout)
		defer cancel()
	}

	n, err := s.generator.Generate(ctx, res.Metrics, res.Risk)
	if err != nil {
		s.logger.Printf("narrative generation failed: %v", err)
		res.NarrativeError = err.Error()
		return
	}
	res.Narrative = &n
}

// UploadFile is one file received through the upload endpoint.
type UploadFile struct {
	Name string
	Data []byte
}

// IngestUploads parses every uploaded file concurrently and merges the runs
// into one ordered history. A single unparseable file fails the whole batch.
func (s *Service) IngestUploads(ctx context.Context, files []UploadFile, unit string) ([]domain.Run, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if unit == "" {
		unit = s.distanceUnit
	}

	perFile := make([][]domain.Run, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.archive(file)
			runs, err := ingest.ParseFile(file.Name, bytes.NewReader(file.Data), unit)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Name, err)
			}
			perFile[i] = runs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.Run
	for _, runs := range perFile {
		merged = append(merged, runs...)
	}
	return domain.NormalizeRuns(merged), nil
}

// archive keeps a copy of the raw upload for later reprocessing. Failures
// are logged, never surfaced.
func (s *Service) archive(file UploadFile) {
	if s.archiveDir == "" {
		return
	}
	name := uuid.NewString() + "_" + filepath.Base(file.Name)
	if err := os.WriteFile(filepath.Join(s.archiveDir, name), file.Data, 0o644); err != nil {
		s.logger.Printf("archive upload %s: %v", file.Name, err)
	}
}

// Assess evaluates an arbitrary metrics document against the risk rules.
func (s *Service) Assess(raw any) (risk.Assessment, error) {
	inputs, err := risk.DecodeAny(raw)
	if err != nil {
		return risk.Assessment{}, err
	}
	return risk.Evaluate(inputs), nil
}
