package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dedupe/internal/category"
	"dedupe/internal/config"
	"dedupe/internal/discovery"
	"dedupe/internal/grouping"
	"dedupe/internal/logging"
	"dedupe/internal/signature"
	"dedupe/internal/store"
)

// Phase names the engine's current stage of work.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseDiscovering    Phase = "discovering"
	PhaseFingerprinting Phase = "fingerprinting"
	PhaseGrouping       Phase = "grouping"
	PhasePersisting     Phase = "persisting"
	PhaseCompleted      Phase = "completed"
	PhaseStopped        Phase = "stopped"
	PhaseFailed         Phase = "failed"
)

// Progress is a point-in-time snapshot emitted while a run advances.
type Progress struct {
	RunID     string
	Phase     Phase
	Category  category.Category
	Completed int
	Total     int
}

// Result summarizes a finished run.
type Result struct {
	SessionID  int64
	Token      string
	FileCount  int
	GroupCount int
	Elapsed    time.Duration
	Stopped    bool
}

// Sink receives the run's persistent output. Satisfied by *store.Store.
type Sink interface {
	CreateSession(ctx context.Context, spec store.NewSession) (*store.Session, error)
	UpdateSessionStatus(ctx context.Context, id int64, status store.Status, errorMessage string) error
	UpdateSessionCounts(ctx context.Context, id int64, fileCount, groupCount int) error
	SaveGroup(ctx context.Context, group *store.Group) (int64, error)
}

// Engine runs duplicate scans. A single Engine runs one scan at a
// time; Pause, Resume, and Stop act on the in-flight run.
type Engine struct {
	cfg         *config.Config
	providers   map[category.Category]signature.Provider
	categories  []category.Category
	sink        Sink
	walker      *discovery.Walker
	control     *Controller
	logger      *slog.Logger
	onProgress  func(Progress)
	updates     chan Progress
	sessionName string

	mu        sync.Mutex
	phase     Phase
	sessionID int64
	runID     string
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress registers a callback invoked as the run advances. The
// callback runs on engine goroutines and must not block.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithSessionName labels the recorded session.
func WithSessionName(name string) Option {
	return func(e *Engine) { e.sessionName = name }
}

func New(cfg *config.Config, providers map[category.Category]signature.Provider, sink Sink, logger *slog.Logger, opts ...Option) *Engine {
	categories := make([]category.Category, 0, len(providers))
	for _, cat := range category.All() {
		if _, ok := providers[cat]; ok {
			categories = append(categories, cat)
		}
	}
	e := &Engine{
		cfg:        cfg,
		providers:  providers,
		categories: categories,
		sink:       sink,
		walker:     discovery.NewWalker(categories, logger),
		control:    NewController(),
		logger:     logging.NewComponentLogger(logger, "engine"),
		phase:      PhaseIdle,
		updates:    make(chan Progress, 64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Updates exposes the progress stream. Snapshots are dropped when the
// receiver falls behind rather than stalling the run.
func (e *Engine) Updates() <-chan Progress {
	return e.updates
}

// CurrentPhase reports the engine's current phase.
func (e *Engine) CurrentPhase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Pause suspends the in-flight run at its next checkpoint and records
// the session as paused.
func (e *Engine) Pause(ctx context.Context) bool {
	if !e.control.Pause() {
		return false
	}
	e.mu.Lock()
	sessionID, runID := e.sessionID, e.runID
	e.mu.Unlock()
	if sessionID != 0 {
		if err := e.sink.UpdateSessionStatus(ctx, sessionID, store.StatusPaused, ""); err != nil {
			e.logger.Warn("record pause failed", logging.Error(err))
		}
	}
	e.logger.Info("scan paused", logging.String(logging.FieldRunID, runID))
	return true
}

// Resume continues a paused run.
func (e *Engine) Resume(ctx context.Context) bool {
	if !e.control.Resume() {
		return false
	}
	e.mu.Lock()
	sessionID, runID := e.sessionID, e.runID
	e.mu.Unlock()
	if sessionID != 0 {
		if err := e.sink.UpdateSessionStatus(ctx, sessionID, store.StatusRunning, ""); err != nil {
			e.logger.Warn("record resume failed", logging.Error(err))
		}
	}
	e.logger.Info("scan resumed", logging.String(logging.FieldRunID, runID))
	return true
}

// Stop ends the in-flight run at its next checkpoint. Paused runs are
// woken so they can stop.
func (e *Engine) Stop() {
	e.control.Stop()
	e.mu.Lock()
	runID := e.runID
	e.mu.Unlock()
	e.logger.Info("scan stop requested", logging.String(logging.FieldRunID, runID))
}

// Run executes a full scan over the given roots and persists the
// results. A stopped run returns a partial Result with Stopped set and
// no error; failures mark the session failed and return the error.
func (e *Engine) Run(ctx context.Context, roots []discovery.Root) (*Result, error) {
	if len(roots) == 0 {
		return nil, errors.New("no scan roots provided")
	}

	start := time.Now()
	runID := uuid.NewString()
	e.mu.Lock()
	e.runID = runID
	e.phase = PhaseDiscovering
	e.mu.Unlock()

	scanned := make([]store.ScannedPath, 0, len(roots))
	for _, root := range roots {
		scanned = append(scanned, store.ScannedPath{Path: root.Path, IncludeSubdirs: root.IncludeSubdirs})
	}
	names := make([]string, 0, len(e.categories))
	for _, cat := range e.categories {
		names = append(names, string(cat))
	}
	session, err := e.sink.CreateSession(ctx, store.NewSession{
		Name:      e.sessionName,
		FileTypes: strings.Join(names, ","),
		Threshold: e.cfg.Scan.SimilarityThreshold,
		Roots:     scanned,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	e.mu.Lock()
	e.sessionID = session.ID
	e.mu.Unlock()

	if err := e.sink.UpdateSessionStatus(ctx, session.ID, store.StatusRunning, ""); err != nil {
		return nil, fmt.Errorf("mark session running: %w", err)
	}
	e.logger.Info("scan started",
		logging.String(logging.FieldRunID, runID),
		logging.Int64(logging.FieldSession, session.ID),
		logging.Int("roots", len(roots)))

	result, runErr := e.run(ctx, session, roots)
	result.SessionID = session.ID
	result.Token = session.Token
	result.Elapsed = time.Since(start)

	switch {
	case runErr == nil:
		e.setPhase(PhaseCompleted)
		e.finishSession(session.ID, store.StatusCompleted, "")
		e.logger.Info("scan completed",
			logging.String(logging.FieldRunID, runID),
			logging.Int(logging.FieldFileCount, result.FileCount),
			logging.Int(logging.FieldGroups, result.GroupCount),
			logging.Duration(logging.FieldElapsed, result.Elapsed))
		return &result, nil
	case errors.Is(runErr, ErrStopped) || errors.Is(runErr, context.Canceled):
		result.Stopped = true
		e.setPhase(PhaseStopped)
		e.finishSession(session.ID, store.StatusStopped, "")
		e.logger.Info("scan stopped",
			logging.String(logging.FieldRunID, runID),
			logging.Duration(logging.FieldElapsed, result.Elapsed))
		return &result, nil
	default:
		e.setPhase(PhaseFailed)
		e.finishSession(session.ID, store.StatusFailed, runErr.Error())
		e.logger.Error("scan failed",
			logging.String(logging.FieldRunID, runID),
			logging.Error(runErr))
		return &result, runErr
	}
}

func (e *Engine) run(ctx context.Context, session *store.Session, roots []discovery.Root) (Result, error) {
	var result Result
	check := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return e.control.Checkpoint(ctx)
	}

	records, err := e.discover(ctx, roots)
	if err != nil {
		return result, err
	}
	result.FileCount = len(records)
	if err := e.sink.UpdateSessionCounts(ctx, session.ID, result.FileCount, 0); err != nil {
		e.logger.Warn("record file count failed", logging.Error(err))
	}

	byCategory := make(map[category.Category][]discovery.FileRecord)
	for _, record := range records {
		byCategory[record.Category] = append(byCategory[record.Category], record)
	}

	for _, cat := range category.All() {
		provider, ok := e.providers[cat]
		if !ok {
			continue
		}
		files := byCategory[cat]
		if len(files) < 2 {
			continue
		}
		if err := check(); err != nil {
			return result, err
		}

		candidates, err := e.fingerprint(ctx, cat, provider, files, check)
		if err != nil {
			return result, err
		}

		e.setPhase(PhaseGrouping)
		e.emit(Progress{RunID: e.runID, Phase: PhaseGrouping, Category: cat})
		groups, err := grouping.New(provider, e.cfg.Scan.SimilarityThreshold).Group(candidates, check)
		if err != nil {
			return result, err
		}
		e.logger.Info("category grouped",
			logging.String(logging.FieldCategory, string(cat)),
			logging.Int(logging.FieldFileCount, len(files)),
			logging.Int(logging.FieldGroups, len(groups)))

		e.setPhase(PhasePersisting)
		saved, err := e.persist(ctx, session.ID, cat, groups)
		result.GroupCount += saved
		if err != nil {
			if e.cfg.Scan.AbortOnSaveError {
				return result, err
			}
			e.logger.Error("category save failed, remaining categories continue",
				logging.String(logging.FieldCategory, string(cat)),
				logging.Error(err))
		}
	}

	if err := e.sink.UpdateSessionCounts(ctx, session.ID, result.FileCount, result.GroupCount); err != nil {
		e.logger.Warn("record group count failed", logging.Error(err))
	}
	return result, nil
}

func (e *Engine) discover(ctx context.Context, roots []discovery.Root) ([]discovery.FileRecord, error) {
	e.setPhase(PhaseDiscovering)
	records, err := e.walker.Walk(ctx, roots, func(p discovery.Progress) {
		e.emit(Progress{RunID: e.runID, Phase: PhaseDiscovering, Completed: p.Discovered})
	})
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	if err := e.control.Checkpoint(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// fingerprint computes signatures for one category with a bounded
// worker pool. Workers honor pause and stop between files.
func (e *Engine) fingerprint(ctx context.Context, cat category.Category, provider signature.Provider, files []discovery.FileRecord, check func() error) ([]grouping.Candidate, error) {
	e.setPhase(PhaseFingerprinting)

	candidates := make([]grouping.Candidate, len(files))
	var (
		mu        sync.Mutex
		completed int
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.cfg.Scan.Workers)
	for i, record := range files {
		i, record := i, record
		grp.Go(func() error {
			if err := check(); err != nil {
				return err
			}
			sig, err := provider.ComputeSignature(gctx, record.Path)
			if err != nil {
				return err
			}
			candidates[i] = grouping.Candidate{Record: record, Signature: sig}

			// Emitting under the counter lock keeps snapshots in
			// increasing order; the callback contract is non-blocking.
			mu.Lock()
			completed++
			e.emit(Progress{RunID: e.runID, Phase: PhaseFingerprinting, Category: cat, Completed: completed, Total: len(files)})
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// persist writes a category's groups, stopping at the first failed
// save. The error is the category-level failure; groups saved before
// it still count.
func (e *Engine) persist(ctx context.Context, sessionID int64, cat category.Category, groups []grouping.Group) (int, error) {
	saved := 0
	for _, group := range groups {
		record := &store.Group{
			SessionID:  sessionID,
			Category:   string(cat),
			Similarity: group.Similarity,
			HashValue:  group.HashValue,
		}
		for _, member := range group.Members {
			record.Files = append(record.Files, store.File{
				Path:       member.Record.Path,
				SizeBytes:  member.Record.Size,
				ModifiedAt: member.Record.ModTime,
			})
		}
		if _, err := e.sink.SaveGroup(ctx, record); err != nil {
			return saved, fmt.Errorf("save %s groups: %w", cat, err)
		}
		saved++
	}
	return saved, nil
}

func (e *Engine) finishSession(sessionID int64, status store.Status, message string) {
	// The run's own context may already be canceled; finalization uses
	// a short independent deadline so terminal status still lands.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.sink.UpdateSessionStatus(ctx, sessionID, status, message); err != nil {
		e.logger.Warn("record final session status failed", logging.Error(err))
	}
}

func (e *Engine) setPhase(phase Phase) {
	e.mu.Lock()
	e.phase = phase
	e.mu.Unlock()
}

func (e *Engine) emit(progress Progress) {
	if e.onProgress != nil {
		e.onProgress(progress)
	}
	select {
	case e.updates <- progress:
	default:
	}
}
