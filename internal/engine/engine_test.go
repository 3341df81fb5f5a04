package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dedupe/internal/category"
	"dedupe/internal/config"
	"dedupe/internal/discovery"
	"dedupe/internal/logging"
	"dedupe/internal/signature"
	"dedupe/internal/store"
)

type memorySink struct {
	mu           sync.Mutex
	nextID       int64
	statuses     map[int64][]store.Status
	groups       []*store.Group
	saveErr      error
	failCategory string
	failOnce     bool
}

func newMemorySink() *memorySink {
	return &memorySink{statuses: make(map[int64][]store.Status)}
}

func (s *memorySink) CreateSession(ctx context.Context, spec store.NewSession) (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return &store.Session{
		ID:        s.nextID,
		Token:     fmt.Sprintf("token-%d", s.nextID),
		Name:      spec.Name,
		Status:    store.StatusPending,
		FileTypes: spec.FileTypes,
		Threshold: spec.Threshold,
	}, nil
}

func (s *memorySink) UpdateSessionStatus(ctx context.Context, id int64, status store.Status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = append(s.statuses[id], status)
	return nil
}

func (s *memorySink) UpdateSessionCounts(ctx context.Context, id int64, fileCount, groupCount int) error {
	return nil
}

func (s *memorySink) SaveGroup(ctx context.Context, group *store.Group) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil && (s.failCategory == "" || group.Category == s.failCategory) {
		err := s.saveErr
		if s.failOnce {
			s.saveErr = nil
		}
		return 0, err
	}
	s.groups = append(s.groups, group)
	return int64(len(s.groups)), nil
}

func (s *memorySink) lastStatus(id int64) store.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := s.statuses[id]
	if len(statuses) == 0 {
		return ""
	}
	return statuses[len(statuses)-1]
}

func (s *memorySink) groupSummaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]string, 0, len(s.groups))
	for _, group := range s.groups {
		paths := make([]string, 0, len(group.Files))
		for _, file := range group.Files {
			paths = append(paths, filepath.Base(file.Path))
		}
		sort.Strings(paths)
		summaries = append(summaries, fmt.Sprintf("%s:%v", group.Category, paths))
	}
	sort.Strings(summaries)
	return summaries
}

func writeScanFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// populateScanDir lays out two duplicate archives, a distinct archive,
// and two duplicate text documents.
func populateScanDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeScanFile(t, dir, "a.zip", "identical archive payload")
	writeScanFile(t, dir, "b.zip", "identical archive payload")
	writeScanFile(t, dir, "c.zip", "a different archive payload")
	writeScanFile(t, dir, "notes-a.txt", "shared meeting notes for the planning session")
	writeScanFile(t, dir, "notes-b.txt", "shared meeting notes for the planning session")
	return dir
}

func newTestEngine(t *testing.T, sink Sink, opts ...Option) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Scan.Workers = 2
	categories := []category.Category{category.Archive, category.Document}
	providers := signature.NewProviders(&cfg, categories, nil, logging.NewNop())
	return New(&cfg, providers, sink, logging.NewNop(), opts...)
}

func TestRunFindsExactDuplicates(t *testing.T) {
	dir := populateScanDir(t)
	sink := newMemorySink()
	eng := newTestEngine(t, sink)

	result, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stopped {
		t.Fatalf("run should not report stopped")
	}
	if result.FileCount != 5 {
		t.Fatalf("expected 5 discovered files, got %d", result.FileCount)
	}
	if result.GroupCount != 2 {
		t.Fatalf("expected 2 groups, got %d", result.GroupCount)
	}
	if status := sink.lastStatus(result.SessionID); status != store.StatusCompleted {
		t.Fatalf("session should complete, got %s", status)
	}

	want := []string{
		"archive:[a.zip b.zip]",
		"document:[notes-a.txt notes-b.txt]",
	}
	if got := sink.groupSummaries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected groups: %v", got)
	}
	if eng.CurrentPhase() != PhaseCompleted {
		t.Fatalf("expected completed phase, got %s", eng.CurrentPhase())
	}
}

func TestRunPauseResumeMatchesUninterruptedRun(t *testing.T) {
	dir := populateScanDir(t)

	baseline := newMemorySink()
	if _, err := newTestEngine(t, baseline).Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}}); err != nil {
		t.Fatalf("baseline run: %v", err)
	}

	interrupted := newMemorySink()
	var eng *Engine
	var pausedOnce atomic.Bool
	eng = newTestEngine(t, interrupted, WithProgress(func(p Progress) {
		if p.Phase == PhaseFingerprinting && pausedOnce.CompareAndSwap(false, true) {
			eng.Pause(context.Background())
			time.AfterFunc(50*time.Millisecond, func() {
				eng.Resume(context.Background())
			})
		}
	}))

	result, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err != nil {
		t.Fatalf("interrupted run: %v", err)
	}
	if !pausedOnce.Load() {
		t.Fatalf("test never paused the run")
	}
	if result.Stopped {
		t.Fatalf("paused-and-resumed run should complete")
	}
	if !reflect.DeepEqual(interrupted.groupSummaries(), baseline.groupSummaries()) {
		t.Fatalf("pause/resume changed the results:\n%v\nvs\n%v",
			interrupted.groupSummaries(), baseline.groupSummaries())
	}
}

func TestRunFingerprintProgressIncreases(t *testing.T) {
	dir := populateScanDir(t)
	sink := newMemorySink()

	var (
		mu   sync.Mutex
		seen = make(map[category.Category][]int)
	)
	eng := newTestEngine(t, sink, WithProgress(func(p Progress) {
		if p.Phase != PhaseFingerprinting {
			return
		}
		mu.Lock()
		seen[p.Category] = append(seen[p.Category], p.Completed)
		mu.Unlock()
	}))

	if _, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatalf("no fingerprinting progress observed")
	}
	for cat, counts := range seen {
		for i := 1; i < len(counts); i++ {
			if counts[i] < counts[i-1] {
				t.Fatalf("%s progress went backwards: %v", cat, counts)
			}
		}
	}
}

func TestRunStopEndsEarlyWithoutError(t *testing.T) {
	dir := populateScanDir(t)
	sink := newMemorySink()
	var eng *Engine
	var stoppedOnce atomic.Bool
	eng = newTestEngine(t, sink, WithProgress(func(p Progress) {
		if p.Phase == PhaseDiscovering && stoppedOnce.CompareAndSwap(false, true) {
			eng.Stop()
		}
	}))

	result, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err != nil {
		t.Fatalf("stopped run must not error: %v", err)
	}
	if !result.Stopped {
		t.Fatalf("result should report the stop")
	}
	if result.GroupCount != 0 {
		t.Fatalf("stopping during discovery should persist no groups, got %d", result.GroupCount)
	}
	if status := sink.lastStatus(result.SessionID); status != store.StatusStopped {
		t.Fatalf("session should be stopped, got %s", status)
	}
}

func TestRunCancellationStopsGracefully(t *testing.T) {
	dir := populateScanDir(t)
	sink := newMemorySink()
	ctx, cancel := context.WithCancel(context.Background())
	eng := newTestEngine(t, sink, WithProgress(func(p Progress) {
		if p.Phase == PhaseDiscovering {
			cancel()
		}
	}))

	result, err := eng.Run(ctx, []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err != nil {
		t.Fatalf("canceled run maps to a stop: %v", err)
	}
	if !result.Stopped {
		t.Fatalf("cancellation should report a stopped result")
	}
}

func TestRunSaveErrorAbortsCategoryByDefault(t *testing.T) {
	// Two archive groups and one document group; the first archive save
	// fails. The rest of the archive saves must be abandoned while the
	// document category still persists.
	dir := t.TempDir()
	writeScanFile(t, dir, "a.zip", "identical archive payload")
	writeScanFile(t, dir, "b.zip", "identical archive payload")
	writeScanFile(t, dir, "c.zip", "another shared archive payload")
	writeScanFile(t, dir, "d.zip", "another shared archive payload")
	writeScanFile(t, dir, "notes-a.txt", "shared meeting notes for the planning session")
	writeScanFile(t, dir, "notes-b.txt", "shared meeting notes for the planning session")

	sink := newMemorySink()
	sink.saveErr = errors.New("disk full")
	sink.failCategory = "archive"
	sink.failOnce = true
	eng := newTestEngine(t, sink)

	result, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err != nil {
		t.Fatalf("a category save failure should not fail the run by default: %v", err)
	}
	if result.GroupCount != 1 {
		t.Fatalf("only the document group should be saved, got %d", result.GroupCount)
	}
	want := []string{"document:[notes-a.txt notes-b.txt]"}
	if got := sink.groupSummaries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("the failing category must save no further groups: %v", got)
	}
	if status := sink.lastStatus(result.SessionID); status != store.StatusCompleted {
		t.Fatalf("run should still complete, got %s", status)
	}
}

func TestRunSaveErrorAbortsWhenConfigured(t *testing.T) {
	dir := populateScanDir(t)
	sink := newMemorySink()
	sink.saveErr = errors.New("disk full")

	cfg := config.Default()
	cfg.Scan.Workers = 2
	cfg.Scan.AbortOnSaveError = true
	categories := []category.Category{category.Archive, category.Document}
	providers := signature.NewProviders(&cfg, categories, nil, logging.NewNop())
	eng := New(&cfg, providers, sink, logging.NewNop())

	result, err := eng.Run(context.Background(), []discovery.Root{{Path: dir, IncludeSubdirs: true}})
	if err == nil {
		t.Fatalf("expected the save error to abort the run")
	}
	if status := sink.lastStatus(result.SessionID); status != store.StatusFailed {
		t.Fatalf("session should be failed, got %s", status)
	}
}

func TestRunRejectsEmptyRoots(t *testing.T) {
	eng := newTestEngine(t, newMemorySink())
	if _, err := eng.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for empty roots")
	}
}
