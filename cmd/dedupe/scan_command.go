package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"dedupe/internal/category"
	"dedupe/internal/discovery"
	"dedupe/internal/engine"
	"dedupe/internal/ffmpeg"
	"dedupe/internal/logging"
	"dedupe/internal/signature"
	"dedupe/internal/store"
)

func newScanCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		singleLevel bool
		threshold   float64
		workers     int
		typesFlag   []string
		sessionName string
	)

	cmd := &cobra.Command{
		Use:   "scan <path> [path...]",
		Short: "Scan directories for duplicate files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				if threshold < 0 || threshold > 1 {
					return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
				}
				cfg.Scan.SimilarityThreshold = threshold
			}
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("workers must be at least 1, got %d", workers)
				}
				cfg.Scan.Workers = workers
			}

			categories, err := parseCategories(typesFlag)
			if err != nil {
				return err
			}

			roots := make([]discovery.Root, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				info, err := os.Stat(abs)
				if err != nil {
					return fmt.Errorf("stat %s: %w", abs, err)
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", abs)
				}
				roots = append(roots, discovery.Root{Path: abs, IncludeSubdirs: !singleLevel})
			}

			logger := cmdCtx.ensureLogger()

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire scan lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another scan is already running (lock held at %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			var sampler signature.FrameSampler
			if hasCategory(categories, category.Video) {
				fs := ffmpeg.NewSampler(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
				if fs.Available() {
					sampler = fs
				} else {
					logger.Warn("ffmpeg not found, video files will be skipped",
						logging.String("ffmpeg", cfg.FFmpegBinary()))
					categories = withoutCategory(categories, category.Video)
				}
			}

			s, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			runCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			out := cmd.OutOrStdout()
			render := newProgressRenderer(out)
			providers := signature.NewProviders(cfg, categories, sampler, logger)
			eng := engine.New(cfg, providers, s, logger,
				engine.WithProgress(render.update),
				engine.WithSessionName(sessionName))

			result, err := eng.Run(runCtx, roots)
			render.finish()
			if err != nil {
				return err
			}

			if result.Stopped {
				fmt.Fprintf(out, "Scan stopped after %s; partial results saved as session %d.\n",
					result.Elapsed.Round(timeRounding), result.SessionID)
			} else {
				fmt.Fprintf(out, "Scanned %d files in %s.\n", result.FileCount, result.Elapsed.Round(timeRounding))
			}

			if result.GroupCount == 0 {
				fmt.Fprintln(out, "No duplicates found.")
				return nil
			}
			fmt.Fprintf(out, "Found %d duplicate group(s).\n\n", result.GroupCount)

			groups, err := s.GroupsBySession(cmd.Context(), result.SessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderGroupTable(groups))
			fmt.Fprintf(out, "\nSession %d (%s) saved; use `dedupe show %d` to revisit it.\n",
				result.SessionID, shortToken(result.Token), result.SessionID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&singleLevel, "no-recurse", false, "Scan only the top level of each path")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.95, "Similarity threshold between 0 and 1")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of parallel signature workers")
	cmd.Flags().StringSliceVar(&typesFlag, "types", nil,
		"File types to scan (image, document, video, archive, code); defaults to all")
	cmd.Flags().StringVar(&sessionName, "name", "", "Optional label for the recorded session")
	return cmd
}

func parseCategories(values []string) ([]category.Category, error) {
	if len(values) == 0 {
		return category.All(), nil
	}
	var categories []category.Category
	seen := make(map[category.Category]bool)
	for _, value := range values {
		cat, ok := category.Parse(value)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (valid: %s)", value, strings.Join(categoryNames(), ", "))
		}
		if !seen[cat] {
			categories = append(categories, cat)
			seen[cat] = true
		}
	}
	return categories, nil
}

func categoryNames() []string {
	all := category.All()
	names := make([]string, 0, len(all))
	for _, cat := range all {
		names = append(names, string(cat))
	}
	return names
}

func hasCategory(categories []category.Category, target category.Category) bool {
	for _, cat := range categories {
		if cat == target {
			return true
		}
	}
	return false
}

func withoutCategory(categories []category.Category, target category.Category) []category.Category {
	filtered := categories[:0]
	for _, cat := range categories {
		if cat != target {
			filtered = append(filtered, cat)
		}
	}
	return filtered
}

// progressRenderer keeps a single status line updated on terminals and
// stays quiet when output is piped.
type progressRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	tty    bool
	active bool
}

func newProgressRenderer(out io.Writer) *progressRenderer {
	return &progressRenderer{out: out, tty: isTerminal(out)}
}

func (r *progressRenderer) update(p engine.Progress) {
	if !r.tty {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	switch p.Phase {
	case engine.PhaseDiscovering:
		fmt.Fprintf(r.out, "\r\033[KDiscovering files... %d found", p.Completed)
	case engine.PhaseFingerprinting:
		fmt.Fprintf(r.out, "\r\033[KFingerprinting %s files... %d/%d", p.Category, p.Completed, p.Total)
	case engine.PhaseGrouping:
		fmt.Fprintf(r.out, "\r\033[KGrouping %s files...", p.Category)
	}
}

func (r *progressRenderer) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		fmt.Fprint(r.out, "\r\033[K")
		r.active = false
	}
}
