package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"dedupe/internal/organizer"
)

func newSortCommand(cmdCtx *commandContext) *cobra.Command {
	var targetDir string

	cmd := &cobra.Command{
		Use:   "sort <directory> [directory...]",
		Short: "Sort directories' files into category folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := make([]string, 0, len(args))
			for _, arg := range args {
				source, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				info, err := os.Stat(source)
				if err != nil {
					return fmt.Errorf("stat %s: %w", source, err)
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", source)
				}
				sources = append(sources, source)
			}

			var dest string
			if targetDir != "" {
				abs, err := filepath.Abs(targetDir)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", targetDir, err)
				}
				dest = abs
			}

			out := cmd.OutOrStdout()
			tty := isTerminal(out)
			org := organizer.New(cmdCtx.ensureLogger())

			total := organizer.Stats{ByCategory: make(map[string]int)}
			for _, source := range sources {
				target := source
				if dest != "" {
					target = dest
				}
				stats, err := org.Sort(cmd.Context(), source, target, func(p organizer.Progress) {
					if tty {
						fmt.Fprintf(out, "\r\033[KSorting... %d/%d %s", p.Processed, p.Total, p.Current)
					}
				})
				if tty {
					fmt.Fprint(out, "\r\033[K")
				}
				if err != nil {
					return err
				}
				total.Moved += stats.Moved
				total.Failed += stats.Failed
				for folder, count := range stats.ByCategory {
					total.ByCategory[folder] += count
				}
			}

			fmt.Fprintf(out, "Moved %d file(s)", total.Moved)
			if total.Failed > 0 {
				fmt.Fprintf(out, ", %d failed", total.Failed)
			}
			fmt.Fprintln(out, ".")

			folders := make([]string, 0, len(total.ByCategory))
			for folder := range total.ByCategory {
				folders = append(folders, folder)
			}
			sort.Strings(folders)
			for _, folder := range folders {
				fmt.Fprintf(out, "  %s: %d\n", folder, total.ByCategory[folder])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targetDir, "dest", "", "Destination directory (defaults to each source directory)")
	return cmd
}
