package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dedupe/internal/store"
)

func newExportCommand(cmdCtx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <session-id|token>",
		Short: "Export a session's duplicate groups as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(s *store.Store) error {
				session, err := resolveSession(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				groups, err := s.GroupsBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}

				var out io.Writer = cmd.OutOrStdout()
				if outputPath != "" {
					file, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("create %s: %w", outputPath, err)
					}
					defer file.Close()
					out = file
				}

				if err := writeGroupsCSV(out, groups); err != nil {
					return err
				}
				if outputPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d group(s) to %s\n", len(groups), outputPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}

func writeGroupsCSV(out io.Writer, groups []*store.Group) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"group_id", "category", "similarity", "file_path", "file_size_bytes", "modified_time"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, group := range groups {
		for _, file := range group.Files {
			modified := ""
			if !file.ModifiedAt.IsZero() {
				modified = file.ModifiedAt.UTC().Format(time.RFC3339)
			}
			record := []string{
				strconv.Itoa(i + 1),
				group.Category,
				strconv.FormatFloat(group.Similarity, 'f', 4, 64),
				file.Path,
				strconv.FormatInt(file.SizeBytes, 10),
				modified,
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}
