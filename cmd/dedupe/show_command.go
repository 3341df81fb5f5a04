package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dedupe/internal/store"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id|token>",
		Short: "Show the duplicate groups of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(s *store.Store) error {
				session, err := resolveSession(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %d (%s)\n", session.ID, session.Token)
				if session.Name != "" {
					fmt.Fprintf(out, "  name: %s\n", session.Name)
				}
				fmt.Fprintf(out, "  status: %s   started: %s   files: %d   groups: %d\n",
					session.Status, formatTimestamp(session.CreatedAt), session.FileCount, session.GroupCount)
				if session.FileTypes != "" {
					fmt.Fprintf(out, "  types: %s\n", session.FileTypes)
				}
				if session.ErrorMessage != "" {
					fmt.Fprintf(out, "  error: %s\n", session.ErrorMessage)
				}

				paths, err := s.ScannedPaths(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				for _, path := range paths {
					mode := "recursive"
					if !path.IncludeSubdirs {
						mode = "top level only"
					}
					fmt.Fprintf(out, "  root: %s (%s)\n", path.Path, mode)
				}

				groups, err := s.GroupsBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Fprintln(out, "\nNo duplicate groups in this session.")
					return nil
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderGroupTable(groups))
				return nil
			})
		},
	}
}

// resolveSession accepts either a numeric session ID or a token
// (full or unambiguous prefix).
func resolveSession(ctx context.Context, s *store.Store, ref string) (*store.Session, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		session, err := s.SessionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, fmt.Errorf("no session with id %d", id)
		}
		return session, nil
	}

	if session, err := s.SessionByToken(ctx, ref); err != nil {
		return nil, err
	} else if session != nil {
		return session, nil
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	var match *store.Session
	for _, session := range sessions {
		if len(ref) >= 4 && len(ref) <= len(session.Token) && session.Token[:len(ref)] == ref {
			if match != nil {
				return nil, fmt.Errorf("token prefix %q is ambiguous", ref)
			}
			match = session
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session matching %q", ref)
	}
	return match, nil
}

func renderGroupTable(groups []*store.Group) string {
	var rows [][]string
	for i, group := range groups {
		for j, file := range group.Files {
			label, cat, similarity := "", "", ""
			if j == 0 {
				label = strconv.Itoa(i + 1)
				cat = group.Category
				similarity = formatSimilarity(group.Similarity)
			}
			rows = append(rows, []string{
				label,
				cat,
				similarity,
				file.Path,
				formatBytes(file.SizeBytes),
				formatTimestamp(file.ModifiedAt),
			})
		}
	}
	return renderTable(
		[]string{"Group", "Category", "Similarity", "Path", "Size", "Modified"},
		rows, 0, 2, 4)
}
