package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dedupe/internal/store"
)

func newSessionsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List past scan sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(s *store.Store) error {
				sessions, err := s.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No scan sessions recorded yet.")
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					name := session.Name
					if name == "" {
						name = "-"
					}
					rows = append(rows, []string{
						strconv.FormatInt(session.ID, 10),
						shortToken(session.Token),
						name,
						string(session.Status),
						formatTimestamp(session.CreatedAt),
						strconv.Itoa(session.FileCount),
						strconv.Itoa(session.GroupCount),
						formatSimilarity(session.Threshold),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Token", "Name", "Status", "Started", "Files", "Groups", "Threshold"},
					rows, 0, 5, 6, 7))
				return nil
			})
		},
	}
}
