package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"livescribe/internal/journal"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded transcription sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open session journal: %w", err)
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}

			headers := []string{"ID", "Channel", "Room", "Started", "Duration", "Sentences", "Transcript"}
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					strconv.FormatInt(session.ID, 10),
					session.Channel,
					strconv.FormatInt(session.RoomID, 10),
					session.StartedAt.Local().Format("2006-01-02 15:04"),
					formatSessionDuration(session),
					strconv.FormatInt(session.Sentences, 10),
					session.TranscriptPath,
				})
			}
			aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many sessions")
	return cmd
}

func formatSessionDuration(session *journal.Session) string {
	if session.Active() {
		return "live"
	}
	d := session.EndedAt.Sub(session.StartedAt).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
