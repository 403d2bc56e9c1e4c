package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"restream/internal/history"
	"restream/internal/relay"
)

var errHistoryDisabled = errors.New("run history is disabled; set history.enabled = true in the config file")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded relay runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cfg, _ := ctx.ensureConfig()
			if limit <= 0 {
				limit = cfg.History.Limit
			}
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No relay runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Duration", "Reason", "Exit", "Delivered", "Source", "Destination"},
				historyRows(runs, time.Now()),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of runs to show (default history.limit)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			deleted, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s)\n", deleted)
			return nil
		},
	})
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	return history.Open(cfg.History.Path)
}

func historyRows(runs []history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		exit := strconv.Itoa(run.ExitCode)
		if run.ExitCode == relay.ExitCodeUnknown {
			exit = "?"
		}
		rows = append(rows, []string{
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Duration().Round(time.Second).String(),
			reasonLabel(run.Reason),
			exit,
			humanize.IBytes(uint64(run.Bytes)),
			run.SourceURL,
			run.Destination,
		})
	}
	return rows
}

// reasonLabel renders a reason for display, e.g. "Broken Pipe".
func reasonLabel(reason relay.Reason) string {
	return cases.Title(language.English).String(strings.ReplaceAll(reason.String(), "-", " "))
}
