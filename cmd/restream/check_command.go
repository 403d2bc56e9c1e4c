package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"restream/internal/deps"
	"restream/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [destination-url]",
		Short: "Report external dependencies and relay readiness",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			destination := os.Getenv(destinationEnv)
			if len(args) == 1 {
				destination = args[0]
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Available", "Required", "Version", "Detail"},
				dependencyRows(statuses, colorize),
				nil,
			))

			results := preflight.RunAll(cmd.Context(), cfg, strings.TrimSpace(destination))
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, colorStatus(yesNo(r.Passed), r.Passed, colorize), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))

			var missing []string
			for _, s := range statuses {
				if !s.Available && !s.Optional {
					missing = append(missing, s.Name)
				}
			}
			for _, r := range results {
				if !r.Passed {
					missing = append(missing, r.Name)
				}
			}
			if len(missing) > 0 {
				return errors.New("not ready: " + strings.Join(missing, ", "))
			}
			fmt.Fprintln(out, "Ready to relay")
			return nil
		},
	}
}

func dependencyRows(statuses []deps.Status, colorize bool) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Detail
		if detail == "" {
			detail = s.Command
		}
		rows = append(rows, []string{
			s.Name,
			colorStatus(yesNo(s.Available), s.Available || s.Optional, colorize),
			yesNo(!s.Optional),
			s.Version,
			detail,
		})
	}
	return rows
}
