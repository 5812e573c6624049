package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lecturesync/internal/deps"
	"lecturesync/internal/preflight"
	"lecturesync/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check media tools and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := preflight.CheckSystemDeps(cfg)
			for _, status := range statuses {
				fmt.Fprintln(out, renderStatusLine(status.Name, dependencyKind(status), describeDependency(cmd, status), colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(out, line)
			}
			checks := preflight.RunAll(cfg)
			for _, check := range checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}

			var problems []string
			for _, missing := range deps.MissingRequired(statuses) {
				problems = append(problems, fmt.Sprintf("%s (%s)", missing.Name, missing.Command))
			}
			for _, failed := range preflight.Failures(checks) {
				problems = append(problems, failed.Name)
			}
			if len(problems) > 0 {
				return services.Wrap(services.ErrConfiguration, "", "check dependencies", "unavailable: "+strings.Join(problems, ", "), nil)
			}
			return nil
		},
	}
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available:
		return statusOK
	case status.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func describeDependency(cmd *cobra.Command, status deps.Status) string {
	if !status.Available {
		return status.Detail
	}
	detail := status.Path
	if version := preflight.ToolVersion(cmd.Context(), status.Path); version != "" {
		detail = fmt.Sprintf("%s (%s)", detail, version)
	}
	return detail
}
