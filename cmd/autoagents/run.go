// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jllopis/autoagents/pkg/config"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

type runOptions struct {
	idea       string
	rounds     int
	investment float64
	mock       bool
	proxy      string
	taskID     string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run --idea <text>",
		Short: "Run a project from an idea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithOverrides(root.configPath, root.profile, root.sets)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rounds") {
				o.rounds = cfg.Run.Rounds
			}
			if !cmd.Flags().Changed("investment") {
				o.investment = cfg.Cost.Budget
			}
			return runProject(cmd.Context(), cfg, o, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&o.idea, "idea", "", "the task to work on")
	cmd.Flags().IntVar(&o.rounds, "rounds", 3, "scheduler rounds before catch-up")
	cmd.Flags().Float64Var(&o.investment, "investment", 10, "budget ceiling in USD")
	cmd.Flags().BoolVar(&o.mock, "mock", false, "answer every prompt with canned output (no network)")
	cmd.Flags().StringVar(&o.proxy, "proxy", "", "proxy for the OpenAI client, e.g. http://127.0.0.1:7890")
	cmd.Flags().StringVar(&o.taskID, "task-id", "", "task id stamped on transcript records (default: random)")
	_ = cmd.MarkFlagRequired("idea")
	return cmd
}

func runProject(ctx context.Context, cfg *config.Config, o *runOptions, out, logOut io.Writer) error {
	if o.rounds <= 0 {
		return errors.New(errors.CodeInvalidInput, "rounds must be positive", nil).WithContext("rounds", o.rounds)
	}
	telemetry.ConfigureSlog(logOut, cfg.Log.Level, cfg.Log.Format)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Exporter != "" && cfg.Telemetry.Exporter != "none" {
		shutdown, err := telemetry.InitWithConfig("autoagents", version, telemetry.Config{
			Exporter:           cfg.Telemetry.Exporter,
			OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
			OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
		})
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
		if metrics, err = telemetry.NewMetrics(); err != nil {
			return err
		}
	}

	a, err := wireApp(ctx, cfg, metrics, wireOptions{
		taskID: o.taskID,
		mock:   o.mock,
		proxy:  o.proxy,
		out:    out,
	})
	if err != nil {
		return err
	}
	defer a.close()

	x := a.explorer
	if err := x.Invest(decimal.NewFromFloat(o.investment)); err != nil {
		return err
	}
	if err := x.StartProject(ctx, o.idea); err != nil {
		return err
	}
	runErr := x.Run(ctx, o.rounds)
	a.flush()

	printSummary(ctx, out, a, runErr)
	return runErr
}

func printSummary(ctx context.Context, w io.Writer, a *app, runErr error) {
	env := a.explorer.Environment()
	s := a.explorer.CostSummary()
	status := "done"
	if runErr != nil {
		status = "failed"
	}
	fmt.Fprintf(w, "\nTask %s %s\n", env.TaskID(), status)
	fmt.Fprintf(w, "  roles:    %d\n", len(env.Roles()))
	fmt.Fprintf(w, "  steps:    %d\n", len(env.Steps()))
	fmt.Fprintf(w, "  messages: %d\n", env.Memory().Len())
	fmt.Fprintf(w, "  completions: %d (%d prompt / %d completion tokens)\n", s.Calls, s.PromptTokens, s.CompletionTokens)
	fmt.Fprintf(w, "  total cost: $%s of $%s budget\n", s.Total.StringFixed(4), s.Budget.StringFixed(2))
	if a.transcript != nil {
		records, err := a.transcript.List(ctx, env.TaskID(), 0)
		if err == nil {
			fmt.Fprintf(w, "  transcript: %d records\n", len(records))
		}
	}
}
