// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	profile    string
	sets       []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "autoagents",
		Short:         "Run a self-organising team of LLM agents on a task",
		Long:          "autoagents drafts a team of expert roles and an execution plan for an idea, then runs the plan through message-passing rounds.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "config profile (loads <config>.<profile>.yaml)")
	rootCmd.PersistentFlags().StringArrayVar(&opts.sets, "set", nil, "override a config key (key=value), repeatable")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "autoagents %s\n", version)
			return err
		},
	}
}
