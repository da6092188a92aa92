// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/store"
)

var historyOptions struct {
	limit  int
	near   string
	client string
	json   bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded search sessions",
	Long: `List recorded search sessions, newest first.

$ khampha history --near 16.05,108.2 --limit 5
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := store.ListOptions{Limit: historyOptions.limit, Client: historyOptions.client}

		if historyOptions.near != "" {
			p, err := spatial.ParsePoint(historyOptions.near)
			if err != nil {
				return fmt.Errorf("parsing --near: %w", err)
			}

			opts.Near = &p
		}

		repo, db, err := openStore(cmd.Context(), cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := repo.ListSessions(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if historyOptions.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(sessions)
		}

		formatSessions(cmd.OutOrStdout(), sessions)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyOptions.limit, "limit", 20, "maximum number of sessions")
	historyCmd.Flags().StringVar(&historyOptions.near, "near", "", "only sessions around lat,lon")
	historyCmd.Flags().StringVar(&historyOptions.client, "client", "", "only sessions of this client")
	historyCmd.Flags().BoolVar(&historyOptions.json, "json", false, "print JSON")
}
