// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/config"
)

var rootOptions struct {
	configFile string
	logLevel   string
	dbPath     string
}

// cfg is loaded once per invocation by the root PersistentPreRunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "khampha",
	Short: "tìm điểm tham quan ở Việt Nam",
	Long: `
khampha tìm các điểm tham quan quanh một tỉnh, thành phố hay địa danh ở Việt
Nam, dựa trên dữ liệu OpenStreetMap (Nominatim và Overpass).
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		c, err := config.Load(rootOptions.configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			c.Log.Level = rootOptions.logLevel
		}

		if cmd.Flags().Changed("db-path") {
			c.Store.Path = rootOptions.dbPath
		}

		if err := config.InitLogger(c.Log); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		zap.RedirectStdLog(zap.L())

		cfg = c

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.configFile, "config", "", "config file (default ./khampha.yaml)")
	flags.StringVar(&rootOptions.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&rootOptions.dbPath, "db-path", "khampha.duckdb", "session history database")
}
