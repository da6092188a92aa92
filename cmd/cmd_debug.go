// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/khampha-vn/khampha/discovery"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Geocode place names and print how they are classified",
	Long: `Reads one place name per line, geocodes it and prints the classification
of the first result.

$ echo "Quảng Nam" | khampha debug classify
Quảng Nam	{"place_id":…,"level":"province","region":"Quảng Nam",…}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Nhập tên địa điểm, mỗi dòng một tên…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			name := strings.TrimSpace(scanner.Text())
			if name == "" {
				continue
			}

			places, err := a.geocoder.Geocode(cmd.Context(), name, 1)
			if err != nil {
				fmt.Fprintf(out, "%s\t%q\n", name, err)

				continue
			}

			if len(places) == 0 {
				fmt.Fprintf(out, "%s\t%q\n", name, discovery.MsgNotFound)

				continue
			}

			resolved, err := discovery.Resolve(places[0])
			if err != nil {
				fmt.Fprintf(out, "%s\t%q\n", name, discovery.UserMessage(err))

				continue
			}

			s, err := json.Marshal(resolved)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s\t%s\n", name, s)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugClassifyCmd)
}
