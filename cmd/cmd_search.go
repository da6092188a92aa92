// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/weather"
)

const cliClient = "cli"

var searchOptions struct {
	more   int
	json   bool
	noSave bool
}

var stateLabels = map[discovery.State]string{
	discovery.StateResolving:            "Đang xác định địa điểm",
	discovery.StatePrimarySearch:        "Đang tìm quanh địa điểm",
	discovery.StateSubLocationExpansion: "Đang mở rộng tìm kiếm",
	discovery.StateFeatureQueryFallback: "Đang truy vấn OpenStreetMap",
}

// progressObserver shows a spinner on stderr following the search tiers.
// It returns a nil observer when disabled or when stderr is not a terminal.
func progressObserver(enabled bool) (discovery.Observer, func()) {
	if !enabled || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(stateLabels[discovery.StateResolving]),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	observer := func(e discovery.Event) {
		if label, ok := stateLabels[e.State]; ok {
			bar.Describe(fmt.Sprintf("%s (%d)", label, e.Admitted))
		}

		_ = bar.Add(1)
	}

	return observer, func() { _ = bar.Finish() }
}

type searchOutput struct {
	*discovery.Result
	Weather *weather.Conditions     `json:"weather,omitempty"`
	More    []*discovery.MoreResult `json:"more,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search [place]",
	Short: "Tìm điểm tham quan quanh một địa điểm",
	Long: `Tìm điểm tham quan quanh một tỉnh, thành phố hay địa danh. Không có tham
số thì in ra các thành phố gợi ý.

$ khampha search "Hội An" --more 1
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			_, _ = fmt.Fprintln(out, "Gợi ý: "+strings.Join(discovery.HighlightedCities, ", "))

			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var opts []discovery.Option

		observer, done := progressObserver(!searchOptions.json)
		if observer != nil {
			opts = append(opts, discovery.WithObserver(observer))
		}

		a, err := newApp(ctx, cfg, !searchOptions.noSave, opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.orchestrator.Search(ctx, args[0])
		done()

		if err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), discovery.UserMessage(err))

			return fmt.Errorf("searching %q: %w", args[0], err)
		}

		if a.repo != nil {
			if err := a.repo.SaveSession(ctx, cliClient, res); err != nil {
				zap.L().Warn("session not saved", zap.Error(err))
			}
		}

		output := searchOutput{Result: res, Weather: currentWeather(ctx, a.weather, res, args[0])}

		if !searchOptions.json {
			_, _ = fmt.Fprintf(out, "%s\n%s\n\n", res.Context.Place.DisplayName, res.Message)
			formatPOIs(out, res.Center, res.POIs, 0)

			if output.Weather != nil {
				_, _ = fmt.Fprintln(out)
				formatWeather(out, output.Weather)
			}
		}

		for range searchOptions.more {
			shown := res.Context.Total()

			more, err := a.more.LoadMore(ctx, res.Context)
			if err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), discovery.UserMessage(err))

				return fmt.Errorf("loading more: %w", err)
			}

			if a.repo != nil {
				if err := a.repo.AppendPOIs(ctx, res.Context, more); err != nil {
					zap.L().Warn("load more not saved", zap.Error(err))
				}
			}

			output.More = append(output.More, more)

			if !searchOptions.json {
				_, _ = fmt.Fprintf(out, "\n%s\n", more.Message)
				if len(more.POIs) > 0 {
					formatPOIs(out, res.Center, more.POIs, shown)
				}
			}

			if more.Status == discovery.StatusExhausted {
				break
			}
		}

		if searchOptions.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			return enc.Encode(output)
		}

		return nil
	},
}

func currentWeather(ctx context.Context, wx *weather.Client, res *discovery.Result, name string) *weather.Conditions {
	if !wx.Enabled() {
		return nil
	}

	c, err := wx.Current(ctx, res.Center, name)
	if err != nil {
		zap.L().Warn("weather lookup failed", zap.Error(err))

		return nil
	}

	return c
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchOptions.more, "more", 0, "number of load more rounds after the search")
	searchCmd.Flags().BoolVar(&searchOptions.json, "json", false, "print the result as JSON")
	searchCmd.Flags().BoolVar(&searchOptions.noSave, "no-save", false, "do not record the session in the history database")
}
