package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/export"
	"github.com/xkilldash9x/tinderscope/internal/interact"
	"github.com/xkilldash9x/tinderscope/internal/orchestrator"
)

type swipeOptions struct {
	action  string
	limit   int
	output  string
	persist bool
	rate    float64
	headful bool
}

func newSwipeCmd(a *app) *cobra.Command {
	opts := swipeOptions{action: "none", limit: 1}
	cmd := &cobra.Command{
		Use:   "swipe",
		Short: "Extract profiles one after another, acting on each",
		Long: `Extracts up to --limit profiles. After each extraction the chosen action
(like, nope, superlike) advances the stack; "none" only extracts the current profile.
Every extracted row is written to a table CSV. Actions are paced by
interaction.rate_per_minute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			action, err := parseAction(opts.action)
			if err != nil {
				return err
			}
			if opts.limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			if cmd.Flags().Changed("rate") {
				a.cfg.SetInteractionRatePerMinute(opts.rate)
			}
			if cmd.Flags().Changed("headful") {
				a.cfg.SetBrowserHeadless(!opts.headful)
			}

			ctx := cmd.Context()
			runID := uuid.NewString()
			logger := a.logger.With(zap.String("run_id", runID))

			path := opts.output
			if path == "" {
				path = fmt.Sprintf("tinder_swipe_%s.csv", time.Now().Format("20060102_150405"))
			}
			w, err := export.New(export.FormatTable, path)
			if err != nil {
				return err
			}
			defer logClose(logger, "table output", w.Close)

			orchOpts := []orchestrator.Option{orchestrator.WithSink(exportSink{w: w})}
			if opts.persist {
				st, closeDB, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeDB()
				orchOpts = append(orchOpts, orchestrator.WithSink(st), orchestrator.WithRecorder(st))
			}

			live, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer live.Close()

			var actor orchestrator.Actor
			if action != orchestrator.ActionNone {
				actor = interact.NewController(live.page, interactConfig(a.cfg), a.logger)
			}
			orch, err := a.newOrchestrator(live.page, actor, orchOpts...)
			if err != nil {
				return err
			}

			sum, err := orch.Run(ctx, runID, opts.limit, action)
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d, failed %d, acted %d. Rows written to %s\n",
				sum.Extracted, sum.Failed, sum.Acted, path)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.action, "action", "a", opts.action, "action after each profile: like, nope, superlike or none")
	f.IntVarP(&opts.limit, "limit", "n", opts.limit, "maximum number of profiles")
	f.StringVarP(&opts.output, "output", "o", "", "table CSV path, - for stdout")
	f.BoolVar(&opts.persist, "persist", false, "store profiles and actions in Postgres")
	f.Float64Var(&opts.rate, "rate", 0, "actions per minute, 0 disables pacing")
	f.BoolVar(&opts.headful, "headful", false, "show the browser window")
	return cmd
}
