package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/export"
)

type scrapeOptions struct {
	format     string
	output     string
	persist    bool
	noOpen     bool
	exhaustive bool
	headful    bool
}

func newScrapeCmd(a *app) *cobra.Command {
	var opts scrapeOptions
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract the profile currently on screen",
		Long: `Launches the browser, logs in with the saved cookie and local storage files,
extracts the profile at the top of the stack and writes it as JSON or CSV.
Without --output the file is named after the profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyScrapeFlags(cmd, opts)
			ctx := cmd.Context()
			runID := uuid.NewString()
			logger := a.logger.With(zap.String("run_id", runID))

			live, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer live.Close()

			orch, err := a.newOrchestrator(live.page, nil)
			if err != nil {
				return err
			}
			p, err := orch.ScrapeCurrent(ctx)
			if err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}

			if opts.persist {
				st, closeDB, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeDB()
				if err := st.SaveProfile(ctx, runID, p); err != nil {
					return err
				}
			}

			format := a.cfg.Output().Format
			path := a.cfg.Output().Path
			if path == "" {
				path = export.DefaultFilename(p, format, time.Now())
			}
			w, err := export.New(format, path)
			if err != nil {
				return err
			}
			if err := w.Write(p); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to finish output: %w", err)
			}

			logger.Info("Profile saved.", zap.String("name", p.Name), zap.String("path", path))
			if path != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", p.Name, path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "", "output format: json, csv or table")
	f.StringVarP(&opts.output, "output", "o", "", "output file, - for stdout")
	f.BoolVar(&opts.persist, "persist", false, "also store the profile in Postgres")
	f.BoolVar(&opts.noOpen, "no-open", false, "extract from the card without opening the profile")
	f.BoolVar(&opts.exhaustive, "all-images", false, "collect images from every source instead of the first productive one")
	f.BoolVar(&opts.headful, "headful", false, "show the browser window")
	return cmd
}

// applyScrapeFlags copies explicitly set flags over the loaded configuration.
func (a *app) applyScrapeFlags(cmd *cobra.Command, opts scrapeOptions) {
	f := cmd.Flags()
	if f.Changed("format") {
		a.cfg.SetOutputFormat(opts.format)
	}
	if f.Changed("output") {
		a.cfg.SetOutputPath(opts.output)
	}
	if f.Changed("no-open") {
		a.cfg.ExtractionCfg.OpenProfile = !opts.noOpen
	}
	if f.Changed("all-images") {
		a.cfg.SetExtractionExhaustiveImages(opts.exhaustive)
	}
	if f.Changed("headful") {
		a.cfg.SetBrowserHeadless(!opts.headful)
	}
}
