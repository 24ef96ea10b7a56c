// cmd/probe.go
package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/testlab/internal/browser"
	"github.com/xkilldash9x/testlab/internal/pageobject"
)

func newProbeCmd(a *app) *cobra.Command {
	var opts queryOptions
	var parallel int

	cmd := &cobra.Command{
		Use:   "probe <url>...",
		Short: "Open URLs in Chrome and report what a locator matches",
		Long: `probe opens every URL in its own browser session, resolves the
locator and prints the matches' texts, or the table it points at.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, urls []string) error {
			if _, err := opts.locator(); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := a.logger().Named("probe")
			sink, err := newSink(a.cfg.Report(), logger)
			if err != nil {
				return err
			}

			// Sessions are single-owner, so each URL gets its own provider.
			outputs := make([]bytes.Buffer, len(urls))
			g, gctx := errgroup.WithContext(ctx)
			if parallel > 0 {
				g.SetLimit(parallel)
			}
			for i, url := range urls {
				i, url := i, url
				g.Go(func() error {
					provider := browser.NewProvider(a.cfg, logger.With(zap.String("url", url)))
					defer func() {
						// gctx is canceled once any URL fails; closing must still run.
						if err := provider.Close(browser.Detach(gctx)); err != nil {
							logger.Warn("Failed to close browser.", zap.Error(err))
						}
					}()

					page, err := pageobject.OpenPage(gctx, provider,
						pageobject.WithURL(url),
						pageobject.WithTimeouts(pageobject.TimeoutsFromConfig(a.cfg.Waits())),
						pageobject.WithSink(sink),
						pageobject.WithLogger(logger),
					)
					if err != nil {
						return err
					}
					if err := page.Open(gctx); err != nil {
						return err
					}
					fmt.Fprintf(&outputs[i], "== %s\n", url)
					if err := runQuery(gctx, page, opts, a.cfg.Report().Screenshots, &outputs[i]); err != nil {
						return fmt.Errorf("%s: %w", url, err)
					}
					return nil
				})
			}
			err = g.Wait()

			out := cmd.OutOrStdout()
			for i := range outputs {
				if _, werr := outputs[i].WriteTo(out); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&parallel, "parallel", 0, "maximum concurrent browser sessions (0 means one per URL)")
	return cmd
}
